package httpapi

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmgoodnow/disco-snails/internal/models"
)

// jsonFeed is a JSON Feed version 1 document.
// https://jsonfeed.org/version/1
type jsonFeed struct {
	Version     string         `json:"version"`
	Title       string         `json:"title"`
	HomePageURL string         `json:"home_page_url"`
	FeedURL     string         `json:"feed_url"`
	Items       []jsonFeedItem `json:"items"`
}

type jsonFeedItem struct {
	ID            string                     `json:"id"`
	Title         string                     `json:"title"`
	URL           string                     `json:"url"`
	Summary       string                     `json:"summary"`
	ContentHTML   string                     `json:"content_html"`
	DatePublished string                     `json:"date_published"`
	DateModified  string                     `json:"date_modified"`
	Transcript    []models.TranscriptMessage `json:"transcript"`
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// stripHTML reduces an HTML fragment to plain text for the item summary.
func stripHTML(input string) string {
	withoutTags := tagPattern.ReplaceAllString(input, " ")
	return strings.Join(strings.Fields(withoutTags), " ")
}

func transcriptHTML(transcript []models.TranscriptMessage) string {
	if len(transcript) == 0 {
		return "<p>No transcript captured.</p>"
	}
	var sb strings.Builder
	sb.WriteString("<h4>Messages</h4><ul>")
	for _, entry := range transcript {
		sb.WriteString("<li><strong>")
		sb.WriteString(html.EscapeString(entry.User))
		sb.WriteString(":</strong> ")
		sb.WriteString(html.EscapeString(entry.Content))
		sb.WriteString("</li>")
	}
	sb.WriteString("</ul>")
	return sb.String()
}

func buildJSONFeed(records []models.ThreadRecord, origin, apikey string) jsonFeed {
	feedURL := origin + "/feed.json"
	if apikey != "" {
		feedURL += "?apikey=" + url.QueryEscape(apikey)
	}

	feed := jsonFeed{
		Version:     "https://jsonfeed.org/version/1",
		Title:       "Discord Thread Summaries",
		HomePageURL: origin,
		FeedURL:     feedURL,
		Items:       make([]jsonFeedItem, 0, len(records)),
	}
	for _, rec := range records {
		itemParams := url.Values{"thread": {rec.ID}}
		if apikey != "" {
			itemParams.Set("apikey", apikey)
		}

		summaryMarkup := strings.TrimSpace(rec.Summary)
		summaryText := stripHTML(summaryMarkup)
		if summaryText == "" {
			summaryText = "No AI summary available."
		}
		if summaryMarkup == "" {
			summaryMarkup = "<p>No AI summary available.</p>"
		}

		transcript := rec.Transcript
		if transcript == nil {
			transcript = []models.TranscriptMessage{}
		}

		feed.Items = append(feed.Items, jsonFeedItem{
			ID:            rec.ID,
			Title:         rec.Name,
			URL:           fmt.Sprintf("%s/?%s", origin, itemParams.Encode()),
			Summary:       summaryText,
			ContentHTML:   summaryMarkup + transcriptHTML(transcript),
			DatePublished: time.UnixMilli(rec.LastMessageTimestamp).UTC().Format(time.RFC3339),
			DateModified:  time.UnixMilli(rec.UpdatedAt).UTC().Format(time.RFC3339),
			Transcript:    transcript,
		})
	}
	return feed
}

func writeJSONFeed(w io.Writer, feed jsonFeed) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(feed)
}
