package httpapi

import (
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/mmgoodnow/disco-snails/internal/models"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <title>Discord Thread Summaries</title>
    <style>
      body {
        font-family: system-ui, -apple-system, BlinkMacSystemFont, "Segoe UI",
          sans-serif;
        margin: 0;
        background: #f8fafc;
        color: #0f172a;
        line-height: 1.5;
      }
      .content {
        max-width: 960px;
        margin: 0 auto;
        padding: 2rem;
      }
      h1 {
        font-size: 1.8rem;
        margin-bottom: 1.5rem;
      }
      details {
        border: 1px solid #cbd5f5;
        border-radius: 0.5rem;
        margin-bottom: 1rem;
        background: #ffffff;
        overflow: hidden;
      }
      summary {
        cursor: pointer;
        display: flex;
        justify-content: space-between;
        align-items: center;
        font-weight: 600;
        padding: 0.75rem 1rem;
      }
      summary::-webkit-details-marker {
        display: none;
      }
      .thread-title {
        margin-right: 1rem;
      }
      .timestamp {
        font-size: 0.85rem;
        color: #475569;
      }
      section {
        padding: 0 1rem 1rem;
        margin-top: 0.25rem;
      }
      h3 {
        margin: 1rem 0 0.5rem;
        font-size: 1rem;
        color: #0f172a;
      }
      ul {
        padding-left: 1.25rem;
        margin: 0.25rem 0 0.75rem;
      }
      li {
        margin-bottom: 0.4rem;
      }
      .message {
        border: 1px solid #cbd5f5;
        border-radius: 0.5rem;
        padding: 0.5rem 0.75rem;
        margin-bottom: 0.5rem;
        background: #e2e8f0;
      }
      .message header {
        font-weight: 600;
        margin-bottom: 0.25rem;
      }
      pre {
        font-family: inherit;
        white-space: pre-wrap;
        word-break: break-word;
        margin: 0;
      }
      @media (prefers-color-scheme: dark) {
        body {
          background: #0f172a;
          color: #e2e8f0;
        }
        details {
          border-color: #334155;
          background: #1e293b;
        }
        .timestamp {
          color: #94a3b8;
        }
        .message {
          border-color: #334155;
          background: #0f172a;
        }
        h3 {
          color: #e2e8f0;
        }
      }
    </style>
  </head>
  <body>
    <main class="content">
      <h1>Discord Thread Summaries</h1>
      {{if not .Threads}}<p>No thread summaries stored yet.</p>{{end}}
      {{range .Threads}}
      <details>
        <summary>
          <span class="thread-title">{{.Name}}</span>
          <span class="timestamp">{{.LastUpdated}}</span>
        </summary>
        <section>
          <h3>AI Summary</h3>
          {{.Summary}}
          <h3>Transcript</h3>
          {{if not .Transcript}}<p>No transcript captured.</p>{{end}}
          {{range .Transcript}}
          <article class="message">
            <header>{{.User}}</header>
            <pre>{{.Content}}</pre>
          </article>
          {{end}}
        </section>
      </details>
      {{end}}
    </main>
  </body>
</html>
`))

type pageThread struct {
	Name        string
	LastUpdated string
	// Summary is model output already formatted as HTML fragments and is
	// rendered unescaped.
	Summary    template.HTML
	Transcript []models.TranscriptMessage
}

type pageData struct {
	Threads []pageThread
}

func renderPage(w io.Writer, records []models.ThreadRecord) error {
	data := pageData{Threads: make([]pageThread, 0, len(records))}
	for _, rec := range records {
		data.Threads = append(data.Threads, pageThread{
			Name:        rec.Name,
			LastUpdated: time.UnixMilli(rec.LastMessageTimestamp).UTC().Format("2006-01-02T15:04:05.000Z"),
			Summary:     template.HTML(summaryHTML(rec.Summary)),
			Transcript:  rec.Transcript,
		})
	}
	return pageTemplate.Execute(w, data)
}

func summaryHTML(summary string) string {
	trimmed := strings.TrimSpace(summary)
	if trimmed == "" {
		return "<p>No AI summary available.</p>"
	}
	return trimmed
}
