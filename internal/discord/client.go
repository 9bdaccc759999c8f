// Package discord talks to the Discord API: a REST client for thread
// and message retrieval, and a one-shot gateway login handshake.
package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL  = "https://discord.com/api/v10"
	maxPageSize     = 100
	defaultTimeout  = 15 * time.Second
	defaultRetries  = 3
	defaultBaseWait = 250 * time.Millisecond
	defaultMaxWait  = 5 * time.Second
)

// APIError is a non-2xx response from the Discord API, with the error
// code and message parsed from the body when present.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("discord api %d code=%d: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("discord api %d: %s", e.StatusCode, e.Message)
}

// Client is the long-lived handle for Discord REST calls. It is built
// once at startup and passed explicitly to everything that fetches.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(token),
		httpClient: httpClient,
		maxRetries: defaultRetries,
		baseDelay:  defaultBaseWait,
		maxDelay:   defaultMaxWait,
	}
}

// NewestMessage fetches the single most recent message in a thread.
// Returns nil for an empty thread.
func (c *Client) NewestMessage(ctx context.Context, threadID string) (*Message, error) {
	page, err := c.fetchMessages(ctx, threadID, "", 1)
	if err != nil {
		return nil, err
	}
	if len(page) == 0 {
		return nil, nil
	}
	return &page[0], nil
}

// MessagesBefore fetches a newest-first page of messages older than
// beforeID. An empty beforeID starts from the top of the thread. An
// empty result means the history is exhausted.
func (c *Client) MessagesBefore(ctx context.Context, threadID, beforeID string, limit int) ([]Message, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	return c.fetchMessages(ctx, threadID, beforeID, limit)
}

// ListPublicArchivedThreads returns up to limit of the forum channel's
// most recently archived public threads.
func (c *Client) ListPublicArchivedThreads(ctx context.Context, channelID string, limit int) ([]Thread, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := fmt.Sprintf("/channels/%s/threads/archived/public", url.PathEscape(channelID))
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out archivedThreadsResponse
	if err := c.doJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	if limit > 0 && len(out.Threads) > limit {
		out.Threads = out.Threads[:limit]
	}
	return out.Threads, nil
}

func (c *Client) fetchMessages(ctx context.Context, threadID, beforeID string, limit int) ([]Message, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if beforeID != "" {
		q.Set("before", beforeID)
	}
	path := fmt.Sprintf("/channels/%s/messages?%s", url.PathEscape(threadID), q.Encode())
	var out []Message
	if err := c.doJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, requestPath string, out any) error {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+requestPath, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bot "+c.token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt < c.maxRetries {
				if waitErr := waitWithContext(ctx, c.retryDelay(attempt+1, "")); waitErr != nil {
					return waitErr
				}
				continue
			}
			return err
		}
		payload, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return readErr
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			if out == nil || len(payload) == 0 {
				return nil
			}
			return json.Unmarshal(payload, out)
		}

		if (resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599)) && attempt < c.maxRetries {
			if waitErr := waitWithContext(ctx, c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return waitErr
			}
			continue
		}

		var errPayload struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(payload, &errPayload)
		message := errPayload.Message
		if message == "" {
			message = strings.TrimSpace(string(payload))
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       errPayload.Code,
			Message:    message,
		}
	}
}

func (c *Client) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	maxDelay := c.maxDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxWait
	}
	if retryAfter := parseRetryAfter(retryAfterHeader); retryAfter > 0 {
		if retryAfter > maxDelay {
			return maxDelay
		}
		return retryAfter
	}
	delay := c.baseDelay
	if delay <= 0 {
		delay = defaultBaseWait
	}
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxDelay {
			return maxDelay
		}
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

func parseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	// Discord sends fractional seconds on 429s.
	if seconds, err := strconv.ParseFloat(header, 64); err == nil && seconds >= 0 {
		return time.Duration(seconds * float64(time.Second))
	}
	if ts, err := time.Parse(time.RFC1123, header); err == nil {
		if delta := time.Until(ts); delta > 0 {
			return delta
		}
	}
	return 0
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
