package discord

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestNewestMessageEmptyThread(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/channels/thread_1/messages" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("limit") != "1" {
			t.Fatalf("expected limit=1, got %q", r.URL.Query().Get("limit"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", server.Client())
	msg, err := client.NewestMessage(context.Background(), "thread_1")
	if err != nil {
		t.Fatalf("newest message failed: %v", err)
	}
	if msg != nil {
		t.Fatalf("expected nil message for empty thread, got %+v", msg)
	}
}

func TestNewestMessageParsesTimestampAndAuthor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"900","content":"hi","timestamp":"2024-05-01T12:00:00.000000+00:00","author":{"username":"zebra","global_name":"Zeb"}}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", server.Client())
	msg, err := client.NewestMessage(context.Background(), "thread_2")
	if err != nil {
		t.Fatalf("newest message failed: %v", err)
	}
	if msg == nil {
		t.Fatalf("expected a message")
	}
	if msg.Author.DisplayName() != "Zeb" {
		t.Fatalf("expected global name to win, got %q", msg.Author.DisplayName())
	}
	if msg.CreatedMillis() != 1714564800000 {
		t.Fatalf("unexpected created millis: %d", msg.CreatedMillis())
	}
}

func TestDisplayNameFallsBackToUsername(t *testing.T) {
	author := Author{Username: "zebra"}
	if author.DisplayName() != "zebra" {
		t.Fatalf("expected username fallback, got %q", author.DisplayName())
	}
}

func TestMessagesBeforeForwardsCursor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("before") != "500" {
			t.Fatalf("expected before=500, got %q", r.URL.Query().Get("before"))
		}
		if r.URL.Query().Get("limit") != "100" {
			t.Fatalf("expected limit=100, got %q", r.URL.Query().Get("limit"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"499","content":"older","timestamp":"2024-05-01T11:00:00+00:00","author":{"username":"a"}}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", server.Client())
	page, err := client.MessagesBefore(context.Background(), "thread_3", "500", 100)
	if err != nil {
		t.Fatalf("messages before failed: %v", err)
	}
	if len(page) != 1 || page[0].ID != "499" {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestClientRetriesRateLimit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message":"You are being rate limited.","retry_after":0.05}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", server.Client())
	if _, err := client.MessagesBefore(context.Background(), "thread_4", "", 100); err != nil {
		t.Fatalf("expected retry to recover from 429, got error: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected exactly 2 calls (1 retry), got %d", atomic.LoadInt32(&calls))
	}
}

func TestClientSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":50001,"message":"Missing Access"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", server.Client())
	_, err := client.ListPublicArchivedThreads(context.Background(), "forum_1", 2)
	if err == nil {
		t.Fatalf("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusForbidden || apiErr.Code != 50001 {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestListPublicArchivedThreads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/channels/forum_2/threads/archived/public" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("limit") != "2" {
			t.Fatalf("expected limit=2, got %q", r.URL.Query().Get("limit"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"threads":[{"id":"t1","name":"first"},{"id":"t2","name":"second"}],"has_more":false}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", server.Client())
	threads, err := client.ListPublicArchivedThreads(context.Background(), "forum_2", 2)
	if err != nil {
		t.Fatalf("list archived threads failed: %v", err)
	}
	if len(threads) != 2 || threads[0].ID != "t1" || threads[1].Name != "second" {
		t.Fatalf("unexpected threads: %+v", threads)
	}
}
