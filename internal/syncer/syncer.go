// Package syncer runs the incremental synchronization pipeline: it
// enumerates recently archived forum threads, fetches changed
// transcripts, dispatches summarization, and persists the results.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mmgoodnow/disco-snails/internal/discord"
	"github.com/mmgoodnow/disco-snails/internal/metrics"
	"github.com/mmgoodnow/disco-snails/internal/models"
	"github.com/mmgoodnow/disco-snails/internal/store"
)

const defaultPageSize = 100

// Source is the messaging platform the syncer reads from.
type Source interface {
	ListPublicArchivedThreads(ctx context.Context, channelID string, limit int) ([]discord.Thread, error)
	NewestMessage(ctx context.Context, threadID string) (*discord.Message, error)
	MessagesBefore(ctx context.Context, threadID, beforeID string, limit int) ([]discord.Message, error)
}

// Summarizer generates the summary for a changed thread.
type Summarizer interface {
	Summarize(ctx context.Context, title string, transcript []models.TranscriptMessage) (string, error)
	Backend() string
}

// Stats are the per-run totals.
type Stats struct {
	Processed int
	Skipped   int
	Failed    int
}

type Options struct {
	ChannelID   string
	Lookback    int
	MaxMessages int // 0 means unbounded
	PageSize    int
	Logger      zerolog.Logger
}

// Syncer coordinates one thread at a time: fetch, detect change,
// summarize, upsert. Runs are serialized by a run-level mutex so an
// overrunning cycle cannot race a newly scheduled one.
type Syncer struct {
	source      Source
	store       store.Store
	summarizer  Summarizer
	channelID   string
	lookback    int
	maxMessages int
	pageSize    int
	logger      zerolog.Logger

	mu sync.Mutex
}

func New(source Source, st store.Store, summarizer Summarizer, opts Options) (*Syncer, error) {
	if source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if summarizer == nil {
		return nil, fmt.Errorf("summarizer is required")
	}
	channelID := strings.TrimSpace(opts.ChannelID)
	if channelID == "" {
		return nil, fmt.Errorf("channel id is required")
	}
	lookback := opts.Lookback
	if lookback <= 0 {
		lookback = 2
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	maxMessages := opts.MaxMessages
	if maxMessages < 0 {
		maxMessages = 0
	}
	return &Syncer{
		source:      source,
		store:       st,
		summarizer:  summarizer,
		channelID:   channelID,
		lookback:    lookback,
		maxMessages: maxMessages,
		pageSize:    pageSize,
		logger:      opts.Logger,
	}, nil
}

// RunOnce performs one full sweep over the lookback window. Per-thread
// failures are logged and counted; only a failure to enumerate threads
// aborts the run.
func (s *Syncer) RunOnce(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.logger.With().Str("run_id", uuid.NewString()).Logger()
	stats := Stats{}

	threads, err := s.source.ListPublicArchivedThreads(ctx, s.channelID, s.lookback)
	if err != nil {
		metrics.SyncRuns.WithLabelValues("error").Inc()
		return stats, fmt.Errorf("list archived threads: %w", err)
	}
	logger.Debug().Int("threads", len(threads)).Msg("fetched archived threads")

	for _, thread := range threads {
		threadLogger := logger.With().Str("thread_id", thread.ID).Str("thread", thread.Name).Logger()

		existing, err := s.store.Get(ctx, thread.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			threadLogger.Error().Err(err).Msg("load stored record failed")
			stats.Failed++
			metrics.ThreadsFailed.Inc()
			continue
		}

		fetched, err := s.fetchTranscript(ctx, thread.ID, existing)
		if err != nil {
			threadLogger.Error().Err(err).Msg("fetch transcript failed")
			stats.Failed++
			metrics.ThreadsFailed.Inc()
			continue
		}
		if fetched == nil {
			threadLogger.Debug().Msg("skipping (no new messages)")
			stats.Skipped++
			metrics.ThreadsSkipped.Inc()
			continue
		}
		threadLogger.Debug().Int("messages", len(fetched.transcript)).Msg("fetched transcript")

		threadLogger.Info().Msg("summarizing")
		summary, err := s.summarizer.Summarize(ctx, thread.Name, fetched.transcript)
		metrics.SummaryRequests.WithLabelValues(s.summarizer.Backend()).Inc()
		if err != nil {
			threadLogger.Error().Err(err).Msg("summarization failed")
			stats.Failed++
			metrics.ThreadsFailed.Inc()
			continue
		}

		record := &models.ThreadRecord{
			ID:                   thread.ID,
			Name:                 thread.Name,
			Transcript:           fetched.transcript,
			Summary:              summary,
			LastMessageTimestamp: fetched.lastMessageTimestamp,
		}
		if err := s.store.Upsert(ctx, record); err != nil {
			threadLogger.Error().Err(err).Msg("persist failed")
			stats.Failed++
			metrics.ThreadsFailed.Inc()
			continue
		}
		stats.Processed++
		metrics.ThreadsProcessed.Inc()
	}

	logger.Info().
		Int("processed", stats.Processed).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Msg("sync run completed")
	metrics.SyncRuns.WithLabelValues("ok").Inc()
	return stats, nil
}

type fetchedTranscript struct {
	transcript           []models.TranscriptMessage
	lastMessageTimestamp int64
}

// fetchTranscript returns nil when the thread is empty or unchanged
// since the stored record. Change detection keys solely on the newest
// message's timestamp, so edits to older messages do not trigger a
// resync.
func (s *Syncer) fetchTranscript(ctx context.Context, threadID string, existing *models.ThreadRecord) (*fetchedTranscript, error) {
	newest, err := s.source.NewestMessage(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if newest == nil {
		return nil, nil
	}
	if existing != nil && existing.LastMessageTimestamp == newest.CreatedMillis() {
		return nil, nil
	}

	all := []discord.Message{*newest}
	before := newest.ID
	for s.maxMessages == 0 || len(all) < s.maxMessages {
		page, err := s.source.MessagesBefore(ctx, threadID, before, s.pageSize)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
		before = page[len(page)-1].ID
		if len(page) < s.pageSize {
			break
		}
	}
	// When capped, only the most recent maxMessages survive; all is
	// still newest-first here.
	if s.maxMessages > 0 && len(all) > s.maxMessages {
		all = all[:s.maxMessages]
	}

	transcript := make([]models.TranscriptMessage, len(all))
	for i, message := range all {
		transcript[len(all)-1-i] = models.TranscriptMessage{
			User:    message.Author.DisplayName(),
			Content: message.Content,
		}
	}
	return &fetchedTranscript{
		transcript:           transcript,
		lastMessageTimestamp: newest.CreatedMillis(),
	}, nil
}
