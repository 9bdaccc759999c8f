// Package models holds the record types shared by the sync pipeline,
// the store backends, and the web surface.
package models

// TranscriptMessage is one captured message in a thread transcript.
type TranscriptMessage struct {
	User    string `json:"user"`
	Content string `json:"content"`
}

// ThreadRecord is the stored state for one forum thread, keyed by the
// thread's snowflake id. Transcript is chronological, oldest first.
type ThreadRecord struct {
	ID                   string              `json:"id"`
	Name                 string              `json:"name"`
	Transcript           []TranscriptMessage `json:"transcript"`
	Summary              string              `json:"summary"`
	LastMessageTimestamp int64               `json:"lastMessageTimestamp"`
	UpdatedAt            int64               `json:"updatedAt"`
}
