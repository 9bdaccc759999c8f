package discord

import "time"

// Author is the subset of a Discord user object the pipeline needs.
type Author struct {
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
}

// DisplayName prefers the global display name and falls back to the
// account username.
func (a Author) DisplayName() string {
	if a.GlobalName != "" {
		return a.GlobalName
	}
	return a.Username
}

// Message is one raw message as returned by the channel messages
// endpoint. Ids are snowflakes: unique and monotonically ordered, so
// they double as pagination cursors.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Author    Author    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}

// CreatedMillis returns the message creation time in epoch milliseconds.
func (m Message) CreatedMillis() int64 {
	return m.Timestamp.UnixMilli()
}

// Thread is one raw thread as returned by the archived threads listing.
type Thread struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type archivedThreadsResponse struct {
	Threads []Thread `json:"threads"`
	HasMore bool     `json:"has_more"`
}
