// Package live fans database change notifications out to per-user book list streams.
package live

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"booktracker/internal/model"
)

// EventType names a server-sent event.
type EventType string

const (
	EventSnapshot  EventType = "snapshot"
	EventHeartbeat EventType = "heartbeat"
)

// Event is one message on a book list stream.
type Event struct {
	Type      EventType    `json:"type"`
	Books     []model.Book `json:"books,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewSnapshotEvent wraps the full list of a user's books.
func NewSnapshotEvent(books []model.Book) Event {
	if books == nil {
		books = []model.Book{}
	}
	return Event{Type: EventSnapshot, Books: books, Timestamp: time.Now().UTC()}
}

// NewHeartbeatEvent returns a keep-alive event.
func NewHeartbeatEvent() Event {
	return Event{Type: EventHeartbeat, Timestamp: time.Now().UTC()}
}

// MarshalJSON keeps an empty snapshot as [] rather than dropping the field.
func (e Event) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type      EventType     `json:"type"`
		Books     *[]model.Book `json:"books,omitempty"`
		Timestamp time.Time     `json:"timestamp"`
	}
	w := wire{Type: e.Type, Timestamp: e.Timestamp}
	if e.Type == EventSnapshot {
		books := e.Books
		if books == nil {
			books = []model.Book{}
		}
		w.Books = &books
	}
	return json.Marshal(w)
}

// Encode writes the event in text/event-stream framing.
func (e Event) Encode(w io.Writer) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", e.Type); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
