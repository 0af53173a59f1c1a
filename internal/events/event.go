package events

import (
	"context"
	"slices"

	"go.mongodb.org/mongo-driver/bson"
)

// Op is the change kind reported by a stream.
type Op string

// Change kinds.
const (
	OpInsert  Op = "insert"
	OpUpdate  Op = "update"
	OpReplace Op = "replace"
)

// Event is one change observed on a collection. Doc is the full post-image.
type Event struct {
	StreamID   string
	Collection string
	Op         Op
	Doc        bson.Raw
	// Token is the resume position right after this event.
	Token []byte
}

// Key returns the order_id of the document, empty when it has none.
func (e Event) Key() string {
	return e.lookupString("order_id")
}

// Status returns the status field of the document.
func (e Event) Status() string {
	return e.lookupString("status")
}

// Decode unmarshals the post-image into v.
func (e Event) Decode(v any) error {
	return bson.Unmarshal(e.Doc, v)
}

func (e Event) lookupString(key string) string {
	if len(e.Doc) == 0 {
		return ""
	}
	v, err := e.Doc.LookupErr(key)
	if err != nil {
		return ""
	}
	s, _ := v.StringValueOK()
	return s
}

// Filter selects events by change kind and post-image status. Empty slices match everything.
type Filter struct {
	Ops      []Op
	Statuses []string
}

// Matches reports whether an event with op and status passes the filter.
func (f Filter) Matches(op Op, status string) bool {
	if len(f.Ops) > 0 && !slices.Contains(f.Ops, op) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, status) {
		return false
	}
	return true
}

// Stream is a live, resumable sequence of events.
type Stream interface {
	Next(ctx context.Context) bool
	Event() Event
	Err() error
	Close(ctx context.Context) error
}

// Source opens streams. A nil resume token starts from now.
// A rejected token is reported as apperr.ErrCursorInvalid.
type Source interface {
	Watch(ctx context.Context, collection string, filter Filter, resume []byte) (Stream, error)
}

// CursorStore persists resume tokens per stream id. LoadCursor returns nil when nothing is saved.
type CursorStore interface {
	LoadCursor(ctx context.Context, streamID string) ([]byte, error)
	PersistCursor(ctx context.Context, streamID string, token []byte) error
}

// Handler processes one event. Errors wrapping apperr.ErrTransient are retried.
type Handler func(ctx context.Context, ev Event) error

// Subscription binds a (collection, filter) pair to a handler under a stable stream id.
type Subscription struct {
	ID         string
	Collection string
	Filter     Filter
	Handler    Handler
}
