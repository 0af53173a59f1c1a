package memstore

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"delivery-orchestrator/internal/apperr"
	"delivery-orchestrator/internal/events"
)

type change struct {
	seq        uint64
	collection string
	op         events.Op
	doc        bson.Raw
}

// feed is the change log behind Watch. Tokens are sequence numbers; entries before base
// were compacted away and their tokens are rejected.
type feed struct {
	base    uint64
	log     []change
	changed chan struct{}
	// generation bumps on Interrupt; streams of an older generation fail with interruptErr
	generation   int
	interruptErr error
}

func newFeed() feed {
	return feed{changed: make(chan struct{})}
}

func (f *feed) last() uint64 { return f.base + uint64(len(f.log)) }

// emit appends a change; the caller holds the store lock.
func (f *feed) emit(collection string, op events.Op, doc any) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		panic(fmt.Sprintf("memstore: marshal %s: %v", collection, err))
	}
	f.log = append(f.log, change{seq: f.last() + 1, collection: collection, op: op, doc: raw})
	close(f.changed)
	f.changed = make(chan struct{})
}

// Watch opens a stream over collection. A nil token starts after the last change.
func (s *Store) Watch(_ context.Context, collection string, filter events.Filter, resume []byte) (events.Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("Watch"); err != nil {
		return nil, err
	}

	pos := s.feed.last()
	if resume != nil {
		seq, err := strconv.ParseUint(string(resume), 10, 64)
		if err != nil || seq < s.feed.base || seq > s.feed.last() {
			return nil, fmt.Errorf("%w: token %q", apperr.ErrCursorInvalid, resume)
		}
		pos = seq
	}
	return &stream{
		store:      s,
		collection: collection,
		filter:     filter,
		pos:        pos,
		generation: s.feed.generation,
		closed:     make(chan struct{}),
	}, nil
}

// Compact drops the change log; every token issued so far becomes invalid.
func (s *Store) Compact() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feed.base = s.feed.last()
	s.feed.log = nil
}

// Interrupt fails every open stream with err, as a dropped connection would.
func (s *Store) Interrupt(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feed.generation++
	s.feed.interruptErr = err
	close(s.feed.changed)
	s.feed.changed = make(chan struct{})
}

// Token returns the resume token of the latest change.
func (s *Store) Token() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return []byte(strconv.FormatUint(s.feed.last(), 10))
}

type stream struct {
	store      *Store
	collection string
	filter     events.Filter
	pos        uint64
	generation int
	current    events.Event
	err        error
	closed     chan struct{}
	closeOnce  sync.Once
}

func (st *stream) Next(ctx context.Context) bool {
	for {
		st.store.mu.Lock()
		f := &st.store.feed
		if st.generation != f.generation {
			st.err = f.interruptErr
			st.store.mu.Unlock()
			return false
		}
		if st.pos < f.base {
			st.err = fmt.Errorf("%w: change log compacted", apperr.ErrCursorInvalid)
			st.store.mu.Unlock()
			return false
		}
		for st.pos < f.last() {
			c := f.log[st.pos-f.base]
			st.pos++
			if c.collection != st.collection {
				continue
			}
			ev := events.Event{Collection: c.collection, Op: c.op, Doc: c.doc}
			if !st.filter.Matches(ev.Op, ev.Status()) {
				continue
			}
			ev.Token = []byte(strconv.FormatUint(c.seq, 10))
			st.current = ev
			st.store.mu.Unlock()
			return true
		}
		wait := f.changed
		st.store.mu.Unlock()

		select {
		case <-ctx.Done():
			return false
		case <-st.closed:
			return false
		case <-wait:
		}
	}
}

func (st *stream) Event() events.Event { return st.current }

func (st *stream) Err() error { return st.err }

func (st *stream) Close(context.Context) error {
	st.closeOnce.Do(func() { close(st.closed) })
	return nil
}
