package events

import "sync"

// tracker hands out sequence numbers to dispatched events and reports the token of the
// highest contiguous completed sequence, so a persisted token never skips unfinished work.
type tracker struct {
	mu        sync.Mutex
	next      uint64
	water     uint64
	done      map[uint64][]byte
	persisted []byte
}

func newTracker(initial []byte) *tracker {
	return &tracker{done: make(map[uint64][]byte), persisted: initial}
}

func (t *tracker) assign() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	seq := t.next
	t.next++
	return seq
}

// complete marks seq finished and calls persist with the newest contiguous token, if any.
// persist runs under the tracker lock so tokens of one stream are written in order.
func (t *tracker) complete(seq uint64, token []byte, persist func([]byte) error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.done[seq] = token
	var newest []byte
	for {
		tok, ok := t.done[t.water]
		if !ok {
			break
		}
		delete(t.done, t.water)
		t.water++
		if tok != nil {
			newest = tok
		}
	}
	if newest == nil {
		return
	}
	if err := persist(newest); err == nil {
		t.persisted = newest
	}
}

func (t *tracker) lastPersisted() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.persisted
}
