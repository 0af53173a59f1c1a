package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileCursorStore keeps resume tokens in a JSON file, one entry per stream id.
// Writes go through a temp file and a rename.
type FileCursorStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

type fileCursor struct {
	Token   []byte    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

// NewFileCursorStore returns a store backed by path.
func NewFileCursorStore(path string) *FileCursorStore {
	return &FileCursorStore{path: path, now: func() time.Time { return time.Now().UTC() }}
}

// LoadCursor returns the saved token of streamID, or nil.
func (s *FileCursorStore) LoadCursor(_ context.Context, streamID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return nil, err
	}
	c, ok := all[streamID]
	if !ok {
		return nil, nil
	}
	return c.Token, nil
}

// PersistCursor saves token as the position of streamID.
func (s *FileCursorStore) PersistCursor(_ context.Context, streamID string, token []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return err
	}
	all[streamID] = fileCursor{Token: token, SavedAt: s.now()}

	b, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cursors: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".cursor-*")
	if err != nil {
		return fmt.Errorf("write cursors: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cursors: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cursors: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cursors: %w", err)
	}
	return nil
}

func (s *FileCursorStore) read() (map[string]fileCursor, error) {
	all := make(map[string]fileCursor)
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return all, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cursors: %w", err)
	}
	if len(b) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, fmt.Errorf("decode cursors %s: %w", s.path, err)
	}
	return all, nil
}

// MemoryCursorStore keeps tokens in memory only.
type MemoryCursorStore struct {
	mu     sync.Mutex
	tokens map[string][]byte
}

// NewMemoryCursorStore returns an empty in-memory store.
func NewMemoryCursorStore() *MemoryCursorStore {
	return &MemoryCursorStore{tokens: make(map[string][]byte)}
}

func (s *MemoryCursorStore) LoadCursor(_ context.Context, streamID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[streamID], nil
}

func (s *MemoryCursorStore) PersistCursor(_ context.Context, streamID string, token []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[streamID] = append([]byte(nil), token...)
	return nil
}
