package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ramonvasc/comunicahub/internal/kv"
)

// readStateKey is the well-known key the acknowledged-id set is stored under.
const readStateKey = "notifications:read"

// ReadStateStore persists the set of locally acknowledged notification ids
// across sessions. The set grows monotonically and every mutation is written
// through immediately.
type ReadStateStore struct {
	store kv.Store

	mu     sync.Mutex
	loaded bool
	ids    map[string]struct{}
}

// NewReadStateStore constructs a ReadStateStore over any key-value backend.
func NewReadStateStore(store kv.Store) (*ReadStateStore, error) {
	if store == nil {
		return nil, errors.New("read state: kv store is required")
	}
	return &ReadStateStore{store: store, ids: make(map[string]struct{})}, nil
}

// Has reports whether the id has been acknowledged.
func (s *ReadStateStore) Has(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return false, err
	}
	_, ok := s.ids[id]
	return ok, nil
}

// Add acknowledges the supplied ids and persists the whole set in one write.
func (s *ReadStateStore) Add(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return err
	}

	changed := false
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := s.ids[id]; !ok {
			s.ids[id] = struct{}{}
			changed = true
		}
	}
	if !changed {
		return nil
	}

	return s.persistLocked(ctx)
}

// Snapshot returns a copy of the acknowledged set for read-only use during
// one aggregation pass.
func (s *ReadStateStore) Snapshot(ctx context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return nil, err
	}

	out := make(map[string]struct{}, len(s.ids))
	for id := range s.ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *ReadStateStore) loadLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	raw, ok, err := s.store.Get(ctx, readStateKey)
	if err != nil {
		return fmt.Errorf("read state: load: %w", err)
	}
	if ok && len(raw) > 0 {
		var stored []string
		if err := json.Unmarshal(raw, &stored); err != nil {
			return fmt.Errorf("read state: decode: %w", err)
		}
		for _, id := range stored {
			s.ids[id] = struct{}{}
		}
	}

	s.loaded = true
	return nil
}

func (s *ReadStateStore) persistLocked(ctx context.Context) error {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	encoded, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("read state: encode: %w", err)
	}
	if err := s.store.Set(ctx, readStateKey, encoded); err != nil {
		return fmt.Errorf("read state: persist: %w", err)
	}
	return nil
}
