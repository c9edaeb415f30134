package notification

import (
	"context"
	"sort"
	"sync"

	"lessonhub/internal/docstore"
)

const seenDocument = "notification_seen"

// SeenStore keeps the acknowledged notification ids of every audience.
// Ids are only ever added.
type SeenStore struct {
	docs docstore.Store
	mu   sync.Mutex
}

func NewSeenStore(docs docstore.Store) *SeenStore {
	return &SeenStore{docs: docs}
}

func (s *SeenStore) Load(ctx context.Context, aud Audience) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(all[aud.key()]))
	for _, id := range all[aud.key()] {
		seen[id] = true
	}
	return seen, nil
}

func (s *SeenStore) Add(ctx context.Context, aud Audience, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read(ctx)
	if err != nil {
		return err
	}
	key := aud.key()
	set := make(map[string]struct{}, len(all[key])+len(ids))
	for _, id := range all[key] {
		set[id] = struct{}{}
	}
	added := false
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := set[id]; !ok {
			set[id] = struct{}{}
			added = true
		}
	}
	if !added {
		return nil
	}

	merged := make([]string, 0, len(set))
	for id := range set {
		merged = append(merged, id)
	}
	sort.Strings(merged)
	all[key] = merged
	return s.docs.Save(ctx, seenDocument, all)
}

func (s *SeenStore) read(ctx context.Context) (map[string][]string, error) {
	all := map[string][]string{}
	if _, err := s.docs.Load(ctx, seenDocument, &all); err != nil {
		return nil, err
	}
	if all == nil {
		all = map[string][]string{}
	}
	return all, nil
}
