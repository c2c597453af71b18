package audit

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps events in process. It backs development mode and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Record(_ context.Context, e Event) error {
	prepare(&e)
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListByResource(_ context.Context, resourceID string, limit, offset int) ([]*Event, int, error) {
	resourceID = clamp(resourceID, MaxFieldLen)
	s.mu.RLock()
	var matched []*Event
	for i := range s.events {
		if s.events[i].ResourceID == resourceID {
			e := s.events[i]
			matched = append(matched, &e)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Recorded.After(matched[j].Recorded)
	})

	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

// MultiRecorder fans an event out to several recorders and returns the first
// error encountered after trying all of them.
func MultiRecorder(recorders ...Recorder) Recorder {
	return RecorderFunc(func(ctx context.Context, e Event) error {
		prepare(&e)
		var first error
		for _, r := range recorders {
			if err := r.Record(ctx, e); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}
