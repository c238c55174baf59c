package panel

import (
	"sort"
	"sync"

	"github.com/muurk/omnilink/internal/message"
)

// StatusCache holds the last known status of every object. Statuses are
// comparable values, so change detection is a plain equality check.
type StatusCache struct {
	mu      sync.RWMutex
	entries map[Key]message.ObjectStatus
}

func newStatusCache() *StatusCache {
	return &StatusCache{entries: make(map[Key]message.ObjectStatus)}
}

// Get returns the cached status of an object
func (s *StatusCache) Get(k Key) (message.ObjectStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.entries[k]
	return status, ok
}

// Snapshot returns the cached statuses of one object type
func (s *StatusCache) Snapshot(o message.ObjectType) map[uint16]message.ObjectStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uint16]message.ObjectStatus)
	for k, v := range s.entries {
		if k.Object == o {
			out[k.ID] = v
		}
	}
	return out
}

// Types returns the object types with at least one cached status
func (s *StatusCache) Types() []message.ObjectType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[message.ObjectType]bool)
	for k := range s.entries {
		seen[k.Object] = true
	}
	types := make([]message.ObjectType, 0, len(seen))
	for o := range seen {
		types = append(types, o)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// MaxID returns the highest cached id of an object type
func (s *StatusCache) MaxID(o message.ObjectType) uint16 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var highest uint16
	for k := range s.entries {
		if k.Object == o && k.ID > highest {
			highest = k.ID
		}
	}
	return highest
}

// update stores status and reports the previous value and whether it changed
func (s *StatusCache) update(k Key, status message.ObjectStatus) (message.ObjectStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.entries[k]
	if ok && old == status {
		return old, false
	}
	s.entries[k] = status
	return old, true
}

// seed stores status without change detection
func (s *StatusCache) seed(k Key, status message.ObjectStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[k] = status
}
