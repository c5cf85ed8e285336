package command

import "sync"

// WriteSerializer hands out one mutex per physical field key, so writes
// targeting the same device field run one at a time while writes to
// unrelated fields proceed in parallel. Entities that alias the same
// field share a key and therefore a lock.
type WriteSerializer struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewWriteSerializer() *WriteSerializer {
	return &WriteSerializer{locks: make(map[string]*sync.Mutex)}
}

// Do runs fn while holding the lock for fieldKey.
func (s *WriteSerializer) Do(fieldKey string, fn func() error) error {
	lock := s.lockFor(fieldKey)
	lock.Lock()
	defer lock.Unlock()
	return fn()
}

func (s *WriteSerializer) lockFor(fieldKey string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[fieldKey]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[fieldKey] = lock
	}
	return lock
}
