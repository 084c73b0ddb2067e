package ingest

import "sync"

// sourceLocks hands out one mutex per source so concurrent ingests of the
// same document never interleave their writes and prunes.
type sourceLocks struct {
	mu    sync.Mutex
	locks map[string]*sourceLock
}

type sourceLock struct {
	mu   sync.Mutex
	refs int
}

func newSourceLocks() *sourceLocks {
	return &sourceLocks{locks: make(map[string]*sourceLock)}
}

// lock blocks until source is free and returns its unlock func.
func (s *sourceLocks) lock(source string) func() {
	s.mu.Lock()
	l, ok := s.locks[source]
	if !ok {
		l = &sourceLock{}
		s.locks[source] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, source)
		}
		s.mu.Unlock()
	}
}
