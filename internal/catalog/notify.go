package catalog

import "sync"

// subscribers is a registry of library-change listeners. Signals are
// coalesced: a listener whose buffer already holds a pending signal is
// skipped, never blocked on.
type subscribers struct {
	mu     sync.Mutex
	chans  map[uint64]chan struct{}
	nextID uint64
	closed bool
}

func (s *subscribers) add() (uint64, <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chans == nil {
		s.chans = make(map[uint64]chan struct{})
	}
	s.nextID++
	id := s.nextID
	ch := make(chan struct{}, 1)
	s.chans[id] = ch
	return id, ch
}

func (s *subscribers) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.chans[id]; ok {
		close(ch)
		delete(s.chans, id)
	}
}

func (s *subscribers) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	for _, ch := range s.chans {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *subscribers) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.chans {
		close(ch)
		delete(s.chans, id)
	}
}
