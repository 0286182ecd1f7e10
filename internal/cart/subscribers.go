package cart

import (
	"sync"

	"github.com/nikolayk812/storefront/internal/domain"
)

// Listener receives a copy of the cart after every effective mutation.
// It must not mutate the store it is subscribed to.
type Listener func(domain.Cart)

type subscribers struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]Listener
	order  []uint64
}

// Subscribe registers l and returns a function that removes it. The returned
// function is safe to call more than once.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	id := s.subs.add(l)

	var once sync.Once
	return func() {
		once.Do(func() { s.subs.remove(id) })
	}
}

func (s *subscribers) add(l Listener) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.byID[s.nextID] = l
	s.order = append(s.order, s.nextID)

	return s.nextID
}

func (s *subscribers) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return
	}
	delete(s.byID, id)

	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *subscribers) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.byID)
}

// publish calls every listener in subscription order with its own copy.
func (s *subscribers) publish(snapshot domain.Cart) {
	s.mu.Lock()
	listeners := make([]Listener, 0, len(s.order))
	for _, id := range s.order {
		listeners = append(listeners, s.byID[id])
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snapshot.Clone())
	}
}
