package watch

import (
	"sync/atomic"

	"github.com/petersawicki/seo-log-analyzer/internal/analyzer"
)

// Store holds the current analyzer engine and supports atomic swaps, so a
// render loop can read the latest analysis while the watcher rebuilds it.
type Store struct {
	v   atomic.Value // *analyzer.Engine
	gen atomic.Uint64
}

// NewStore creates a Store with the initial engine.
func NewStore(e *analyzer.Engine) *Store {
	s := &Store{}
	s.v.Store(e)
	s.gen.Store(1)
	return s
}

// Current returns the current engine.
func (s *Store) Current() *analyzer.Engine {
	v := s.v.Load()
	if v == nil {
		return nil
	}
	e, ok := v.(*analyzer.Engine)
	if !ok {
		return nil
	}
	return e
}

// Update replaces the current engine and advances the generation counter.
func (s *Store) Update(e *analyzer.Engine) {
	s.v.Store(e)
	s.gen.Add(1)
}

// Generation returns a counter that changes on every Update, letting
// readers cheaply detect a swap.
func (s *Store) Generation() uint64 {
	return s.gen.Load()
}
