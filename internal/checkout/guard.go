package checkout

import (
	"context"
	"sync"
)

// MemoryGuard is the in-process SubmissionGuard.
type MemoryGuard struct {
	mu   sync.Mutex
	held map[int64]string
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: map[int64]string{}}
}

func (g *MemoryGuard) Acquire(_ context.Context, terminalID int64, key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[terminalID]; busy {
		return nil, ErrCheckoutInProgress
	}
	g.held[terminalID] = key

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			if g.held[terminalID] == key {
				delete(g.held, terminalID)
			}
		})
	}, nil
}
