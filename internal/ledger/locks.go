package ledger

import (
	"slices"
	"sync"
)

// productLocks hands out one mutex per product id. Entries are dropped once
// no goroutine holds or waits for them.
type productLocks struct {
	mu      sync.Mutex
	entries map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newProductLocks() *productLocks {
	return &productLocks{entries: make(map[int64]*lockEntry)}
}

// lock acquires the locks of all ids in ascending order, so two callers that
// share products can never deadlock, and returns a func releasing them.
func (p *productLocks) lock(ids ...int64) func() {
	ids = slices.Clone(ids)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	held := make([]*lockEntry, 0, len(ids))
	for _, id := range ids {
		e := p.acquire(id)
		e.mu.Lock()
		held = append(held, e)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			p.release(ids[i])
		}
	}
}

func (p *productLocks) acquire(id int64) *lockEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[id]
	if !ok {
		e = &lockEntry{}
		p.entries[id] = e
	}
	e.refs++
	return e
}

func (p *productLocks) release(id int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.entries[id]
	e.refs--
	if e.refs == 0 {
		delete(p.entries, id)
	}
}
