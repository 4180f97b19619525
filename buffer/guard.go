package buffer

import "naivedb/disk"

// PageGuard scopes a single pin so every exit path unpins exactly once.
// Grounded on spec.md section 9's "shared mutable page references" design
// note: every storage-core layer above buffer.Pool acquires pages through
// a guard rather than calling Fetch/Unpin directly.
type PageGuard struct {
	pool     *Pool
	page     *Page
	released bool
	dirty    bool
}

// FetchGuarded pins id and returns a guard over it.
func FetchGuarded(p *Pool, id disk.PageId) (*PageGuard, error) {
	pg, err := p.Fetch(id)
	if err != nil {
		return nil, err
	}
	return &PageGuard{pool: p, page: pg}, nil
}

// AllocGuarded allocates a fresh page and returns a guard over it.
func AllocGuarded(p *Pool) (*PageGuard, error) {
	pg, err := p.Alloc()
	if err != nil {
		return nil, err
	}
	return &PageGuard{pool: p, page: pg}, nil
}

// Page returns the underlying resident page.
func (g *PageGuard) Page() *Page { return g.page }

// MarkDirty flags the page as modified; the dirty bit is applied on
// Release.
func (g *PageGuard) MarkDirty() { g.dirty = true }

// Release unpins the page. Safe to call more than once; only the first
// call has effect. Intended to be deferred immediately after acquisition.
func (g *PageGuard) Release() error {
	if g.released {
		return nil
	}
	g.released = true
	return g.pool.Unpin(g.page.ID, g.dirty)
}
