package buffer

import (
	"go.uber.org/zap"

	"naivedb/dberrors"
	"naivedb/disk"
	"naivedb/internal/logging"
)

type frame struct {
	page     Page
	occupied bool
	refBit   bool
}

// Stats reports a point-in-time snapshot of pool occupancy, for tests and
// cmd/dbadmin. Grounded on the teacher's BufferPool.GetStats.
type Stats struct {
	Capacity    int
	Occupied    int
	PinnedCount int
}

// Pool is the fixed-frame buffer pool manager. It is not safe for
// concurrent use — spec.md section 5 assumes a single-threaded caller, so
// unlike the teacher's BufferPool there is no mutex here.
type Pool struct {
	disk      *disk.Manager
	frames    []frame
	pageTable map[disk.PageId]int
	clockHand int
}

// New creates a pool of the given frame capacity backed by disk manager d.
func New(d *disk.Manager, capacity int) *Pool {
	if capacity <= 0 {
		capacity = 1
	}
	return &Pool{
		disk:      d,
		frames:    make([]frame, capacity),
		pageTable: make(map[disk.PageId]int, capacity),
	}
}

// Stats returns the current occupancy snapshot.
func (p *Pool) Stats() Stats {
	s := Stats{Capacity: len(p.frames)}
	for i := range p.frames {
		if p.frames[i].occupied {
			s.Occupied++
			s.PinnedCount += p.frames[i].page.PinCount
		}
	}
	return s
}

// Fetch returns the page for id, pinned once, reading it from disk on a
// miss and evicting a victim frame if the pool is full. Grounded on
// storage_engine/bufferpool/bufferpool.go's FetchPage.
func (p *Pool) Fetch(id disk.PageId) (*Page, error) {
	if idx, ok := p.pageTable[id]; ok {
		f := &p.frames[idx]
		f.page.PinCount++
		f.refBit = true
		return &f.page, nil
	}

	idx, err := p.acquireFrame()
	if err != nil {
		return nil, err
	}

	data, err := p.disk.ReadPage(id)
	if err != nil {
		return nil, err
	}

	f := &p.frames[idx]
	*f = frame{
		page:     Page{ID: id, Data: data, PinCount: 1},
		occupied: true,
		refBit:   true,
	}
	p.pageTable[id] = idx
	return &f.page, nil
}

// Alloc allocates a fresh page id from disk, installs it in the pool
// zeroed and pinned once, and returns it. Grounded on
// bufferpool.go's NewPage.
func (p *Pool) Alloc() (*Page, error) {
	id, err := p.disk.Allocate()
	if err != nil {
		return nil, err
	}

	idx, err := p.acquireFrame()
	if err != nil {
		_ = p.disk.Deallocate(id)
		return nil, err
	}

	f := &p.frames[idx]
	*f = frame{
		page:     Page{ID: id, Data: make([]byte, disk.PageSize), PinCount: 1, IsDirty: true},
		occupied: true,
		refBit:   true,
	}
	p.pageTable[id] = idx
	return &f.page, nil
}

// Unpin decrements a page's pin count and, if dirty, ORs in the dirty bit.
// The page stays resident; once its pin count reaches zero it becomes
// eligible for eviction.
func (p *Pool) Unpin(id disk.PageId, dirty bool) error {
	idx, ok := p.pageTable[id]
	if !ok {
		return dberrors.Newf(dberrors.InvariantViolation, nil, "buffer: unpin of page %d not resident", id)
	}
	f := &p.frames[idx]
	if f.page.PinCount == 0 {
		return dberrors.Newf(dberrors.InvariantViolation, nil, "buffer: unpin of page %d with zero pin count", id)
	}
	f.page.PinCount--
	if dirty {
		f.page.IsDirty = true
	}
	return nil
}

// Flush writes a resident page back to disk if dirty, and clears the
// dirty bit.
func (p *Pool) Flush(id disk.PageId) error {
	idx, ok := p.pageTable[id]
	if !ok {
		return dberrors.Newf(dberrors.InvariantViolation, nil, "buffer: flush of page %d not resident", id)
	}
	f := &p.frames[idx]
	if !f.page.IsDirty {
		return nil
	}
	if err := p.disk.WritePage(id, f.page.Data); err != nil {
		return err
	}
	f.page.IsDirty = false
	return nil
}

// FlushAll flushes every resident dirty page.
func (p *Pool) FlushAll() error {
	for i := range p.frames {
		if p.frames[i].occupied {
			if err := p.Flush(p.frames[i].page.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// Dealloc evicts a page from the pool without writing it back and frees its
// id on disk. A resident page must be unpinned; a page that is not
// resident is freed directly.
func (p *Pool) Dealloc(id disk.PageId) error {
	idx, ok := p.pageTable[id]
	if !ok {
		return p.disk.Deallocate(id)
	}
	f := &p.frames[idx]
	if f.page.PinCount != 0 {
		return dberrors.Newf(dberrors.InvariantViolation, nil, "buffer: cannot deallocate pinned page %d", id)
	}
	delete(p.pageTable, id)
	*f = frame{}
	return p.disk.Deallocate(id)
}

// acquireFrame returns the index of a free or victimized frame via
// clock-sweep replacement. See clock.go.
func (p *Pool) acquireFrame() (int, error) {
	for i := range p.frames {
		if !p.frames[i].occupied {
			return i, nil
		}
	}
	idx, err := p.clockSweep()
	if err != nil {
		return 0, err
	}
	victim := &p.frames[idx]
	if victim.page.IsDirty {
		if err := p.disk.WritePage(victim.page.ID, victim.page.Data); err != nil {
			return 0, err
		}
	}
	logging.L().Debug("buffer: evicting page", zap.Int64("pageId", int64(victim.page.ID)))
	delete(p.pageTable, victim.page.ID)
	*victim = frame{}
	return idx, nil
}
