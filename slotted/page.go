// Package slotted implements the generic slotted page every higher layer
// (table heap, B+ tree node, catalog directory) is built from: a page
// header, a slot directory growing from low offsets, and a value heap
// growing down from high offsets.
//
// Grounded on
// ShubhamNegi4-DaemonDB/storage_engine/access/heapfile_manager/heap_page.go
// for the header-plus-directory-plus-heap shape (there hard-coded per
// table; here, per spec.md section 4.3, factored into a single type
// parameterized by a fixed key size K and a fixed user-meta size M, the
// way benkivuva-my-rdbms/internal/storage/slotted_page.go generalizes the
// same idea) with the teacher's forward/backward growth directions
// swapped to match spec.md: directory grows from low offsets, heap grows
// down from high offsets.
package slotted

import (
	"encoding/binary"

	"naivedb/dberrors"
	"naivedb/disk"
)

// HeaderSize is the fixed portion of the page header before the
// user-meta region: record count (4), tail (4), next-page-id (4).
const HeaderSize = 12

const (
	offRecordCount = 0
	offTail        = 4
	offNextPageId  = 8
)

// slotValueFieldSize is the size of a slot's (offset, length) pair.
const slotValueFieldSize = 8

// Page is an in-place view over a resident buffer page's bytes. It does
// not own the memory and never copies it; all mutation is immediate.
type Page struct {
	data []byte
	K    int // fixed key size
	M    int // fixed user-meta size
}

// dirStart is the byte offset where the slot directory begins.
func (p *Page) dirStart() int { return HeaderSize + p.M }

// slotSize is the size in bytes of one slot directory entry.
func (p *Page) slotSize() int { return p.K + slotValueFieldSize }

// New wraps data as a fresh, empty slotted page with the given key and
// user-meta sizes, initializing the header. data must be exactly
// disk.PageSize bytes and is typically a *buffer.Page's Data field.
func New(data []byte, k, m int) (*Page, error) {
	if len(data) != disk.PageSize {
		return nil, dberrors.Newf(dberrors.InvariantViolation, nil,
			"slotted: page data must be %d bytes, got %d", disk.PageSize, len(data))
	}
	if HeaderSize+m >= disk.PageSize {
		return nil, dberrors.Newf(dberrors.InvariantViolation, nil,
			"slotted: user-meta size %d leaves no room on a %d-byte page", m, disk.PageSize)
	}
	p := &Page{data: data, K: k, M: m}
	p.setRecordCount(0)
	p.setTail(disk.PageSize)
	p.SetNextPageId(0)
	clear(data[HeaderSize : HeaderSize+m])
	return p, nil
}

// Wrap views already-initialized data as a slotted page with the given
// key and user-meta sizes. Callers must supply the same K, M the page was
// created with.
func Wrap(data []byte, k, m int) (*Page, error) {
	if len(data) != disk.PageSize {
		return nil, dberrors.Newf(dberrors.InvariantViolation, nil,
			"slotted: page data must be %d bytes, got %d", disk.PageSize, len(data))
	}
	return &Page{data: data, K: k, M: m}, nil
}

// RecordCount returns the number of slots in the directory, live or
// tombstoned.
func (p *Page) RecordCount() int { return int(binary.LittleEndian.Uint32(p.data[offRecordCount:])) }

func (p *Page) setRecordCount(n int) {
	binary.LittleEndian.PutUint32(p.data[offRecordCount:], uint32(n))
}

// tail returns the current high-water mark of the value heap (the lowest
// in-use byte offset).
func (p *Page) tail() int { return int(binary.LittleEndian.Uint32(p.data[offTail:])) }

func (p *Page) setTail(t int) {
	binary.LittleEndian.PutUint32(p.data[offTail:], uint32(t))
}

// NextPageId returns the application-specific forward link (0 means none).
func (p *Page) NextPageId() uint32 { return binary.LittleEndian.Uint32(p.data[offNextPageId:]) }

// SetNextPageId sets the forward link.
func (p *Page) SetNextPageId(id uint32) {
	binary.LittleEndian.PutUint32(p.data[offNextPageId:], id)
}

// UserMeta returns a view directly into the M-byte user-meta region;
// writes through it are immediately visible on the page.
func (p *Page) UserMeta() []byte { return p.data[HeaderSize : HeaderSize+p.M] }

// SetUserMeta overwrites the user-meta region. len(meta) must equal M.
func (p *Page) SetUserMeta(meta []byte) error {
	if len(meta) != p.M {
		return dberrors.Newf(dberrors.InvariantViolation, nil, "slotted: user-meta length %d != %d", len(meta), p.M)
	}
	copy(p.data[HeaderSize:HeaderSize+p.M], meta)
	return nil
}

// FreeSpace returns the number of bytes available for a new slot's
// directory entry plus value bytes.
func (p *Page) FreeSpace() int {
	used := p.dirStart() + p.RecordCount()*p.slotSize()
	return p.tail() - used
}

// UsableSpace is the total byte budget available to slots and values on
// this page, excluding the fixed header and user-meta region.
func (p *Page) UsableSpace() int { return disk.PageSize - p.dirStart() }

// UsedSpace is the portion of UsableSpace currently occupied by slot
// directory entries and live value bytes. Index occupancy checks (spec.md
// section 4.5's underflow threshold) compare this against UsableSpace.
func (p *Page) UsedSpace() int { return p.UsableSpace() - p.FreeSpace() }
