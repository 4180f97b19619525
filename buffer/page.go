// Package buffer implements the fixed-size, pinning buffer pool with
// clock replacement described in spec.md section 4.2.
//
// Grounded on ShubhamNegi4-DaemonDB/storage_engine/bufferpool (overall
// shape: FetchPage/NewPage/UnpinPage/FlushPage/FlushAllPages, a frame table
// keyed by page id) with the replacement policy rewritten from the
// teacher's LRU to clock-sweep, grounded on
// HayatoShiba-ppdb/storage/buffer/clock_sweep.go (circular hand, recently
// used bit, skip-pinned semantics) simplified to the single-bit variant
// spec.md describes rather than ppdb's multi-count usage.
package buffer

import (
	"naivedb/disk"
)

// Page is a resident, buffer-pool-owned copy of one on-disk page. Callers
// never hold a Page across a statement boundary without a pin (see
// PageGuard in guard.go).
type Page struct {
	ID       disk.PageId
	Data     []byte
	IsDirty  bool
	PinCount int
}
