// Package table implements the table heap: a root page holding schema
// and chain metadata, plus a singly-linked chain of slotted-page slices
// holding tuples, each slot keyed by a 4-byte foreign-key reference
// counter.
//
// Grounded on
// ShubhamNegi4-DaemonDB/storage_engine/access/heapfile_manager
// (InsertRow/GetRow/UpdateRow/DeleteRow/GetAllRowPointers, and the
// find-a-slice-with-space-or-allocate-a-new-one loop) and the older
// top-level heapfile_manager/heapfile_manager.go generation for the
// slice-chain idea, restructured around the generic slotted page
// (package slotted) and the ref-counter-as-slot-key design spec.md
// sections 4.4/4.6 specify in place of the teacher's LSN-in-slot-key
// scheme.
package table

import "naivedb/disk"

// RID locates a tuple within a table heap: the slice page it lives on,
// and its slot index within that slice's slotted page.
type RID struct {
	PageId disk.PageId
	Slot   int
}
