// Package bptree implements the B+ tree index described in spec.md
// section 4.5: leaf and internal nodes are both backed by the generic
// slotted page (package slotted), distinguished by a user-meta "is_leaf"
// flag, with leaf nodes linked right-ward for range scans.
//
// Grounded on
// ShubhamNegi4-DaemonDB/storage_engine/access/indexfile_manager/bplustree
// for the tree algorithms — FindLeaf's lower-bound descent
// (find_leaf.go/binary_search.go), Insertion's split-on-overflow
// propagation (insertion.go/split_leaf.go/split_internal.go/
// parent_insert.go/new_root.go), and Delete's
// borrow-else-merge-else-collapse-root underflow handling (deletion.go) —
// carried over in control flow but rewritten so node (de)serialization is
// a thin adapter over the generic slotted page instead of the tree's own
// bespoke SerializeNode/DeserializeNode pair, and page ids are plain
// single-file naivedb/disk.PageId instead of the teacher's
// fileID<<32|local scheme.
package bptree

import "encoding/binary"

// nodeMetaSize is every node's fixed user-meta region: a 1-byte is_leaf
// flag followed by a 4-byte leftmost-child page id (meaningful only for
// internal nodes), per spec.md section 4.5.
const nodeMetaSize = 5

// ridSize is the width of a leaf value: a RID, encoded as a 4-byte page
// id followed by a 4-byte slot index.
const ridSize = 8

// childSize is the width of an internal node's value: a 4-byte child
// page id.
const childSize = 4

func isLeafMeta(meta []byte) bool { return meta[0] == 1 }

func leftmostChild(meta []byte) uint32 { return binary.LittleEndian.Uint32(meta[1:5]) }

func buildMeta(leaf bool, leftmost uint32) []byte {
	meta := make([]byte, nodeMetaSize)
	if leaf {
		meta[0] = 1
	}
	binary.LittleEndian.PutUint32(meta[1:5], leftmost)
	return meta
}

func encodeChild(id uint32) []byte {
	b := make([]byte, childSize)
	binary.LittleEndian.PutUint32(b, id)
	return b
}

func decodeChild(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

// RID mirrors table.RID without importing package table (which itself
// does not depend on bptree), keeping the storage layers acyclic; callers
// convert at the boundary.
type RID struct {
	PageId uint32
	Slot   int32
}

func encodeRID(r RID) []byte {
	b := make([]byte, ridSize)
	binary.LittleEndian.PutUint32(b[0:], r.PageId)
	binary.LittleEndian.PutUint32(b[4:], uint32(r.Slot))
	return b
}

func decodeRID(b []byte) RID {
	return RID{
		PageId: binary.LittleEndian.Uint32(b[0:]),
		Slot:   int32(binary.LittleEndian.Uint32(b[4:])),
	}
}
