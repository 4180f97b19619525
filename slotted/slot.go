package slotted

import "encoding/binary"

// slotOffset returns the byte offset of directory entry i.
func (p *Page) slotOffset(i int) int { return p.dirStart() + i*p.slotSize() }

// key returns slot i's K-byte key.
func (p *Page) key(i int) []byte {
	off := p.slotOffset(i)
	return p.data[off : off+p.K]
}

func (p *Page) setKey(i int, key []byte) {
	off := p.slotOffset(i)
	copy(p.data[off:off+p.K], key)
}

func (p *Page) valueOffset(i int) int {
	off := p.slotOffset(i) + p.K
	return int(binary.LittleEndian.Uint32(p.data[off:]))
}

func (p *Page) setValueOffset(i, v int) {
	off := p.slotOffset(i) + p.K
	binary.LittleEndian.PutUint32(p.data[off:], uint32(v))
}

func (p *Page) valueLength(i int) int {
	off := p.slotOffset(i) + p.K + 4
	return int(binary.LittleEndian.Uint32(p.data[off:]))
}

func (p *Page) setValueLength(i, v int) {
	off := p.slotOffset(i) + p.K + 4
	binary.LittleEndian.PutUint32(p.data[off:], uint32(v))
}

// Comparator orders two fixed-size keys: negative if a < b, 0 if equal,
// positive if a > b.
type Comparator func(a, b []byte) int

// BinarySearch finds key among slots assumed already sorted by cmp.
// Returns (true, i) if slot i holds an equal key, or (false, i) where i is
// the insertion point that keeps the directory sorted.
func (p *Page) BinarySearch(key []byte, cmp Comparator) (bool, int) {
	lo, hi := 0, p.RecordCount()
	for lo < hi {
		mid := (lo + hi) / 2
		c := cmp(p.key(mid), key)
		switch {
		case c == 0:
			return true, mid
		case c < 0:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return false, lo
}
