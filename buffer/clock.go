package buffer

import "naivedb/dberrors"

// clockSweep selects a victim frame by sweeping a circular hand across
// every frame: a pinned frame is skipped, a frame with its recently-used
// bit set has the bit cleared and is given a second chance, and the first
// frame found both unpinned and with a clear bit is evicted.
//
// Grounded on HayatoShiba-ppdb/storage/buffer/clock_sweep.go's
// allocateWithClockSweep, dropped to a single recently-used bit (no
// per-frame usage counter) per spec.md section 4.2.
func (p *Pool) clockSweep() (int, error) {
	n := len(p.frames)
	for sweeps := 0; sweeps < 2*n+1; sweeps++ {
		idx := p.clockHand
		p.clockHand = (p.clockHand + 1) % n

		f := &p.frames[idx]
		if f.page.PinCount != 0 {
			continue
		}
		if f.refBit {
			f.refBit = false
			continue
		}
		return idx, nil
	}
	return 0, dberrors.New(dberrors.PoolExhausted, "buffer: no unpinned frame available for eviction", nil)
}
