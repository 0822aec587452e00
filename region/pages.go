package region

// PageSize is the guest MMU page granularity the page-residency counter is
// indexed by.
const PageSize = 4096

// PageIndex returns the guest page number containing addr.
func PageIndex(addr uint64) uint64 { return addr / PageSize }

// PageRange returns the inclusive-exclusive range of page indices touched
// by [addr, addr+size).
func PageRange(addr, size uint64) (first, last uint64) {
	if size == 0 {
		return PageIndex(addr), PageIndex(addr)
	}
	first = PageIndex(addr)
	last = PageIndex(addr+size-1) + 1
	return first, last
}

// PageSet holds a per-page reference count: how many cached surfaces
// currently overlap that page. It is the data structure backing
// cached_pages; the 0<->positive transition notification policy lives in
// rastercache, which is the layer that knows about the guest memory
// subsystem's trap/untrap callback.
type PageSet struct {
	counts map[uint64]int32
}

// NewPageSet returns an empty page reference-count table.
func NewPageSet() *PageSet {
	return &PageSet{counts: make(map[uint64]int32)}
}

// Get returns the current reference count of page.
func (p *PageSet) Get(page uint64) int32 {
	return p.counts[page]
}

// Snapshot returns a copy of every page currently holding a nonzero
// reference count, keyed by page index.
func (p *PageSet) Snapshot() map[uint64]int32 {
	out := make(map[uint64]int32, len(p.counts))
	for page, count := range p.counts {
		out[page] = count
	}
	return out
}

// Add adjusts the reference count of every page touched by [addr, size) by
// delta, invoking onTransition(page, becamePositive) exactly once for each
// page whose count crosses zero in either direction. onTransition is
// called with becamePositive=true for a 0->positive crossing and false for
// a positive->0 crossing; pages that don't cross zero are not reported.
//
// Add itself orders the update around the crossing: for a positive delta
// the count already reflects the increment when onTransition fires, and
// for a negative delta onTransition fires before the count is
// decremented, so that a transient zero is never observed by a concurrent
// trap check.
func (p *PageSet) Add(addr, size uint64, delta int32, onTransition func(page uint64, becamePositive bool)) {
	if size == 0 {
		return
	}
	first, last := PageRange(addr, size)
	for page := first; page < last; page++ {
		before := p.counts[page]
		switch {
		case delta > 0:
			after := before + delta
			p.counts[page] = after
			if before <= 0 && after > 0 && onTransition != nil {
				onTransition(page, true)
			}
		case delta < 0:
			after := before + delta
			if before > 0 && after <= 0 && onTransition != nil {
				onTransition(page, false)
			}
			if after <= 0 {
				delete(p.counts, page)
			} else {
				p.counts[page] = after
			}
		}
	}
}
