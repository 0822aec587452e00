package region

// Set holds a collection of disjoint, non-abutting intervals, kept sorted
// by start address. It backs Surface.InvalidRegions and the scratch
// "copyable interval" computations used during validation.
type Set struct {
	ivs []Interval
}

// NewSet returns an empty Set, optionally seeded with one interval.
func NewSet(seed ...Interval) *Set {
	s := &Set{}
	for _, iv := range seed {
		s.Add(iv)
	}
	return s
}

// Empty reports whether the set holds no addresses.
func (s *Set) Empty() bool { return len(s.ivs) == 0 }

// Intervals returns the set's disjoint intervals in ascending order. The
// returned slice must not be mutated.
func (s *Set) Intervals() []Interval { return s.ivs }

// Len returns the total number of addresses covered.
func (s *Set) Len() uint64 {
	var total uint64
	for _, iv := range s.ivs {
		total += iv.Len()
	}
	return total
}

// First returns the lowest address in the set and reports whether the set
// is non-empty.
func (s *Set) First() (uint64, bool) {
	if len(s.ivs) == 0 {
		return 0, false
	}
	return s.ivs[0].Start, true
}

// LastEnd returns the end of the highest interval in the set.
func (s *Set) LastEnd() (uint64, bool) {
	if len(s.ivs) == 0 {
		return 0, false
	}
	return s.ivs[len(s.ivs)-1].End, true
}

// Contains reports whether addr is covered by the set.
func (s *Set) Contains(addr uint64) bool {
	for _, iv := range s.ivs {
		if iv.Contains(addr) {
			return true
		}
	}
	return false
}

// Overlaps reports whether any interval in the set overlaps iv.
func (s *Set) Overlaps(iv Interval) bool {
	for _, e := range s.ivs {
		if e.Overlaps(iv) {
			return true
		}
	}
	return false
}

// ContainsInterval reports whether iv lies entirely within the union of the
// set's intervals (it may span more than one if they abut after merging,
// which never happens here since Add keeps the set merged).
func (s *Set) ContainsInterval(iv Interval) bool {
	for _, e := range s.ivs {
		if e.ContainsInterval(iv) {
			return true
		}
	}
	return false
}

// Add inserts iv into the set, merging with any overlapping or abutting
// intervals.
func (s *Set) Add(iv Interval) {
	if iv.Empty() {
		return
	}
	merged := make([]Interval, 0, len(s.ivs)+1)
	for _, e := range s.ivs {
		if e.End < iv.Start || e.Start > iv.End {
			merged = append(merged, e)
			continue
		}
		iv = iv.Union(e)
	}
	merged = append(merged, iv)
	sortIntervals(merged)
	s.ivs = merged
}

// Subtract removes iv from every interval in the set, splitting entries
// that straddle its edges.
func (s *Set) Subtract(iv Interval) {
	if iv.Empty() || len(s.ivs) == 0 {
		return
	}
	out := make([]Interval, 0, len(s.ivs)+1)
	for _, e := range s.ivs {
		if !e.Overlaps(iv) {
			out = append(out, e)
			continue
		}
		if e.Start < iv.Start {
			out = append(out, Interval{Start: e.Start, End: iv.Start})
		}
		if e.End > iv.End {
			out = append(out, Interval{Start: iv.End, End: e.End})
		}
	}
	s.ivs = out
}

// Intersection returns a new Set containing the overlap between s and iv.
func (s *Set) Intersection(iv Interval) *Set {
	out := &Set{}
	for _, e := range s.ivs {
		if x := e.Intersect(iv); !x.Empty() {
			out.ivs = append(out.ivs, x)
		}
	}
	return out
}

// Clone returns an independent copy of the set.
func (s *Set) Clone() *Set {
	out := &Set{ivs: make([]Interval, len(s.ivs))}
	copy(out.ivs, s.ivs)
	return out
}
