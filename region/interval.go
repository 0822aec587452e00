// Package region implements the address-interval algebra the rasterizer
// cache is built on: a half-open [Start, End) interval type, a set of
// disjoint intervals, and a generic interval-to-value map with
// partial_absorber-style combine semantics (compatible values merge,
// incompatible values split the interval).
//
// There is no off-the-shelf Go equivalent of boost::icl in the surrounding
// package pool, so this is a from-scratch sorted-slice sweep rather than a
// balanced tree. A live surface cache never holds more than a few hundred
// intervals at once, so sweep cost is not a concern.
package region

import "sort"

// Interval is a half-open range [Start, End) over addresses, page indices,
// or any other uint64-comparable domain.
type Interval struct {
	Start, End uint64
}

// Len returns End-Start, or 0 if the interval is empty or inverted.
func (iv Interval) Len() uint64 {
	if iv.End <= iv.Start {
		return 0
	}
	return iv.End - iv.Start
}

// Empty reports whether the interval contains no addresses.
func (iv Interval) Empty() bool { return iv.End <= iv.Start }

// Contains reports whether addr lies within the interval.
func (iv Interval) Contains(addr uint64) bool {
	return addr >= iv.Start && addr < iv.End
}

// ContainsInterval reports whether other lies entirely within iv.
func (iv Interval) ContainsInterval(other Interval) bool {
	return other.Start >= iv.Start && other.End <= iv.End
}

// Overlaps reports whether iv and other share any address.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// Abuts reports whether iv and other are disjoint but adjacent (no gap, no
// overlap) in either order.
func (iv Interval) Abuts(other Interval) bool {
	return iv.End == other.Start || other.End == iv.Start
}

// Intersect returns the overlapping sub-interval of iv and other. The
// result is empty if they do not overlap.
func (iv Interval) Intersect(other Interval) Interval {
	start := iv.Start
	if other.Start > start {
		start = other.Start
	}
	end := iv.End
	if other.End < end {
		end = other.End
	}
	if end < start {
		end = start
	}
	return Interval{Start: start, End: end}
}

// Union returns the smallest interval covering both iv and other. Only
// meaningful when the two overlap or abut; callers that need a true set
// union across disjoint intervals should use Set instead.
func (iv Interval) Union(other Interval) Interval {
	start := iv.Start
	if other.Start < start {
		start = other.Start
	}
	end := iv.End
	if other.End > end {
		end = other.End
	}
	return Interval{Start: start, End: end}
}

// sortIntervals sorts a slice of intervals by start address in place.
func sortIntervals(ivs []Interval) {
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].Start < ivs[j].Start })
}
