package region

import "testing"

func TestIntervalOverlapsAndAbuts(t *testing.T) {
	a := Interval{Start: 0, End: 10}
	b := Interval{Start: 10, End: 20}
	if a.Overlaps(b) {
		t.Errorf("half-open intervals touching at the boundary must not overlap")
	}
	if !a.Abuts(b) {
		t.Errorf("expected a and b to abut")
	}
	c := Interval{Start: 5, End: 15}
	if !a.Overlaps(c) {
		t.Errorf("expected a and c to overlap")
	}
	if got := a.Intersect(c); got != (Interval{Start: 5, End: 10}) {
		t.Errorf("Intersect = %+v, want {5 10}", got)
	}
}

func TestSetAddMergesAdjacent(t *testing.T) {
	s := NewSet()
	s.Add(Interval{Start: 0, End: 10})
	s.Add(Interval{Start: 10, End: 20})
	if len(s.Intervals()) != 1 {
		t.Fatalf("expected abutting intervals to merge into one, got %v", s.Intervals())
	}
	if got := s.Intervals()[0]; got != (Interval{Start: 0, End: 20}) {
		t.Errorf("merged interval = %+v, want {0 20}", got)
	}
}

func TestSetSubtractSplits(t *testing.T) {
	s := NewSet(Interval{Start: 0, End: 100})
	s.Subtract(Interval{Start: 40, End: 60})
	want := []Interval{{Start: 0, End: 40}, {Start: 60, End: 100}}
	got := s.Intervals()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestMapSetOverwritesLastWriterWins(t *testing.T) {
	m := NewMap[string]()
	m.Set(Interval{Start: 0, End: 10}, "a")
	m.Set(Interval{Start: 5, End: 15}, "b")
	entries := m.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected trimmed+new entry, got %v", entries)
	}
	if entries[0].Interval != (Interval{Start: 0, End: 5}) || entries[0].Value != "a" {
		t.Errorf("entry 0 = %+v, want trimmed a at [0,5)", entries[0])
	}
	if entries[1].Interval != (Interval{Start: 5, End: 15}) || entries[1].Value != "b" {
		t.Errorf("entry 1 = %+v, want b at [5,15)", entries[1])
	}
}

func TestMapAddCombinesOverlap(t *testing.T) {
	m := NewMap[int]()
	sum := func(a, b int) int { return a + b }
	m.Add(Interval{Start: 0, End: 10}, 1, sum)
	m.Add(Interval{Start: 5, End: 15}, 1, sum)
	var total int
	for _, e := range m.Entries() {
		total += int(e.Interval.Len()) * e.Value
	}
	// [0,5) has value 1 (len 5), [5,10) has value 2 (len 5), [10,15) has value 1 (len 5).
	if total != 5*1+5*2+5*1 {
		t.Errorf("weighted total = %d, want %d", total, 5*1+5*2+5*1)
	}
}

func TestPageSetTransitionOrdering(t *testing.T) {
	p := NewPageSet()
	var events []string
	notify := func(page uint64, becamePositive bool) {
		if becamePositive {
			events = append(events, "on")
		} else {
			events = append(events, "off")
		}
	}
	p.Add(0, PageSize, 1, notify)
	p.Add(0, PageSize, -1, notify)
	if len(events) != 2 || events[0] != "on" || events[1] != "off" {
		t.Fatalf("events = %v, want [on off]", events)
	}
	if p.Get(0) != 0 {
		t.Errorf("page count = %d, want 0 after balanced add/subtract", p.Get(0))
	}
}

func TestPageSetNoSpuriousTransitionOnOverlappingAdds(t *testing.T) {
	p := NewPageSet()
	var events int
	notify := func(uint64, bool) { events++ }
	p.Add(0, PageSize, 1, notify)
	p.Add(0, PageSize, 1, notify)
	p.Add(0, PageSize, -1, notify)
	if events != 1 {
		t.Errorf("expected only the first +1 to cross zero, got %d transitions", events)
	}
	if p.Get(0) != 1 {
		t.Errorf("page count = %d, want 1", p.Get(0))
	}
}

func TestPageSetSnapshotOmitsZeroPages(t *testing.T) {
	p := NewPageSet()
	notify := func(uint64, bool) {}
	p.Add(0, PageSize, 1, notify)
	p.Add(PageSize, PageSize, 1, notify)
	p.Add(PageSize, PageSize, -1, notify)

	snap := p.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("Snapshot() returned %d pages, want 1 (only the nonzero one)", len(snap))
	}
	if snap[0] != 1 {
		t.Errorf("Snapshot()[0] = %d, want 1", snap[0])
	}
	if _, ok := snap[1]; ok {
		t.Error("Snapshot() should omit pages whose count returned to zero")
	}
}
