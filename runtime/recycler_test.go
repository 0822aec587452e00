package runtime

import "testing"

func TestRecyclerPutTakeExactShape(t *testing.T) {
	r := NewRecycler()
	tag := HostTextureTag{Width: 64, Height: 64, Levels: 1, ResScale: 1}
	alloc := Allocation{ID: 1, Width: 64, Height: 64, Levels: 1, ResScale: 1}
	r.Put(tag, alloc)

	got, ok := r.Take(tag)
	if !ok || got.ID != alloc.ID {
		t.Fatalf("Take = (%v, %v), want (%v, true)", got, ok, alloc)
	}
	if _, ok := r.Take(tag); ok {
		t.Errorf("expected pool to be empty after single Take")
	}
}

func TestRecyclerTakeMissOnDifferentShape(t *testing.T) {
	r := NewRecycler()
	r.Put(HostTextureTag{Width: 64, Height: 64}, Allocation{ID: 1})
	if _, ok := r.Take(HostTextureTag{Width: 32, Height: 32}); ok {
		t.Errorf("expected no match for a different shape")
	}
}

func TestRecyclerClearReleasesAll(t *testing.T) {
	r := NewRecycler()
	tag := HostTextureTag{Width: 8, Height: 8}
	r.Put(tag, Allocation{ID: 1})
	r.Put(tag, Allocation{ID: 2})

	var released []TextureID
	r.Clear(func(a Allocation) { released = append(released, a.ID) })

	if len(released) != 2 {
		t.Fatalf("released %v, want 2 entries", released)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", r.Len())
	}
}
