package rastercache

import (
	"context"
	"log/slog"
	"testing"

	"github.com/horizon3ds/rastercache/codec"
	"github.com/horizon3ds/rastercache/pixelformat"
	"github.com/horizon3ds/rastercache/runtime"
	"github.com/horizon3ds/rastercache/surface"
	"github.com/horizon3ds/rastercache/surfaceparams"
)

// recordingHandler captures the level of every log record emitted through
// it, so a test can assert a fallback path actually logged without caring
// about message text.
type recordingHandler struct {
	levels *[]slog.Level
}

func (h recordingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h recordingHandler) Handle(_ context.Context, r slog.Record) error {
	*h.levels = append(*h.levels, r.Level)
	return nil
}
func (h recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h recordingHandler) WithGroup(string) slog.Handler      { return h }

type fakeMemory struct {
	data map[uint64][]byte
}

func newFakeMemory() *fakeMemory { return &fakeMemory{data: make(map[uint64][]byte)} }

func (m *fakeMemory) ReadPhysical(addr uint64, size uint32) []byte {
	out := make([]byte, size)
	if existing, ok := m.data[addr]; ok {
		copy(out, existing)
	}
	return out
}

func (m *fakeMemory) WritePhysical(addr uint64, data []byte) {
	buf := make([]byte, len(data))
	copy(buf, data)
	m.data[addr] = buf
}

type fakePages struct {
	transitions int
}

func (p *fakePages) MarkRegionCached(addr uint64, size uint32, cached bool) {
	p.transitions++
}

func newTestCache() (*Cache, *fakePages) {
	pages := &fakePages{}
	c := New(Config{
		Backend: runtime.NewSoftwareBackend(),
		Codec:   codec.PixelCodec{},
		Memory:  newFakeMemory(),
		Pages:   pages,
	})
	return c, pages
}

func rgba8Params(addr uint64, w, h, stride uint32) surfaceparams.Params {
	p := surfaceparams.Params{
		Addr: addr, Width: w, Height: h, Stride: stride,
		Levels: 1, ResScale: 1, PixelFormat: pixelformat.RGBA8,
		TextureType: pixelformat.Texture2D,
	}
	p.UpdateParams()
	return p
}

func TestGetSurfaceCreatesAndReusesExactMatch(t *testing.T) {
	c, pages := newTestCache()
	p := rgba8Params(0x1000, 8, 8, 8)

	s1 := c.GetSurface(p, ScaleExact, false)
	if s1 == nil {
		t.Fatal("GetSurface returned nil")
	}
	if pages.transitions != 1 {
		t.Errorf("page transitions after first register = %d, want 1", pages.transitions)
	}

	s2 := c.GetSurface(p, ScaleExact, false)
	if s1 != s2 {
		t.Error("GetSurface should return the same surface for an identical request")
	}
	if pages.transitions != 1 {
		t.Errorf("page transitions should not grow on a cache hit, got %d", pages.transitions)
	}
}

func TestGetSurfaceLoadIfCreateValidatesFromMemory(t *testing.T) {
	c, _ := newTestCache()
	p := rgba8Params(0x2000, 4, 4, 4)

	s := c.GetSurface(p, ScaleExact, true)
	if s == nil {
		t.Fatal("GetSurface returned nil")
	}
	if !s.IsRegionValid(p.GetInterval()) {
		t.Error("loadIfCreate=true should have validated the surface across its full interval")
	}
}

func TestUnregisterSurfaceDropsPageReferences(t *testing.T) {
	c, pages := newTestCache()
	p := rgba8Params(0x3000, 4, 4, 4)

	s := c.GetSurface(p, ScaleExact, false)
	c.unregisterSurface(s)
	if pages.transitions != 2 {
		t.Errorf("page transitions after register+unregister = %d, want 2", pages.transitions)
	}
	if s.Registered {
		t.Error("surface should no longer be registered")
	}
}

func TestFindMatchPrefersHigherResolutionScale(t *testing.T) {
	c, _ := newTestCache()
	low := rgba8Params(0x4000, 8, 8, 8)
	low.ResScale = 1
	high := rgba8Params(0x4000, 8, 8, 8)
	high.ResScale = 2

	c.registerSurface(c.createSurface(low))
	c.registerSurface(c.createSurface(high))

	query := rgba8Params(0x4000, 8, 8, 8)
	match := c.findMatch(matchExact|matchInvalid, &query, ScaleIgnore, nil)
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.Params.ResScale != 2 {
		t.Errorf("findMatch picked ResScale=%d, want the higher-scaled surface (2)", match.Params.ResScale)
	}
}

func TestInvalidateRegionMarksOverlappingSurfacesStale(t *testing.T) {
	c, _ := newTestCache()
	p := rgba8Params(0x5000, 4, 4, 4)
	s := c.GetSurface(p, ScaleExact, true)
	if !s.IsRegionValid(p.GetInterval()) {
		t.Fatal("surface should start valid after loadIfCreate")
	}

	c.InvalidateRegion(p.Addr, p.Size, nil)
	if s.IsRegionValid(p.GetInterval()) {
		t.Error("InvalidateRegion with no owner should have invalidated the overlapping surface")
	}
}

func TestGetTextureCubeAllocatesAndCopiesFaces(t *testing.T) {
	c, _ := newTestCache()
	config := surface.CubeConfig{
		Width:  8,
		Format: pixelformat.RGBA8,
	}
	for face := range config.Face {
		config.Face[face] = uint64(0x10000 + face*0x1000)
	}

	cube := c.GetTextureCube(config)
	if !cube.Allocated {
		t.Fatal("GetTextureCube should allocate the host cube texture")
	}
	if cube.Alloc.Empty() {
		t.Fatal("GetTextureCube should populate a real host Allocation, not leave it empty")
	}
	for face := range cube.Watchers {
		if cube.Watchers[face] == nil {
			t.Errorf("face %d should have a watcher bound to its source surface", face)
		}
	}

	// A second call with every watcher still valid should reuse the same
	// allocation rather than re-allocating.
	alloc := cube.Alloc
	cube2 := c.GetTextureCube(config)
	if cube2 != cube {
		t.Fatal("GetTextureCube should return the same cached cube for an identical config")
	}
	if cube2.Alloc != alloc {
		t.Error("a revalidation pass with nothing invalidated should not reallocate the cube texture")
	}
}

func TestSetLoggerReceivesFallbackWarning(t *testing.T) {
	c, _ := newTestCache()
	var levels []slog.Level
	c.SetLogger(slog.New(recordingHandler{levels: &levels}))

	// Nothing is registered at either address, so the source side of the
	// copy can never resolve to a cached surface and the call must fall
	// back to a CPU copy, logging a warning on the way out.
	req := TextureCopyRequest{
		Src: rgba8Params(0x7000, 8, 8, 8),
		Dst: rgba8Params(0x7100, 8, 8, 8),
	}
	if c.AccelerateTextureCopy(req) {
		t.Fatal("AccelerateTextureCopy should fail when no surface backs the source range")
	}
	found := false
	for _, lvl := range levels {
		if lvl == slog.LevelWarn {
			found = true
		}
	}
	if !found {
		t.Error("AccelerateTextureCopy's fallback path should log a warning through the configured logger")
	}
}

func TestGetFillSurfaceSatisfiesLaterCopy(t *testing.T) {
	c, _ := newTestCache()
	pattern := surface.FillPattern{Data: [4]byte{0xFF, 0, 0, 0xFF}, Size: 4}
	addr, size := uint64(0x6000), uint64(256)

	c.GetFillSurface(addr, size, pattern)

	dst := rgba8Params(addr, 8, 8, 8)
	s := c.GetSurface(dst, ScaleExact, true)
	if !s.IsRegionValid(dst.GetInterval()) {
		t.Error("a surface entirely covered by a fill should validate without touching guest memory")
	}
}
