package runtime

import (
	"image"
	"image/color"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/image/draw"

	"github.com/horizon3ds/rastercache/pixelformat"
)

// PrioritySoftware is the selection priority of the software backend: it is
// always available, so it sits at the bottom of the priority order and
// only wins when nothing else registers.
const PrioritySoftware = 0

func init() {
	Register("software", PrioritySoftware, func() Backend { return NewSoftwareBackend() })
}

// SoftwareBackend implements Backend entirely in host memory using
// golang.org/x/image/draw for the scale blit fallback path C4 calls for
// when a resolution-scale upload has no filter shader available. It exists
// so the rasterizer cache is testable without a real GPU device, and as
// the last-resort entry in runtime.Registry's priority order.
type SoftwareBackend struct {
	mu      sync.Mutex
	next    atomic.Uint64
	images  map[TextureID]*image.RGBA
	staging []byte
	logger  *slog.Logger
}

// NewSoftwareBackend returns a ready-to-use software backend.
func NewSoftwareBackend() *SoftwareBackend {
	return &SoftwareBackend{images: make(map[TextureID]*image.RGBA), logger: newNopLogger()}
}

// SetLogger configures the logger this backend uses for its own
// diagnostics (degenerate allocation requests, allocate/release traffic).
// Pass nil to restore the silent default.
func (b *SoftwareBackend) SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	b.logger = l
}

func (b *SoftwareBackend) Name() string { return "software" }

func (b *SoftwareBackend) FormatTuple(format pixelformat.Format) FormatTuple {
	// The software backend always stores pixels decoded to RGBA8
	// regardless of guest format, so the tuple only needs to distinguish
	// depth formats for blittability checks upstream.
	return FormatTuple{Internal: uint32(format), Format: uint32(pixelformat.SurfaceType(format)), Type: 0}
}

func (b *SoftwareBackend) FindStaging(size uint32, _ bool) StagingData {
	b.mu.Lock()
	defer b.mu.Unlock()
	if uint32(len(b.staging)) < size {
		b.staging = make([]byte, size)
	}
	return StagingData{Size: size, Mapped: b.staging[:size]}
}

func (b *SoftwareBackend) Allocate(width, height, levels uint32, resScale uint16, tuple FormatTuple, kind pixelformat.Kind) Allocation {
	if width == 0 || height == 0 {
		b.logger.Warn("runtime: software backend rejected degenerate allocation", "width", width, "height", height, "kind", kind)
		return Allocation{}
	}
	id := TextureID(b.next.Add(1))
	img := image.NewRGBA(image.Rect(0, 0, int(width*uint32(resScale)), int(height*uint32(resScale))))
	b.mu.Lock()
	b.images[id] = img
	b.mu.Unlock()
	b.logger.Debug("runtime: software backend allocated texture",
		"id", id, "width", width, "height", height, "resScale", resScale, "kind", kind)
	return Allocation{ID: id, Tuple: tuple, Width: width, Height: height, Levels: levels, ResScale: resScale}
}

func (b *SoftwareBackend) Release(a Allocation) {
	b.mu.Lock()
	delete(b.images, a.ID)
	b.mu.Unlock()
	b.logger.Debug("runtime: software backend released texture", "id", a.ID)
}

func (b *SoftwareBackend) image(id TextureID) *image.RGBA {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.images[id]
}

func (b *SoftwareBackend) Clear(alloc Allocation, clear TextureClear) bool {
	img := b.image(alloc.ID)
	if img == nil {
		return false
	}
	rect := image.Rect(int(clear.TextureRect.Left), int(clear.TextureRect.Bottom), int(clear.TextureRect.Right), int(clear.TextureRect.Top))
	c := clear.Value
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetRGBA(x, y, rgba(c))
		}
	}
	return true
}

func (b *SoftwareBackend) Copy(src, dst Allocation, copy TextureCopy) bool {
	s, d := b.image(src.ID), b.image(dst.ID)
	if s == nil || d == nil {
		return false
	}
	sr := image.Rect(int(copy.SrcRect.Left), int(copy.SrcRect.Bottom), int(copy.SrcRect.Right), int(copy.SrcRect.Top))
	dp := image.Point{X: int(copy.DstRect.Left), Y: int(copy.DstRect.Bottom)}
	draw.Draw(d, image.Rectangle{Min: dp, Max: dp.Add(sr.Size())}, s, sr.Min, draw.Src)
	return true
}

func (b *SoftwareBackend) Blit(src, dst Allocation, blit TextureBlit) bool {
	s, d := b.image(src.ID), b.image(dst.ID)
	if s == nil || d == nil {
		return false
	}
	sr := image.Rect(int(blit.SrcRect.Left), int(blit.SrcRect.Bottom), int(blit.SrcRect.Right), int(blit.SrcRect.Top))
	dr := image.Rect(int(blit.DstRect.Left), int(blit.DstRect.Bottom), int(blit.DstRect.Right), int(blit.DstRect.Top))
	scaler := draw.NearestNeighbor
	if blit.LinearFilter {
		scaler = draw.ApproxBiLinear
	}
	scaler.Scale(d, dr, s, sr, draw.Over, nil)
	return true
}

func (b *SoftwareBackend) GenerateMipmaps(alloc Allocation, maxLevel uint32) {
	// The software backend keeps only level 0; mip generation is a no-op
	// here and callers fall back to explicit per-level blits, matching the
	// "filterer is null" branch of GetTextureSurface.
}

func (b *SoftwareBackend) Upload(alloc Allocation, copy BufferTextureCopy, staging StagingData) {
	img := b.image(alloc.ID)
	if img == nil {
		return
	}
	rect := image.Rect(int(copy.TextureRect.Left), int(copy.TextureRect.Bottom), int(copy.TextureRect.Right), int(copy.TextureRect.Top))
	stride := rect.Dx() * 4
	for y := 0; y < rect.Dy(); y++ {
		row := staging.Mapped[y*stride : (y+1)*stride]
		for x := 0; x < rect.Dx(); x++ {
			px := row[x*4 : x*4+4]
			img.SetRGBA(rect.Min.X+x, rect.Min.Y+y, color4(px))
		}
	}
}

func (b *SoftwareBackend) Download(alloc Allocation, copy BufferTextureCopy, staging StagingData) {
	img := b.image(alloc.ID)
	if img == nil {
		return
	}
	rect := image.Rect(int(copy.TextureRect.Left), int(copy.TextureRect.Bottom), int(copy.TextureRect.Right), int(copy.TextureRect.Top))
	stride := rect.Dx() * 4
	for y := 0; y < rect.Dy(); y++ {
		row := staging.Mapped[y*stride : (y+1)*stride]
		for x := 0; x < rect.Dx(); x++ {
			c := img.RGBAAt(rect.Min.X+x, rect.Min.Y+y)
			row[x*4+0], row[x*4+1], row[x*4+2], row[x*4+3] = c.R, c.G, c.B, c.A
		}
	}
}

func rgba(c [4]uint8) color.RGBA {
	return color.RGBA{R: c[0], G: c[1], B: c[2], A: c[3]}
}

func color4(px []byte) color.RGBA {
	return color.RGBA{R: px[0], G: px[1], B: px[2], A: px[3]}
}
