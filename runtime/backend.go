package runtime

import "github.com/horizon3ds/rastercache/pixelformat"

// Backend is the capability set C3 exposes to the rasterizer cache. A
// concrete implementation owns the real host textures; the cache only ever
// talks to one through this interface, so software, scaled, and mobile
// backends can share the same Cache implementation.
type Backend interface {
	// Name identifies the backend, e.g. "software", "opengl".
	Name() string

	// FormatTuple returns the backend-specific tuple for a pixel format.
	FormatTuple(format pixelformat.Format) FormatTuple

	// FindStaging returns a mapped byte span of at least size bytes for an
	// upload (toDevice) or download (fromDevice) transfer. There are no
	// concurrent callers: the cache serializes staging use on its single
	// thread.
	FindStaging(size uint32, toDevice bool) StagingData

	// Allocate creates a new host texture of the given shape. Returns the
	// zero Allocation if the backend cannot satisfy the request.
	Allocate(width, height, levels uint32, resScale uint16, tuple FormatTuple, kind pixelformat.Kind) Allocation

	// Release frees a host texture previously returned by Allocate. Called
	// when an allocation is dropped from the recycler rather than reused.
	Release(a Allocation)

	// Clear fills a rectangle (and optional depth/stencil) of alloc.
	Clear(alloc Allocation, clear TextureClear) bool

	// Copy performs an exact pixel copy between two allocations of
	// compatible format, no filtering.
	Copy(src, dst Allocation, copy TextureCopy) bool

	// Blit performs a stretched copy with linear filtering for color,
	// nearest for depth/stencil.
	Blit(src, dst Allocation, blit TextureBlit) bool

	// GenerateMipmaps generates levels 1..maxLevel of alloc on the host.
	GenerateMipmaps(alloc Allocation, maxLevel uint32)

	// Upload writes staging bytes into a rectangle of alloc.
	Upload(alloc Allocation, copy BufferTextureCopy, staging StagingData)

	// Download reads a rectangle of alloc into staging bytes.
	Download(alloc Allocation, copy BufferTextureCopy, staging StagingData)
}

// ReinterpreterProvider is implemented by backends that support format
// reinterpretation shaders. ReinterpretersFor returns every registered
// reinterpreter whose To format matches dst, most recently registered
// first.
type ReinterpreterProvider interface {
	ReinterpretersFor(dst pixelformat.Format) []Reinterpreter
}

// DeviceProviderAware is implemented by backends that can share a GPU
// device with an external provider instead of creating their own, mirroring
// gg's accelerator device-sharing hook.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}
