package customtex

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"

	"github.com/horizon3ds/rastercache/codec"
	"github.com/horizon3ds/rastercache/pixelformat"
)

// maxScanDepth bounds the recursive directory walk ensureIndexed performs,
// guarding against a symlink loop or a pathologically deep tree under the
// load directory.
const maxScanDepth = 64

// replacementNamePattern matches the canonical replacement-texture filename:
// tex1_<width>x<height>_<hex hash>_<format index>.<png|dds|ktx>.
var replacementNamePattern = regexp.MustCompile(`^tex1_(\d+)x(\d+)_([0-9A-Fa-f]+)_(\d+)\.(png|dds|ktx)$`)

// replacementFile is one entry discovered under a Manager's root directory.
type replacementFile struct {
	path          string
	width, height uint32
	format        uint32
	ext           string
}

// Manager resolves guest textures against a directory of replacement files
// on disk, discovered recursively by the tex1_WxH_hash_format.ext naming
// convention, and supports dumping guest textures back out to that same
// directory for an artist to edit.
type Manager struct {
	root  string
	cache *Cache
	pool  *DecodePool

	logger *slog.Logger

	mu      sync.Mutex
	indexed bool
	index   map[uint64]replacementFile
}

// NewManager returns a Manager rooted at dir, with its own cache and decode
// pool. dir need not exist yet; it is created lazily by DumpTexture.
func NewManager(dir string, cacheCapacity, decodeWorkers int) *Manager {
	return &Manager{
		root:   dir,
		cache:  NewCache(cacheCapacity),
		pool:   NewDecodePool(decodeWorkers),
		logger: newNopLogger(),
	}
}

// Close stops the manager's decode pool. The on-disk directory and the
// in-memory cache are left as-is.
func (m *Manager) Close() { m.pool.Close() }

// parseReplacementName parses name against replacementNamePattern, reporting
// the decoded hash/geometry/format alongside ok=false if name doesn't match.
func parseReplacementName(name string) (hash uint64, rf replacementFile, ok bool) {
	match := replacementNamePattern.FindStringSubmatch(name)
	if match == nil {
		return 0, replacementFile{}, false
	}
	width, err := strconv.ParseUint(match[1], 10, 32)
	if err != nil {
		return 0, replacementFile{}, false
	}
	height, err := strconv.ParseUint(match[2], 10, 32)
	if err != nil {
		return 0, replacementFile{}, false
	}
	hash, err = strconv.ParseUint(match[3], 16, 64)
	if err != nil {
		return 0, replacementFile{}, false
	}
	format, err := strconv.ParseUint(match[4], 10, 32)
	if err != nil {
		return 0, replacementFile{}, false
	}
	return hash, replacementFile{
		width:  uint32(width),
		height: uint32(height),
		format: uint32(format),
		ext:    "." + match[5],
	}, true
}

// ensureIndexed builds the replacement-file index on first use, scanning
// root recursively. Later calls are a no-op; the index is only invalidated
// by a fresh dump (handled in place in DumpTexture) rather than re-scanned.
func (m *Manager) ensureIndexed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexed {
		return
	}
	m.index = make(map[uint64]replacementFile)
	m.scanDir(m.root, 0)
	m.indexed = true
}

// scanDir walks dir recursively up to maxScanDepth, registering every file
// matching replacementNamePattern into m.index. A hash seen twice is logged
// and the later occurrence is ignored, keeping the first one found.
func (m *Manager) scanDir(dir string, depth int) {
	if depth > maxScanDepth {
		m.logger.Warn("customtex: directory nesting exceeds scan limit, stopping", "dir", dir, "limit", maxScanDepth)
		return
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		m.logger.Warn("customtex: failed to read directory", "dir", dir, "error", err)
		return
	}
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.IsDir() {
			m.scanDir(path, depth+1)
			continue
		}
		hash, rf, ok := parseReplacementName(e.Name())
		if !ok {
			continue
		}
		rf.path = path
		if existing, dup := m.index[hash]; dup {
			m.logger.Warn("customtex: duplicate texture hash, ignoring later file",
				"hash", fmt.Sprintf("%#016x", hash), "kept", existing.path, "ignored", path)
			continue
		}
		m.index[hash] = rf
	}
}

// FindCustomTextures reports whether a replacement file exists for hash
// without loading it.
func (m *Manager) FindCustomTextures(hash uint64) bool {
	m.ensureIndexed()
	m.mu.Lock()
	_, ok := m.index[hash]
	m.mu.Unlock()
	return ok
}

// GetTexture returns the already-decoded replacement for hash, if it has
// been loaded (via PreloadTextures or a completed QueueDecode) into the
// cache.
func (m *Manager) GetTexture(hash uint64) (*Texture, bool) {
	return m.cache.Get(hash)
}

// LoadTexture synchronously decodes the replacement file for hash from
// disk and stores it in the cache. PNG replacements decode fully to RGBA;
// DDS and KTX replacements keep their compressed payload untouched.
func (m *Manager) LoadTexture(hash uint64) (*Texture, error) {
	m.ensureIndexed()
	m.mu.Lock()
	rf, ok := m.index[hash]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("customtex: no replacement for %#016x: %w", hash, os.ErrNotExist)
	}

	data, err := os.ReadFile(rf.path)
	if err != nil {
		m.logger.Warn("customtex: failed to read replacement file", "path", rf.path, "error", err)
		return nil, err
	}

	var tex *Texture
	switch rf.ext {
	case ".dds":
		img, err := codec.DecodeDDSHeader(data)
		if err != nil {
			m.logger.Warn("customtex: decode fault", "path", rf.path, "error", err)
			return nil, fmt.Errorf("customtex: decode %#016x: %w", hash, err)
		}
		tex = &Texture{
			Width: img.Width, Height: img.Height,
			Compressed: &CompressedTexture{Format: img.FourCC, Data: img.Data},
		}
	case ".ktx":
		img, err := codec.DecodeKTXHeader(data)
		if err != nil {
			m.logger.Warn("customtex: decode fault", "path", rf.path, "error", err)
			return nil, fmt.Errorf("customtex: decode %#016x: %w", hash, err)
		}
		tex = &Texture{
			Width: img.Width, Height: img.Height,
			Compressed: &CompressedTexture{Format: fmt.Sprintf("GL:%#x", img.GLInternalFormat), Data: img.Data},
		}
	default:
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			m.logger.Warn("customtex: decode fault", "path", rf.path, "error", err)
			return nil, fmt.Errorf("customtex: decode %#016x: %w", hash, err)
		}
		tex = toTexture(img)
	}

	m.cache.Set(hash, tex)
	return tex, nil
}

// QueueDecode asynchronously loads the replacement for hash on the decode
// pool and invokes onDone with the result once finished. onDone runs on a
// pool worker goroutine, except when hash is already cached: then it runs
// synchronously on the caller's goroutine before QueueDecode returns.
func (m *Manager) QueueDecode(hash uint64, onDone func(*Texture, error)) {
	if tex, ok := m.cache.Get(hash); ok {
		if onDone != nil {
			onDone(tex, nil)
		}
		return
	}
	m.pool.QueueDecode(func() {
		tex, err := m.LoadTexture(hash)
		if onDone != nil {
			onDone(tex, err)
		}
	})
}

// PreloadTextures recursively scans the manager's root directory for every
// replacement file matching the tex1_WxH_hash_format.ext naming convention
// and queues each for decode, returning once all jobs are queued (not once
// they finish).
func (m *Manager) PreloadTextures() error {
	m.ensureIndexed()
	m.mu.Lock()
	hashes := make([]uint64, 0, len(m.index))
	for hash := range m.index {
		hashes = append(hashes, hash)
	}
	m.mu.Unlock()
	for _, hash := range hashes {
		m.QueueDecode(hash, nil)
	}
	return nil
}

// DumpTexture writes a decoded guest texture to disk under the canonical
// tex1_WxH_hash_format.png name, creating the manager's root directory if
// necessary, so an artist can locate and replace it. It does not overwrite
// an existing dump.
func (m *Manager) DumpTexture(format pixelformat.Format, width, height uint32, rgba []byte) (uint64, error) {
	m.ensureIndexed()

	hash := ComputeHash(format, width, height, rgba)
	m.mu.Lock()
	if _, exists := m.index[hash]; exists {
		m.mu.Unlock()
		return hash, nil
	}
	m.mu.Unlock()

	name := fmt.Sprintf("tex1_%dx%d_%016x_%d.png", width, height, hash, uint32(format))
	path := filepath.Join(m.root, name)
	if _, err := os.Stat(path); err == nil {
		m.mu.Lock()
		m.index[hash] = replacementFile{path: path, width: width, height: height, format: uint32(format), ext: ".png"}
		m.mu.Unlock()
		return hash, nil
	}

	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return 0, err
	}

	img := &image.NRGBA{
		Pix:    rgba,
		Stride: int(width) * 4,
		Rect:   image.Rect(0, 0, int(width), int(height)),
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return 0, fmt.Errorf("customtex: encode dump %#016x: %w", hash, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return 0, err
	}

	m.mu.Lock()
	m.index[hash] = replacementFile{path: path, width: width, height: height, format: uint32(format), ext: ".png"}
	m.mu.Unlock()
	return hash, nil
}

func toTexture(img image.Image) *Texture {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	return &Texture{Width: uint32(b.Dx()), Height: uint32(b.Dy()), RGBA: out.Pix}
}
