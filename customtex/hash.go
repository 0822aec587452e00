package customtex

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/horizon3ds/rastercache/pixelformat"
)

// ComputeHash digests a decoded guest texture's geometry and pixel content
// into the key the custom texture directory is organized by, so the same
// guest texture always resolves to the same replacement file regardless of
// where in memory it happens to live this session.
func ComputeHash(format pixelformat.Format, width, height uint32, pixels []byte) uint64 {
	h := fnv.New64a()
	var hdr [12]byte
	binary.LittleEndian.PutUint32(hdr[0:4], width)
	binary.LittleEndian.PutUint32(hdr[4:8], height)
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(format))
	_, _ = h.Write(hdr[:])
	_, _ = h.Write(pixels)
	return h.Sum64()
}
