package codec

import (
	"github.com/horizon3ds/rastercache/pixelformat"
	"github.com/horizon3ds/rastercache/surfaceparams"
)

// PixelCodec implements rastercache.TextureCodec for every format in
// pixelformat.Format. Color, Depth, and DepthStencil formats keep their
// native guest bit width on the host (BytesPerPixel == BitsPerBlock/8,
// except 24-bit D24, which is stored in 4 host bytes);
// Texture formats are always expanded to 4-byte RGBA8 on decode, since the
// host never samples a guest-native intensity/alpha texture directly.
type PixelCodec struct{}

// Decode unpacks guest-ordered (possibly tiled, possibly sub-byte-packed)
// pixels from src into linear, byte-aligned host pixels in dst.
func (PixelCodec) Decode(params *surfaceparams.Params, start, end uint64, src, dst []byte) {
	bpp := pixelformat.BitsPerBlock(params.PixelFormat)
	dstBpp := int(pixelformat.BytesPerPixel(params.PixelFormat))
	decodePixel := decodeFuncFor(params.PixelFormat)

	forEachPixel(params, func(linear, tiled uint32) {
		raw := readBits(src, tiled*bpp, bpp)
		decodePixel(raw, dst[int(linear)*dstBpp:])
	})
}

// Encode packs linear host pixels from src back into guest-ordered,
// sub-byte-packed bytes in dst.
func (PixelCodec) Encode(params *surfaceparams.Params, start, end uint64, src, dst []byte) {
	bpp := pixelformat.BitsPerBlock(params.PixelFormat)
	srcBpp := int(pixelformat.BytesPerPixel(params.PixelFormat))
	encodePixel := encodeFuncFor(params.PixelFormat)

	forEachPixel(params, func(linear, tiled uint32) {
		raw := encodePixel(src[int(linear)*srcBpp:])
		writeBits(dst, tiled*bpp, bpp, raw)
	})
}

// forEachPixel visits every pixel of params' rectangle, providing both its
// row-major linear index and its index in guest storage order (Morton
// tiled or plain row-major).
func forEachPixel(params *surfaceparams.Params, visit func(linear, tiled uint32)) {
	if !params.IsTiled {
		total := params.Width * params.Height
		for i := uint32(0); i < total; i++ {
			visit(i, i)
		}
		return
	}
	untile(params.Width, params.Height, visit)
}

// readBits reads a bitWidth-wide (4, 8, 16, 24, or 32) little-endian field
// starting at bitOffset out of a byte-packed buffer.
func readBits(buf []byte, bitOffset, bitWidth uint32) uint32 {
	if bitWidth == 4 {
		b := buf[bitOffset/8]
		if (bitOffset/4)%2 == 0 {
			return uint32(b & 0xF)
		}
		return uint32(b >> 4)
	}
	byteOffset := bitOffset / 8
	nbytes := bitWidth / 8
	var v uint32
	for i := uint32(0); i < nbytes; i++ {
		v |= uint32(buf[byteOffset+i]) << (8 * i)
	}
	return v
}

// writeBits is the inverse of readBits.
func writeBits(buf []byte, bitOffset, bitWidth, value uint32) {
	if bitWidth == 4 {
		idx := bitOffset / 8
		if (bitOffset/4)%2 == 0 {
			buf[idx] = (buf[idx] & 0xF0) | byte(value&0xF)
		} else {
			buf[idx] = (buf[idx] & 0x0F) | byte((value&0xF)<<4)
		}
		return
	}
	byteOffset := bitOffset / 8
	nbytes := bitWidth / 8
	for i := uint32(0); i < nbytes; i++ {
		buf[byteOffset+i] = byte(value >> (8 * i))
	}
}
