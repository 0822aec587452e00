package codec

import "github.com/horizon3ds/rastercache/pixelformat"

type decodeFunc func(raw uint32, dst []byte)
type encodeFunc func(src []byte) uint32

// passthroughDecode copies n raw bytes straight into dst, used for every format
// that keeps the same byte width on guest and host (Color, Depth, and
// DepthStencil formats).
func passthroughDecode(n int) decodeFunc {
	return func(raw uint32, dst []byte) {
		for i := 0; i < n; i++ {
			dst[i] = byte(raw >> (8 * i))
		}
	}
}

func passthroughEncode(n int) encodeFunc {
	return func(src []byte) uint32 {
		var v uint32
		for i := 0; i < n; i++ {
			v |= uint32(src[i]) << (8 * i)
		}
		return v
	}
}

func decodeFuncFor(format pixelformat.Format) decodeFunc {
	switch format {
	case pixelformat.RGBA8, pixelformat.D24S8:
		return passthroughDecode(4)
	case pixelformat.RGB8:
		return passthroughDecode(3)
	case pixelformat.D24:
		return func(raw uint32, dst []byte) {
			dst[0], dst[1], dst[2], dst[3] = byte(raw), byte(raw>>8), byte(raw>>16), 0
		}
	case pixelformat.RGB5A1, pixelformat.RGB565, pixelformat.RGBA4, pixelformat.D16:
		return passthroughDecode(2)
	case pixelformat.IA8:
		return func(raw uint32, dst []byte) {
			a, i := byte(raw), byte(raw>>8)
			dst[0], dst[1], dst[2], dst[3] = i, i, i, a
		}
	case pixelformat.RG8:
		return func(raw uint32, dst []byte) {
			dst[0], dst[1], dst[2], dst[3] = byte(raw), byte(raw>>8), 0, 255
		}
	case pixelformat.I8:
		return func(raw uint32, dst []byte) {
			i := byte(raw)
			dst[0], dst[1], dst[2], dst[3] = i, i, i, 255
		}
	case pixelformat.A8:
		return func(raw uint32, dst []byte) {
			dst[0], dst[1], dst[2], dst[3] = 0, 0, 0, byte(raw)
		}
	case pixelformat.IA4:
		return func(raw uint32, dst []byte) {
			a, i := byte(raw&0xF)*17, byte((raw>>4)&0xF)*17
			dst[0], dst[1], dst[2], dst[3] = i, i, i, a
		}
	case pixelformat.I4:
		return func(raw uint32, dst []byte) {
			i := byte(raw&0xF) * 17
			dst[0], dst[1], dst[2], dst[3] = i, i, i, 255
		}
	case pixelformat.A4:
		return func(raw uint32, dst []byte) {
			dst[0], dst[1], dst[2], dst[3] = 0, 0, 0, byte(raw&0xF)*17
		}
	case pixelformat.ETC1, pixelformat.ETC1A4:
		// Block-compressed: genuine decompression needs 4x4 block context
		// this per-pixel codec doesn't carry. A flat mid-gray stand-in
		// avoids reading garbage into the staging buffer.
		return func(raw uint32, dst []byte) {
			dst[0], dst[1], dst[2], dst[3] = 128, 128, 128, 255
		}
	default:
		return passthroughDecode(4)
	}
}

func encodeFuncFor(format pixelformat.Format) encodeFunc {
	switch format {
	case pixelformat.RGBA8, pixelformat.D24S8:
		return passthroughEncode(4)
	case pixelformat.RGB8:
		return passthroughEncode(3)
	case pixelformat.D24:
		return func(src []byte) uint32 {
			return uint32(src[0]) | uint32(src[1])<<8 | uint32(src[2])<<16
		}
	case pixelformat.RGB5A1, pixelformat.RGB565, pixelformat.RGBA4, pixelformat.D16:
		return passthroughEncode(2)
	case pixelformat.IA8:
		return func(src []byte) uint32 {
			return uint32(src[3]) | uint32(src[0])<<8
		}
	case pixelformat.RG8:
		return func(src []byte) uint32 {
			return uint32(src[0]) | uint32(src[1])<<8
		}
	case pixelformat.I8:
		return func(src []byte) uint32 { return uint32(src[0]) }
	case pixelformat.A8:
		return func(src []byte) uint32 { return uint32(src[3]) }
	case pixelformat.IA4:
		return func(src []byte) uint32 {
			i, a := uint32(src[0])/17, uint32(src[3])/17
			return (i&0xF)<<4 | (a & 0xF)
		}
	case pixelformat.I4:
		return func(src []byte) uint32 { return (uint32(src[0]) / 17) & 0xF }
	case pixelformat.A4:
		return func(src []byte) uint32 { return (uint32(src[3]) / 17) & 0xF }
	case pixelformat.ETC1, pixelformat.ETC1A4:
		return func(src []byte) uint32 { return 0 }
	default:
		return passthroughEncode(4)
	}
}
