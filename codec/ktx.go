package codec

import (
	"encoding/binary"
	"errors"
)

// ErrNotKTX is returned by DecodeKTXHeader when the input lacks the KTX 1.0
// file identifier.
var ErrNotKTX = errors.New("codec: not a KTX file")

var ktxIdentifier = [12]byte{
	0xAB, 'K', 'T', 'X', ' ', '1', '1', 0xBB, '\r', '\n', 0x1A, '\n',
}

// KTXImage is a parsed KTX 1.0 container: geometry, the GL internal format
// token (identifying the compressed block format: ASTC, ETC2, BCn, ...),
// and the first mip level's payload. As with DDSImage, the compressed bytes
// are returned untouched.
type KTXImage struct {
	Width, Height    uint32
	GLInternalFormat uint32
	Data             []byte
}

const ktxHeaderSize = 64 // 12-byte identifier + 13 uint32 header fields

// DecodeKTXHeader parses a KTX 1.0 container's header and returns its
// geometry, GL internal format, and the first mip level's compressed
// payload (the 4-byte imageSize prefix is consumed, not included).
func DecodeKTXHeader(data []byte) (KTXImage, error) {
	if len(data) < ktxHeaderSize {
		return KTXImage{}, ErrNotKTX
	}
	for i, b := range ktxIdentifier {
		if data[i] != b {
			return KTXImage{}, ErrNotKTX
		}
	}

	endianness := binary.LittleEndian.Uint32(data[12:16])
	order := binary.ByteOrder(binary.LittleEndian)
	if endianness == 0x01020304 {
		order = binary.BigEndian
	}

	glInternalFormat := order.Uint32(data[28:32])
	width := order.Uint32(data[36:40])
	height := order.Uint32(data[40:44])
	bytesOfKeyValueData := order.Uint32(data[60:64])

	offset := ktxHeaderSize + int(bytesOfKeyValueData)
	if offset+4 > len(data) {
		return KTXImage{Width: width, Height: height, GLInternalFormat: glInternalFormat}, nil
	}
	imageSize := int(order.Uint32(data[offset : offset+4]))
	offset += 4

	var payload []byte
	if end := offset + imageSize; offset <= len(data) && end <= len(data) {
		payload = data[offset:end]
	}

	return KTXImage{Width: width, Height: height, GLInternalFormat: glInternalFormat, Data: payload}, nil
}
