package codec

import (
	"encoding/binary"
	"errors"
)

// ErrNotDDS is returned by DecodeDDSHeader when the input lacks the "DDS "
// magic.
var ErrNotDDS = errors.New("codec: not a DDS file")

// DDSImage is a parsed DDS container: geometry plus the compressed payload
// exactly as the file stores it. No block decompression happens here —
// per the custom texture pipeline's contract, BC-compressed payloads are
// uploaded to the GPU as-is.
type DDSImage struct {
	Width, Height uint32
	FourCC        string
	Data          []byte
}

const ddsHeaderSize = 128 // 4-byte magic + 124-byte DDS_HEADER

// DecodeDDSHeader parses a DDS container's header and returns its geometry,
// FourCC compression tag, and the raw mip-0 payload following the header.
// It does not support the DX10 extended header (BC6H/BC7/ASTC); those
// containers report FourCC "DX10" with no payload interpretation.
func DecodeDDSHeader(data []byte) (DDSImage, error) {
	if len(data) < ddsHeaderSize || string(data[0:4]) != "DDS " {
		return DDSImage{}, ErrNotDDS
	}
	height := binary.LittleEndian.Uint32(data[12:16])
	width := binary.LittleEndian.Uint32(data[16:20])
	fourCC := string(data[84:88])

	headerEnd := ddsHeaderSize
	if fourCC == "DX10" {
		headerEnd += 20 // DDS_HEADER_DXT10
	}
	var payload []byte
	if headerEnd <= len(data) {
		payload = data[headerEnd:]
	}

	return DDSImage{Width: width, Height: height, FourCC: fourCC, Data: payload}, nil
}
