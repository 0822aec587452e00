package codec

import (
	"encoding/binary"
	"testing"
)

func buildDDSHeader(width, height uint32, fourCC string, payload []byte) []byte {
	buf := make([]byte, ddsHeaderSize+len(payload))
	copy(buf[0:4], "DDS ")
	binary.LittleEndian.PutUint32(buf[12:16], height)
	binary.LittleEndian.PutUint32(buf[16:20], width)
	copy(buf[84:88], fourCC)
	copy(buf[ddsHeaderSize:], payload)
	return buf
}

func TestDecodeDDSHeaderRejectsBadMagic(t *testing.T) {
	if _, err := DecodeDDSHeader([]byte("not a dds file at all")); err != ErrNotDDS {
		t.Errorf("err = %v, want ErrNotDDS", err)
	}
}

func TestDecodeDDSHeaderParsesGeometryAndPayload(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	buf := buildDDSHeader(64, 32, "DXT1", payload)

	img, err := DecodeDDSHeader(buf)
	if err != nil {
		t.Fatalf("DecodeDDSHeader() = %v", err)
	}
	if img.Width != 64 || img.Height != 32 {
		t.Errorf("geometry = %dx%d, want 64x32", img.Width, img.Height)
	}
	if img.FourCC != "DXT1" {
		t.Errorf("FourCC = %q, want DXT1", img.FourCC)
	}
	if string(img.Data) != string(payload) {
		t.Errorf("Data = %v, want %v", img.Data, payload)
	}
}

func buildKTXHeader(width, height, glInternalFormat uint32, payload []byte) []byte {
	buf := make([]byte, ktxHeaderSize+4+len(payload))
	copy(buf[0:12], ktxIdentifier[:])
	binary.LittleEndian.PutUint32(buf[12:16], 0x04030201)
	binary.LittleEndian.PutUint32(buf[28:32], glInternalFormat)
	binary.LittleEndian.PutUint32(buf[36:40], width)
	binary.LittleEndian.PutUint32(buf[40:44], height)
	binary.LittleEndian.PutUint32(buf[60:64], 0)
	binary.LittleEndian.PutUint32(buf[64:68], uint32(len(payload)))
	copy(buf[68:], payload)
	return buf
}

func TestDecodeKTXHeaderRejectsBadIdentifier(t *testing.T) {
	if _, err := DecodeKTXHeader(make([]byte, ktxHeaderSize)); err != ErrNotKTX {
		t.Errorf("err = %v, want ErrNotKTX", err)
	}
}

func TestDecodeKTXHeaderParsesGeometryAndPayload(t *testing.T) {
	payload := []byte{9, 8, 7, 6}
	buf := buildKTXHeader(128, 64, 0x93B0 /* GL_COMPRESSED_RGBA8_ETC2_EAC */, payload)

	img, err := DecodeKTXHeader(buf)
	if err != nil {
		t.Fatalf("DecodeKTXHeader() = %v", err)
	}
	if img.Width != 128 || img.Height != 64 {
		t.Errorf("geometry = %dx%d, want 128x64", img.Width, img.Height)
	}
	if img.GLInternalFormat != 0x93B0 {
		t.Errorf("GLInternalFormat = %#x, want 0x93b0", img.GLInternalFormat)
	}
	if string(img.Data) != string(payload) {
		t.Errorf("Data = %v, want %v", img.Data, payload)
	}
}
