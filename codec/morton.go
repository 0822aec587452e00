package codec

// mortonXLUT and mortonYLUT interleave the low 3 bits of a tile-local x/y
// coordinate into the bit pattern the PICA200's 8x8 Morton-order tiling
// uses, so a pixel's position within a tile can be turned into a linear
// offset with two table lookups and an add.
var (
	mortonXLUT = [8]uint32{0, 1, 4, 5, 16, 17, 20, 21}
	mortonYLUT = [8]uint32{0, 2, 8, 10, 32, 34, 40, 42}
)

// mortonOffset returns the pixel offset of (x, y) within its 8x8 tile.
func mortonOffset(x, y uint32) uint32 {
	return mortonXLUT[x%8] + mortonYLUT[y%8]
}

// untile walks every pixel of a width x height tiled surface in guest
// storage order and calls visit(linearIndex, tiledIndex) once per pixel,
// where linearIndex is the pixel's row-major position and tiledIndex is
// its position in the 8x8-Morton-tiled, bottom-row-first guest layout.
func untile(width, height uint32, visit func(linearIndex, tiledIndex uint32)) {
	tilesPerRow := width / 8
	for y := uint32(0); y < height; y++ {
		tileRow := y / 8
		for x := uint32(0); x < width; x++ {
			tileCol := x / 8
			tileIndex := tileRow*tilesPerRow + tileCol
			within := mortonOffset(x, y)
			tiledIndex := tileIndex*64 + within
			linearIndex := y*width + x
			visit(linearIndex, tiledIndex)
		}
	}
}
