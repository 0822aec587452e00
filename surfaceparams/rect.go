package surfaceparams

// Rect is an axis-aligned pixel rectangle, right-exclusive on the X axis
// and with Top >= Bottom (origin bottom-left, matching the host GPU
// coordinate convention rather than guest top-left raster order).
type Rect struct {
	Left, Top, Right, Bottom uint32
}

// Width returns Right-Left.
func (r Rect) Width() uint32 { return r.Right - r.Left }

// Height returns Top-Bottom.
func (r Rect) Height() uint32 { return r.Top - r.Bottom }

// Scale multiplies every coordinate by factor, used to go from an unscaled
// rect to the rectangle within a resolution-scaled allocation.
func (r Rect) Scale(factor uint32) Rect {
	return Rect{
		Left:   r.Left * factor,
		Top:    r.Top * factor,
		Right:  r.Right * factor,
		Bottom: r.Bottom * factor,
	}
}
