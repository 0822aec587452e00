package runtime

import "github.com/horizon3ds/rastercache/pixelformat"

// ReinterpreterRegistry holds the shader-backed format reinterpreters a
// backend supports. The rasterizer cache's validate-by-reinterpretation
// step asks it for every reinterpreter whose destination format matches
// the surface being validated.
type ReinterpreterRegistry struct {
	entries []Reinterpreter
}

// DefaultReinterpreters returns a registry initially populated with the
// two reinterpretations the 3DS GPU's validate path relies on: D24S8 ->
// RGBA8 and RGBA4 -> RGB5A1. apply implementations are backend-specific
// and supplied by the caller.
func DefaultReinterpreters(applyD24S8ToRGBA8, applyRGBA4ToRGB5A1 func(b Backend, src, dst TextureID, rect Rect) bool) *ReinterpreterRegistry {
	r := &ReinterpreterRegistry{}
	r.Register(Reinterpreter{From: pixelformat.D24S8, To: pixelformat.RGBA8, Apply: applyD24S8ToRGBA8})
	r.Register(Reinterpreter{From: pixelformat.RGBA4, To: pixelformat.RGB5A1, Apply: applyRGBA4ToRGB5A1})
	return r
}

// Register adds a reinterpreter. Later registrations for the same
// (From, To) pair take precedence when iterated, since ReinterpretersFor
// returns them in reverse-registration order.
func (r *ReinterpreterRegistry) Register(re Reinterpreter) {
	r.entries = append(r.entries, re)
}

// ReinterpretersFor returns every registered reinterpreter whose To format
// is dst, most recently registered first.
func (r *ReinterpreterRegistry) ReinterpretersFor(dst pixelformat.Format) []Reinterpreter {
	var out []Reinterpreter
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].To == dst {
			out = append(out, r.entries[i])
		}
	}
	return out
}
