package core

import "github.com/go-gl/mathgl/mgl32"

// glToWebGPUDepth remaps clip-space z from [-1, 1] to [0, 1].
var glToWebGPUDepth = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// OrthoProjection maps window pixels (origin top-left, y down) to clip space.
// Sprite depth d in [-1, 1] lands at clip z (1-d)/2.
func OrthoProjection(width, height int) mgl32.Mat4 {
	if width <= 0 || height <= 0 {
		return mgl32.Ident4()
	}
	proj := mgl32.Ortho(0, float32(width), float32(height), 0, -1, 1)
	return glToWebGPUDepth.Mul4(proj)
}

// CursorRect places a w x h cursor so that its hotspot sits at (x, y).
func CursorRect(x, y float32, hotspot [2]float32, w, h float32) Rect {
	return NewRect(x-hotspot[0], y-hotspot[1], w, h)
}
