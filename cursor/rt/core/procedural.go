package core

import (
	"image"
	"image/color"
)

// ArrowCursor draws a size x size arrow pointer, white with a black outline,
// hotspot at the tip.
func ArrowCursor(size int) *CursorImage {
	if size < 4 {
		size = 4
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	s := float32(size)
	// Triangle tip (0,0), bottom (0, 0.8s), right (0.55s, 0.55s).
	inside := func(x, y float32) bool {
		if x < 0 || y < 0 || y > 0.8*s {
			return false
		}
		if x > y {
			return false
		}
		// Edge from (0, 0.8s) to (0.55s, 0.55s).
		return y <= 0.8*s-x*(0.25/0.55)
	}

	white := color.RGBA{255, 255, 255, 255}
	black := color.RGBA{0, 0, 0, 255}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			fx, fy := float32(x)+0.5, float32(y)+0.5
			if !inside(fx, fy) {
				continue
			}
			edge := !inside(fx-1, fy) || !inside(fx+1, fy) || !inside(fx, fy-1) || !inside(fx, fy+1)
			if edge {
				img.SetRGBA(x, y, black)
			} else {
				img.SetRGBA(x, y, white)
			}
		}
	}

	return NewCursorImage(img)
}
