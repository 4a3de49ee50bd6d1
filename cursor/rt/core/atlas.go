package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FrameId is derived from the source image id, the grid and the frame
// index, so reloading identical content yields the same ids.
type FrameId string

type CursorFrame struct {
	Id FrameId
	// Src is in texel space with a bottom-left origin, matching BottomUp uploads.
	Src Rect
}

// CursorAtlas slices a cursor image into a row-major grid of equally sized
// frames, first frame at the top-left of the image.
type CursorAtlas struct {
	Source      AssetId
	Width       uint32
	Height      uint32
	FrameWidth  float32
	FrameHeight float32
	Frames      []CursorFrame
}

// NewCursorAtlas splits a width x height image into whole-texel frames.
// Texels past the last full column or row are not used.
func NewCursorAtlas(source AssetId, width, height uint32, columns, rows int) *CursorAtlas {
	if columns < 1 {
		columns = 1
	}
	if rows < 1 {
		rows = 1
	}

	fw := width / uint32(columns)
	fh := height / uint32(rows)
	atlas := &CursorAtlas{
		Source:      source,
		Width:       width,
		Height:      height,
		FrameWidth:  float32(fw),
		FrameHeight: float32(fh),
		Frames:      make([]CursorFrame, 0, columns*rows),
	}

	for r := 0; r < rows; r++ {
		top := float32(height) - float32(uint32(r)*fh)
		for c := 0; c < columns; c++ {
			left := float32(uint32(c) * fw)
			name := fmt.Sprintf("%s/%dx%d/%d", source, columns, rows, len(atlas.Frames))
			atlas.Frames = append(atlas.Frames, CursorFrame{
				Id:  FrameId(uuid.NewSHA1(cursorNamespace, []byte(name)).String()),
				Src: Rect{X1: left, Y1: top - atlas.FrameHeight, X2: left + atlas.FrameWidth, Y2: top},
			})
		}
	}
	return atlas
}

func (a *CursorAtlas) Len() int { return len(a.Frames) }

// Frame returns frame i, wrapping around the frame count.
func (a *CursorAtlas) Frame(i int) CursorFrame {
	n := len(a.Frames)
	i %= n
	if i < 0 {
		i += n
	}
	return a.Frames[i]
}

// FrameAt picks the animation frame shown after elapsed time.
func (a *CursorAtlas) FrameAt(elapsed, frameDuration time.Duration) CursorFrame {
	if frameDuration <= 0 || len(a.Frames) == 1 {
		return a.Frames[0]
	}
	return a.Frame(int(elapsed / frameDuration))
}
