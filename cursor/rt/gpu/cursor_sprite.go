package gpu

import "github.com/gekko3d/cursorrt/cursor/rt/core"

// CursorSprite keeps the uploaded cursor quad and rebuilds it only when the
// frame, placement or depth changes.
type CursorSprite struct {
	mesh  *SpriteMesh
	frame core.FrameId
	dst   core.Rect
	depth float32
}

func (c *CursorSprite) Mesh() *SpriteMesh { return c.mesh }

// Update reports whether the vertex data was rewritten.
func (c *CursorSprite) Update(device Device, atlas *core.CursorAtlas, frame core.CursorFrame, dst core.Rect, depth float32) (bool, error) {
	if c.mesh != nil && frame.Id == c.frame && dst == c.dst && depth == c.depth {
		return false, nil
	}

	sb := NewSpriteBuilder(atlas.Width, atlas.Height)
	sb.Set(frame.Src, dst, depth)
	mesh, err := sb.FinishInto(device, c.mesh)
	c.mesh = mesh
	if err != nil {
		return false, err
	}
	c.frame, c.dst, c.depth = frame.Id, dst, depth
	return true, nil
}

func (c *CursorSprite) Release() {
	if c.mesh != nil {
		c.mesh.Release()
		c.mesh = nil
	}
}
