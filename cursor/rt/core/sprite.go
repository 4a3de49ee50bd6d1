package core

// Rect is an axis-aligned rectangle given by two corners. No ordering is
// implied between (X1, Y1) and (X2, Y2).
type Rect struct {
	X1, Y1 float32
	X2, Y2 float32
}

func NewRect(x, y, w, h float32) Rect {
	return Rect{X1: x, Y1: y, X2: x + w, Y2: y + h}
}

func (r Rect) Width() float32  { return r.X2 - r.X1 }
func (r Rect) Height() float32 { return r.Y2 - r.Y1 }

// Offset returns r translated by (dx, dy).
func (r Rect) Offset(dx, dy float32) Rect {
	return Rect{X1: r.X1 + dx, Y1: r.Y1 + dy, X2: r.X2 + dx, Y2: r.Y2 + dy}
}

// SpriteVertex matches the WGSL VertexInput of the cursor shader.
type SpriteVertex struct {
	Pos [3]float32
	UV  [2]float32
}

const (
	SpriteVertexPosOffset = 0
	SpriteVertexUVOffset  = 12
	SpriteVertexStride    = 20
	VerticesPerQuad       = 6
)

// AppendQuad appends the two triangles covering dst at z=depth, textured with
// src normalised by the texture size (w, h). Destination space has a top-left
// origin and texture space a bottom-left one, so each row pairs with the
// opposite texture row.
func AppendQuad(vertices []SpriteVertex, w, h uint32, src, dst Rect, depth float32) []SpriteVertex {
	fw, fh := float32(w), float32(h)
	rx1, ry1 := src.X1/fw, src.Y1/fh
	rx2, ry2 := src.X2/fw, src.Y2/fh

	return append(vertices,
		// Triangle 1
		SpriteVertex{Pos: [3]float32{dst.X1, dst.Y1, depth}, UV: [2]float32{rx1, ry2}},
		SpriteVertex{Pos: [3]float32{dst.X2, dst.Y1, depth}, UV: [2]float32{rx2, ry2}},
		SpriteVertex{Pos: [3]float32{dst.X2, dst.Y2, depth}, UV: [2]float32{rx2, ry1}},
		// Triangle 2
		SpriteVertex{Pos: [3]float32{dst.X1, dst.Y1, depth}, UV: [2]float32{rx1, ry2}},
		SpriteVertex{Pos: [3]float32{dst.X1, dst.Y2, depth}, UV: [2]float32{rx1, ry1}},
		SpriteVertex{Pos: [3]float32{dst.X2, dst.Y2, depth}, UV: [2]float32{rx2, ry1}},
	)
}
