package gpu

import (
	"unsafe"

	"github.com/gekko3d/cursorrt/cursor/rt/core"
	"github.com/pkg/errors"
)

// SpriteBuilder accumulates textured quads for one source texture. Finish
// hands the vertices to the GPU and invalidates the builder.
type SpriteBuilder struct {
	width    uint32
	height   uint32
	vertices []core.SpriteVertex
	finished bool
}

func NewSpriteBuilder(width, height uint32) *SpriteBuilder {
	return &SpriteBuilder{
		width:    width,
		height:   height,
		vertices: make([]core.SpriteVertex, 0, core.VerticesPerQuad),
	}
}

// Set appends a quad mapping src (texels) onto dst at the given depth.
// Rectangles are not validated.
func (b *SpriteBuilder) Set(src, dst core.Rect, depth float32) {
	if b.finished {
		panic("gpu: SpriteBuilder used after Finish")
	}
	b.vertices = core.AppendQuad(b.vertices, b.width, b.height, src, dst, depth)
}

func (b *SpriteBuilder) Len() int { return len(b.vertices) }

// Vertices returns a copy of the accumulated vertices.
func (b *SpriteBuilder) Vertices() []core.SpriteVertex {
	return append([]core.SpriteVertex(nil), b.vertices...)
}

// Finish uploads the vertices as one non-indexed vertex buffer.
func (b *SpriteBuilder) Finish(device Device) (*SpriteMesh, error) {
	return b.FinishInto(device, nil)
}

// FinishInto is Finish that rewrites mesh in place when its buffer is large
// enough. Otherwise a new mesh is returned and mesh is released. On error
// mesh is left as it was.
func (b *SpriteBuilder) FinishInto(device Device, mesh *SpriteMesh) (*SpriteMesh, error) {
	if b.finished {
		panic("gpu: SpriteBuilder finished twice")
	}
	b.finished = true
	vertices := b.vertices
	b.vertices = nil
	data := spriteVertexBytes(vertices)

	if mesh != nil && mesh.Buffer != nil && len(data) > 0 && mesh.Buffer.GetSize() >= uint64(len(data)) {
		if err := device.WriteBuffer(mesh.Buffer, 0, data); err != nil {
			return mesh, errors.Wrap(err, "write sprite vertex buffer")
		}
		mesh.VertexCount = uint32(len(vertices))
		return mesh, nil
	}

	buf, err := device.CreateVertexBuffer("SpriteVB", data)
	if err != nil {
		return mesh, errors.Wrap(err, "create sprite vertex buffer")
	}
	if mesh != nil {
		mesh.Release()
	}
	return &SpriteMesh{Buffer: buf, VertexCount: uint32(len(vertices))}, nil
}

// SpriteMesh is an uploaded sprite vertex buffer drawn as a triangle list.
type SpriteMesh struct {
	Buffer      Buffer
	VertexCount uint32
}

func (m *SpriteMesh) Draw(pass RenderPass) {
	if m.VertexCount == 0 {
		return
	}
	pass.SetVertexBuffer(0, m.Buffer, 0, uint64(m.VertexCount)*core.SpriteVertexStride)
	pass.Draw(m.VertexCount, 1, 0, 0)
}

func (m *SpriteMesh) Release() {
	if m.Buffer != nil {
		m.Buffer.Release()
		m.Buffer = nil
	}
}

func spriteVertexBytes(vertices []core.SpriteVertex) []byte {
	if len(vertices) == 0 {
		return []byte{}
	}
	size := len(vertices) * int(unsafe.Sizeof(core.SpriteVertex{}))
	return unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), size)
}
