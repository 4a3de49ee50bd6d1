package gpu

import (
	"testing"
	"unsafe"

	"github.com/gekko3d/cursorrt/cursor/rt/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpriteBuilderSet(t *testing.T) {
	b := NewSpriteBuilder(32, 32)
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, core.VerticesPerQuad, cap(b.vertices))

	b.Set(core.Rect{X2: 32, Y2: 32}, core.Rect{X2: 64, Y2: 64}, 0)
	require.Equal(t, 6, b.Len())
	first := b.Vertices()

	for n := 2; n <= 4; n++ {
		b.Set(core.Rect{X2: 16, Y2: 16}, core.NewRect(float32(n*10), 0, 16, 16), 0.5)
		require.Equal(t, 6*n, b.Len())
	}
	assert.Equal(t, first, b.Vertices()[:6], "earlier quads must not change")
	assert.Equal(t, [3]float32{40, 0, 0.5}, b.Vertices()[18].Pos)
}

func TestSpriteBuilderFinish(t *testing.T) {
	dev := &fakeDevice{}
	b := NewSpriteBuilder(16, 16)
	b.Set(core.Rect{X2: 16, Y2: 16}, core.Rect{X2: 16, Y2: 16}, 0)
	b.Set(core.Rect{X2: 8, Y2: 8}, core.Rect{X1: 20, Y1: 20, X2: 28, Y2: 28}, 0)
	want := b.Vertices()

	mesh, err := b.Finish(dev)
	require.NoError(t, err)
	assert.Equal(t, uint32(12), mesh.VertexCount)

	require.Len(t, dev.buffers, 1)
	stride := int(unsafe.Sizeof(core.SpriteVertex{}))
	require.Len(t, dev.buffers[0].data, 12*stride)
	got := unsafe.Slice((*core.SpriteVertex)(unsafe.Pointer(&dev.buffers[0].data[0])), 12)
	assert.Equal(t, want, got)

	pass := newFakePass()
	mesh.Draw(pass)
	assert.Equal(t, []string{"SetVertexBuffer", "Draw"}, pass.ops())
	assert.Equal(t, uint32(12), pass.calls[1].count)
	assert.Same(t, mesh.Buffer, pass.vertex)

	mesh.Release()
	assert.True(t, dev.buffers[0].released)
}

func TestSpriteBuilderFinishEmpty(t *testing.T) {
	dev := &fakeDevice{}
	mesh, err := NewSpriteBuilder(8, 8).Finish(dev)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), mesh.VertexCount)
	assert.Equal(t, uint64(0), mesh.Buffer.GetSize())

	pass := newFakePass()
	mesh.Draw(pass)
	assert.Empty(t, pass.calls)
}

func TestSpriteBuilderUseAfterFinishPanics(t *testing.T) {
	b := NewSpriteBuilder(8, 8)
	_, err := b.Finish(&fakeDevice{})
	require.NoError(t, err)

	assert.PanicsWithValue(t, "gpu: SpriteBuilder used after Finish", func() {
		b.Set(core.Rect{}, core.Rect{}, 0)
	})
	assert.Panics(t, func() { _, _ = b.Finish(&fakeDevice{}) })
}

func TestSpriteBuilderFinishError(t *testing.T) {
	b := NewSpriteBuilder(8, 8)
	b.Set(core.Rect{X2: 8, Y2: 8}, core.Rect{X2: 8, Y2: 8}, 0)

	mesh, err := b.Finish(&fakeDevice{failOn: "CreateVertexBuffer"})
	assert.Nil(t, mesh)
	assert.ErrorIs(t, err, errFake)
}

func TestCursorDrawSequence(t *testing.T) {
	s, dev := setupState(t)
	require.NoError(t, s.SetCursor(&fakeResource{}, &fakeResource{}, dev))
	require.NoError(t, s.SetFramebuffer(&fakeResource{}, dev))

	b := NewSpriteBuilder(32, 32)
	b.Set(core.Rect{X2: 32, Y2: 32}, core.CursorRect(100, 100, [2]float32{0, 0}, 32, 32), 0)
	mesh, err := b.Finish(dev)
	require.NoError(t, err)

	pass := newFakePass()
	require.NoError(t, DrawSprite(pass, s, mesh))
	assert.Equal(t, []string{"SetPipeline", "SetBindGroup", "SetBindGroup", "SetBindGroup", "SetVertexBuffer", "Draw"}, pass.ops())
	assert.Len(t, pass.bound, 3)
}

func TestDrawSpriteRequiresBindings(t *testing.T) {
	s, dev := setupState(t)
	mesh, err := NewSpriteBuilder(1, 1).Finish(dev)
	require.NoError(t, err)

	pass := newFakePass()
	err = DrawSprite(pass, s, mesh)
	assert.ErrorIs(t, err, ErrBindingUnset)
	assert.ErrorContains(t, err, "sets [1 2] of [0 1 2]")
	assert.Empty(t, pass.calls, "nothing is recorded when a binding is missing")

	require.NoError(t, s.SetCursor(&fakeResource{}, &fakeResource{}, dev))
	assert.ErrorContains(t, DrawSprite(pass, s, mesh), "sets [2] of [0 1 2]")
	assert.Empty(t, pass.calls)
}
