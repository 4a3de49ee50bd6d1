package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestOrthoProjectionCorners(t *testing.T) {
	m := OrthoProjection(800, 600)

	tl := m.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	br := m.Mul4x1(mgl32.Vec4{800, 600, 0, 1})

	assert.InDelta(t, -1, tl.X(), 1e-6)
	assert.InDelta(t, 1, tl.Y(), 1e-6)
	assert.InDelta(t, 1, br.X(), 1e-6)
	assert.InDelta(t, -1, br.Y(), 1e-6)
	assert.InDelta(t, 0.5, tl.Z(), 1e-6)
}

func TestOrthoProjectionDepthRange(t *testing.T) {
	m := OrthoProjection(100, 100)

	near := m.Mul4x1(mgl32.Vec4{0, 0, 1, 1})
	far := m.Mul4x1(mgl32.Vec4{0, 0, -1, 1})
	assert.InDelta(t, 0, near.Z(), 1e-6)
	assert.InDelta(t, 1, far.Z(), 1e-6)
}

func TestOrthoProjectionDegenerate(t *testing.T) {
	assert.Equal(t, mgl32.Ident4(), OrthoProjection(0, 600))
	assert.Equal(t, mgl32.Ident4(), OrthoProjection(800, -1))
}

func TestCursorRect(t *testing.T) {
	r := CursorRect(100, 50, [2]float32{4, 2}, 32, 32)
	assert.Equal(t, Rect{X1: 96, Y1: 48, X2: 128, Y2: 80}, r)
}
