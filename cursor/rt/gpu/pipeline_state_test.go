package gpu

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupState(t *testing.T) (*PipelineState, *fakeDevice) {
	t.Helper()
	dev := &fakeDevice{}
	s, err := NewPipelineState(testConfig(), dev, nil)
	require.NoError(t, err)
	return s, dev
}

func TestSetupPipelineState(t *testing.T) {
	s, dev := setupState(t)

	require.Len(t, dev.pipelines, 1)
	assert.Same(t, dev.pipelines[0], s.Pipeline())

	assert.Equal(t, mgl32.Ident4(), s.Ortho())
	require.Len(t, dev.buffers, 1)
	assert.Equal(t, MatricesToBytes([]mgl32.Mat4{mgl32.Ident4()}), dev.buffers[0].data)
	assert.Equal(t, uint64(OrthoUniformSize), s.OrthoBuffer().GetSize())

	require.Len(t, dev.bindGroups, 1)
	bg := dev.bindGroups[0]
	assert.Same(t, bg, s.OrthoBinding())
	assert.Equal(t, SetOrtho, bg.set)
	assert.Equal(t, []BindGroupEntry{{Binding: 0, Buffer: s.OrthoBuffer()}}, bg.entries)

	assert.False(t, s.CursorBinding().IsSet())
	assert.False(t, s.FramebufferBinding().IsSet())
	assert.Equal(t, []uint32{SetCursor, SetFramebuffer}, s.Missing())
}

func TestSetupPipelineStatePropagatesDeviceErrors(t *testing.T) {
	for _, op := range []string{"CreatePipeline", "CreateUniformBuffer", "CreateBindGroup"} {
		t.Run(op, func(t *testing.T) {
			dev := &fakeDevice{failOn: op}
			s, err := NewPipelineState(testConfig(), dev, nil)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, errFake)
			for _, p := range dev.pipelines {
				assert.True(t, p.released, "pipeline should be released on failure")
			}
			for _, b := range dev.buffers {
				assert.True(t, b.released, "buffer should be released on failure")
			}
		})
	}
}

func TestSetCursorReplaces(t *testing.T) {
	s, dev := setupState(t)
	tex1, smp1 := &fakeResource{name: "tex1"}, &fakeResource{name: "smp1"}
	tex2, smp2 := &fakeResource{name: "tex2"}, &fakeResource{name: "smp2"}

	require.NoError(t, s.SetCursor(tex1, smp1, dev))
	first := s.CursorBinding().Group().(*fakeBindGroup)
	assert.Equal(t, SetCursor, first.set)
	assert.Equal(t, []BindGroupEntry{{Binding: 0, TextureView: tex1}, {Binding: 1, Sampler: smp1}}, first.entries)

	require.NoError(t, s.SetCursor(tex2, smp2, dev))
	second := s.CursorBinding().Group().(*fakeBindGroup)
	assert.NotSame(t, first, second)
	assert.True(t, first.released)
	assert.Equal(t, []BindGroupEntry{{Binding: 0, TextureView: tex2}, {Binding: 1, Sampler: smp2}}, second.entries)

	pass := newFakePass()
	require.NoError(t, s.BindCursor(pass))
	assert.Same(t, second, pass.bound[SetCursor])
}

func TestSetCursorFailureKeepsPrevious(t *testing.T) {
	s, dev := setupState(t)
	require.NoError(t, s.SetCursor(&fakeResource{}, &fakeResource{}, dev))
	prev := s.CursorBinding().Group()

	dev.failOn = "CreateBindGroup"
	err := s.SetCursor(&fakeResource{}, &fakeResource{}, dev)
	assert.ErrorIs(t, err, errFake)
	assert.Same(t, prev, s.CursorBinding().Group())
}

func TestSetFramebuffer(t *testing.T) {
	s, dev := setupState(t)
	fb1, fb2 := &fakeResource{name: "fb1"}, &fakeResource{name: "fb2"}

	require.NoError(t, s.SetFramebuffer(fb1, dev))
	first := s.FramebufferBinding().Group().(*fakeBindGroup)
	assert.Equal(t, SetFramebuffer, first.set)
	assert.Equal(t, []uint32{SetCursor}, s.Missing())

	require.NoError(t, s.SetFramebuffer(fb2, dev))
	second := s.FramebufferBinding().Group().(*fakeBindGroup)
	assert.True(t, first.released)
	assert.Equal(t, []BindGroupEntry{{Binding: 0, TextureView: fb2}}, second.entries)
}

func TestPrepare(t *testing.T) {
	s, dev := setupState(t)

	m := mgl32.Ortho(0, 800, 600, 0, -1, 1)
	buf, values := s.Prepare(m)
	assert.Same(t, s.OrthoBuffer(), buf)
	assert.Equal(t, []mgl32.Mat4{m}, values)
	assert.Equal(t, m, s.Ortho())

	// Prepare does not upload.
	assert.Equal(t, 0, dev.writes)

	require.NoError(t, WriteUniforms(dev, buf, values))
	assert.Equal(t, MatricesToBytes([]mgl32.Mat4{m}), dev.buffers[0].data)

	require.NoError(t, s.SetCursor(&fakeResource{}, &fakeResource{}, dev))
	m2 := mgl32.Scale3D(2, 2, 1)
	buf2, values2 := s.Prepare(m2)
	assert.Same(t, buf, buf2)
	assert.Equal(t, []mgl32.Mat4{m2}, values2)
}

func TestWriteUniformsError(t *testing.T) {
	s, dev := setupState(t)
	dev.failOn = "WriteBuffer"
	buf, values := s.Prepare(mgl32.Ident4())
	assert.ErrorIs(t, WriteUniforms(dev, buf, values), errFake)
}

func TestApplyBindsOnlyPipelineAndOrtho(t *testing.T) {
	s, dev := setupState(t)
	require.NoError(t, s.SetCursor(&fakeResource{}, &fakeResource{}, dev))
	require.NoError(t, s.SetFramebuffer(&fakeResource{}, dev))

	pass := newFakePass()
	s.Apply(pass)

	assert.Equal(t, []string{"SetPipeline", "SetBindGroup"}, pass.ops())
	assert.Same(t, s.Pipeline(), pass.pipeline)
	assert.Same(t, s.OrthoBinding(), pass.bound[SetOrtho])
	assert.NotContains(t, pass.bound, SetCursor)
	assert.NotContains(t, pass.bound, SetFramebuffer)
}

func TestBindUnsetSlots(t *testing.T) {
	s, _ := setupState(t)
	pass := newFakePass()

	err := s.BindCursor(pass)
	assert.True(t, errors.Is(err, ErrBindingUnset))
	assert.Contains(t, err.Error(), "set 1")

	err = s.BindFramebuffer(pass)
	assert.ErrorIs(t, err, ErrBindingUnset)
	assert.Empty(t, pass.calls)
}

func TestRelease(t *testing.T) {
	s, dev := setupState(t)
	require.NoError(t, s.SetCursor(&fakeResource{}, &fakeResource{}, dev))
	require.NoError(t, s.SetFramebuffer(&fakeResource{}, dev))

	s.Release()
	for _, g := range dev.bindGroups {
		assert.True(t, g.released, g.label)
	}
	assert.True(t, dev.buffers[0].released)
	assert.True(t, dev.pipelines[0].released)
	assert.Equal(t, []uint32{SetOrtho, SetCursor, SetFramebuffer}, s.Missing(), "a released state binds nothing")
}

func TestMatricesToBytes(t *testing.T) {
	b := MatricesToBytes([]mgl32.Mat4{mgl32.Ident4(), mgl32.Ident4()})
	require.Len(t, b, 2*OrthoUniformSize)
	// 1.0f little-endian at element [0].
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, b[0:4])
	assert.Equal(t, []byte{0, 0, 0, 0}, b[4:8])
}
