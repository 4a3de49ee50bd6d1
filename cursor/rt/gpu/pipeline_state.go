package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gekko3d/cursorrt"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// ErrBindingUnset is returned when a draw needs a bind group that has not been created yet.
var ErrBindingUnset = errors.New("bind group not set")

// BindingSlot is an optional bind group at a fixed set index. The zero
// group means unset.
type BindingSlot struct {
	Set   uint32
	group BindGroup
}

func (s BindingSlot) IsSet() bool      { return s.group != nil }
func (s BindingSlot) Group() BindGroup { return s.group }

func (s *BindingSlot) replace(g BindGroup) {
	if s.group != nil {
		s.group.Release()
	}
	s.group = g
}

func (s *BindingSlot) bind(pass RenderPass) error {
	if s.group == nil {
		return errors.Wrapf(ErrBindingUnset, "set %d", s.Set)
	}
	pass.SetBindGroup(s.Set, s.group, nil)
	return nil
}

// PipelineState owns a sprite pipeline, its ortho uniform and the bind groups
// for the cursor texture and background framebuffer.
type PipelineState struct {
	Config *PipelineConfig

	pipeline     Pipeline
	ortho        mgl32.Mat4
	orthoBuffer  Buffer
	orthoBinding BindGroup
	cursor       BindingSlot
	framebuffer  BindingSlot

	log cursorrt.Logger
}

// NewPipelineState creates the pipeline described by cfg and sets it up.
func NewPipelineState(cfg *PipelineConfig, device Device, log cursorrt.Logger) (*PipelineState, error) {
	pipeline, err := device.CreatePipeline(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", cfg.Label)
	}
	s, err := SetupPipelineState(cfg, pipeline, device, log)
	if err != nil {
		pipeline.Release()
		return nil, err
	}
	return s, nil
}

// SetupPipelineState uploads an identity ortho matrix and creates the set 0
// bind group. Cursor and framebuffer bindings start unset.
func SetupPipelineState(cfg *PipelineConfig, pipeline Pipeline, device Device, log cursorrt.Logger) (*PipelineState, error) {
	s := &PipelineState{
		Config:      cfg,
		pipeline:    pipeline,
		ortho:       mgl32.Ident4(),
		cursor:      BindingSlot{Set: SetCursor},
		framebuffer: BindingSlot{Set: SetFramebuffer},
		log:         cursorrt.OrNop(log),
	}

	var err error
	s.orthoBuffer, err = device.CreateUniformBuffer(cfg.Label+"Ortho", MatricesToBytes([]mgl32.Mat4{s.ortho}))
	if err != nil {
		return nil, errors.Wrap(err, "create ortho uniform buffer")
	}

	entries := []BindGroupEntry{{Binding: 0, Buffer: s.orthoBuffer}}
	if err := cfg.CheckEntries(SetOrtho, entries); err != nil {
		s.orthoBuffer.Release()
		return nil, err
	}
	s.orthoBinding, err = device.CreateBindGroup(cfg.Label+"OrthoBG", pipeline, SetOrtho, entries)
	if err != nil {
		s.orthoBuffer.Release()
		return nil, errors.Wrap(err, "create ortho bind group")
	}

	s.log.Debugf("%s ready: %d bind group sets", cfg.Label, len(cfg.Sets))
	return s, nil
}

func (s *PipelineState) Pipeline() Pipeline         { return s.pipeline }
func (s *PipelineState) OrthoBuffer() Buffer        { return s.orthoBuffer }
func (s *PipelineState) OrthoBinding() BindGroup    { return s.orthoBinding }
func (s *PipelineState) CursorBinding() BindingSlot { return s.cursor }
func (s *PipelineState) FramebufferBinding() BindingSlot {
	return s.framebuffer
}

// Ortho is the matrix most recently passed to Prepare, identity before that.
func (s *PipelineState) Ortho() mgl32.Mat4 { return s.ortho }

// SetCursor creates the set 1 bind group, replacing any previous one.
func (s *PipelineState) SetCursor(texture TextureView, sampler Sampler, device Device) error {
	entries := []BindGroupEntry{
		{Binding: 0, TextureView: texture},
		{Binding: 1, Sampler: sampler},
	}
	g, err := s.createBinding("CursorBG", SetCursor, entries, device)
	if err != nil {
		return err
	}
	if s.cursor.IsSet() {
		s.log.Debugf("%s: replacing cursor binding", s.Config.Label)
	}
	s.cursor.replace(g)
	return nil
}

// SetFramebuffer creates the set 2 bind group, replacing any previous one.
func (s *PipelineState) SetFramebuffer(framebuffer TextureView, device Device) error {
	entries := []BindGroupEntry{{Binding: 0, TextureView: framebuffer}}
	g, err := s.createBinding("FramebufferBG", SetFramebuffer, entries, device)
	if err != nil {
		return err
	}
	if s.framebuffer.IsSet() {
		s.log.Debugf("%s: replacing framebuffer binding", s.Config.Label)
	}
	s.framebuffer.replace(g)
	return nil
}

func (s *PipelineState) createBinding(name string, set uint32, entries []BindGroupEntry, device Device) (BindGroup, error) {
	if err := s.Config.CheckEntries(set, entries); err != nil {
		return nil, err
	}
	g, err := device.CreateBindGroup(s.Config.Label+name, s.pipeline, set, entries)
	if err != nil {
		return nil, errors.Wrapf(err, "create bind group for set %d", set)
	}
	return g, nil
}

// Prepare returns the ortho uniform buffer and the values to upload into it
// this frame. The caller decides when to write them.
func (s *PipelineState) Prepare(ortho mgl32.Mat4) (Buffer, []mgl32.Mat4) {
	s.ortho = ortho
	return s.orthoBuffer, []mgl32.Mat4{ortho}
}

// Apply binds the pipeline and the ortho bind group. Sets 1 and 2 are not
// bound here; see BindCursor, BindFramebuffer and Missing.
func (s *PipelineState) Apply(pass RenderPass) {
	pass.SetPipeline(s.pipeline)
	pass.SetBindGroup(SetOrtho, s.orthoBinding, nil)
}

func (s *PipelineState) BindCursor(pass RenderPass) error {
	return s.cursor.bind(pass)
}

func (s *PipelineState) BindFramebuffer(pass RenderPass) error {
	return s.framebuffer.bind(pass)
}

// Missing lists the set indices of the pipeline layout that have no bind
// group yet.
func (s *PipelineState) Missing() []uint32 {
	var missing []uint32
	for _, set := range s.Config.SetIndices() {
		if !s.bound(set) {
			missing = append(missing, set)
		}
	}
	return missing
}

func (s *PipelineState) bound(set uint32) bool {
	switch set {
	case SetOrtho:
		return s.orthoBinding != nil
	case SetCursor:
		return s.cursor.IsSet()
	case SetFramebuffer:
		return s.framebuffer.IsSet()
	}
	return false
}

// Release frees every GPU resource owned by the state.
func (s *PipelineState) Release() {
	s.cursor.replace(nil)
	s.framebuffer.replace(nil)
	if s.orthoBinding != nil {
		s.orthoBinding.Release()
		s.orthoBinding = nil
	}
	if s.orthoBuffer != nil {
		s.orthoBuffer.Release()
		s.orthoBuffer = nil
	}
	if s.pipeline != nil {
		s.pipeline.Release()
		s.pipeline = nil
	}
}

// WriteUniforms uploads the output of Prepare.
func WriteUniforms(device Device, buffer Buffer, values []mgl32.Mat4) error {
	if err := device.WriteBuffer(buffer, 0, MatricesToBytes(values)); err != nil {
		return errors.Wrap(err, "write ortho uniform")
	}
	return nil
}

// MatricesToBytes lays out column-major matrices as little-endian float32.
func MatricesToBytes(ms []mgl32.Mat4) []byte {
	b := make([]byte, 0, len(ms)*OrthoUniformSize)
	for _, m := range ms {
		for _, v := range m {
			b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
		}
	}
	return b
}

// DrawSprite binds every set the pipeline needs and draws mesh. Nothing is
// recorded on pass if a binding is still missing.
func DrawSprite(pass RenderPass, s *PipelineState, mesh *SpriteMesh) error {
	if missing := s.Missing(); len(missing) > 0 {
		return errors.Wrapf(ErrBindingUnset, "sets %v of %v", missing, s.Config.SetIndices())
	}
	s.Apply(pass)
	if err := s.BindCursor(pass); err != nil {
		return err
	}
	if err := s.BindFramebuffer(pass); err != nil {
		return err
	}
	mesh.Draw(pass)
	return nil
}
