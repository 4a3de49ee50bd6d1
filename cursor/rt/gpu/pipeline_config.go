package gpu

import (
	"github.com/gekko3d/cursorrt/cursor/rt/core"
	"github.com/pkg/errors"
)

type BindingKind int

const (
	BindingUniformBuffer BindingKind = iota
	BindingSampledTexture
	BindingSampler
)

func (k BindingKind) String() string {
	switch k {
	case BindingUniformBuffer:
		return "uniform-buffer"
	case BindingSampledTexture:
		return "sampled-texture"
	case BindingSampler:
		return "sampler"
	}
	return "unknown"
}

type ShaderStage uint32

const (
	StageVertex ShaderStage = 1 << iota
	StageFragment
)

type VertexFormat int

const (
	VertexFormatFloat32x2 VertexFormat = iota
	VertexFormatFloat32x3
)

func (f VertexFormat) Size() uint64 {
	switch f {
	case VertexFormatFloat32x2:
		return 8
	case VertexFormatFloat32x3:
		return 12
	}
	return 0
}

type VertexAttribute struct {
	Name     string
	Format   VertexFormat
	Offset   uint64
	Location uint32
}

type VertexLayout struct {
	Stride     uint64
	Attributes []VertexAttribute
}

type BindingLayout struct {
	Binding        uint32
	Kind           BindingKind
	Visibility     ShaderStage
	MinBindingSize uint64
}

type BindingSetLayout struct {
	Set      uint32
	Label    string
	Bindings []BindingLayout
}

// ShaderModule is a compiled shader handed to the device unchanged.
type ShaderModule struct {
	Label      string
	Code       string
	EntryPoint string
}

const (
	SetOrtho       uint32 = 0
	SetCursor      uint32 = 1
	SetFramebuffer uint32 = 2

	OrthoUniformSize = 64 // one mat4x4<f32>
)

// PipelineConfig is the fixed shape of a sprite pipeline. Built once and
// never mutated.
type PipelineConfig struct {
	Label    string
	Vertex   VertexLayout
	Sets     []BindingSetLayout
	VertexFn ShaderModule
	FragFn   ShaderModule
	Blend    bool
}

// CursorPipelineConfig describes the cursor pipeline: position + texcoord
// vertices, an ortho matrix at set 0, the cursor texture and sampler at set 1
// and the background framebuffer at set 2.
func CursorPipelineConfig(vertex, fragment ShaderModule) *PipelineConfig {
	return &PipelineConfig{
		Label: "CursorPipeline",
		Vertex: VertexLayout{
			Stride: core.SpriteVertexStride,
			Attributes: []VertexAttribute{
				{Name: "position", Format: VertexFormatFloat32x3, Offset: core.SpriteVertexPosOffset, Location: 0},
				{Name: "texcoord", Format: VertexFormatFloat32x2, Offset: core.SpriteVertexUVOffset, Location: 1},
			},
		},
		Sets: []BindingSetLayout{
			{
				Set:   SetOrtho,
				Label: "CursorOrthoBGL",
				Bindings: []BindingLayout{
					{Binding: 0, Kind: BindingUniformBuffer, Visibility: StageVertex, MinBindingSize: OrthoUniformSize},
				},
			},
			{
				Set:   SetCursor,
				Label: "CursorTextureBGL",
				Bindings: []BindingLayout{
					{Binding: 0, Kind: BindingSampledTexture, Visibility: StageFragment},
					{Binding: 1, Kind: BindingSampler, Visibility: StageFragment},
				},
			},
			{
				Set:   SetFramebuffer,
				Label: "CursorFramebufferBGL",
				Bindings: []BindingLayout{
					{Binding: 0, Kind: BindingSampledTexture, Visibility: StageFragment},
				},
			},
		},
		VertexFn: vertex,
		FragFn:   fragment,
		Blend:    true,
	}
}

func (c *PipelineConfig) SetLayout(set uint32) (BindingSetLayout, bool) {
	for _, s := range c.Sets {
		if s.Set == set {
			return s, true
		}
	}
	return BindingSetLayout{}, false
}

// SetIndices lists the bind group indices a draw with this pipeline needs.
func (c *PipelineConfig) SetIndices() []uint32 {
	out := make([]uint32, 0, len(c.Sets))
	for _, s := range c.Sets {
		out = append(out, s.Set)
	}
	return out
}

// CheckEntries verifies entries against the layout of set: same count, same
// binding indices and matching resource kinds.
func (c *PipelineConfig) CheckEntries(set uint32, entries []BindGroupEntry) error {
	layout, ok := c.SetLayout(set)
	if !ok {
		return errors.Errorf("%s has no bind group set %d", c.Label, set)
	}
	if len(entries) != len(layout.Bindings) {
		return errors.Errorf("set %d expects %d entries, got %d", set, len(layout.Bindings), len(entries))
	}
	for i, b := range layout.Bindings {
		e := entries[i]
		if e.Binding != b.Binding {
			return errors.Errorf("set %d entry %d: binding %d, want %d", set, i, e.Binding, b.Binding)
		}
		kind, ok := e.kind()
		if !ok {
			return errors.Errorf("set %d binding %d must hold exactly one resource", set, b.Binding)
		}
		if kind != b.Kind {
			return errors.Errorf("set %d binding %d: got %s, want %s", set, b.Binding, kind, b.Kind)
		}
	}
	return nil
}
