package gpu

// Handles are opaque to the cursor pipeline. The wgpu types satisfy them
// directly (*wgpu.Buffer, *wgpu.BindGroup, *wgpu.TextureView, *wgpu.Sampler).
type Buffer interface {
	GetSize() uint64
	Release()
}

type BindGroup interface {
	Release()
}

type TextureView interface {
	Release()
}

type Sampler interface {
	Release()
}

type Pipeline interface {
	Release()
}

// BindGroupEntry mirrors wgpu.BindGroupEntry; exactly one resource is set.
type BindGroupEntry struct {
	Binding     uint32
	Buffer      Buffer
	TextureView TextureView
	Sampler     Sampler
}

func (e BindGroupEntry) kind() (BindingKind, bool) {
	n := 0
	var k BindingKind
	if e.Buffer != nil {
		n++
		k = BindingUniformBuffer
	}
	if e.TextureView != nil {
		n++
		k = BindingSampledTexture
	}
	if e.Sampler != nil {
		n++
		k = BindingSampler
	}
	return k, n == 1
}

// Device is the slice of the graphics device the cursor pipeline calls into.
type Device interface {
	CreatePipeline(cfg *PipelineConfig) (Pipeline, error)
	CreateUniformBuffer(label string, contents []byte) (Buffer, error)
	CreateVertexBuffer(label string, contents []byte) (Buffer, error)
	CreateBindGroup(label string, pipeline Pipeline, set uint32, entries []BindGroupEntry) (BindGroup, error)
	WriteBuffer(buffer Buffer, offset uint64, data []byte) error
}

// RenderPass is an encoder for an open render pass. Its lifetime belongs to the caller.
type RenderPass interface {
	SetPipeline(pipeline Pipeline)
	SetBindGroup(set uint32, group BindGroup, dynamicOffsets []uint32)
	SetVertexBuffer(slot uint32, buffer Buffer, offset uint64, size uint64)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
}
