package wgpudev

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/cursorrt"
	"github.com/gekko3d/cursorrt/cursor/rt/core"
	"github.com/gekko3d/cursorrt/cursor/rt/gpu"
	"github.com/pkg/errors"
)

// Device implements gpu.Device on top of a wgpu device and queue.
type Device struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue
	Format wgpu.TextureFormat

	log cursorrt.Logger
}

func NewDevice(device *wgpu.Device, format wgpu.TextureFormat, log cursorrt.Logger) *Device {
	return &Device{
		Device: device,
		Queue:  device.GetQueue(),
		Format: format,
		log:    cursorrt.OrNop(log),
	}
}

var (
	_ gpu.Device     = (*Device)(nil)
	_ gpu.RenderPass = RenderPass{}
	_ gpu.Pipeline   = (*Pipeline)(nil)
)

// Pipeline is a render pipeline together with the explicit bind group
// layouts it was created with, indexed by set.
type Pipeline struct {
	Pipeline *wgpu.RenderPipeline
	Layouts  []*wgpu.BindGroupLayout
}

func (p *Pipeline) Release() {
	for _, l := range p.Layouts {
		l.Release()
	}
	p.Layouts = nil
	if p.Pipeline != nil {
		p.Pipeline.Release()
		p.Pipeline = nil
	}
}

func toWGPUStage(s gpu.ShaderStage) wgpu.ShaderStage {
	var out wgpu.ShaderStage
	if s&gpu.StageVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if s&gpu.StageFragment != 0 {
		out |= wgpu.ShaderStageFragment
	}
	return out
}

func toWGPUVertexFormat(f gpu.VertexFormat) wgpu.VertexFormat {
	switch f {
	case gpu.VertexFormatFloat32x2:
		return wgpu.VertexFormatFloat32x2
	case gpu.VertexFormatFloat32x3:
		return wgpu.VertexFormatFloat32x3
	}
	panic("wgpudev: unknown vertex format")
}

func bindGroupLayoutEntries(set gpu.BindingSetLayout) []wgpu.BindGroupLayoutEntry {
	entries := make([]wgpu.BindGroupLayoutEntry, 0, len(set.Bindings))
	for _, b := range set.Bindings {
		e := wgpu.BindGroupLayoutEntry{
			Binding:    b.Binding,
			Visibility: toWGPUStage(b.Visibility),
		}
		switch b.Kind {
		case gpu.BindingUniformBuffer:
			e.Buffer = wgpu.BufferBindingLayout{
				Type:             wgpu.BufferBindingTypeUniform,
				MinBindingSize:   b.MinBindingSize,
				HasDynamicOffset: false,
			}
		case gpu.BindingSampledTexture:
			e.Texture = wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
				Multisampled:  false,
			}
		case gpu.BindingSampler:
			e.Sampler = wgpu.SamplerBindingLayout{
				Type: wgpu.SamplerBindingTypeFiltering,
			}
		}
		entries = append(entries, e)
	}
	return entries
}

func (d *Device) CreatePipeline(cfg *gpu.PipelineConfig) (gpu.Pipeline, error) {
	p := &Pipeline{}
	for i, set := range cfg.Sets {
		if set.Set != uint32(i) {
			p.Release()
			return nil, errors.Errorf("%s: sets must be dense, set %d at position %d", cfg.Label, set.Set, i)
		}
		bgl, err := d.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   set.Label,
			Entries: bindGroupLayoutEntries(set),
		})
		if err != nil {
			p.Release()
			return nil, errors.Wrapf(err, "bind group layout %s", set.Label)
		}
		p.Layouts = append(p.Layouts, bgl)
	}

	pipelineLayout, err := d.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            cfg.Label + "Layout",
		BindGroupLayouts: p.Layouts,
	})
	if err != nil {
		p.Release()
		return nil, errors.Wrap(err, "pipeline layout")
	}
	defer pipelineLayout.Release()

	vsModule, err := d.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          cfg.VertexFn.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: cfg.VertexFn.Code},
	})
	if err != nil {
		p.Release()
		return nil, errors.Wrap(err, "vertex shader")
	}
	defer vsModule.Release()

	fsModule, err := d.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          cfg.FragFn.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: cfg.FragFn.Code},
	})
	if err != nil {
		p.Release()
		return nil, errors.Wrap(err, "fragment shader")
	}
	defer fsModule.Release()

	attributes := make([]wgpu.VertexAttribute, 0, len(cfg.Vertex.Attributes))
	for _, a := range cfg.Vertex.Attributes {
		attributes = append(attributes, wgpu.VertexAttribute{
			Format:         toWGPUVertexFormat(a.Format),
			Offset:         a.Offset,
			ShaderLocation: a.Location,
		})
	}

	target := wgpu.ColorTargetState{
		Format:    d.Format,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	if cfg.Blend {
		target.Blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			},
			Alpha: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			},
		}
	}

	p.Pipeline, err = d.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  cfg.Label,
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vsModule,
			EntryPoint: cfg.VertexFn.EntryPoint,
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: cfg.Vertex.Stride,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes:  attributes,
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     fsModule,
			EntryPoint: cfg.FragFn.EntryPoint,
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: nil,
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		p.Release()
		return nil, errors.Wrap(err, "render pipeline")
	}

	d.log.Debugf("created pipeline %s (vs=%s fs=%s)", cfg.Label, cfg.VertexFn.EntryPoint, cfg.FragFn.EntryPoint)
	return p, nil
}

func (d *Device) CreateUniformBuffer(label string, contents []byte) (gpu.Buffer, error) {
	buf, err := d.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: contents,
		Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *Device) CreateVertexBuffer(label string, contents []byte) (gpu.Buffer, error) {
	var (
		buf *wgpu.Buffer
		err error
	)
	if len(contents) == 0 {
		buf, err = d.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: label,
			Size:  0,
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
	} else {
		buf, err = d.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    label,
			Contents: contents,
			Usage:    wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
	}
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *Device) CreateBindGroup(label string, pipeline gpu.Pipeline, set uint32, entries []gpu.BindGroupEntry) (gpu.BindGroup, error) {
	p, ok := pipeline.(*Pipeline)
	if !ok {
		return nil, errors.Errorf("pipeline %T was not created by this device", pipeline)
	}
	if int(set) >= len(p.Layouts) {
		return nil, errors.Errorf("pipeline has no bind group layout %d", set)
	}

	wEntries := make([]wgpu.BindGroupEntry, 0, len(entries))
	for _, e := range entries {
		we := wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Buffer != nil:
			buf, ok := e.Buffer.(*wgpu.Buffer)
			if !ok {
				return nil, errors.Errorf("binding %d: buffer %T is not a wgpu buffer", e.Binding, e.Buffer)
			}
			we.Buffer = buf
			we.Size = wgpu.WholeSize
		case e.TextureView != nil:
			view, ok := e.TextureView.(*wgpu.TextureView)
			if !ok {
				return nil, errors.Errorf("binding %d: view %T is not a wgpu texture view", e.Binding, e.TextureView)
			}
			we.TextureView = view
		case e.Sampler != nil:
			sampler, ok := e.Sampler.(*wgpu.Sampler)
			if !ok {
				return nil, errors.Errorf("binding %d: sampler %T is not a wgpu sampler", e.Binding, e.Sampler)
			}
			we.Sampler = sampler
		}
		wEntries = append(wEntries, we)
	}

	bg, err := d.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   label,
		Layout:  p.Layouts[set],
		Entries: wEntries,
	})
	if err != nil {
		return nil, err
	}
	return bg, nil
}

func (d *Device) WriteBuffer(buffer gpu.Buffer, offset uint64, data []byte) error {
	buf, ok := buffer.(*wgpu.Buffer)
	if !ok {
		return errors.Errorf("buffer %T is not a wgpu buffer", buffer)
	}
	return d.Queue.WriteBuffer(buf, offset, data)
}

// CreateCursorTexture uploads a cursor image bottom row first.
func (d *Device) CreateCursorTexture(img *core.CursorImage) (*wgpu.Texture, *wgpu.TextureView, error) {
	extent := wgpu.Extent3D{Width: img.Width, Height: img.Height, DepthOrArrayLayers: 1}
	tex, err := d.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Cursor Texture",
		Size:          extent,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "create cursor texture")
	}

	err = d.Queue.WriteTexture(tex.AsImageCopy(), img.BottomUp(), &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  img.Width * 4,
		RowsPerImage: img.Height,
	}, &extent)
	if err != nil {
		tex.Release()
		return nil, nil, errors.Wrap(err, "upload cursor texture")
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, errors.Wrap(err, "cursor texture view")
	}
	d.log.Debugf("uploaded cursor texture %dx%d", img.Width, img.Height)
	return tex, view, nil
}

// CreateRenderTarget makes a texture that can be rendered into and then
// sampled by a later pass.
func (d *Device) CreateRenderTarget(label string, width, height uint32) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := d.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        d.Format,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "create %s", label)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, errors.Wrapf(err, "%s view", label)
	}
	return tex, view, nil
}

func (d *Device) CreateLinearSampler() (*wgpu.Sampler, error) {
	return d.Device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
}

// RenderPass adapts a wgpu render pass encoder to gpu.RenderPass.
type RenderPass struct {
	Encoder *wgpu.RenderPassEncoder
}

func (p RenderPass) SetPipeline(pipeline gpu.Pipeline) {
	switch pl := pipeline.(type) {
	case *Pipeline:
		p.Encoder.SetPipeline(pl.Pipeline)
	case *wgpu.RenderPipeline:
		p.Encoder.SetPipeline(pl)
	default:
		panic("wgpudev: pipeline was not created by a wgpu device")
	}
}

func (p RenderPass) SetBindGroup(set uint32, group gpu.BindGroup, dynamicOffsets []uint32) {
	p.Encoder.SetBindGroup(set, group.(*wgpu.BindGroup), dynamicOffsets)
}

func (p RenderPass) SetVertexBuffer(slot uint32, buffer gpu.Buffer, offset uint64, size uint64) {
	p.Encoder.SetVertexBuffer(slot, buffer.(*wgpu.Buffer), offset, size)
}

func (p RenderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.Encoder.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}
