package gpu

import "github.com/pkg/errors"

type fakeBuffer struct {
	label    string
	data     []byte
	released bool
}

func (b *fakeBuffer) GetSize() uint64 { return uint64(len(b.data)) }
func (b *fakeBuffer) Release()        { b.released = true }

type fakeBindGroup struct {
	label    string
	set      uint32
	entries  []BindGroupEntry
	released bool
}

func (g *fakeBindGroup) Release() { g.released = true }

type fakeResource struct {
	name     string
	released bool
}

func (r *fakeResource) Release() { r.released = true }

type fakePipeline struct {
	cfg      *PipelineConfig
	released bool
}

func (p *fakePipeline) Release() { p.released = true }

// fakeDevice records every call. Setting failOn makes the named method fail.
type fakeDevice struct {
	pipelines  []*fakePipeline
	buffers    []*fakeBuffer
	bindGroups []*fakeBindGroup
	writes     int
	failOn     string
}

var errFake = errors.New("fake device failure")

func (d *fakeDevice) fail(op string) error {
	if d.failOn == op {
		return errFake
	}
	return nil
}

func (d *fakeDevice) CreatePipeline(cfg *PipelineConfig) (Pipeline, error) {
	if err := d.fail("CreatePipeline"); err != nil {
		return nil, err
	}
	p := &fakePipeline{cfg: cfg}
	d.pipelines = append(d.pipelines, p)
	return p, nil
}

func (d *fakeDevice) createBuffer(op, label string, contents []byte) (Buffer, error) {
	if err := d.fail(op); err != nil {
		return nil, err
	}
	b := &fakeBuffer{label: label, data: append([]byte{}, contents...)}
	d.buffers = append(d.buffers, b)
	return b, nil
}

func (d *fakeDevice) CreateUniformBuffer(label string, contents []byte) (Buffer, error) {
	return d.createBuffer("CreateUniformBuffer", label, contents)
}

func (d *fakeDevice) CreateVertexBuffer(label string, contents []byte) (Buffer, error) {
	return d.createBuffer("CreateVertexBuffer", label, contents)
}

func (d *fakeDevice) CreateBindGroup(label string, pipeline Pipeline, set uint32, entries []BindGroupEntry) (BindGroup, error) {
	if err := d.fail("CreateBindGroup"); err != nil {
		return nil, err
	}
	if _, ok := pipeline.(*fakePipeline); !ok {
		return nil, errors.Errorf("unexpected pipeline %T", pipeline)
	}
	g := &fakeBindGroup{label: label, set: set, entries: entries}
	d.bindGroups = append(d.bindGroups, g)
	return g, nil
}

func (d *fakeDevice) WriteBuffer(buffer Buffer, offset uint64, data []byte) error {
	if err := d.fail("WriteBuffer"); err != nil {
		return err
	}
	b := buffer.(*fakeBuffer)
	copy(b.data[offset:], data)
	d.writes++
	return nil
}

type passCall struct {
	op    string
	set   uint32
	group BindGroup
	count uint32
}

type fakePass struct {
	calls    []passCall
	pipeline Pipeline
	bound    map[uint32]BindGroup
	vertex   Buffer
}

func newFakePass() *fakePass {
	return &fakePass{bound: map[uint32]BindGroup{}}
}

func (p *fakePass) SetPipeline(pipeline Pipeline) {
	p.pipeline = pipeline
	p.calls = append(p.calls, passCall{op: "SetPipeline"})
}

func (p *fakePass) SetBindGroup(set uint32, group BindGroup, dynamicOffsets []uint32) {
	p.bound[set] = group
	p.calls = append(p.calls, passCall{op: "SetBindGroup", set: set, group: group})
}

func (p *fakePass) SetVertexBuffer(slot uint32, buffer Buffer, offset uint64, size uint64) {
	p.vertex = buffer
	p.calls = append(p.calls, passCall{op: "SetVertexBuffer"})
}

func (p *fakePass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.calls = append(p.calls, passCall{op: "Draw", count: vertexCount})
}

func (p *fakePass) ops() []string {
	out := make([]string, 0, len(p.calls))
	for _, c := range p.calls {
		out = append(out, c.op)
	}
	return out
}
