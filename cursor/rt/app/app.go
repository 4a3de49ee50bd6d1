package app

import (
	"time"

	"github.com/gekko3d/cursorrt"
	"github.com/gekko3d/cursorrt/cursor/rt/core"
	"github.com/gekko3d/cursorrt/cursor/rt/gpu"
	"github.com/gekko3d/cursorrt/cursor/rt/gpu/wgpudev"
	"github.com/gekko3d/cursorrt/cursor/rt/shaders"
	"github.com/gekko3d/cursorrt/cursor/rt/watch"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
)

const reloadDebounce = 150 * time.Millisecond

type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	Settings cursorrt.Config
	Log      cursorrt.Logger
	GPU      *wgpudev.Device

	// Scene is rendered offscreen so the cursor pass can read it at set 2.
	ScenePipeline *wgpu.RenderPipeline
	BlitPipeline  *wgpu.RenderPipeline
	SceneTexture  *wgpu.Texture
	SceneView     *wgpu.TextureView
	Sampler       *wgpu.Sampler
	BlitBG        *wgpu.BindGroup

	Cursor        *gpu.PipelineState
	CursorImage   *core.CursorImage
	CursorTexture *wgpu.Texture
	CursorView    *wgpu.TextureView
	Atlas         *core.CursorAtlas
	Sprite        gpu.CursorSprite

	MouseX float64
	MouseY float64
	Stats  *core.FrameStats

	start   time.Time
	watcher *watch.FileWatcher
}

func NewApp(window *glfw.Window, settings cursorrt.Config, log cursorrt.Logger) *App {
	return &App{
		Window:   window,
		Settings: settings,
		Log:      cursorrt.OrNop(log),
		Stats:    core.NewFrameStats(time.Second),
	}
}

func (a *App) Init() error {
	a.Instance = wgpu.CreateInstance(nil)
	a.Surface = a.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(a.Window))

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   wgpu.PowerPreferenceLowPower,
	})
	if err != nil {
		return errors.Wrap(err, "request adapter")
	}
	a.Adapter = adapter

	a.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return errors.Wrap(err, "request device")
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := a.Surface.GetCapabilities(adapter)
	format := caps.Formats[0]

	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	a.Surface.Configure(adapter, a.Device, a.Config)

	a.GPU = wgpudev.NewDevice(a.Device, format, a.Log)

	a.Sampler, err = a.GPU.CreateLinearSampler()
	if err != nil {
		return errors.Wrap(err, "create sampler")
	}

	if err := a.setupScenePipelines(format); err != nil {
		return err
	}
	if err := a.setupCursorPipeline(); err != nil {
		return err
	}
	if err := a.setupSceneTarget(uint32(width), uint32(height)); err != nil {
		return err
	}
	if err := a.ReloadCursor(); err != nil {
		return err
	}

	if a.Settings.Cursor.Watch && a.Settings.Cursor.Image != "" {
		a.watcher, err = watch.NewFileWatcher(a.Settings.Cursor.Image, reloadDebounce, a.Log)
		if err != nil {
			// Hot reload is a convenience; keep running without it.
			a.Log.Warnf("cursor hot reload disabled: %v", err)
		}
	}

	a.start = time.Now()
	a.Log.Infof("renderer ready: %dx%d, surface format %v", width, height, format)
	return nil
}

func (a *App) setupScenePipelines(format wgpu.TextureFormat) error {
	module, err := a.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Scene VS/FS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.SceneWGSL},
	})
	if err != nil {
		return errors.Wrap(err, "scene shader")
	}
	defer module.Release()

	create := func(label, entry string, target wgpu.TextureFormat) (*wgpu.RenderPipeline, error) {
		return a.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
			Label: label,
			Vertex: wgpu.VertexState{
				Module:     module,
				EntryPoint: "vs_main",
			},
			Fragment: &wgpu.FragmentState{
				Module:     module,
				EntryPoint: entry,
				Targets: []wgpu.ColorTargetState{{
					Format:    target,
					WriteMask: wgpu.ColorWriteMaskAll,
				}},
			},
			Primitive: wgpu.PrimitiveState{
				Topology:  wgpu.PrimitiveTopologyTriangleList,
				FrontFace: wgpu.FrontFaceCCW,
				CullMode:  wgpu.CullModeNone,
			},
			Multisample: wgpu.MultisampleState{
				Count: 1,
				Mask:  0xFFFFFFFF,
			},
		})
	}

	a.ScenePipeline, err = create("Scene Pipeline", "fs_scene", format)
	if err != nil {
		return errors.Wrap(err, "scene pipeline")
	}
	a.BlitPipeline, err = create("Blit Pipeline", "fs_blit", format)
	if err != nil {
		return errors.Wrap(err, "blit pipeline")
	}
	return nil
}

func (a *App) setupCursorPipeline() error {
	fragment := "fs_main"
	if a.Settings.Cursor.Invert {
		fragment = "fs_invert"
	}
	cfg := gpu.CursorPipelineConfig(
		gpu.ShaderModule{Label: "Cursor VS", Code: shaders.CursorWGSL, EntryPoint: "vs_main"},
		gpu.ShaderModule{Label: "Cursor FS", Code: shaders.CursorWGSL, EntryPoint: fragment},
	)

	state, err := gpu.NewPipelineState(cfg, a.GPU, a.Log)
	if err != nil {
		return errors.Wrap(err, "cursor pipeline")
	}
	a.Cursor = state
	return nil
}

// setupSceneTarget (re)creates the offscreen scene texture and rebinds it
// for the blit and for the cursor's framebuffer set.
func (a *App) setupSceneTarget(width, height uint32) error {
	tex, view, err := a.GPU.CreateRenderTarget("Scene Target", width, height)
	if err != nil {
		return err
	}

	blitBG, err := a.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Blit BG",
		Layout: a.BlitPipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: a.Sampler},
		},
	})
	if err != nil {
		view.Release()
		tex.Release()
		return errors.Wrap(err, "blit bind group")
	}

	if err := a.Cursor.SetFramebuffer(view, a.GPU); err != nil {
		blitBG.Release()
		view.Release()
		tex.Release()
		return err
	}

	a.releaseSceneTarget()
	a.SceneTexture, a.SceneView, a.BlitBG = tex, view, blitBG
	return nil
}

func (a *App) releaseSceneTarget() {
	if a.BlitBG != nil {
		a.BlitBG.Release()
		a.BlitBG = nil
	}
	if a.SceneView != nil {
		a.SceneView.Release()
		a.SceneView = nil
	}
	if a.SceneTexture != nil {
		a.SceneTexture.Release()
		a.SceneTexture = nil
	}
}

// cursorGrid is the frame grid of the configured image. The built-in arrow
// is a single frame.
func (a *App) cursorGrid() (int, int) {
	cc := a.Settings.Cursor
	if cc.Image == "" {
		return 1, 1
	}
	return cc.Columns, cc.Rows
}

func (a *App) loadCursorImage() (*core.CursorImage, error) {
	cc := a.Settings.Cursor
	if cc.Image == "" {
		size := cc.Size
		if size == 0 {
			size = 32
		}
		return core.ArrowCursor(size), nil
	}

	columns, rows := a.cursorGrid()
	img, err := core.LoadCursorImage(cc.Image, cc.Size, columns, rows)
	if err != nil {
		return nil, err
	}
	return img.WithHotspot(cc.HotspotX, cc.HotspotY), nil
}

// ReloadCursor decodes the configured cursor image, uploads it and rebinds
// set 1. Unchanged content is not uploaded again. On failure the current
// cursor stays bound.
func (a *App) ReloadCursor() error {
	img, err := a.loadCursorImage()
	if err != nil {
		return err
	}
	if a.CursorImage != nil && a.CursorImage.Id == img.Id && a.Cursor.CursorBinding().IsSet() {
		a.Log.Debugf("cursor %s unchanged", img.Id)
		return nil
	}

	tex, view, err := a.GPU.CreateCursorTexture(img)
	if err != nil {
		return err
	}
	if err := a.Cursor.SetCursor(view, a.Sampler, a.GPU); err != nil {
		view.Release()
		tex.Release()
		return err
	}

	if a.CursorView != nil {
		a.CursorView.Release()
	}
	if a.CursorTexture != nil {
		a.CursorTexture.Release()
	}
	columns, rows := a.cursorGrid()
	a.CursorImage, a.CursorTexture, a.CursorView = img, tex, view
	a.Atlas = core.NewCursorAtlas(img.Id, img.Width, img.Height, columns, rows)

	a.Log.Infof("cursor %s: %dx%d, %d frame(s), hotspot %v", img.Id, img.Width, img.Height, a.Atlas.Len(), img.Hotspot)
	return nil
}

func (a *App) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	a.Config.Width = uint32(w)
	a.Config.Height = uint32(h)
	a.Surface.Configure(a.Adapter, a.Device, a.Config)

	if err := a.setupSceneTarget(uint32(w), uint32(h)); err != nil {
		a.Log.Errorf("resize to %dx%d: %v", w, h, err)
	}
}

func (a *App) Update() {
	a.Stats.BeginScope("update")
	defer a.Stats.EndScope("update")

	if a.watcher != nil {
		select {
		case path := <-a.watcher.Changes():
			if err := a.ReloadCursor(); err != nil {
				a.Log.Warnf("reload %s: %v", path, err)
			} else {
				a.Log.Infof("reloaded cursor from %s", path)
			}
		default:
		}
	}

	frame := a.Atlas.FrameAt(time.Since(a.start), a.Settings.Cursor.FrameDuration)
	dst := core.CursorRect(float32(a.MouseX), float32(a.MouseY), a.CursorImage.Hotspot, a.Atlas.FrameWidth, a.Atlas.FrameHeight)

	if _, err := a.Sprite.Update(a.GPU, a.Atlas, frame, dst, a.Settings.Cursor.Depth); err != nil {
		a.Log.Errorf("cursor mesh: %v", err)
	}

	// Mouse coordinates are in window units, so project the window size.
	winW, winH := a.Window.GetSize()
	buf, uniforms := a.Cursor.Prepare(core.OrthoProjection(winW, winH))
	if err := gpu.WriteUniforms(a.GPU, buf, uniforms); err != nil {
		a.Log.Errorf("ortho upload: %v", err)
	}
}

func (a *App) Render() {
	a.Stats.BeginScope("render")
	defer a.Stats.EndScope("render")

	nextTexture, err := a.Surface.GetCurrentTexture()
	if err != nil {
		a.Log.Errorf("GetCurrentTexture failed: %v", err)
		return
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		a.Log.Errorf("CreateView failed: %v", err)
		return
	}
	defer view.Release()

	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		a.Log.Errorf("CreateCommandEncoder failed: %v", err)
		return
	}

	// Scene Pass
	sPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       a.SceneView,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	sPass.SetPipeline(a.ScenePipeline)
	sPass.Draw(3, 1, 0, 0)
	if err := sPass.End(); err != nil {
		a.Log.Errorf("scene pass End failed: %v", err)
	}

	// Blit + Cursor Pass
	rPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	rPass.SetPipeline(a.BlitPipeline)
	rPass.SetBindGroup(0, a.BlitBG, nil)
	rPass.Draw(3, 1, 0, 0)

	if mesh := a.Sprite.Mesh(); mesh != nil {
		if err := gpu.DrawSprite(wgpudev.RenderPass{Encoder: rPass}, a.Cursor, mesh); err != nil {
			a.Log.Errorf("cursor draw skipped: %v", err)
		}
	}

	if err := rPass.End(); err != nil {
		a.Log.Errorf("render pass End failed: %v", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		a.Log.Errorf("encoder Finish failed: %v", err)
		return
	}
	a.Queue.Submit(cmd)
	a.Surface.Present()

	if a.Stats.Tick(time.Now()) && a.Log.DebugEnabled() {
		a.Log.Debugf("frame stats: %s", a.Stats)
	}
}

func (a *App) Release() {
	if a.watcher != nil {
		a.watcher.Close()
		a.watcher = nil
	}
	a.Sprite.Release()
	if a.Cursor != nil {
		a.Cursor.Release()
		a.Cursor = nil
	}
	if a.CursorView != nil {
		a.CursorView.Release()
		a.CursorView = nil
	}
	if a.CursorTexture != nil {
		a.CursorTexture.Release()
		a.CursorTexture = nil
	}
	a.releaseSceneTarget()
	if a.Sampler != nil {
		a.Sampler.Release()
	}
	if a.BlitPipeline != nil {
		a.BlitPipeline.Release()
	}
	if a.ScenePipeline != nil {
		a.ScenePipeline.Release()
	}
	if a.Device != nil {
		a.Device.Release()
	}
	if a.Surface != nil {
		a.Surface.Release()
	}
	if a.Adapter != nil {
		a.Adapter.Release()
	}
	if a.Instance != nil {
		a.Instance.Release()
	}
}
