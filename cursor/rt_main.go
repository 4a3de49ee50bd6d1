package main

import (
	"flag"
	"os"
	"runtime"

	"github.com/gekko3d/cursorrt"
	"github.com/gekko3d/cursorrt/cursor/rt/app"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "cursorrt.yaml", "YAML config file")
	cursorImage := flag.String("cursor", "", "Cursor image (PNG or BMP), overrides config")
	size := flag.Int("size", -1, "Scale cursor so its longer side is this many pixels")
	invert := flag.Bool("invert", false, "Invert the scene under the cursor")
	watchImage := flag.Bool("watch", false, "Reload the cursor image when it changes on disk")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	settings, err := cursorrt.LoadConfig(*configPath)
	if err != nil {
		cursorrt.NewDefaultLogger("cursorrt", false).Errorf("config: %v", err)
		os.Exit(1)
	}

	// Flags win over the file, but only when given.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "cursor":
			settings.Cursor.Image = *cursorImage
		case "size":
			settings.Cursor.Size = *size
		case "invert":
			settings.Cursor.Invert = *invert
		case "watch":
			settings.Cursor.Watch = *watchImage
		case "debug":
			settings.Debug = *debug
		}
	})

	log := cursorrt.NewDefaultLogger("cursorrt", settings.Debug)
	defer log.Sync()

	if err := settings.Validate(); err != nil {
		log.Errorf("config: %v", err)
		os.Exit(1)
	}

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(settings.Window.Width, settings.Window.Height, settings.Window.Title, nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	// The sprite replaces the OS cursor.
	window.SetInputMode(glfw.CursorMode, glfw.CursorHidden)

	application := app.NewApp(window, settings, log)
	if err := application.Init(); err != nil {
		log.Errorf("init: %v", err)
		application.Release()
		os.Exit(1)
	}
	defer application.Release()

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})

	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		application.MouseX = xpos
		application.MouseY = ypos
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
		if key == glfw.KeyR && action == glfw.Press {
			if err := application.ReloadCursor(); err != nil {
				log.Warnf("reload cursor: %v", err)
			}
		}
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		application.Update()
		application.Render()
	}
}
