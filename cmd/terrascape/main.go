package main

import (
	"log"
	"runtime"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"terrascape/internal/config"
	"terrascape/internal/graphics"
	"terrascape/internal/input"
	"terrascape/internal/terrain"
)

func init() {
	runtime.LockOSThread()
}

const (
	winW = 1280
	winH = 720
)

func main() {
	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	window, err := setupWindow()
	if err != nil {
		panic(err)
	}

	if err := gl.Init(); err != nil {
		panic(err)
	}
	log.Printf("OpenGL %s on %s", gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)))

	manager, err := terrain.NewManager(config.DefaultTerrain())
	if err != nil {
		panic(err)
	}
	if err := manager.Initialize(); err != nil {
		panic(err)
	}
	defer manager.Dispose()

	manager.SetShaderErrorCallback(func(err error) {
		log.Printf("shader reload error: %v", err)
	})

	if err := manager.Generate(logProgress); err != nil {
		panic(err)
	}

	target, err := newHDRTarget(winW, winH)
	if err != nil {
		panic(err)
	}
	defer target.Dispose()

	camera := graphics.NewCamera(winW, winH)
	camera.Position = startPosition(manager)

	inputManager := input.NewInputManager()
	loop := NewGameLoop(window, manager, camera, target, inputManager)
	setupInputHandlers(window, loop)

	loop.Run()
}

func logProgress(stage string, percent int) {
	log.Printf("generating: %s (%d%%)", stage, percent)
}
