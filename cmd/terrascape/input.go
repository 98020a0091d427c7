package main

import (
	"log"

	"github.com/go-gl/glfw/v3.3/glfw"

	"terrascape/internal/input"
)

const mouseSensitivity = 0.12

// setupInputHandlers wires glfw callbacks into the input manager and the
// camera's mouse look.
func setupInputHandlers(window *glfw.Window, loop *GameLoop) {
	var lastX, lastY float64
	var tracking bool

	window.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		loop.im.HandleKeyEvent(key, action)
	})

	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		loop.im.HandleMouseButtonEvent(button, action)

		// Right button holds mouse look; the cursor is captured while held.
		if button == glfw.MouseButtonRight {
			switch action {
			case glfw.Press:
				w.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
				lastX, lastY = w.GetCursorPos()
				tracking = true
			case glfw.Release:
				w.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
				tracking = false
			}
		}
	})

	window.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if !tracking || loop.paused {
			return
		}
		dx := float32(x-lastX) * mouseSensitivity
		dy := float32(y-lastY) * mouseSensitivity
		lastX, lastY = x, y

		cam := loop.camera
		cam.Yaw += dx
		cam.Pitch -= dy
		if cam.Pitch > 89 {
			cam.Pitch = 89
		}
		if cam.Pitch < -89 {
			cam.Pitch = -89
		}

		// Manual steering cancels a running tour.
		loop.tour.Stop()
	})

	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		loop.camera.SetViewport(width, height)
		if err := loop.target.Resize(width, height); err != nil {
			log.Printf("resize render target: %v", err)
		}
	})
}
