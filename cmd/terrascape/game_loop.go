package main

import (
	"log"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"terrascape/internal/config"
	"terrascape/internal/graphics"
	"terrascape/internal/heightfield"
	"terrascape/internal/input"
	"terrascape/internal/physics"
	"terrascape/internal/profiling"
	"terrascape/internal/terrain"
)

// GameLoop manages the main render loop state
type GameLoop struct {
	window  *glfw.Window
	manager *terrain.Manager
	camera  *graphics.Camera
	target  *hdrTarget
	im      *input.InputManager

	tour       *Tour
	fpsLimiter *FPSLimiter

	paused bool

	// Timing
	frames           int
	lastFPSCheckTime time.Time
	lastTime         time.Time
}

// NewGameLoop creates the loop with all components
func NewGameLoop(window *glfw.Window, m *terrain.Manager, camera *graphics.Camera, target *hdrTarget, im *input.InputManager) *GameLoop {
	return &GameLoop{
		window:           window,
		manager:          m,
		camera:           camera,
		target:           target,
		im:               im,
		tour:             NewTour(m.Config().WorldSize),
		fpsLimiter:       NewFPSLimiter(),
		lastFPSCheckTime: time.Now(),
		lastTime:         time.Now(),
	}
}

// Run drives the loop until the window closes
func (g *GameLoop) Run() {
	for !g.window.ShouldClose() {
		g.tick()
	}
}

func (g *GameLoop) tick() {
	profiling.ResetFrame()
	startTick := time.Now()
	now := time.Now()
	dt := now.Sub(g.lastTime).Seconds()
	g.lastTime = now

	glfw.PollEvents()
	g.handleActions()

	if !g.paused {
		if g.tour.Active() {
			g.tour.Update(dt, g.camera)
		} else {
			g.moveCamera(dt)
		}
	}

	light := terrain.LightParams{
		Direction: mgl32.Vec3{-0.45, 0.8, -0.3}.Normalize(),
		Intensity: 3.2,
		Color:     mgl32.Vec3{1.0, 0.96, 0.88},
		Ambient:   0.35,
	}

	env := &terrain.SceneEnvironment{}
	if config.GetShadows() {
		slots, splits := buildCascades(g.camera, light.Direction)
		g.manager.WriteShadowUniforms(g.camera.Position, slots)
		for i := range slots {
			if err := g.manager.RenderShadow(i); err != nil {
				log.Printf("shadow pass %d: %v", i, err)
			}
		}

		env.Capabilities |= terrain.CapShadowMaps
		env.ShadowMaps = g.manager.ShadowDepthArray()
		env.CascadeCount = len(slots)
		for i, s := range slots {
			env.CascadeVP[i] = s.LightVP
			env.CascadeSplits[i] = splits[i]
		}
	}

	g.target.Begin()
	g.manager.Render(terrain.FrameParams{
		ViewProj:  g.camera.GetViewProjection(),
		Model:     mgl32.Ident4(),
		CameraPos: g.camera.Position,
		Light:     light,
		Env:       env,
		Wireframe: config.GetWireframeMode(),
		DebugLOD:  config.GetLODDebug(),
	})
	g.target.Blit()
	g.manager.EndFrame()

	g.window.SwapBuffers()

	if d := time.Since(startTick); d > 33*time.Millisecond {
		log.Printf("Slow frame: %v. Top tasks: %s", d, profiling.TopN(5))
	}

	g.updateFPSCounter()
	g.im.PostUpdate()
	g.fpsLimiter.Wait(g.paused)
}

func (g *GameLoop) moveCamera(dt float64) {
	speed := float32(60 * dt)
	if g.im.IsPressed(input.ActionSprint) {
		speed *= 5
	}

	forward := g.camera.Forward()
	right := g.camera.Right()
	if g.im.IsPressed(input.ActionMoveForward) {
		g.camera.Position = g.camera.Position.Add(forward.Mul(speed))
	}
	if g.im.IsPressed(input.ActionMoveBackward) {
		g.camera.Position = g.camera.Position.Sub(forward.Mul(speed))
	}
	if g.im.IsPressed(input.ActionMoveLeft) {
		g.camera.Position = g.camera.Position.Sub(right.Mul(speed))
	}
	if g.im.IsPressed(input.ActionMoveRight) {
		g.camera.Position = g.camera.Position.Add(right.Mul(speed))
	}
	if g.im.IsPressed(input.ActionMoveUp) {
		g.camera.Position = g.camera.Position.Add(mgl32.Vec3{0, speed, 0})
	}
	if g.im.IsPressed(input.ActionMoveDown) {
		g.camera.Position = g.camera.Position.Sub(mgl32.Vec3{0, speed, 0})
	}

	// Keep the camera out of the ground.
	floor := physics.GroundLevel(g.camera.Position.X(), g.camera.Position.Z(), 2, g.manager.Heightfield())
	if g.camera.Position.Y() < floor {
		g.camera.Position[1] = floor
	}
}

func (g *GameLoop) handleActions() {
	if g.im.JustPressed(input.ActionPause) {
		g.paused = !g.paused
	}
	if g.im.JustPressed(input.ActionToggleWireframe) {
		config.ToggleWireframeMode()
	}
	if g.im.JustPressed(input.ActionToggleLODDebug) {
		config.ToggleLODDebug()
	}
	if g.im.JustPressed(input.ActionToggleFreezeLOD) {
		config.ToggleFreezeLOD()
	}
	if g.im.JustPressed(input.ActionToggleShadows) {
		config.SetShadows(!config.GetShadows())
	}
	if g.im.JustPressed(input.ActionToggleIsland) {
		enabled := !g.manager.Config().Island.Enabled
		g.manager.SetIslandEnabled(enabled)
		if enabled {
			g.manager.RegenerateIslandMask()
		}
	}
	if g.im.JustPressed(input.ActionToggleProfiling) {
		log.Printf("frame profile: %s", profiling.TopN(8))
	}
	if g.im.JustPressed(input.ActionRegenerate) {
		if err := g.manager.Generate(logProgress); err != nil {
			log.Printf("regenerate: %v", err)
		}
	}
	if g.im.JustPressed(input.ActionReseed) {
		seed := g.manager.Config().Noise.Seed + 1
		err := g.manager.Regenerate(config.TerrainPatch{
			Noise: &config.NoisePatch{Seed: &seed},
		}, logProgress)
		if err != nil {
			log.Printf("reseed: %v", err)
		}
	}
	if g.im.JustPressed(input.ActionExportPreview) {
		g.exportPreview()
	}
	if g.im.JustPressed(input.ActionStartTour) {
		g.tour.Start(g.camera)
	}
	if g.im.JustPressed(input.ActionMouseLeft) && !g.paused {
		g.pickTerrain()
	}
}

// pickTerrain casts a ray along the view direction and reports the hit
// against the readback heightfield.
func (g *GameLoop) pickTerrain() {
	r := physics.Raycast(g.camera.Position, g.camera.Forward(), 4000, g.manager.Heightfield())
	if !r.Hit {
		return
	}
	p := r.Point
	log.Printf("picked (%.1f, %.1f, %.1f), terrain height %.2f",
		p.X(), p.Y(), p.Z(), g.manager.SampleHeightAt(p.X(), p.Z()))
}

func (g *GameLoop) exportPreview() {
	hf := g.manager.Heightfield()
	if hf == nil {
		log.Printf("no heightfield to export")
		return
	}
	path := time.Now().Format("heightmap-150405.png")
	if err := heightfield.WritePreviewPNG(hf, path, 512); err != nil {
		log.Printf("export preview: %v", err)
		return
	}
	log.Printf("wrote %s", path)
}

func (g *GameLoop) updateFPSCounter() {
	g.frames++
	if since := time.Since(g.lastFPSCheckTime); since >= 5*time.Second {
		fps := float64(g.frames) / since.Seconds()
		clipped := g.manager.ClippedInstances()
		if clipped > 0 {
			log.Printf("%.1f fps (%d instances clipped)", fps, clipped)
		} else {
			log.Printf("%.1f fps", fps)
		}
		g.frames = 0
		g.lastFPSCheckTime = time.Now()
	}
}
