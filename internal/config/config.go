package config

import "sync"

// RenderSettings holds live render configuration
type RenderSettings struct {
	mu            sync.RWMutex
	fpsLimit      int  // 0 means uncapped, otherwise target FPS
	wireframeMode bool // wireframe rendering mode
	lodDebug      bool // tint patches by LOD level
	shadows       bool // cascade shadow rendering
	freezeLOD     bool // freeze quadtree selection at the current camera
}

var globalRenderSettings = &RenderSettings{
	fpsLimit:      180, // default FPS cap
	wireframeMode: false,
	lodDebug:      false,
	shadows:       true,
	freezeLOD:     false,
}

// GetFPSLimit returns the configured FPS cap (0 means uncapped)
func GetFPSLimit() int {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.fpsLimit
}

// SetFPSLimit sets the FPS cap; 0 disables the cap (uncapped)
func SetFPSLimit(limit int) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	if limit < 0 {
		limit = 0
	}
	if limit > 240 {
		limit = 240
	}
	globalRenderSettings.fpsLimit = limit
}

// GetWireframeMode returns whether wireframe mode is enabled
func GetWireframeMode() bool {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.wireframeMode
}

// SetWireframeMode sets the wireframe mode
func SetWireframeMode(enabled bool) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.wireframeMode = enabled
}

// ToggleWireframeMode toggles wireframe mode
func ToggleWireframeMode() {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.wireframeMode = !globalRenderSettings.wireframeMode
}

// GetLODDebug returns whether LOD debug tinting is enabled
func GetLODDebug() bool {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.lodDebug
}

// ToggleLODDebug toggles LOD debug tinting
func ToggleLODDebug() {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.lodDebug = !globalRenderSettings.lodDebug
}

// GetShadows returns whether cascade shadows are rendered
func GetShadows() bool {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.shadows
}

// SetShadows sets cascade shadow rendering
func SetShadows(enabled bool) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.shadows = enabled
}

// GetFreezeLOD returns whether quadtree selection is frozen
func GetFreezeLOD() bool {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.freezeLOD
}

// ToggleFreezeLOD toggles selection freezing
func ToggleFreezeLOD() {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.freezeLOD = !globalRenderSettings.freezeLOD
}
