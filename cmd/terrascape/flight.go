package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"terrascape/internal/graphics"
)

// Tour flies the camera along a ring of waypoints above the terrain, one
// eased segment at a time. Any manual interruption is the caller's job:
// starting a new tour resets it.
type Tour struct {
	waypoints []mgl32.Vec3
	segment   int
	tween     *gween.Tween
	active    bool

	from mgl32.Vec3
	to   mgl32.Vec3
}

const tourSegmentSeconds = 6.0

// NewTour lays out a waypoint ring scaled to the world size
func NewTour(worldSize float32) *Tour {
	r := float64(worldSize) * 0.42
	high := worldSize * 0.22
	low := worldSize * 0.08

	var points []mgl32.Vec3
	const count = 8
	for i := 0; i < count; i++ {
		a := 2 * math.Pi * float64(i) / count
		y := low
		if i%2 == 0 {
			y = high
		}
		points = append(points, mgl32.Vec3{
			float32(math.Cos(a) * r),
			y,
			float32(math.Sin(a) * r),
		})
	}
	return &Tour{waypoints: points}
}

// Active reports whether the tour is flying the camera
func (t *Tour) Active() bool {
	return t.active
}

// Start begins a tour from the camera's current position
func (t *Tour) Start(camera *graphics.Camera) {
	t.segment = 0
	t.from = camera.Position
	t.to = t.waypoints[0]
	t.tween = gween.New(0, 1, tourSegmentSeconds, ease.InOutQuad)
	t.active = true
}

// Stop ends the tour, leaving the camera where it is
func (t *Tour) Stop() {
	t.active = false
}

// Update advances the tour and writes the camera pose. The camera always
// looks at the world center.
func (t *Tour) Update(dt float64, camera *graphics.Camera) {
	if !t.active {
		return
	}

	v, finished := t.tween.Update(float32(dt))
	pos := t.from.Add(t.to.Sub(t.from).Mul(v))
	camera.Position = pos

	// Aim at the origin.
	look := mgl32.Vec3{0, 0, 0}.Sub(pos)
	dist := float32(math.Hypot(float64(look.X()), float64(look.Z())))
	camera.Yaw = mgl32.RadToDeg(float32(math.Atan2(float64(look.X()), float64(-look.Z()))))
	camera.Pitch = mgl32.RadToDeg(float32(math.Atan2(float64(look.Y()), float64(dist))))

	if finished {
		t.segment++
		if t.segment >= len(t.waypoints) {
			t.active = false
			return
		}
		t.from = t.to
		t.to = t.waypoints[t.segment]
		t.tween = gween.New(0, 1, tourSegmentSeconds, ease.InOutQuad)
	}
}
