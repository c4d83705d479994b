// Package camera provides the orbit controls and projection for the globe view.
package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// Config holds projection and orbit limits.
type Config struct {
	FOV         float32 // vertical, degrees
	Near        float32
	Far         float32
	Distance    float32
	MinDistance float32
	MaxDistance float32
}

// OrbitControls orbits the camera around the origin. Input accumulates
// velocity which Update integrates and damps, so motion eases out after a
// drag ends.
type OrbitControls struct {
	// Spherical coordinates around the origin
	Distance float32
	Pitch    float32 // radians, positive looks down from above
	Yaw      float32 // radians

	MinDistance float32
	MaxDistance float32
	MaxPitch    float32

	// Sensitivities convert input deltas into velocity per second.
	DragSensitivity float32
	ZoomSensitivity float32
	// Damping is the fraction of velocity kept after one second.
	Damping float32

	fov, near, far float32
	aspect         float32

	yawVel, pitchVel, zoomVel float32
}

// NewOrbitControls creates controls looking at the origin from +Z.
func NewOrbitControls(cfg Config, width, height int) *OrbitControls {
	c := &OrbitControls{
		Distance:        cfg.Distance,
		MinDistance:     cfg.MinDistance,
		MaxDistance:     cfg.MaxDistance,
		MaxPitch:        1.5,
		DragSensitivity: 0.3,
		ZoomSensitivity: 6,
		Damping:         0.02,
		fov:             cfg.FOV,
		near:            cfg.Near,
		far:             cfg.Far,
	}
	c.SetViewport(width, height)
	return c
}

// SetViewport updates the projection aspect ratio.
func (c *OrbitControls) SetViewport(width, height int) {
	if height <= 0 {
		height = 1
	}
	c.aspect = float32(width) / float32(height)
}

// Aspect returns the current aspect ratio.
func (c *OrbitControls) Aspect() float32 { return c.aspect }

// HandleDrag adds rotation velocity from a mouse drag delta in pixels.
func (c *OrbitControls) HandleDrag(deltaX, deltaY float32) {
	c.yawVel -= deltaX * c.DragSensitivity
	c.pitchVel += deltaY * c.DragSensitivity
}

// HandleZoom adds zoom velocity from a scroll wheel delta.
func (c *OrbitControls) HandleZoom(delta float32) {
	c.zoomVel -= delta * c.ZoomSensitivity
}

// Update integrates pending motion over dt seconds. Velocity decays
// exponentially, and the distance covered is the exact integral of that
// decay over dt, so the result does not depend on the frame rate.
func (c *OrbitControls) Update(dt float64) {
	keep, step := 1.0, dt
	switch {
	case c.Damping <= 0:
		keep, step = 0, 0
	case c.Damping < 1:
		k := -gomath.Log(float64(c.Damping))
		keep = gomath.Exp(-k * dt)
		step = (1 - keep) / k
	}

	s := float32(step)
	c.Yaw += c.yawVel * s
	c.Pitch += c.pitchVel * s
	c.Distance += c.zoomVel * s * c.Distance

	c.Pitch = mgl32.Clamp(c.Pitch, -c.MaxPitch, c.MaxPitch)
	c.Distance = mgl32.Clamp(c.Distance, c.MinDistance, c.MaxDistance)

	c.yawVel *= float32(keep)
	c.pitchVel *= float32(keep)
	c.zoomVel *= float32(keep)
}

// Position returns the camera position in world space.
func (c *OrbitControls) Position() mgl32.Vec3 {
	cp, sp := float32(gomath.Cos(float64(c.Pitch))), float32(gomath.Sin(float64(c.Pitch)))
	cy, sy := float32(gomath.Cos(float64(c.Yaw))), float32(gomath.Sin(float64(c.Yaw)))
	return mgl32.Vec3{c.Distance * cp * sy, c.Distance * sp, c.Distance * cp * cy}
}

// ViewMatrix returns the view matrix looking at the origin.
func (c *OrbitControls) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
}

// ProjectionMatrix returns the perspective projection.
func (c *OrbitControls) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.fov), c.aspect, c.near, c.far)
}
