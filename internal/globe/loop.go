package globe

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/earthview/internal/logger"
)

// ErrContextLost is returned by a Renderer that finds its graphics context
// reset while drawing. The loop treats it as a context-loss event.
var ErrContextLost = errors.New("graphics context lost")

// Renderer draws a scene. ContextLost reports whether the graphics context
// has been invalidated since the renderer was created.
type Renderer interface {
	ContextLost() bool
	Render(scene *Scene, view View) error
}

// View supplies the camera for a frame.
type View interface {
	ViewMatrix() mgl32.Mat4
	ProjectionMatrix() mgl32.Mat4
}

// Controls is a camera that advances once per frame.
type Controls interface {
	View
	Update(dt float64)
}

// LoopState is the render loop's run state.
type LoopState int

const (
	LoopStopped LoopState = iota
	LoopRunning
)

func (s LoopState) String() string {
	if s == LoopRunning {
		return "running"
	}
	return "stopped"
}

// LoopConfig configures a Loop.
type LoopConfig struct {
	Session  *Session
	Frames   *FrameQueue
	Renderer Renderer
	Controls Controls
	// RotationSpeed applies to earth-locked layers, CloudRotationSpeed to
	// the clouds. Both are in radians per second.
	RotationSpeed      float32
	CloudRotationSpeed float32
	Visible            [NumLayers]bool
	// Reinit rebuilds the whole scene after a context loss.
	Reinit func()
}

// Loop is the per-frame driver: it advances the camera and the layer
// rotations, applies visibility, submits the frame and polls the upgrader.
type Loop struct {
	cfg     LoopConfig
	state   LoopState
	frameID FrameID
	last    time.Time

	earthAngle float32
	cloudAngle float32
	visible    [NumLayers]bool

	lostLogged bool
	retired    bool
	err        error
	log        *zap.Logger
}

// NewLoop creates a stopped loop.
func NewLoop(cfg LoopConfig) *Loop {
	return &Loop{
		cfg:     cfg,
		visible: cfg.Visible,
		log:     logger.Named("loop"),
	}
}

// Start begins requesting frames. It does nothing if the loop is running,
// has failed, or was retired by a context loss.
func (l *Loop) Start() {
	if l.state == LoopRunning || l.err != nil || l.retired {
		return
	}
	l.state = LoopRunning
	l.last = time.Time{}
	l.frameID = l.cfg.Frames.Request(l.tick)
	l.log.Info("render loop started")
}

// Stop cancels the pending frame.
func (l *Loop) Stop() {
	if l.state == LoopStopped {
		return
	}
	l.cfg.Frames.Cancel(l.frameID)
	l.frameID = 0
	l.state = LoopStopped
}

// State returns the run state.
func (l *Loop) State() LoopState { return l.state }

// Err returns the error that stopped the loop, if any.
func (l *Loop) Err() error { return l.err }

func (l *Loop) tick(now time.Time) {
	l.frameID = 0
	if l.state != LoopRunning {
		return
	}

	if l.cfg.Renderer.ContextLost() {
		if !l.lostLogged {
			l.log.Warn("graphics context lost")
			l.lostLogged = true
		}
	}

	var dt float64
	if !l.last.IsZero() {
		dt = now.Sub(l.last).Seconds()
	}
	l.last = now

	l.cfg.Controls.Update(dt)
	l.advance(float32(dt))

	scene := l.cfg.Session.Scene()
	if err := l.cfg.Renderer.Render(scene, l.cfg.Controls); err != nil {
		if errors.Is(err, ErrContextLost) {
			l.HandleContextLost()
			return
		}
		l.err = fmt.Errorf("rendering frame: %w", err)
		l.state = LoopStopped
		l.log.Error("render loop stopped", zap.Error(err))
		return
	}

	l.cfg.Session.Upgrader().Poll(now)

	l.frameID = l.cfg.Frames.Request(l.tick)
}

// advance rotates the layers and applies visibility. Earth-locked layers
// share one angle so borders and lights stay registered with the surface.
func (l *Loop) advance(dt float32) {
	l.earthAngle += l.cfg.RotationSpeed * dt
	l.cloudAngle += l.cfg.CloudRotationSpeed * dt

	scene := l.cfg.Session.Scene()
	for layer := LayerID(0); layer < NumLayers; layer++ {
		m := scene.Mesh(layer)
		if m == nil {
			continue
		}
		switch {
		case layer == Clouds:
			m.RotationY = l.cloudAngle
		case EarthLocked(layer):
			m.RotationY = l.earthAngle
		}
		l.applyVisibility(m)
	}
}

func (l *Loop) applyVisibility(m *Mesh) {
	if l.visible[m.Layer] {
		m.Scale = 1
	} else {
		m.Scale = 0
	}
}

// SetVisible shows or hides a layer. Hidden layers keep their mesh.
func (l *Loop) SetVisible(layer LayerID, visible bool) {
	l.visible[layer] = visible
	if m := l.cfg.Session.Scene().Mesh(layer); m != nil {
		l.applyVisibility(m)
	}
}

// Toggle flips a layer's visibility and returns the new value.
func (l *Loop) Toggle(layer LayerID) bool {
	l.SetVisible(layer, !l.visible[layer])
	return l.visible[layer]
}

// Visible reports whether a layer is switched on.
func (l *Loop) Visible(layer LayerID) bool { return l.visible[layer] }

// HandleContextLost stops the frame chain, closes the session and calls
// Reinit. Only the first call on a loop has any effect; the rebuilt scene
// gets a new loop.
func (l *Loop) HandleContextLost() bool {
	if l.retired {
		return false
	}
	l.retired = true
	l.log.Warn("graphics context lost, reinitialising scene")

	l.Stop()
	l.cfg.Session.Close()
	if l.cfg.Reinit != nil {
		l.cfg.Reinit()
	}
	return true
}
