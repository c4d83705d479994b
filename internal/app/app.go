// Package app wires the window, renderer, texture loading and render loop
// into the earthview application.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/earthview/internal/app/status"
	"github.com/Faultbox/earthview/internal/assets"
	"github.com/Faultbox/earthview/internal/config"
	"github.com/Faultbox/earthview/internal/engine/camera"
	"github.com/Faultbox/earthview/internal/engine/input"
	"github.com/Faultbox/earthview/internal/engine/renderer"
	"github.com/Faultbox/earthview/internal/engine/screenshot"
	"github.com/Faultbox/earthview/internal/engine/window"
	"github.com/Faultbox/earthview/internal/globe"
	"github.com/Faultbox/earthview/internal/logger"
)

// Title is the window title.
const Title = "earthview"

// layerKeys toggles layers with the number row.
var layerKeys = map[sdl.Scancode]globe.LayerID{
	sdl.SCANCODE_1: globe.Surface,
	sdl.SCANCODE_2: globe.Borders,
	sdl.SCANCODE_3: globe.Lights,
	sdl.SCANCODE_4: globe.Clouds,
	sdl.SCANCODE_5: globe.Stars,
}

// App is the viewer instance.
type App struct {
	cfg     *config.Config
	running bool

	window   *window.Window
	input    *input.Input
	controls *camera.OrbitControls
	frames   *globe.FrameQueue
	fetcher  *assets.Fetcher
	watcher  *config.Watcher
	shots    *screenshot.Capture

	// Rebuilt after every context loss.
	renderer *renderer.Renderer
	session  *globe.Session
	loop     *globe.Loop

	ctx         context.Context
	cancel      context.CancelFunc
	rebuilds    int
	captureNext bool
	err         error
	log         *zap.Logger
}

// New creates the window and starts loading textures.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		cfg:    cfg,
		input:  input.New(),
		frames: globe.NewFrameQueue(),
		shots:  screenshot.New(cfg.Graphics.ScreenshotDir, Title),
		log:    logger.Named("app"),
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	a.log.Info("initializing earthview",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.String("assets", cfg.Assets.Base),
	)

	var err error
	a.window, err = window.New(window.Config{
		Title:      Title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	width, height := a.window.GetSize()
	a.controls = camera.NewOrbitControls(camera.Config{
		FOV:         cfg.Camera.FOV,
		Near:        cfg.Camera.Near,
		Far:         cfg.Camera.Far,
		Distance:    cfg.Camera.Distance,
		MinDistance: cfg.Camera.MinDistance,
		MaxDistance: cfg.Camera.MaxDistance,
	}, width, height)

	if err := a.setup(initialVisibility(cfg.Globe.Layers)); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Source != "" {
		if a.watcher, err = config.Watch(cfg.Source); err != nil {
			a.log.Warn("config changes will not be applied live", zap.Error(err))
		}
	}

	a.log.Info("earthview initialized")
	return a, nil
}

func initialVisibility(l config.LayersConfig) [globe.NumLayers]bool {
	var v [globe.NumLayers]bool
	v[globe.Surface] = l.Surface
	v[globe.Borders] = l.Borders
	v[globe.Lights] = l.Lights
	v[globe.Clouds] = l.Clouds
	v[globe.Stars] = l.Stars
	return v
}

// setup creates a renderer for the current context and a fresh session and
// loop on top of it.
func (a *App) setup(visible [globe.NumLayers]bool) error {
	width, height := a.window.GetSize()
	r, err := renderer.New(renderer.Config{Width: width, Height: height})
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	a.renderer = r

	maxTex := r.MaxTextureSize()
	if a.cfg.Graphics.MaxTextureSize > 0 {
		maxTex = a.cfg.Graphics.MaxTextureSize
	}

	if a.fetcher == nil {
		src, err := assets.NewSource(a.cfg.Assets.Base, &http.Client{})
		if err != nil {
			return fmt.Errorf("invalid asset source: %w", err)
		}
		a.fetcher = assets.NewFetcher(src, assets.Options{
			MaxConcurrent:  a.cfg.Assets.MaxConcurrent,
			Timeout:        a.cfg.Assets.FetchTimeout,
			MaxTextureSize: maxTex,
			Cache:          assets.NewCache(),
		})
	}

	var loop *globe.Loop
	session := globe.NewSession(globe.SessionConfig{
		Plan:            globe.NewPlan(maxTex),
		Fetcher:         a.fetcher,
		Progress:        status.NewIndicator(Title, a.window.SetTitle),
		UpgradeInterval: a.cfg.Globe.UpgradeInterval,
		OnReady:         func() { loop.Start() },
	})
	loop = globe.NewLoop(globe.LoopConfig{
		Session:            session,
		Frames:             a.frames,
		Renderer:           r,
		Controls:           a.controls,
		RotationSpeed:      a.cfg.Globe.RotationSpeed,
		CloudRotationSpeed: a.cfg.Globe.CloudRotationSpeed,
		Visible:            visible,
		Reinit:             a.reinit,
	})
	a.session, a.loop = session, loop

	session.Start(a.ctx)
	return nil
}

// reinit runs once per lost context, from inside Loop.HandleContextLost.
// The old session is already closed and its frame cancelled.
func (a *App) reinit() {
	a.rebuilds++
	a.log.Warn("rebuilding scene", zap.Int("rebuilds", a.rebuilds))

	var visible [globe.NumLayers]bool
	for l := range visible {
		visible[l] = a.loop.Visible(globe.LayerID(l))
	}

	a.renderer.Close()
	if err := a.window.RecreateContext(); err != nil {
		a.err = fmt.Errorf("recreating OpenGL context: %w", err)
		return
	}
	if err := a.setup(visible); err != nil {
		a.err = err
	}
}

// Run starts the main loop. It returns when the window is closed, ctx is
// cancelled, or rendering fails.
func (a *App) Run(ctx context.Context) error {
	a.running = true

	var fps status.FPSCounter
	a.log.Info("starting main loop")

	for a.running {
		if ctx.Err() != nil {
			break
		}

		if a.input.Update() {
			a.running = false
			break
		}
		for _, event := range a.input.Events() {
			a.handle(event)
		}
		a.applyConfigChanges()
		if a.err != nil {
			return a.err
		}

		a.session.Pump()

		now := time.Now()
		if a.frames.Flush(now) == 0 {
			if err := a.renderer.Idle(); errors.Is(err, globe.ErrContextLost) {
				a.loop.HandleContextLost()
			}
		}
		if a.err != nil {
			return a.err
		}
		if err := a.loop.Err(); err != nil {
			return err
		}
		if a.captureNext {
			a.captureNext = false
			a.capture()
		}

		a.window.SwapBuffers()

		if fps.Tick(now) {
			a.log.Debug("fps", zap.Int("count", fps.FPS()))
			if a.cfg.Graphics.ShowFPS && a.session.Ready() {
				a.window.SetTitle(status.FPSTitle(Title, fps.FPS()))
			}
		}
		a.limitFrameRate(now)
	}

	return nil
}

func (a *App) handle(event input.Event) {
	switch event.Type {
	case input.EventWindowResize:
		width, height := a.window.GetSize()
		a.renderer.Resize(width, height)
		a.controls.SetViewport(width, height)

	case input.EventKeyDown:
		switch event.Key {
		case sdl.SCANCODE_ESCAPE:
			a.running = false
			return
		case sdl.SCANCODE_F12:
			a.captureNext = true
			return
		}
		if layer, ok := layerKeys[event.Key]; ok {
			visible := a.loop.Toggle(layer)
			a.log.Info("layer toggled", zap.Stringer("layer", layer), zap.Bool("visible", visible))
		}

	case input.EventMouseDrag:
		a.controls.HandleDrag(event.DeltaX, event.DeltaY)

	case input.EventMouseWheel:
		a.controls.HandleZoom(event.DeltaY)

	case input.EventContextLost:
		a.renderer.MarkContextLost()
		a.loop.HandleContextLost()
	}
}

// applyConfigChanges applies live-reloadable settings from the watched
// config file. Everything else needs a restart.
func (a *App) applyConfigChanges() {
	if a.watcher == nil {
		return
	}
	select {
	case cfg, ok := <-a.watcher.Updates():
		if !ok {
			a.watcher = nil
			return
		}
		visible := initialVisibility(cfg.Globe.Layers)
		for l, v := range visible {
			a.loop.SetVisible(globe.LayerID(l), v)
		}
		a.cfg.Globe.Layers = cfg.Globe.Layers
		a.cfg.Graphics.ShowFPS = cfg.Graphics.ShowFPS
		if !a.cfg.Graphics.ShowFPS && a.session.Ready() {
			a.window.SetTitle(Title)
		}
	default:
	}
}

// capture saves the frame that is about to be presented.
func (a *App) capture() {
	img, err := screenshot.FromFramebuffer(a.renderer.ReadPixels())
	if err != nil {
		a.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	path, err := a.shots.Save(img)
	if err != nil {
		a.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("path", path))
}

func (a *App) limitFrameRate(frameStart time.Time) {
	if a.cfg.Graphics.VSync || a.cfg.Graphics.FPSLimit <= 0 {
		return
	}
	budget := time.Second / time.Duration(a.cfg.Graphics.FPSLimit)
	if spent := time.Since(frameStart); spent < budget {
		time.Sleep(budget - spent)
	}
}

// Close releases every resource.
func (a *App) Close() {
	a.log.Info("closing earthview")

	a.cancel()
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.loop != nil {
		a.loop.Stop()
	}
	if a.session != nil {
		a.session.Close()
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
