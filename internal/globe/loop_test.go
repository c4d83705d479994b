package globe

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type loopHarness struct {
	t        *testing.T
	fetcher  *fakeFetcher
	frames   *FrameQueue
	renderer *fakeRenderer
	controls *fakeControls

	session *Session
	loop    *Loop
	reinits int
}

func newLoopHarness(t *testing.T) *loopHarness {
	h := &loopHarness{
		t:        t,
		fetcher:  newFakeFetcher(),
		frames:   NewFrameQueue(),
		renderer: &fakeRenderer{},
		controls: &fakeControls{},
	}
	h.build()
	return h
}

// build mirrors what the application does on start and after a context loss.
func (h *loopHarness) build() {
	var loop *Loop
	session := NewSession(SessionConfig{
		Plan:            NewPlan(2048),
		Fetcher:         h.fetcher,
		UpgradeInterval: 100 * time.Millisecond,
		OnReady:         func() { loop.Start() },
	})
	h.t.Cleanup(session.Close)

	var visible [NumLayers]bool
	for l := range visible {
		visible[l] = true
	}
	loop = NewLoop(LoopConfig{
		Session:            session,
		Frames:             h.frames,
		Renderer:           h.renderer,
		Controls:           h.controls,
		RotationSpeed:      0.5,
		CloudRotationSpeed: 0.6,
		Visible:            visible,
		Reinit: func() {
			h.reinits++
			h.build()
		},
	})
	h.session, h.loop = session, loop
	session.Start(context.Background())
}

func (h *loopHarness) waitReady() {
	h.t.Helper()
	pumpUntil(h.t, h.session, h.session.Ready)
}

func TestLoopStartsWhenReady(t *testing.T) {
	h := newLoopHarness(t)
	if h.loop.State() != LoopStopped || h.frames.Len() != 0 {
		t.Fatal("loop running before textures loaded")
	}

	h.waitReady()
	if h.loop.State() != LoopRunning {
		t.Fatalf("expected running loop, got %v", h.loop.State())
	}

	t0 := time.Unix(100, 0)
	for i := 0; i < 3; i++ {
		if n := h.frames.Flush(t0.Add(time.Duration(i) * 16 * time.Millisecond)); n != 1 {
			t.Fatalf("frame %d: expected one callback, got %d", i, n)
		}
	}
	if h.renderer.renders != 3 || h.controls.updates != 3 {
		t.Errorf("expected 3 renders and control updates, got %d/%d", h.renderer.renders, h.controls.updates)
	}
	if h.controls.dts[0] != 0 {
		t.Errorf("first frame should have zero dt, got %v", h.controls.dts[0])
	}
	if h.frames.Len() != 1 {
		t.Errorf("expected next frame requested, got %d", h.frames.Len())
	}
}

func TestLoopRotatesLayers(t *testing.T) {
	h := newLoopHarness(t)
	h.waitReady()

	t0 := time.Unix(100, 0)
	h.frames.Flush(t0)
	h.frames.Flush(t0.Add(time.Second))

	scene := h.session.Scene()
	earth := scene.Mesh(Surface).RotationY
	if earth != 0.5 {
		t.Errorf("expected surface rotation 0.5 after one second, got %v", earth)
	}
	for _, l := range []LayerID{Borders, Lights} {
		if got := scene.Mesh(l).RotationY; got != earth {
			t.Errorf("%v rotation %v drifted from surface %v", l, got, earth)
		}
	}
	if got := scene.Mesh(Clouds).RotationY; got != 0.6 {
		t.Errorf("expected cloud rotation 0.6, got %v", got)
	}
	if got := scene.Mesh(Stars).RotationY; got != 0 {
		t.Errorf("stars should not rotate, got %v", got)
	}
}

func TestToggleKeepsMeshIdentity(t *testing.T) {
	h := newLoopHarness(t)
	h.waitReady()

	mesh := h.session.Scene().Mesh(Clouds)
	material := mesh.Material

	if h.loop.Toggle(Clouds) {
		t.Fatal("expected clouds hidden after first toggle")
	}
	if mesh.Visible() || mesh.Scale != 0 {
		t.Errorf("hidden mesh has scale %v", mesh.Scale)
	}
	h.frames.Flush(time.Now())
	if mesh.Visible() {
		t.Error("frame made a hidden layer visible")
	}

	if !h.loop.Toggle(Clouds) {
		t.Fatal("expected clouds visible after second toggle")
	}
	if !mesh.Visible() || mesh.Scale != 1 {
		t.Errorf("restored mesh has scale %v", mesh.Scale)
	}
	if h.session.Scene().Mesh(Clouds) != mesh || mesh.Material != material {
		t.Error("toggle replaced the mesh or its material")
	}
}

func TestHiddenLayerStaysHiddenWhenBuilt(t *testing.T) {
	h := newLoopHarness(t)
	h.loop.SetVisible(Stars, false)
	h.waitReady()

	h.frames.Flush(time.Now())
	if m := h.session.Scene().Mesh(Stars); m == nil || m.Visible() {
		t.Error("expected stars built but hidden")
	}
}

func TestContextLossReinitialisesOnce(t *testing.T) {
	h := newLoopHarness(t)
	h.waitReady()
	h.frames.Flush(time.Now())

	oldLoop, oldSession := h.loop, h.session

	if !oldLoop.HandleContextLost() {
		t.Fatal("first context loss not handled")
	}
	if oldLoop.HandleContextLost() {
		t.Error("second context loss on the same loop handled again")
	}
	if h.reinits != 1 {
		t.Fatalf("expected exactly one reinit, got %d", h.reinits)
	}
	if oldLoop.State() != LoopStopped {
		t.Error("old loop still running")
	}
	if h.frames.Len() != 0 {
		t.Errorf("old loop left %d frames queued", h.frames.Len())
	}
	if oldSession.Pump() != 0 {
		t.Error("old session still applying results")
	}

	oldLoop.Start()
	if oldLoop.State() != LoopStopped {
		t.Error("retired loop restarted")
	}

	if h.loop == oldLoop || h.session == oldSession {
		t.Fatal("reinit did not build a new scene")
	}
	h.waitReady()

	before := h.renderer.renders
	if n := h.frames.Flush(time.Now()); n != 1 {
		t.Fatalf("expected a single frame chain after reinit, got %d", n)
	}
	if h.renderer.renders != before+1 {
		t.Error("new loop did not render")
	}
	if last := h.renderer.scenes[len(h.renderer.scenes)-1]; last != h.session.Scene() {
		t.Error("frame rendered the old scene")
	}
}

func TestLoopLogsLostContextWithoutRebuilding(t *testing.T) {
	h := newLoopHarness(t)
	h.waitReady()
	h.renderer.lost = true

	h.frames.Flush(time.Now())
	h.frames.Flush(time.Now())
	if h.reinits != 0 {
		t.Errorf("per-frame check triggered %d reinits", h.reinits)
	}
	if h.loop.State() != LoopRunning {
		t.Error("loop stopped on a per-frame context check")
	}
}

func TestRendererDetectedLossReinitialises(t *testing.T) {
	h := newLoopHarness(t)
	h.waitReady()
	oldLoop := h.loop

	h.renderer.err = fmt.Errorf("drawing: %w", ErrContextLost)
	h.frames.Flush(time.Now())

	if h.reinits != 1 {
		t.Fatalf("expected one reinit after the renderer reported a reset, got %d", h.reinits)
	}
	if oldLoop.Err() != nil {
		t.Errorf("context loss recorded as a render failure: %v", oldLoop.Err())
	}
	if oldLoop.State() != LoopStopped || h.frames.Len() != 0 {
		t.Error("old loop kept its frame chain")
	}

	h.renderer.err = nil
	h.waitReady()
	if n := h.frames.Flush(time.Now()); n != 1 {
		t.Fatalf("expected the rebuilt loop to render, got %d frames", n)
	}
	if h.reinits != 1 {
		t.Errorf("expected no further reinits, got %d", h.reinits)
	}
}

func TestRenderErrorStopsLoop(t *testing.T) {
	h := newLoopHarness(t)
	h.waitReady()

	errDraw := errors.New("draw failed")
	h.renderer.err = errDraw
	h.frames.Flush(time.Now())

	if h.loop.State() != LoopStopped {
		t.Error("loop kept running after a render error")
	}
	if !errors.Is(h.loop.Err(), errDraw) {
		t.Errorf("expected wrapped draw error, got %v", h.loop.Err())
	}
	if h.frames.Len() != 0 {
		t.Error("failed loop requested another frame")
	}
	h.loop.Start()
	if h.loop.State() != LoopStopped {
		t.Error("failed loop restarted")
	}
}
