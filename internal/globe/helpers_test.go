package globe

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/earthview/internal/assets"
)

// fakeFetcher serves tiny textures. URIs with a gate block until it is
// closed; URIs in fail return the error.
type fakeFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	gates map[string]chan struct{}
	fail  map[string]error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		calls: make(map[string]int),
		gates: make(map[string]chan struct{}),
		fail:  make(map[string]error),
	}
}

func (f *fakeFetcher) hold(uri string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gates[uri] = make(chan struct{})
}

func (f *fakeFetcher) release(uri string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	close(f.gates[uri])
}

func (f *fakeFetcher) failWith(uri string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[uri] = err
}

func (f *fakeFetcher) count(uri string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[uri]
}

func (f *fakeFetcher) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeFetcher) Fetch(ctx context.Context, a *assets.TextureAsset) (*assets.Decoded, error) {
	f.mu.Lock()
	f.calls[a.URI]++
	gate := f.gates[a.URI]
	err := f.fail[a.URI]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &assets.Decoded{Image: image.NewRGBA(image.Rect(0, 0, 2, 1)), Bytes: 16}, nil
}

type fakeProgress struct {
	updates []LoadProgress
	removed int
}

func (p *fakeProgress) Update(lp LoadProgress) { p.updates = append(p.updates, lp) }
func (p *fakeProgress) Remove()               { p.removed++ }

type fakeRenderer struct {
	lost    bool
	err     error
	renders int
	scenes  []*Scene
}

func (r *fakeRenderer) ContextLost() bool { return r.lost }

func (r *fakeRenderer) Render(scene *Scene, _ View) error {
	if r.err != nil {
		return r.err
	}
	r.renders++
	r.scenes = append(r.scenes, scene)
	return nil
}

type fakeControls struct {
	updates int
	dts     []float64
}

func (c *fakeControls) Update(dt float64) {
	c.updates++
	c.dts = append(c.dts, dt)
}
func (c *fakeControls) ViewMatrix() mgl32.Mat4       { return mgl32.Ident4() }
func (c *fakeControls) ProjectionMatrix() mgl32.Mat4 { return mgl32.Ident4() }

func newTestSession(t *testing.T, maxTextureSize int, f Fetcher, onReady func()) *Session {
	t.Helper()
	s := NewSession(SessionConfig{
		Plan:            NewPlan(maxTextureSize),
		Fetcher:         f,
		UpgradeInterval: 100 * time.Millisecond,
		OnReady:         onReady,
	})
	t.Cleanup(s.Close)
	return s
}

// pumpUntil pumps the session on the test goroutine until cond holds.
func pumpUntil(t *testing.T, s *Session, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out pumping session")
		}
		s.Pump()
		time.Sleep(time.Millisecond)
	}
}

// settled reports whether every issued fetch has been applied.
func settled(s *Session) bool {
	for _, id := range AllAssets() {
		if s.Asset(id).State() == assets.StateLoading {
			return false
		}
	}
	return true
}
