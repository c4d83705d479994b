package globe

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/earthview/internal/assets"
	"github.com/Faultbox/earthview/internal/logger"
)

// Fetcher loads the bytes of one texture asset. It may be called from many
// goroutines at once.
type Fetcher interface {
	Fetch(ctx context.Context, asset *assets.TextureAsset) (*assets.Decoded, error)
}

// LoadProgress summarises the first-render texture set.
type LoadProgress struct {
	Done   int // assets that reached a terminal state
	Failed int
	Count  int
	Sized  int   // assets whose size is known
	Loaded int64 // bytes received
	Total  int64 // bytes expected, counting only assets with a known size
}

// Fraction returns progress in [0, 1], by bytes when every size is known
// and by finished assets otherwise.
func (p LoadProgress) Fraction() float64 {
	if p.Count == 0 {
		return 1
	}
	if p.Sized == p.Count && p.Total > 0 {
		return min(float64(p.Loaded)/float64(p.Total), 1)
	}
	return float64(p.Done) / float64(p.Count)
}

// ProgressIndicator displays loading progress until the first render.
type ProgressIndicator interface {
	Update(p LoadProgress)
	Remove()
}

// SessionConfig configures a Session.
type SessionConfig struct {
	Plan            Plan
	Fetcher         Fetcher
	Progress        ProgressIndicator // optional
	UpgradeInterval time.Duration
	// OnReady runs once, on the render thread, when every first-render
	// texture has loaded or failed.
	OnReady func()
}

type fetchResult struct {
	asset   *assets.TextureAsset
	decoded *assets.Decoded
	err     error
}

// Session owns everything built for one scene: assets, layer states, meshes
// and in-flight fetches. A new session is created whenever the scene is
// (re)initialised; nothing outlives it.
//
// Fetches run in background goroutines, but their results are applied only
// by Pump, so all session state is touched from the render thread alone.
type Session struct {
	plan     Plan
	table    *AssetTable
	tracker  *Tracker
	scene    *Scene
	builder  *Builder
	upgrader *Upgrader

	fetcher  Fetcher
	progress ProgressIndicator
	onReady  func()

	results chan fetchResult
	cancel  context.CancelFunc
	started bool
	closed  bool

	gating  map[*assets.TextureAsset]bool
	pending int
	ready   bool

	startTime time.Time
	log       *zap.Logger
}

// NewSession creates a session for cfg.Plan. Call Start to issue fetches.
func NewSession(cfg SessionConfig) *Session {
	log := logger.Named("session")
	table := NewAssetTable(cfg.Plan)
	tracker := NewTracker(cfg.Plan)
	scene := NewScene()

	s := &Session{
		plan:     cfg.Plan,
		table:    table,
		tracker:  tracker,
		scene:    scene,
		builder:  NewBuilder(scene, table, log),
		upgrader: NewUpgrader(tracker, table, scene, cfg.UpgradeInterval, log),
		fetcher:  cfg.Fetcher,
		progress: cfg.Progress,
		onReady:  cfg.OnReady,
		gating:   make(map[*assets.TextureAsset]bool),
		log:      log,
	}

	// Only the textures that a layer needs to exist gate the first render;
	// upgrade variants stream in afterwards.
	for l := LayerID(0); l < NumLayers; l++ {
		for _, id := range Requires(l) {
			s.gating[table.Get(id)] = true
		}
	}
	s.pending = len(s.gating)
	return s
}

// Start issues one fetch per distinct URI. Upgrade fetches for groups with
// nothing to upgrade are skipped.
func (s *Session) Start(ctx context.Context) {
	if s.started {
		return
	}
	s.started = true
	s.startTime = time.Now()

	ctx, s.cancel = context.WithCancel(ctx)
	wanted := s.wantedAssets()
	s.results = make(chan fetchResult, len(wanted))

	s.log.Info("loading textures",
		zap.Int("max_texture_size", s.plan.MaxTextureSize),
		zap.Int("tier", s.plan.Tier.MinTextureSize),
		zap.Int("fetches", len(wanted)),
		zap.Int("gating", s.pending))

	for _, a := range wanted {
		a.MarkLoading()
		go func(a *assets.TextureAsset) {
			d, err := s.fetcher.Fetch(ctx, a)
			s.results <- fetchResult{asset: a, decoded: d, err: err}
		}(a)
	}
}

func (s *Session) wantedAssets() []*assets.TextureAsset {
	want := make(map[*assets.TextureAsset]bool)
	for a := range s.gating {
		want[a] = true
	}
	for g := UpgradeGroup(0); g < NumGroups; g++ {
		if s.tracker.State(g) != Loading {
			continue
		}
		for _, id := range UpgradeAssets(g) {
			want[s.table.Get(id)] = true
		}
	}

	// Issue in slot order so the log and the request order are stable.
	var out []*assets.TextureAsset
	for _, id := range AllAssets() {
		a := s.table.Get(id)
		if want[a] {
			out = append(out, a)
			delete(want, a)
		}
	}
	return out
}

// Pump applies finished fetches without blocking and returns how many it
// handled. It must be called from the render thread.
func (s *Session) Pump() int {
	if !s.started || s.closed {
		return 0
	}

	n := 0
	for {
		select {
		case r := <-s.results:
			s.apply(r)
			n++
		default:
			if !s.ready && s.progress != nil {
				s.progress.Update(s.Progress())
			}
			return n
		}
	}
}

func (s *Session) apply(r fetchResult) {
	a := r.asset
	if r.err != nil {
		a.Fail(r.err)
		s.log.Error("texture failed", zap.String("uri", a.URI), zap.Error(r.err))
	} else {
		a.Attach(r.decoded)
		loaded, _ := a.Bytes()
		s.log.Info("texture ready", zap.String("uri", a.URI), zap.Int64("bytes", loaded))

		for _, id := range s.table.Slots(a) {
			for _, l := range s.builder.BuildReady(id) {
				s.log.Info("layer ready", zap.Stringer("layer", l))
			}
		}
	}

	if !s.gating[a] {
		return
	}
	s.pending--
	if s.pending == 0 && !s.ready {
		s.ready = true
		if s.progress != nil {
			s.progress.Update(s.Progress())
			s.progress.Remove()
		}
		s.log.Info("first render set loaded",
			zap.Int("layers", s.scene.Len()),
			zap.Duration("elapsed", time.Since(s.startTime)))
		if s.onReady != nil {
			s.onReady()
		}
	}
}

// Progress reports the state of the first-render texture set.
func (s *Session) Progress() LoadProgress {
	p := LoadProgress{Count: len(s.gating)}
	for a := range s.gating {
		if a.Done() {
			p.Done++
		}
		if a.Failed() {
			p.Failed++
		}
		loaded, total := a.Bytes()
		p.Loaded += loaded
		if total > 0 {
			p.Sized++
			p.Total += total
		}
	}
	return p
}

// Close cancels outstanding fetches. Results that arrive later are dropped
// with the session.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
}

// Ready reports whether the first-render set has finished loading.
func (s *Session) Ready() bool { return s.ready }

// Pending returns the number of first-render textures still loading.
func (s *Session) Pending() int { return s.pending }

// Scene returns the session's scene.
func (s *Session) Scene() *Scene { return s.scene }

// Tracker returns the upgrade state tracker.
func (s *Session) Tracker() *Tracker { return s.tracker }

// Upgrader returns the resolution upgrader.
func (s *Session) Upgrader() *Upgrader { return s.upgrader }

// Asset returns the texture bound to a slot.
func (s *Session) Asset(id AssetID) *assets.TextureAsset { return s.table.Get(id) }
