package globe

import (
	"time"

	"go.uber.org/zap"
)

// Upgrader swaps initial textures for their high-resolution variants, at
// most one group per step so a single frame never uploads more than one
// large texture set.
type Upgrader struct {
	tracker  *Tracker
	table    *AssetTable
	scene    *Scene
	interval time.Duration
	last     time.Time
	log      *zap.Logger
}

// NewUpgrader creates an upgrader polled at most once per interval.
func NewUpgrader(tracker *Tracker, table *AssetTable, scene *Scene, interval time.Duration, log *zap.Logger) *Upgrader {
	return &Upgrader{tracker: tracker, table: table, scene: scene, interval: interval, log: log}
}

// Done reports whether polling can stop.
func (u *Upgrader) Done() bool { return u.tracker.Settled() }

// Poll runs Step when at least one interval has elapsed since the last run.
func (u *Upgrader) Poll(now time.Time) (UpgradeGroup, bool) {
	if u.Done() {
		return 0, false
	}
	if !u.last.IsZero() && now.Sub(u.last) < u.interval {
		return 0, false
	}
	u.last = now
	return u.Step()
}

// Step applies the first pending upgrade in priority order whose layer exists
// and whose textures are ready. Groups that can never apply, because an
// upgrade texture or the layer itself failed to load, are abandoned without
// counting as the step's swap.
func (u *Upgrader) Step() (UpgradeGroup, bool) {
	for g := UpgradeGroup(0); g < NumGroups; g++ {
		if u.tracker.State(g) != Loading {
			continue
		}

		spec := groupSpecs[g]
		ids := UpgradeAssets(g)
		if u.table.AnyFailed(ids...) || u.table.AnyFailed(Requires(spec.layer)...) {
			u.tracker.Abandon(g)
			u.log.Warn("upgrade abandoned", zap.Stringer("group", g))
			continue
		}

		mesh := u.scene.Mesh(spec.layer)
		if mesh == nil || !u.table.Ready(ids...) {
			continue
		}

		for _, s := range spec.swaps {
			tex := u.table.Get(s.upgrade)
			mesh.Material.SetTexture(s.slot, tex)
			tex.NeedsUpload = true
		}
		u.tracker.MarkUpdated(g)
		u.log.Info("texture upgraded", zap.Stringer("group", g), zap.Stringer("layer", spec.layer))
		return g, true
	}
	return 0, false
}
