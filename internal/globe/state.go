package globe

import "fmt"

// LayerState tracks the high-resolution upgrade of one upgrade group.
type LayerState int

const (
	// DoNotLoad means there is nothing to upgrade, or the upgrade was abandoned.
	DoNotLoad LayerState = iota
	// Loading means the upgrade textures were requested and not yet applied.
	Loading
	// Updated means the upgrade was applied. It is terminal.
	Updated
)

func (s LayerState) String() string {
	switch s {
	case DoNotLoad:
		return "doNotLoad"
	case Loading:
		return "loading"
	case Updated:
		return "updated"
	default:
		return fmt.Sprintf("LayerState(%d)", int(s))
	}
}

// UpgradeGroup is a set of textures swapped together on one layer.
type UpgradeGroup int

// Groups are declared in upgrade priority order.
const (
	GroupBorders UpgradeGroup = iota
	GroupLights
	GroupClouds
	GroupEarthBump

	NumGroups
)

var groupNames = [NumGroups]string{"borders", "lights", "clouds", "earth+bump"}

func (g UpgradeGroup) String() string {
	if g < 0 || g >= NumGroups {
		return fmt.Sprintf("UpgradeGroup(%d)", int(g))
	}
	return groupNames[g]
}

type swap struct {
	slot             MaterialSlot
	initial, upgrade AssetID
}

type groupSpec struct {
	layer LayerID
	swaps []swap
}

var groupSpecs = [NumGroups]groupSpec{
	GroupBorders:   {layer: Borders, swaps: []swap{{SlotMap, BordersInitial, BordersUpgrade}}},
	GroupLights:    {layer: Lights, swaps: []swap{{SlotMap, LightsInitial, LightsUpgrade}}},
	GroupClouds:    {layer: Clouds, swaps: []swap{{SlotMap, CloudsInitial, CloudsUpgrade}}},
	GroupEarthBump: {layer: Surface, swaps: []swap{{SlotMap, EarthInitial, EarthUpgrade}, {SlotBump, BumpInitial, BumpUpgrade}}},
}

// UpgradeAssets returns the slots a group swaps in.
func UpgradeAssets(g UpgradeGroup) []AssetID {
	ids := make([]AssetID, 0, len(groupSpecs[g].swaps))
	for _, s := range groupSpecs[g].swaps {
		ids = append(ids, s.upgrade)
	}
	return ids
}

// Tracker holds one LayerState per upgrade group. The zero value has every
// group at DoNotLoad.
type Tracker struct {
	states [NumGroups]LayerState
}

// NewTracker moves every group that has a distinct upgrade variant in plan to Loading.
func NewTracker(plan Plan) *Tracker {
	t := &Tracker{}
	for g, spec := range groupSpecs {
		for _, s := range spec.swaps {
			if !plan.Shared(s.initial, s.upgrade) {
				t.Request(UpgradeGroup(g))
				break
			}
		}
	}
	return t
}

// State returns the state of a group.
func (t *Tracker) State(g UpgradeGroup) LayerState { return t.states[g] }

// Request moves a group from DoNotLoad to Loading.
func (t *Tracker) Request(g UpgradeGroup) bool {
	if t.states[g] != DoNotLoad {
		return false
	}
	t.states[g] = Loading
	return true
}

// MarkUpdated moves a group from Loading to Updated.
func (t *Tracker) MarkUpdated(g UpgradeGroup) bool {
	if t.states[g] != Loading {
		return false
	}
	t.states[g] = Updated
	return true
}

// Abandon moves a group from Loading back to DoNotLoad after its upgrade
// textures failed to load.
func (t *Tracker) Abandon(g UpgradeGroup) bool {
	if t.states[g] != Loading {
		return false
	}
	t.states[g] = DoNotLoad
	return true
}

// Settled reports whether no group is waiting for an upgrade.
func (t *Tracker) Settled() bool {
	for _, s := range t.states {
		if s == Loading {
			return false
		}
	}
	return true
}
