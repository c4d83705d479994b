// Package globe assembles the layered Earth scene: it plans which texture
// variants to fetch, builds each layer once its textures arrive, upgrades
// textures to higher resolutions, and drives the render loop.
package globe

import (
	"fmt"
	"strings"
)

// AssetID names a texture slot. Initial slots gate the first render;
// upgrade slots are fetched in the background and swapped in later.
type AssetID int

const (
	EarthInitial AssetID = iota
	EarthUpgrade
	BumpInitial
	BumpUpgrade
	SpecularMap
	BordersInitial
	BordersUpgrade
	LightsInitial
	LightsUpgrade
	CloudsInitial
	CloudsUpgrade
	Starfield

	numAssets
)

var assetNames = [numAssets]string{
	"earth-initial", "earth-upgrade",
	"bump-initial", "bump-upgrade",
	"specular",
	"borders-initial", "borders-upgrade",
	"lights-initial", "lights-upgrade",
	"clouds-initial", "clouds-upgrade",
	"starfield",
}

func (id AssetID) String() string {
	if id < 0 || id >= numAssets {
		return fmt.Sprintf("AssetID(%d)", int(id))
	}
	return assetNames[id]
}

// AllAssets returns every slot in declaration order.
func AllAssets() []AssetID {
	ids := make([]AssetID, numAssets)
	for i := range ids {
		ids[i] = AssetID(i)
	}
	return ids
}

// Resolution is the edge length of a texture variant in pixels.
type Resolution int

const (
	Res2K Resolution = 2048
	Res4K Resolution = 4096
	Res8K Resolution = 8192
)

// Tag returns the file name suffix for the resolution.
func (r Resolution) Tag() string {
	return fmt.Sprintf("%dK", int(r)/1024)
}

// filePatterns maps each slot to its image family. Initial and upgrade slots
// of one family differ only in resolution. Families without a %s verb come in
// a single size.
var filePatterns = [numAssets]string{
	EarthInitial:   "earth_no_clouds_%s.jpg",
	EarthUpgrade:   "earth_no_clouds_%s.jpg",
	BumpInitial:    "elev_bump_map_%s.png",
	BumpUpgrade:    "elev_bump_map_%s.png",
	SpecularMap:    "water_%s.png",
	BordersInitial: "borders_%s.png",
	BordersUpgrade: "borders_%s.png",
	LightsInitial:  "earth_lights_%s.png",
	LightsUpgrade:  "earth_lights_%s.png",
	CloudsInitial:  "fair_clouds_%s.png",
	CloudsUpgrade:  "fair_clouds_%s.png",
	Starfield:      "galaxy_starfield.png",
}

// Tier is the set of variants used on devices whose maximum texture size is
// at least MinTextureSize.
type Tier struct {
	MinTextureSize int
	Sizes          [numAssets]Resolution
}

// tiers is ordered from most to least capable.
var tiers = []Tier{
	{
		MinTextureSize: 8192,
		Sizes: [numAssets]Resolution{
			EarthInitial: Res2K, EarthUpgrade: Res8K,
			BumpInitial: Res2K, BumpUpgrade: Res8K,
			SpecularMap:    Res4K,
			BordersInitial: Res4K, BordersUpgrade: Res8K,
			LightsInitial: Res2K, LightsUpgrade: Res8K,
			CloudsInitial: Res2K, CloudsUpgrade: Res4K,
			Starfield: Res4K,
		},
	},
	{
		MinTextureSize: 4096,
		Sizes: [numAssets]Resolution{
			EarthInitial: Res2K, EarthUpgrade: Res4K,
			BumpInitial: Res2K, BumpUpgrade: Res4K,
			SpecularMap:    Res4K,
			BordersInitial: Res4K, BordersUpgrade: Res4K,
			LightsInitial: Res2K, LightsUpgrade: Res4K,
			CloudsInitial: Res4K, CloudsUpgrade: Res4K,
			Starfield: Res4K,
		},
	},
	{
		MinTextureSize: 0,
		Sizes: [numAssets]Resolution{
			EarthInitial: Res2K, EarthUpgrade: Res2K,
			BumpInitial: Res2K, BumpUpgrade: Res2K,
			SpecularMap:    Res2K,
			BordersInitial: Res2K, BordersUpgrade: Res2K,
			LightsInitial: Res2K, LightsUpgrade: Res2K,
			CloudsInitial: Res2K, CloudsUpgrade: Res2K,
			Starfield: Res2K,
		},
	},
}

// SelectTier returns the most capable tier the device supports.
func SelectTier(maxTextureSize int) Tier {
	for _, t := range tiers {
		if maxTextureSize >= t.MinTextureSize {
			return t
		}
	}
	return tiers[len(tiers)-1]
}

// Plan resolves every slot to a URI for one device.
type Plan struct {
	MaxTextureSize int
	Tier           Tier
	uris           [numAssets]string
}

// NewPlan builds the plan for a device reporting maxTextureSize.
func NewPlan(maxTextureSize int) Plan {
	p := Plan{MaxTextureSize: maxTextureSize, Tier: SelectTier(maxTextureSize)}
	for id := range p.uris {
		p.uris[id] = fileName(filePatterns[id], p.Tier.Sizes[id])
	}
	return p
}

func fileName(pattern string, r Resolution) string {
	if !strings.Contains(pattern, "%s") {
		return pattern
	}
	return fmt.Sprintf(pattern, r.Tag())
}

// URI returns the asset URI for a slot.
func (p Plan) URI(id AssetID) string { return p.uris[id] }

// Resolution returns the variant resolution chosen for a slot.
func (p Plan) Resolution(id AssetID) Resolution { return p.Tier.Sizes[id] }

// Shared reports whether two slots resolve to the same texture.
func (p Plan) Shared(a, b AssetID) bool { return p.uris[a] == p.uris[b] }

// URIs returns the distinct URIs in slot order.
func (p Plan) URIs() []string {
	seen := make(map[string]bool, numAssets)
	var out []string
	for _, u := range p.uris {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}
