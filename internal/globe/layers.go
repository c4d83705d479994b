package globe

import "fmt"

// LayerID names one concentric shell of the globe.
type LayerID int

const (
	Surface LayerID = iota
	Borders
	Lights
	Clouds
	Stars

	NumLayers
)

var layerNames = [NumLayers]string{"surface", "borders", "lights", "clouds", "stars"}

func (l LayerID) String() string {
	if l < 0 || l >= NumLayers {
		return fmt.Sprintf("LayerID(%d)", int(l))
	}
	return layerNames[l]
}

// ParseLayer returns the layer with the given name.
func ParseLayer(name string) (LayerID, bool) {
	for i, n := range layerNames {
		if n == name {
			return LayerID(i), true
		}
	}
	return 0, false
}

// MaterialKind selects the shading program for a layer.
type MaterialKind int

const (
	// MaterialPhong is lit with ambient + directional light and optional
	// bump and specular maps.
	MaterialPhong MaterialKind = iota
	// MaterialUnlit shows the texture as is.
	MaterialUnlit
	// MaterialNightLights shows the texture only on the side facing away
	// from the sun.
	MaterialNightLights
)

func (k MaterialKind) String() string {
	switch k {
	case MaterialPhong:
		return "phong"
	case MaterialUnlit:
		return "unlit"
	case MaterialNightLights:
		return "nightlights"
	}
	return "unknown"
}

// MaterialSlot names a texture binding on a material.
type MaterialSlot int

const (
	SlotMap MaterialSlot = iota
	SlotBump
	SlotSpecular
)

type binding struct {
	slot  MaterialSlot
	asset AssetID
}

type layerSpec struct {
	radius      float32
	segments    int
	kind        MaterialKind
	transparent bool
	backSide    bool
	// earthLocked layers share the surface rotation; others spin on their own.
	earthLocked bool
	textures    []binding
}

const (
	earthRadius = 0.5
	starsRadius = 100
)

// layerSpecs is ordered innermost first. Shell radii grow slightly per layer
// so the overlays never z-fight with the surface.
var layerSpecs = [NumLayers]layerSpec{
	Surface: {
		radius: earthRadius, segments: 90, kind: MaterialPhong, earthLocked: true,
		textures: []binding{{SlotMap, EarthInitial}, {SlotBump, BumpInitial}, {SlotSpecular, SpecularMap}},
	},
	Borders: {
		radius: earthRadius + 0.0005, segments: 90, kind: MaterialUnlit, transparent: true, earthLocked: true,
		textures: []binding{{SlotMap, BordersInitial}},
	},
	Lights: {
		radius: earthRadius + 0.001, segments: 90, kind: MaterialNightLights, transparent: true, earthLocked: true,
		textures: []binding{{SlotMap, LightsInitial}},
	},
	Clouds: {
		radius: earthRadius + 0.003, segments: 90, kind: MaterialPhong, transparent: true,
		textures: []binding{{SlotMap, CloudsInitial}},
	},
	Stars: {
		radius: starsRadius, segments: 64, kind: MaterialUnlit, backSide: true,
		textures: []binding{{SlotMap, Starfield}},
	},
}

// unblocks maps each asset slot to the layers that require it.
var unblocks = func() map[AssetID][]LayerID {
	m := make(map[AssetID][]LayerID)
	for l, spec := range layerSpecs {
		for _, b := range spec.textures {
			m[b.asset] = append(m[b.asset], LayerID(l))
		}
	}
	return m
}()

// Requires returns the slots a layer needs before it can be built.
func Requires(l LayerID) []AssetID {
	ids := make([]AssetID, 0, len(layerSpecs[l].textures))
	for _, b := range layerSpecs[l].textures {
		ids = append(ids, b.asset)
	}
	return ids
}

// Unblocks returns the layers waiting on a slot.
func Unblocks(id AssetID) []LayerID {
	return unblocks[id]
}

// Radius returns the shell radius of a layer.
func Radius(l LayerID) float32 { return layerSpecs[l].radius }

// EarthLocked reports whether a layer rotates with the surface.
func EarthLocked(l LayerID) bool { return layerSpecs[l].earthLocked }
