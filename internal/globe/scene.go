package globe

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/earthview/internal/assets"
	"github.com/Faultbox/earthview/internal/engine/geometry"
)

// Material binds textures to a shading program.
type Material struct {
	Kind        MaterialKind
	Map         *assets.TextureAsset
	BumpMap     *assets.TextureAsset
	SpecularMap *assets.TextureAsset
	BumpScale   float32
	Specular    mgl32.Vec3
	Transparent bool
	BackSide    bool
}

// SetTexture binds a texture to a slot.
func (m *Material) SetTexture(slot MaterialSlot, tex *assets.TextureAsset) {
	switch slot {
	case SlotBump:
		m.BumpMap = tex
	case SlotSpecular:
		m.SpecularMap = tex
	default:
		m.Map = tex
	}
}

// Textures returns every bound texture.
func (m *Material) Textures() []*assets.TextureAsset {
	out := make([]*assets.TextureAsset, 0, 3)
	for _, t := range []*assets.TextureAsset{m.Map, m.BumpMap, m.SpecularMap} {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

// Mesh is one layer's geometry and material. Hidden meshes are scaled to
// zero rather than removed so their identity survives toggling.
type Mesh struct {
	Layer     LayerID
	Geometry  geometry.Sphere
	Material  *Material
	Scale     float32
	RotationY float32
}

// Model returns the model matrix.
func (m *Mesh) Model() mgl32.Mat4 {
	return mgl32.HomogRotate3DY(m.RotationY).Mul4(mgl32.Scale3D(m.Scale, m.Scale, m.Scale))
}

// Visible reports whether the mesh is drawn at full scale.
func (m *Mesh) Visible() bool { return m.Scale != 0 }

// Lighting is the fixed light rig of the scene.
type Lighting struct {
	Ambient  mgl32.Vec3
	SunColor mgl32.Vec3
	SunPos   mgl32.Vec3
}

// DefaultLighting is a dim grey ambient term plus a white sun.
func DefaultLighting() Lighting {
	return Lighting{
		Ambient:  mgl32.Vec3{0x33 / 255.0, 0x33 / 255.0, 0x33 / 255.0},
		SunColor: mgl32.Vec3{1, 1, 1},
		SunPos:   mgl32.Vec3{5, 3, 5},
	}
}

// Scene holds the meshes of one session, at most one per layer.
type Scene struct {
	Lighting Lighting
	layers   [NumLayers]*Mesh
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{Lighting: DefaultLighting()}
}

// Add puts a mesh in its layer slot. It returns false if the layer is taken.
func (s *Scene) Add(m *Mesh) bool {
	if s.layers[m.Layer] != nil {
		return false
	}
	s.layers[m.Layer] = m
	return true
}

// Mesh returns the mesh of a layer, or nil if it is not built yet.
func (s *Scene) Mesh(l LayerID) *Mesh { return s.layers[l] }

// Meshes returns the built meshes innermost first.
func (s *Scene) Meshes() []*Mesh {
	out := make([]*Mesh, 0, NumLayers)
	for _, m := range s.layers {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// Len returns the number of built layers.
func (s *Scene) Len() int {
	n := 0
	for _, m := range s.layers {
		if m != nil {
			n++
		}
	}
	return n
}
