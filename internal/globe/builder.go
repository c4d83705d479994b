package globe

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/earthview/internal/engine/geometry"
)

// Builder constructs layers once their textures are ready.
type Builder struct {
	scene *Scene
	table *AssetTable
	log   *zap.Logger
}

// NewBuilder creates a builder adding meshes to scene.
func NewBuilder(scene *Scene, table *AssetTable, log *zap.Logger) *Builder {
	return &Builder{scene: scene, table: table, log: log}
}

// BuildReady builds every layer unblocked by a slot whose requirements are
// now all met. It returns the layers built by this call.
func (b *Builder) BuildReady(id AssetID) []LayerID {
	var built []LayerID
	for _, l := range Unblocks(id) {
		if b.Build(l) {
			built = append(built, l)
		}
	}
	return built
}

// Build constructs a layer if all of its textures are ready and it does not
// exist yet. Calling it again for a built layer does nothing.
func (b *Builder) Build(l LayerID) bool {
	if b.scene.Mesh(l) != nil || !b.table.Ready(Requires(l)...) {
		return false
	}

	spec := layerSpecs[l]
	mat := &Material{
		Kind:        spec.kind,
		Transparent: spec.transparent,
		BackSide:    spec.backSide,
	}
	for _, bind := range spec.textures {
		mat.SetTexture(bind.slot, b.table.Get(bind.asset))
	}
	if mat.BumpMap != nil {
		mat.BumpScale = 0.01
	}
	if mat.SpecularMap != nil {
		mat.Specular = mgl32.Vec3{0.5, 0.5, 0.5}
	}

	mesh := &Mesh{
		Layer: l,
		Geometry: geometry.Sphere{
			Radius:   spec.radius,
			Segments: spec.segments,
			Rings:    spec.segments,
		},
		Material: mat,
		Scale:    1,
	}
	b.scene.Add(mesh)

	b.log.Debug("layer built", zap.Stringer("layer", l), zap.Float32("radius", spec.radius))
	return true
}
