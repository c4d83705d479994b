// Package geometry generates vertex data for globe shells.
package geometry

import "math"

// FloatsPerVertex is the interleaved layout: position(3) normal(3) uv(2).
const FloatsPerVertex = 8

// Sphere is a UV sphere description. Equal descriptions produce identical data.
type Sphere struct {
	Radius   float32
	Segments int // around the equator
	Rings    int // pole to pole
}

// Mesh is interleaved vertex data with triangle indices.
type Mesh struct {
	Vertices []float32
	Indices  []uint32
}

// VertexCount returns the number of vertices in the mesh.
func (m *Mesh) VertexCount() int { return len(m.Vertices) / FloatsPerVertex }

// Build generates the sphere. The seam column is duplicated so that u runs
// from 0 to 1 without wrapping, and v = 0 sits at the north pole so that the
// first image row maps to the top of the globe.
func (s Sphere) Build() *Mesh {
	segments := max(s.Segments, 3)
	rings := max(s.Rings, 2)

	m := &Mesh{
		Vertices: make([]float32, 0, (rings+1)*(segments+1)*FloatsPerVertex),
		Indices:  make([]uint32, 0, rings*segments*6),
	}

	for ring := 0; ring <= rings; ring++ {
		theta := float64(ring) * math.Pi / float64(rings)
		sinTheta, cosTheta := math.Sincos(theta)

		for seg := 0; seg <= segments; seg++ {
			phi := float64(seg) * 2 * math.Pi / float64(segments)
			sinPhi, cosPhi := math.Sincos(phi)

			// Longitude 0 faces +Z and u increases eastwards.
			nx := float32(-cosPhi * sinTheta)
			ny := float32(cosTheta)
			nz := float32(sinPhi * sinTheta)

			m.Vertices = append(m.Vertices,
				nx*s.Radius, ny*s.Radius, nz*s.Radius,
				nx, ny, nz,
				float32(seg)/float32(segments), float32(ring)/float32(rings),
			)
		}
	}

	stride := uint32(segments + 1)
	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			current := uint32(ring)*stride + uint32(seg)
			next := current + stride

			// Counter-clockwise when seen from outside.
			m.Indices = append(m.Indices,
				current, next, current+1,
				current+1, next, next+1,
			)
		}
	}

	return m
}
