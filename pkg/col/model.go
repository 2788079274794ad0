package col

import (
	"fmt"

	"github.com/X-Seti/Col-Workshop/pkg/geom"
)

// Surface describes the material properties of a collision primitive.
type Surface struct {
	Material   uint8 // surface material ID
	Flag       uint8
	Brightness uint8
	Light      uint8
}

// Sphere is a collision sphere.
type Sphere struct {
	Center  geom.Vec3
	Radius  float32
	Surface Surface
}

// Box is an axis-aligned collision box in model space.
type Box struct {
	Min     geom.Vec3
	Max     geom.Vec3
	Surface Surface
}

// Face is a triangle referencing mesh vertices by index.
//
// COL1 stores Material and Light as 16-bit values; COL2/3 store a
// single byte each, so values above 255 cannot be encoded there.
type Face struct {
	A, B, C  int
	Material uint16
	Light    uint16
}

// Indices returns the three vertex indices.
func (f Face) Indices() (int, int, int) {
	return f.A, f.B, f.C
}

// FaceGroup is a COL2/3 spatial bucket over an inclusive face range,
// used by the engine to narrow collision tests.
type FaceGroup struct {
	Min   geom.Vec3
	Max   geom.Vec3
	First int // first face index in the group
	Last  int // last face index, inclusive
}

// BoundingBox is the combined bounding volume of a model: an enclosing
// sphere plus an axis-aligned box.
type BoundingBox struct {
	Center geom.Vec3
	Radius float32
	Min    geom.Vec3
	Max    geom.Vec3
}

// Model is a single collision model decoded from one COL chunk.
//
// The codec constructs a Model fully and hands it over; consumers
// treat it as read-only and query by index or name.
type Model struct {
	Name    string
	ID      uint32
	Version Version
	Bounds  BoundingBox

	Spheres  []Sphere
	Boxes    []Box
	Vertices []geom.Vec3
	Faces    []Face

	// COL2/3 only. Flags holds the header flag bits other than the
	// face-group and shadow-mesh presence bits, which the codec
	// derives from the section slices.
	FaceGroups []FaceGroup
	Flags      uint32

	// COL3 only.
	ShadowVertices []geom.Vec3
	ShadowFaces    []Face
}

// HasFaceGroups reports whether the model carries a face group section.
func (m *Model) HasFaceGroups() bool {
	return len(m.FaceGroups) > 0
}

// HasShadowMesh reports whether the model carries a shadow mesh.
func (m *Model) HasShadowMesh() bool {
	return len(m.ShadowVertices) > 0 || len(m.ShadowFaces) > 0
}

// Validate checks the model's structural invariants and returns an
// error describing the first violation found. All returned errors
// wrap ErrValidationFailed.
func (m *Model) Validate() error {
	if m.Version < V1 || m.Version > V3 {
		return fmt.Errorf("%w: unknown version %d", ErrValidationFailed, int(m.Version))
	}
	if len(m.Name) > nameLen {
		return fmt.Errorf("%w: name %q exceeds %d bytes", ErrValidationFailed, m.Name, nameLen)
	}
	if !m.Bounds.Center.IsFinite() || !m.Bounds.Min.IsFinite() || !m.Bounds.Max.IsFinite() {
		return fmt.Errorf("%w: non-finite bounding volume", ErrValidationFailed)
	}
	if !geom.IsFinite(m.Bounds.Radius) || m.Bounds.Radius < 0 {
		return fmt.Errorf("%w: bad bounding radius %v", ErrValidationFailed, m.Bounds.Radius)
	}
	if m.Bounds.Min.X > m.Bounds.Max.X || m.Bounds.Min.Y > m.Bounds.Max.Y || m.Bounds.Min.Z > m.Bounds.Max.Z {
		return fmt.Errorf("%w: bounding box min exceeds max", ErrValidationFailed)
	}

	for i, s := range m.Spheres {
		if !s.Center.IsFinite() || !geom.IsFinite(s.Radius) {
			return fmt.Errorf("%w: sphere %d has non-finite coordinates", ErrValidationFailed, i)
		}
		if s.Radius < 0 {
			return fmt.Errorf("%w: sphere %d has negative radius %v", ErrValidationFailed, i, s.Radius)
		}
	}
	for i, b := range m.Boxes {
		if !b.Min.IsFinite() || !b.Max.IsFinite() {
			return fmt.Errorf("%w: box %d has non-finite coordinates", ErrValidationFailed, i)
		}
	}
	for i, v := range m.Vertices {
		if !v.IsFinite() {
			return fmt.Errorf("%w: vertex %d has non-finite coordinates", ErrValidationFailed, i)
		}
	}
	if err := validateFaces(m.Faces, len(m.Vertices), "face"); err != nil {
		return err
	}
	for i, g := range m.FaceGroups {
		if g.First < 0 || g.Last < g.First || g.Last >= len(m.Faces) {
			return fmt.Errorf("%w: face group %d range %d-%d out of bounds", ErrValidationFailed, i, g.First, g.Last)
		}
	}
	for i, v := range m.ShadowVertices {
		if !v.IsFinite() {
			return fmt.Errorf("%w: shadow vertex %d has non-finite coordinates", ErrValidationFailed, i)
		}
	}
	return validateFaces(m.ShadowFaces, len(m.ShadowVertices), "shadow face")
}

func validateFaces(faces []Face, vertexCount int, kind string) error {
	for i, f := range faces {
		if f.A < 0 || f.B < 0 || f.C < 0 || f.A >= vertexCount || f.B >= vertexCount || f.C >= vertexCount {
			return fmt.Errorf("%w: %s %d references vertex outside 0..%d",
				ErrValidationFailed, kind, i, vertexCount-1)
		}
	}
	return nil
}

// ComputeBounds derives a fresh bounding volume enclosing every
// sphere, box corner and mesh vertex. An empty model yields the
// degenerate zero box.
func (m *Model) ComputeBounds() BoundingBox {
	const inf = float32(3.4e38)
	min := geom.Vec3{X: inf, Y: inf, Z: inf}
	max := geom.Vec3{X: -inf, Y: -inf, Z: -inf}
	any := false

	for _, s := range m.Spheres {
		r := geom.Vec3{X: s.Radius, Y: s.Radius, Z: s.Radius}
		min = min.Min(s.Center.Sub(r))
		max = max.Max(s.Center.Add(r))
		any = true
	}
	for _, b := range m.Boxes {
		min = min.Min(b.Min)
		max = max.Max(b.Max)
		any = true
	}
	for _, v := range m.Vertices {
		min = min.Min(v)
		max = max.Max(v)
		any = true
	}

	if !any {
		return BoundingBox{}
	}

	center := min.Add(max).Scale(0.5)
	return BoundingBox{
		Center: center,
		Radius: center.Distance(max),
		Min:    min,
		Max:    max,
	}
}

func (m *Model) String() string {
	return fmt.Sprintf("Model(%q %s spheres=%d boxes=%d verts=%d faces=%d)",
		m.Name, m.Version, len(m.Spheres), len(m.Boxes), len(m.Vertices), len(m.Faces))
}
