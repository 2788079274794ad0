package col

import (
	"errors"
	"math"
	"testing"

	"github.com/X-Seti/Col-Workshop/pkg/geom"
)

func TestValidate(t *testing.T) {
	nan := float32(math.NaN())

	tests := []struct {
		name   string
		mutate func(*Model)
		wantOK bool
	}{
		{"valid", func(m *Model) {}, true},
		{"face index out of range", func(m *Model) {
			m.Faces[0].C = len(m.Vertices)
		}, false},
		{"negative face index", func(m *Model) {
			m.Faces[0].A = -1
		}, false},
		{"negative sphere radius", func(m *Model) {
			m.Spheres[0].Radius = -1
		}, false},
		{"non-finite vertex", func(m *Model) {
			m.Vertices[1].Y = nan
		}, false},
		{"non-finite box corner", func(m *Model) {
			m.Boxes[0].Max.Z = float32(math.Inf(1))
		}, false},
		{"bounds min above max", func(m *Model) {
			m.Bounds.Min.X = 10
		}, false},
		{"face group past last face", func(m *Model) {
			m.FaceGroups[0].Last = len(m.Faces)
		}, false},
		{"shadow face index out of range", func(m *Model) {
			m.ShadowFaces[0].B = len(m.ShadowVertices)
		}, false},
		{"oversized name", func(m *Model) {
			m.Name = "definitely_longer_than_22_bytes"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testModel(V3)
			tt.mutate(m)

			err := m.Validate()
			if tt.wantOK {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, ErrValidationFailed) {
				t.Errorf("Validate() = %v, want ErrValidationFailed", err)
			}
		})
	}
}

func TestComputeBoundsEmpty(t *testing.T) {
	m := &Model{Name: "empty", Version: V1}

	got := m.ComputeBounds()
	want := BoundingBox{}
	if got != want {
		t.Errorf("ComputeBounds() = %+v, want degenerate zero box", got)
	}
}

func TestComputeBoundsEnclosesEverything(t *testing.T) {
	m := &Model{
		Version: V1,
		Spheres: []Sphere{
			{Center: geom.Vec3{X: 10, Y: 0, Z: 0}, Radius: 2},
		},
		Boxes: []Box{
			{Min: geom.Vec3{X: -4, Y: -1, Z: 0}, Max: geom.Vec3{X: -3, Y: 1, Z: 1}},
		},
		Vertices: []geom.Vec3{
			{X: 0, Y: 6, Z: 0},
			{X: 0, Y: 0, Z: -5},
		},
	}

	b := m.ComputeBounds()

	wantMin := geom.Vec3{X: -4, Y: -2, Z: -5}
	wantMax := geom.Vec3{X: 12, Y: 6, Z: 2}
	if b.Min != wantMin {
		t.Errorf("min = %v, want %v", b.Min, wantMin)
	}
	if b.Max != wantMax {
		t.Errorf("max = %v, want %v", b.Max, wantMax)
	}

	wantCenter := geom.Vec3{X: 4, Y: 2, Z: -1.5}
	if b.Center != wantCenter {
		t.Errorf("center = %v, want %v", b.Center, wantCenter)
	}

	// The sphere must cover every extreme point.
	for _, p := range []geom.Vec3{wantMin, wantMax, {X: 12, Y: 0, Z: 0}, {X: 0, Y: 6, Z: 0}} {
		if d := b.Center.Distance(p); d > b.Radius+1e-4 {
			t.Errorf("point %v at distance %v outside bounding radius %v", p, d, b.Radius)
		}
	}
}

func TestComputeBoundsVerticesOnly(t *testing.T) {
	m := &Model{
		Version:  V2,
		Vertices: []geom.Vec3{{X: 1, Y: 1, Z: 1}, {X: 3, Y: 5, Z: 7}},
	}

	b := m.ComputeBounds()
	if b.Min != (geom.Vec3{X: 1, Y: 1, Z: 1}) || b.Max != (geom.Vec3{X: 3, Y: 5, Z: 7}) {
		t.Errorf("bounds = %+v", b)
	}
	if b.Center != (geom.Vec3{X: 2, Y: 3, Z: 4}) {
		t.Errorf("center = %v", b.Center)
	}
}

func TestModelAccessors(t *testing.T) {
	m := testModel(V3)
	if !m.HasShadowMesh() {
		t.Error("expected shadow mesh on V3 test model")
	}
	if !m.HasFaceGroups() {
		t.Error("expected face groups on V3 test model")
	}

	m2 := testModel(V1)
	if m2.HasShadowMesh() || m2.HasFaceGroups() {
		t.Error("V1 test model must not report COL2/3 sections")
	}

	a, b, c := m.Faces[0].Indices()
	if a != 0 || b != 1 || c != 2 {
		t.Errorf("Indices() = %d,%d,%d", a, b, c)
	}
}

func TestVersionStrings(t *testing.T) {
	if V1.String() != "COL1" || V2.String() != "COL2" || V3.String() != "COL3" {
		t.Errorf("version names: %s %s %s", V1, V2, V3)
	}
	if V1.Tag() != "COLL" {
		t.Errorf("V1 tag = %q, want COLL", V1.Tag())
	}
	if Version(9).Tag() != "" {
		t.Errorf("unknown version tag = %q, want empty", Version(9).Tag())
	}
}
