package geom

import (
	"math"
	"testing"
)

func TestVec3Add(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}
	got := a.Add(b)
	want := Vec3{5, 7, 9}
	if got != want {
		t.Errorf("Vec3.Add() = %v, want %v", got, want)
	}
}

func TestVec3Sub(t *testing.T) {
	a := Vec3{4, 5, 6}
	b := Vec3{1, 2, 3}
	got := a.Sub(b)
	want := Vec3{3, 3, 3}
	if got != want {
		t.Errorf("Vec3.Sub() = %v, want %v", got, want)
	}
}

func TestVec3Scale(t *testing.T) {
	v := Vec3{1, -2, 3}
	got := v.Scale(2)
	want := Vec3{2, -4, 6}
	if got != want {
		t.Errorf("Vec3.Scale() = %v, want %v", got, want)
	}
}

func TestVec3Length(t *testing.T) {
	v := Vec3{2, 3, 6}
	got := v.Length()
	want := float32(7)
	if got != want {
		t.Errorf("Vec3.Length() = %v, want %v", got, want)
	}
}

func TestVec3Distance(t *testing.T) {
	a := Vec3{1, 1, 1}
	b := Vec3{1, 1, 5}
	got := a.Distance(b)
	want := float32(4)
	if got != want {
		t.Errorf("Vec3.Distance() = %v, want %v", got, want)
	}
}

func TestVec3MinMax(t *testing.T) {
	a := Vec3{1, 5, -3}
	b := Vec3{2, 4, -6}
	gotMin := a.Min(b)
	wantMin := Vec3{1, 4, -6}
	if gotMin != wantMin {
		t.Errorf("Vec3.Min() = %v, want %v", gotMin, wantMin)
	}
	gotMax := a.Max(b)
	wantMax := Vec3{2, 5, -3}
	if gotMax != wantMax {
		t.Errorf("Vec3.Max() = %v, want %v", gotMax, wantMax)
	}
}

func TestVec3IsFinite(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	tests := []struct {
		name string
		v    Vec3
		want bool
	}{
		{"zero", Vec3{}, true},
		{"normal", Vec3{1.5, -2.5, 1e30}, true},
		{"nan x", Vec3{nan, 0, 0}, false},
		{"inf y", Vec3{0, inf, 0}, false},
		{"neg inf z", Vec3{0, 0, -inf}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsFinite(); got != tt.want {
				t.Errorf("IsFinite() = %v, want %v", got, tt.want)
			}
		})
	}
}
