package col

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/X-Seti/Col-Workshop/pkg/geom"
)

// EncodeChunk encodes one model as a COL chunk. The chunk size field
// is backpatched once the body length is known, so the output always
// satisfies the decoder's size law.
//
// COL2/3 mesh coordinates are rounded to the nearest 1/128; a
// coordinate outside the representable int16 range is an error rather
// than a silent clamp. Models decoded from a "COL4" chunk re-encode
// with the "COL3" tag.
func EncodeChunk(m *Model) ([]byte, error) {
	tag := m.Version.Tag()
	if tag == "" {
		return nil, fmt.Errorf("%w: cannot encode version %d", ErrUnsupportedVersion, int(m.Version))
	}
	if len(m.Name) > nameLen {
		return nil, fmt.Errorf("%w: name %q exceeds %d bytes", ErrMalformedHeader, m.Name, nameLen)
	}
	if m.Version != V3 && m.HasShadowMesh() {
		return nil, fmt.Errorf("%w: shadow mesh requires COL3, model is %s", ErrMalformedHeader, m.Version)
	}
	if m.Version == V1 && m.HasFaceGroups() {
		return nil, fmt.Errorf("%w: face groups require COL2 or COL3", ErrMalformedHeader)
	}

	w := &chunkWriter{}
	w.raw(tag)
	w.u32(0) // size, backpatched below

	w.paddedName(m.Name)
	w.u32(m.ID)
	w.vec3(m.Bounds.Center)
	w.f32(m.Bounds.Radius)
	w.vec3(m.Bounds.Min)
	w.vec3(m.Bounds.Max)

	if m.Version == V1 {
		encodeV1Body(w, m)
	} else {
		encodeV23Body(w, m)
	}
	if w.err != nil {
		return nil, w.err
	}

	out := w.buf.Bytes()
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))
	return out, nil
}

func encodeV1Body(w *chunkWriter, m *Model) {
	w.u32(uint32(len(m.Spheres)))
	for _, s := range m.Spheres {
		w.vec3(s.Center)
		w.f32(s.Radius)
		w.surface(s.Surface)
	}

	w.u32(0) // line count, never emitted

	w.u32(uint32(len(m.Boxes)))
	for _, b := range m.Boxes {
		w.vec3(b.Min)
		w.vec3(b.Max)
		w.surface(b.Surface)
	}

	w.u32(uint32(len(m.Vertices)))
	for _, v := range m.Vertices {
		w.vec3(v)
	}

	w.u32(uint32(len(m.Faces)))
	for _, f := range m.Faces {
		w.u32(uint32(f.A))
		w.u32(uint32(f.B))
		w.u32(uint32(f.C))
		w.u16(f.Material)
		w.u16(f.Light)
	}
}

func encodeV23Body(w *chunkWriter, m *Model) {
	flags := m.Flags &^ uint32(flagFaceGroups|flagShadowMesh)
	if m.HasFaceGroups() {
		flags |= flagFaceGroups
	}
	if m.HasShadowMesh() {
		flags |= flagShadowMesh
	}
	w.u32(flags)

	w.u32(uint32(len(m.Spheres)))
	w.u32(uint32(len(m.Boxes)))
	w.u32(uint32(len(m.Vertices)))
	w.u32(uint32(len(m.Faces)))
	if m.Version == V3 {
		if m.HasShadowMesh() {
			w.u32(uint32(len(m.ShadowVertices)))
			w.u32(uint32(len(m.ShadowFaces)))
		} else {
			w.u32(0)
			w.u32(0)
		}
	}

	for _, s := range m.Spheres {
		w.vec3(s.Center)
		w.f32(s.Radius)
		w.surface(s.Surface)
	}
	for _, b := range m.Boxes {
		w.vec3(b.Min)
		w.vec3(b.Max)
		w.surface(b.Surface)
	}
	w.fixedVertices(m.Vertices)
	w.facesV23(m.Faces)

	if m.HasFaceGroups() {
		w.u32(uint32(len(m.FaceGroups)))
		for _, g := range m.FaceGroups {
			if w.err == nil && (g.First > 0xffff || g.Last > 0xffff) {
				w.err = fmt.Errorf("%w: face group range %d-%d exceeds uint16", ErrNumericOverflow, g.First, g.Last)
			}
			w.vec3(g.Min)
			w.vec3(g.Max)
			w.u16(uint16(g.First))
			w.u16(uint16(g.Last))
		}
	}

	if m.HasShadowMesh() {
		w.fixedVertices(m.ShadowVertices)
		w.facesV23(m.ShadowFaces)
	}
}

// chunkWriter accumulates a chunk, holding the first encode error.
type chunkWriter struct {
	buf bytes.Buffer
	err error
}

func (w *chunkWriter) raw(s string) {
	w.buf.WriteString(s)
}

func (w *chunkWriter) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *chunkWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *chunkWriter) f32(v float32) {
	w.u32(math.Float32bits(v))
}

func (w *chunkWriter) vec3(v geom.Vec3) {
	w.f32(v.X)
	w.f32(v.Y)
	w.f32(v.Z)
}

func (w *chunkWriter) surface(s Surface) {
	w.buf.Write([]byte{s.Material, s.Flag, s.Brightness, s.Light})
}

func (w *chunkWriter) paddedName(name string) {
	var b [nameLen]byte
	copy(b[:], name)
	w.buf.Write(b[:])
}

// fixed converts a float coordinate to 1/128 fixed point, rounding
// half away from zero.
func (w *chunkWriter) fixed(v float32) int16 {
	scaled := math.Round(float64(v) * fixedScale)
	if scaled < math.MinInt16 || scaled > math.MaxInt16 || math.IsNaN(scaled) {
		if w.err == nil {
			w.err = fmt.Errorf("%w: coordinate %v scales to %v, outside int16", ErrNumericOverflow, v, scaled)
		}
		return 0
	}
	return int16(scaled)
}

func (w *chunkWriter) fixedVertices(verts []geom.Vec3) {
	for _, v := range verts {
		w.u16(uint16(w.fixed(v.X)))
		w.u16(uint16(w.fixed(v.Y)))
		w.u16(uint16(w.fixed(v.Z)))
	}
	if len(verts)%2 != 0 {
		w.u16(0) // 4-byte alignment padding
	}
}

func (w *chunkWriter) facesV23(faces []Face) {
	for _, f := range faces {
		if w.err == nil && (f.Material > 0xff || f.Light > 0xff) {
			w.err = fmt.Errorf("%w: face material %d / light %d exceed one byte",
				ErrNumericOverflow, f.Material, f.Light)
		}
		if w.err == nil && (f.A > 0xffff || f.B > 0xffff || f.C > 0xffff) {
			w.err = fmt.Errorf("%w: face indices (%d,%d,%d) exceed uint16",
				ErrNumericOverflow, f.A, f.B, f.C)
		}
		w.u16(uint16(f.A))
		w.u16(uint16(f.B))
		w.u16(uint16(f.C))
		w.buf.Write([]byte{byte(f.Material), byte(f.Light)})
	}
}
