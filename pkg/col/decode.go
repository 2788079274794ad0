package col

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/X-Seti/Col-Workshop/pkg/geom"
)

// DecodeChunk decodes one model chunk from the front of data.
//
// consumed is the number of bytes the caller should advance to reach
// the next chunk. On errors where the size field was still readable
// (unsupported tag, bad body) consumed covers the whole declared
// chunk, so a multi-model stream can resync past a bad chunk. A
// consumed of 0 means resync is impossible.
func DecodeChunk(data []byte) (m *Model, consumed int, err error) {
	if len(data) < 8 {
		return nil, 0, fmt.Errorf("%w: %d bytes left, need at least 8 for tag and size", ErrTruncatedChunk, len(data))
	}

	tag := string(data[:4])
	size := int(binary.LittleEndian.Uint32(data[4:8]))

	version, known := versionForTag(tag)
	if !known {
		err := fmt.Errorf("%w: tag %q", ErrUnsupportedVersion, tag)
		for _, b := range []byte(tag) {
			if b < 0x20 || b > 0x7e {
				err = fmt.Errorf("%w: non-ASCII tag % x", ErrMalformedHeader, tag)
				break
			}
		}
		if 8+size > len(data) || size < headerSize {
			// Declared size is garbage too; nothing to resync on.
			return nil, 0, err
		}
		return nil, 8 + size, err
	}

	if 8+size > len(data) {
		return nil, 0, fmt.Errorf("%w: declared size %d exceeds %d remaining bytes",
			ErrTruncatedChunk, size, len(data)-8)
	}
	if size < headerSize {
		return nil, 0, fmt.Errorf("%w: declared size %d below minimum header size %d",
			ErrMalformedHeader, size, headerSize)
	}

	r := &chunkReader{data: data[8 : 8+size]}
	m = &Model{Version: version}

	m.Name = r.name()
	m.ID = r.u32()
	m.Bounds.Center = r.vec3()
	m.Bounds.Radius = r.f32()
	m.Bounds.Min = r.vec3()
	m.Bounds.Max = r.vec3()

	if version == V1 {
		decodeV1Body(r, m)
	} else {
		decodeV23Body(r, m)
	}

	if r.err != nil {
		return nil, 8 + size, r.err
	}
	if r.off != len(r.data) {
		return nil, 8 + size, fmt.Errorf("%w: declared %d bytes, consumed %d",
			ErrChunkSizeMismatch, size, r.off)
	}
	return m, 8 + size, nil
}

func decodeV1Body(r *chunkReader, m *Model) {
	m.Spheres = r.spheres(r.count("sphere", sphereSize))

	// Line section, always empty in shipping data. Consumed so the
	// chunk size law still holds when it is not.
	r.skip(r.count("line", lineSize) * lineSize)

	m.Boxes = r.boxes(r.count("box", boxSize))

	nv := r.count("vertex", vertexV1Size)
	m.Vertices = make([]geom.Vec3, 0, nv)
	for i := 0; i < nv && r.err == nil; i++ {
		m.Vertices = append(m.Vertices, r.vec3())
	}

	nf := r.count("face", faceV1Size)
	m.Faces = make([]Face, 0, nf)
	for i := 0; i < nf && r.err == nil; i++ {
		f := Face{
			A:        int(r.u32()),
			B:        int(r.u32()),
			C:        int(r.u32()),
			Material: r.u16(),
			Light:    r.u16(),
		}
		m.Faces = append(m.Faces, f)
	}
	r.checkIndices(m.Faces, len(m.Vertices), "face")
}

func decodeV23Body(r *chunkReader, m *Model) {
	flags := r.u32()
	// Section-presence bits are represented by the slices themselves;
	// Flags keeps only whatever else the header carried.
	m.Flags = flags &^ uint32(flagFaceGroups|flagShadowMesh)

	ns := r.count("sphere", sphereSize)
	nb := r.count("box", boxSize)
	nv := r.count("vertex", vertexV23Size)
	nf := r.count("face", faceV23Size)

	nsv, nsf := 0, 0
	if m.Version == V3 {
		nsv = r.count("shadow vertex", vertexV23Size)
		nsf = r.count("shadow face", faceV23Size)
	}
	if r.err != nil {
		return
	}

	hasShadow := flags&flagShadowMesh != 0 && m.Version == V3
	if !hasShadow && (nsv != 0 || nsf != 0) {
		r.err = fmt.Errorf("%w: shadow counts set without shadow mesh flag", ErrMalformedHeader)
		return
	}

	m.Spheres = r.spheres(ns)
	m.Boxes = r.boxes(nb)
	m.Vertices = r.fixedVertices(nv)
	m.Faces = r.facesV23(nf)
	r.checkIndices(m.Faces, len(m.Vertices), "face")

	if flags&flagFaceGroups != 0 {
		ng := r.count("face group", faceGroupSize)
		m.FaceGroups = make([]FaceGroup, 0, ng)
		for i := 0; i < ng && r.err == nil; i++ {
			g := FaceGroup{
				Min: r.vec3(),
				Max: r.vec3(),
			}
			g.First = int(r.u16())
			g.Last = int(r.u16())
			m.FaceGroups = append(m.FaceGroups, g)
		}
		for i, g := range m.FaceGroups {
			if r.err != nil {
				break
			}
			if g.First > g.Last || g.Last >= len(m.Faces) {
				r.err = fmt.Errorf("%w: face group %d covers faces %d-%d of %d",
					ErrInvalidIndex, i, g.First, g.Last, len(m.Faces))
			}
		}
	}

	if hasShadow {
		m.ShadowVertices = r.fixedVertices(nsv)
		m.ShadowFaces = r.facesV23(nsf)
		r.checkIndices(m.ShadowFaces, len(m.ShadowVertices), "shadow face")
	}
}

// chunkReader reads little-endian fields from a chunk body, holding
// the first error it hits. Reads after an error return zero values.
type chunkReader struct {
	data []byte
	off  int
	err  error
}

func (r *chunkReader) remaining() int {
	return len(r.data) - r.off
}

func (r *chunkReader) take(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if r.remaining() < n {
		r.err = fmt.Errorf("%w: need %d bytes for %s, %d left in chunk", ErrTruncatedChunk, n, what, r.remaining())
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *chunkReader) skip(n int) {
	r.take(n, "skipped section")
}

func (r *chunkReader) u16() uint16 {
	b := r.take(2, "uint16")
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *chunkReader) i16() int16 {
	return int16(r.u16())
}

func (r *chunkReader) u32() uint32 {
	b := r.take(4, "uint32")
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *chunkReader) f32() float32 {
	return math.Float32frombits(r.u32())
}

func (r *chunkReader) vec3() geom.Vec3 {
	return geom.Vec3{X: r.f32(), Y: r.f32(), Z: r.f32()}
}

func (r *chunkReader) surface() Surface {
	b := r.take(4, "surface")
	if b == nil {
		return Surface{}
	}
	return Surface{Material: b[0], Flag: b[1], Brightness: b[2], Light: b[3]}
}

// name reads the fixed NUL-padded model name.
func (r *chunkReader) name() string {
	b := r.take(nameLen, "model name")
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// count reads a section count and checks that the section could still
// fit in the chunk. A negative count is a header error.
func (r *chunkReader) count(what string, recordSize int) int {
	n := int(int32(r.u32()))
	if r.err != nil {
		return 0
	}
	if n < 0 {
		r.err = fmt.Errorf("%w: negative %s count %d", ErrMalformedHeader, what, n)
		return 0
	}
	if n*recordSize > r.remaining() {
		r.err = fmt.Errorf("%w: %d %s records need %d bytes, %d left in chunk",
			ErrTruncatedChunk, n, what, n*recordSize, r.remaining())
		return 0
	}
	return n
}

func (r *chunkReader) spheres(n int) []Sphere {
	out := make([]Sphere, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		s := Sphere{Center: r.vec3(), Radius: r.f32(), Surface: r.surface()}
		out = append(out, s)
	}
	return out
}

func (r *chunkReader) boxes(n int) []Box {
	out := make([]Box, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		b := Box{Min: r.vec3(), Max: r.vec3(), Surface: r.surface()}
		out = append(out, b)
	}
	return out
}

// fixedVertices reads n fixed-point vertices plus the 2 alignment
// padding bytes COL2/3 emit after an odd-length array.
func (r *chunkReader) fixedVertices(n int) []geom.Vec3 {
	out := make([]geom.Vec3, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		v := geom.Vec3{
			X: float32(r.i16()) / fixedScale,
			Y: float32(r.i16()) / fixedScale,
			Z: float32(r.i16()) / fixedScale,
		}
		out = append(out, v)
	}
	if n%2 != 0 {
		r.skip(2)
	}
	return out
}

func (r *chunkReader) facesV23(n int) []Face {
	out := make([]Face, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		f := Face{
			A: int(r.u16()),
			B: int(r.u16()),
			C: int(r.u16()),
		}
		b := r.take(2, "face surface")
		if b != nil {
			f.Material = uint16(b[0])
			f.Light = uint16(b[1])
		}
		out = append(out, f)
	}
	return out
}

func (r *chunkReader) checkIndices(faces []Face, vertexCount int, kind string) {
	if r.err != nil {
		return
	}
	for i, f := range faces {
		if f.A >= vertexCount || f.B >= vertexCount || f.C >= vertexCount {
			r.err = fmt.Errorf("%w: %s %d indices (%d,%d,%d) with %d vertices",
				ErrInvalidIndex, kind, i, f.A, f.B, f.C, vertexCount)
			return
		}
	}
}
