// Package col implements the COL collision file format used by the
// RenderWare-era GTA engines (COL1, COL2, COL3).
//
// A COL file is a concatenation of independent chunks, one collision
// model per chunk. Each chunk starts with a 4-byte version tag and a
// 4-byte little-endian size covering everything after the size field,
// so a malformed chunk can be skipped without understanding its body.
//
// COL2/COL3 store mesh coordinates as 16-bit fixed-point integers at
// 1/128 scale. Round-tripping through those versions is exact only to
// 1/128 units; COL1 stores plain 32-bit floats and round-trips exactly.
package col

import (
	"errors"
	"fmt"
)

// Codec errors.
var (
	ErrUnsupportedVersion = errors.New("unsupported COL version")
	ErrTruncatedChunk     = errors.New("truncated COL chunk")
	ErrChunkSizeMismatch  = errors.New("COL chunk size mismatch")
	ErrInvalidIndex       = errors.New("face references out-of-range vertex")
	ErrNumericOverflow    = errors.New("value out of fixed-point range")
	ErrMalformedHeader    = errors.New("malformed COL header")
	ErrValidationFailed   = errors.New("COL model validation failed")
)

// Version identifies the COL format version of a model.
type Version int

// Supported format versions. The "COL4" tag found in some archives is
// structurally identical to COL3 and decodes as V3.
const (
	V1 Version = 1 // GTA III, Vice City - "COLL" tag
	V2 Version = 2 // GTA SA (PS2) - "COL2" tag
	V3 Version = 3 // GTA SA (PC/Xbox) - "COL3" tag
)

// String returns a human-readable version name.
func (v Version) String() string {
	switch v {
	case V1:
		return "COL1"
	case V2:
		return "COL2"
	case V3:
		return "COL3"
	default:
		return fmt.Sprintf("Unknown(%d)", int(v))
	}
}

// Tag returns the 4-byte chunk tag emitted for this version.
func (v Version) Tag() string {
	switch v {
	case V1:
		return "COLL"
	case V2:
		return "COL2"
	case V3:
		return "COL3"
	default:
		return ""
	}
}

// versionForTag maps a chunk tag to its version. ok is false for tags
// that are not a known COL version.
func versionForTag(tag string) (Version, bool) {
	switch tag {
	case "COLL":
		return V1, true
	case "COL2":
		return V2, true
	case "COL3", "COL4":
		return V3, true
	default:
		return 0, false
	}
}

// Wire layout constants. All multi-byte fields are little-endian.
const (
	nameLen    = 22  // NUL-padded model name
	fixedScale = 128 // COL2/3 fixed-point divisor

	headerSize = nameLen + 4 + 16 + 24 // name + id + bound sphere + bound box

	sphereSize    = 20 // center 3xf32 + radius f32 + surface
	boxSize       = 28 // min 3xf32 + max 3xf32 + surface
	lineSize      = 24 // two 3xf32 endpoints (COL1, unused in practice)
	vertexV1Size  = 12 // 3xf32
	faceV1Size    = 16 // 3xu32 + material u16 + light u16
	vertexV23Size = 6  // 3xi16 fixed-point
	faceV23Size   = 8  // 3xu16 + material u8 + light u8
	faceGroupSize = 28 // min 3xf32 + max 3xf32 + start u16 + end u16
)

// Model flag bits (COL2/3 header).
const (
	flagFaceGroups = 0x08 // face group section present before faces
	flagShadowMesh = 0x10 // shadow mesh section present (COL3 only)
)

// ChunkError wraps a codec error with the index and absolute byte
// offset of the chunk it occurred in.
type ChunkError struct {
	Index  int // zero-based chunk position in the stream
	Offset int // byte offset of the chunk's tag
	Err    error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d at offset %d: %v", e.Index, e.Offset, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}
