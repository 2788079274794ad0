package col

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Options controls how a COL stream is loaded.
type Options struct {
	// Strict aborts the whole load at the first bad chunk. The
	// default (lenient) records the error, skips the chunk using its
	// declared size and keeps going.
	Strict bool

	// MaxModels caps how many models one file may declare; 0 means
	// no limit. A capped load records an error and stops.
	MaxModels int

	// Log receives per-chunk decode tracing at debug level. It only
	// affects diagnostics, never load semantics. Nil disables it.
	Log *zap.Logger
}

// File is an ordered set of collision models loaded from one COL
// stream, with the diagnostics gathered while loading it.
type File struct {
	Path   string
	Models []*Model

	// Loaded reports that the load ran to a usable result; it stays
	// true on partial success with skipped chunks.
	Loaded bool

	// LoadError is the first error encountered, empty on a clean
	// load. Errors holds every chunk-level error in stream order.
	LoadError string
	Errors    []error
}

// Load decodes every chunk in data. In lenient mode chunk errors are
// recorded on the File and decoding continues at the next chunk; the
// returned error is non-nil only when nothing could be loaded. In
// strict mode the first error aborts the load and is returned.
func Load(data []byte, opts Options) (*File, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	f := &File{}
	offset := 0
	index := 0

	for offset < len(data) {
		if opts.MaxModels > 0 && len(f.Models) >= opts.MaxModels {
			f.record(&ChunkError{Index: index, Offset: offset,
				Err: fmt.Errorf("%w: model limit %d reached with data remaining", ErrMalformedHeader, opts.MaxModels)})
			break
		}

		m, consumed, err := DecodeChunk(data[offset:])
		if err != nil {
			cerr := &ChunkError{Index: index, Offset: offset, Err: err}
			f.record(cerr)
			log.Debug("chunk failed", zap.Int("chunk", index), zap.Int("offset", offset), zap.Error(err))
			if opts.Strict {
				return f, cerr
			}
			if consumed == 0 {
				break // size field unreadable, cannot resync
			}
			offset += consumed
			index++
			continue
		}

		if verr := m.Validate(); verr != nil {
			cerr := &ChunkError{Index: index, Offset: offset, Err: verr}
			f.record(cerr)
			if opts.Strict {
				return f, cerr
			}
			// Lenient loads keep the model so callers can inspect
			// and repair it.
		}

		log.Debug("chunk decoded",
			zap.Int("chunk", index),
			zap.String("name", m.Name),
			zap.Stringer("version", m.Version),
			zap.Int("spheres", len(m.Spheres)),
			zap.Int("boxes", len(m.Boxes)),
			zap.Int("vertices", len(m.Vertices)),
			zap.Int("faces", len(m.Faces)))

		f.Models = append(f.Models, m)
		offset += consumed
		index++
	}

	if len(f.Models) == 0 && len(f.Errors) > 0 {
		return f, f.Errors[0]
	}

	f.Loaded = true
	log.Debug("load finished", zap.Int("models", len(f.Models)), zap.Int("errors", len(f.Errors)))
	return f, nil
}

// LoadFile reads and decodes a COL file from disk.
func LoadFile(path string, opts Options) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading COL file: %w", err)
	}
	f, err := Load(data, opts)
	if f != nil {
		f.Path = path
	}
	return f, err
}

// Encode serializes every model in order. The output satisfies the
// round-trip law: loading it again reproduces the same models at each
// version's native precision.
func (f *File) Encode() ([]byte, error) {
	var out []byte
	for i, m := range f.Models {
		chunk, err := EncodeChunk(m)
		if err != nil {
			return nil, fmt.Errorf("encoding model %d (%q): %w", i, m.Name, err)
		}
		out = append(out, chunk...)
	}
	return out, nil
}

// SaveFile encodes the file and writes it to path.
func (f *File) SaveFile(path string) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing COL file: %w", err)
	}
	return nil
}

// ModelCount returns the number of models in the file.
func (f *File) ModelCount() int {
	return len(f.Models)
}

// GetModel returns the model at index, or nil if out of range.
func (f *File) GetModel(index int) *Model {
	if index < 0 || index >= len(f.Models) {
		return nil
	}
	return f.Models[index]
}

// ModelByName returns the first model with the given name, or nil.
func (f *File) ModelByName(name string) *Model {
	for _, m := range f.Models {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// AddModel appends a model to the file.
func (f *File) AddModel(m *Model) {
	f.Models = append(f.Models, m)
}

// RemoveModel removes the model at index. It reports whether a model
// was removed.
func (f *File) RemoveModel(index int) bool {
	if index < 0 || index >= len(f.Models) {
		return false
	}
	f.Models = append(f.Models[:index], f.Models[index+1:]...)
	return true
}

func (f *File) record(err error) {
	f.Errors = append(f.Errors, err)
	if f.LoadError == "" {
		f.LoadError = err.Error()
	}
}

func (f *File) String() string {
	return fmt.Sprintf("File(%q models=%d loaded=%v)", f.Path, len(f.Models), f.Loaded)
}
