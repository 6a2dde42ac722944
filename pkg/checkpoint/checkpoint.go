// Package checkpoint saves and restores the accumulated radiance of a render
// so it can be resumed later.
//
// A checkpoint file is the magic "WFPT", a varint-prefixed protobuf-encoded
// header, then a zstd stream of little-endian float64 RGB triples.
package checkpoint

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
	"github.com/df07/go-wavefront-pathtracer/pkg/renderer"
)

const magic = "WFPT"

// maxHeaderSize bounds the header length read from a file
const maxHeaderSize = 1 << 16

// maxPixels bounds the image size read from a file
const maxPixels = 1 << 24

// Header field numbers
const (
	fieldVersion    protowire.Number = 1
	fieldScene      protowire.Number = 2
	fieldWidth      protowire.Number = 3
	fieldHeight     protowire.Number = 4
	fieldSamples    protowire.Number = 5
	fieldMaxBounces protowire.Number = 6
)

const formatVersion = 1

// ErrNotCheckpoint is returned when the input does not start with the magic
var ErrNotCheckpoint = errors.New("not a checkpoint")

// Header describes the render a checkpoint belongs to
type Header struct {
	Scene      string
	Width      int
	Height     int
	Samples    int
	MaxBounces int
}

// Checkpoint is a header plus the raw radiance sums, one per pixel
type Checkpoint struct {
	Header
	Radiance []core.Vec3
}

// Capture copies the current state of a session
func Capture(s *renderer.Session) (*Checkpoint, error) {
	sc := s.Scene()
	radiance := make([]core.Vec3, sc.PixelCount())
	if err := s.CopyImage(radiance); err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	return &Checkpoint{
		Header: Header{
			Scene:      sc.Name,
			Width:      sc.Width,
			Height:     sc.Height,
			Samples:    s.Samples(),
			MaxBounces: sc.MaxBounces,
		},
		Radiance: radiance,
	}, nil
}

// Apply restores the checkpoint into a session rendering the same scene at the same
// size and bounce budget
func (cp *Checkpoint) Apply(s *renderer.Session) error {
	sc := s.Scene()
	if cp.Scene != sc.Name {
		return fmt.Errorf("checkpoint is for scene %q, session renders %q", cp.Scene, sc.Name)
	}
	if cp.Width != sc.Width || cp.Height != sc.Height {
		return fmt.Errorf("checkpoint is %dx%d, session is %dx%d", cp.Width, cp.Height, sc.Width, sc.Height)
	}
	if cp.MaxBounces != sc.MaxBounces {
		return fmt.Errorf("checkpoint was rendered with %d bounces, session uses %d", cp.MaxBounces, sc.MaxBounces)
	}
	if err := s.Restore(cp.Samples, cp.Radiance); err != nil {
		return fmt.Errorf("apply checkpoint: %w", err)
	}
	return nil
}

// Save writes the checkpoint to path, replacing any existing file only once
// the new one is complete
func Save(path string, cp *Checkpoint) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, cp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads a checkpoint file
func Load(path string) (*Checkpoint, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cp, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cp, nil
}

// Write encodes cp to w
func Write(w io.Writer, cp *Checkpoint) error {
	if len(cp.Radiance) != cp.Width*cp.Height {
		return fmt.Errorf("checkpoint has %d pixels for a %dx%d image", len(cp.Radiance), cp.Width, cp.Height)
	}

	header := encodeHeader(cp.Header)
	prefix := append([]byte(magic), protowire.AppendVarint(nil, uint64(len(header)))...)
	if _, err := w.Write(prefix); err != nil {
		return err
	}
	if _, err := w.Write(header); err != nil {
		return err
	}

	body, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	var buf [24]byte
	for _, v := range cp.Radiance {
		binary.LittleEndian.PutUint64(buf[0:], math.Float64bits(v.X))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(v.Y))
		binary.LittleEndian.PutUint64(buf[16:], math.Float64bits(v.Z))
		if _, err := body.Write(buf[:]); err != nil {
			body.Close()
			return err
		}
	}
	return body.Close()
}

// Read decodes a checkpoint from r
func Read(r io.Reader) (*Checkpoint, error) {
	br, ok := r.(byteReader)
	if !ok {
		br = bufio.NewReader(r)
	}

	var prefix [len(magic)]byte
	if _, err := io.ReadFull(br, prefix[:]); err != nil || string(prefix[:]) != magic {
		return nil, ErrNotCheckpoint
	}

	size, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, fmt.Errorf("header length: %w", err)
	}
	if size > maxHeaderSize {
		return nil, fmt.Errorf("header length %d exceeds %d", size, maxHeaderSize)
	}
	raw := make([]byte, size)
	if _, err := io.ReadFull(br, raw); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	header, err := decodeHeader(raw)
	if err != nil {
		return nil, err
	}
	if header.Width <= 0 || header.Height <= 0 || header.Samples < 0 || header.MaxBounces < 0 {
		return nil, fmt.Errorf("invalid header %+v", header)
	}
	// Checked per axis first so the product cannot overflow
	if header.Width > maxPixels || header.Height > maxPixels || header.Width*header.Height > maxPixels {
		return nil, fmt.Errorf("checkpoint is %dx%d, limit is %d pixels", header.Width, header.Height, maxPixels)
	}

	body, err := zstd.NewReader(br)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	cp := &Checkpoint{Header: header, Radiance: make([]core.Vec3, header.Width*header.Height)}
	var buf [24]byte
	for i := range cp.Radiance {
		if _, err := io.ReadFull(body, buf[:]); err != nil {
			return nil, fmt.Errorf("radiance pixel %d: %w", i, err)
		}
		cp.Radiance[i] = core.NewVec3(
			math.Float64frombits(binary.LittleEndian.Uint64(buf[0:])),
			math.Float64frombits(binary.LittleEndian.Uint64(buf[8:])),
			math.Float64frombits(binary.LittleEndian.Uint64(buf[16:])),
		)
	}
	return cp, nil
}

func encodeHeader(h Header) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, formatVersion)
	b = protowire.AppendTag(b, fieldScene, protowire.BytesType)
	b = protowire.AppendString(b, h.Scene)
	b = protowire.AppendTag(b, fieldWidth, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(h.Width))
	b = protowire.AppendTag(b, fieldHeight, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(h.Height))
	b = protowire.AppendTag(b, fieldSamples, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(h.Samples))
	b = protowire.AppendTag(b, fieldMaxBounces, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(h.MaxBounces))
	return b
}

func decodeHeader(b []byte) (Header, error) {
	var h Header
	version := uint64(0)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return h, fmt.Errorf("header tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldScene && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return h, fmt.Errorf("header field %d: %w", num, protowire.ParseError(n))
			}
			h.Scene = v
			b = b[n:]
		case typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return h, fmt.Errorf("header field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			switch num {
			case fieldVersion:
				version = v
			case fieldWidth:
				h.Width = int(v)
			case fieldHeight:
				h.Height = int(v)
			case fieldSamples:
				h.Samples = int(v)
			case fieldMaxBounces:
				h.MaxBounces = int(v)
			}
		default:
			// Skip fields written by newer versions
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return h, fmt.Errorf("header field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	if version != formatVersion {
		return h, fmt.Errorf("unsupported checkpoint version %d", version)
	}
	return h, nil
}

type byteReader interface {
	io.Reader
	io.ByteReader
}
