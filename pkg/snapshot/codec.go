package snapshot

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"github.com/tinunadno/render-engine-family/internal/logging"
)

// Container layout, little endian:
//
//	magic   [4]byte "RFSN"
//	version uint8
//	codec   uint8
//	hdrLen  uint32
//	header  [hdrLen]byte JSON
//	payload compressed pixels (RGBA) followed by depth (float32 bits)
var magic = [4]byte{'R', 'F', 'S', 'N'}

// Version is the container version written by Encode.
const Version = 1

// Decode errors.
var (
	ErrBadMagic           = errors.New("snapshot: bad magic")
	ErrUnknownCodec       = errors.New("snapshot: unknown codec")
	ErrUnsupportedVersion = errors.New("snapshot: unsupported version")
	ErrCorrupt            = errors.New("snapshot: corrupt payload")
)

// maxHeader bounds the JSON header read from untrusted input.
const maxHeader = 1 << 20

// Codec selects the payload compression.
type Codec uint8

const (
	CodecNone Codec = iota
	CodecZstd
	CodecSnappy
)

var codecNames = map[Codec]string{
	CodecNone:   "none",
	CodecZstd:   "zstd",
	CodecSnappy: "snappy",
}

func (c Codec) String() string {
	if name, ok := codecNames[c]; ok {
		return name
	}
	return fmt.Sprintf("codec(%d)", uint8(c))
}

// ParseCodec returns the codec named s.
func ParseCodec(s string) (Codec, error) {
	for c, name := range codecNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCodec, s)
}

func compress(c Codec, raw []byte) ([]byte, error) {
	switch c {
	case CodecNone:
		return raw, nil
	case CodecZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(raw, nil), nil
	case CodecSnappy:
		return snappy.Encode(nil, raw), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(c))
	}
}

func decompress(c Codec, data []byte) ([]byte, error) {
	switch c {
	case CodecNone:
		return data, nil
	case CodecZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("create zstd decoder: %w", err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decode: %w", err)
		}
		return out, nil
	case CodecSnappy:
		out, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("snappy decode: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(c))
	}
}

// Encode writes s to w compressed with codec.
func Encode(w io.Writer, s *Snapshot, codec Codec) error {
	if len(s.Pixels) != s.Width*s.Height {
		return fmt.Errorf("encode snapshot: %d pixels for %dx%d", len(s.Pixels), s.Width, s.Height)
	}
	if len(s.Depth) != 0 && len(s.Depth) != len(s.Pixels) {
		return fmt.Errorf("encode snapshot: %d depth values for %d pixels", len(s.Depth), len(s.Pixels))
	}
	hdr, err := json.Marshal(s.Header)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	raw := make([]byte, 0, len(s.Pixels)*4+len(s.Depth)*4)
	for _, c := range s.Pixels {
		raw = append(raw, c.R, c.G, c.B, c.A)
	}
	for _, z := range s.Depth {
		raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(z))
	}
	payload, err := compress(codec, raw)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	bw.Write(magic[:])
	bw.WriteByte(Version)
	bw.WriteByte(byte(codec))
	binary.Write(bw, binary.LittleEndian, uint32(len(hdr)))
	bw.Write(hdr)
	bw.Write(payload)
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	logging.Logger().Debug("encoded snapshot",
		"codec", codec,
		"raw", len(raw),
		"compressed", len(payload),
	)
	return nil
}

// Decode reads a snapshot written by Encode.
func Decode(r io.Reader) (*Snapshot, error) {
	var prefix [10]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, fmt.Errorf("read prefix: %w", err)
	}
	if !bytes.Equal(prefix[:4], magic[:]) {
		return nil, ErrBadMagic
	}
	if prefix[4] != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, prefix[4])
	}
	codec := Codec(prefix[5])
	if _, ok := codecNames[codec]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, prefix[5])
	}
	hdrLen := binary.LittleEndian.Uint32(prefix[6:])
	if hdrLen > maxHeader {
		return nil, fmt.Errorf("%w: header of %d bytes", ErrCorrupt, hdrLen)
	}

	hdr := make([]byte, hdrLen)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	s := &Snapshot{}
	if err := json.Unmarshal(hdr, &s.Header); err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}
	if s.Width < 0 || s.Height < 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrCorrupt, s.Width, s.Height)
	}

	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	raw, err := decompress(codec, payload)
	if err != nil {
		return nil, err
	}

	n := s.Width * s.Height
	switch len(raw) {
	case n * 4:
	case n * 8:
		s.Depth = make([]float32, n)
		for i := range s.Depth {
			s.Depth[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[n*4+i*4:]))
		}
	default:
		return nil, fmt.Errorf("%w: %d bytes for %dx%d", ErrCorrupt, len(raw), s.Width, s.Height)
	}
	s.Pixels = make([]color.RGBA, n)
	for i := range s.Pixels {
		p := raw[i*4 : i*4+4]
		s.Pixels[i] = color.RGBA{p[0], p[1], p[2], p[3]}
	}
	return s, nil
}
