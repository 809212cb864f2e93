package iox

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec selects the compression applied to streamed output.
type Codec uint8

const (
	// CodecNone passes bytes through unchanged.
	CodecNone Codec = iota
	// CodecZstd is zstd at the default level. Good ratios for text.
	CodecZstd
	// CodecLZ4 is the lz4 frame format. Cheaper to encode than zstd.
	CodecLZ4
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// ParseCodec parses a codec from its String form.
func ParseCodec(name string) (Codec, error) {
	switch name {
	case "none", "":
		return CodecNone, nil
	case "zstd":
		return CodecZstd, nil
	case "lz4":
		return CodecLZ4, nil
	default:
		return CodecNone, fmt.Errorf("unknown codec: %q", name)
	}
}

// NewCompressor wraps w so that bytes written are compressed with codec.
// Close flushes the trailing frame; it does not close w.
func NewCompressor(w io.Writer, codec Codec) (io.WriteCloser, error) {
	switch codec {
	case CodecNone:
		return nopWriteCloser{w}, nil
	case CodecZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		return enc, nil
	case CodecLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported codec: %d", codec)
	}
}

// NewDecompressor is the inverse of NewCompressor.
func NewDecompressor(r io.Reader, codec Codec) (io.ReadCloser, error) {
	switch codec {
	case CodecNone:
		return io.NopCloser(r), nil
	case CodecZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		return dec.IOReadCloser(), nil
	case CodecLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unsupported codec: %d", codec)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
