package deb

import (
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
)

// Compression is the compression method of the data archive.
type Compression int

const (
	None Compression = iota
	Gzip
	Bzip2
)

// ParseCompression maps a compression token to a method.
// Unknown tokens mean no compression.
func ParseCompression(token string) Compression {
	switch token {
	case "gzip":
		return Gzip
	case "bzip2":
		return Bzip2
	default:
		return None
	}
}

// String returns the token of the method.
func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Bzip2:
		return "bzip2"
	default:
		return "none"
	}
}

// Extension returns the suffix appended to "data.tar".
func (c Compression) Extension() string {
	switch c {
	case Gzip:
		return ".gz"
	case Bzip2:
		return ".bz2"
	default:
		return ""
	}
}

// bzipMagic starts every bzip2 stream.
var bzipMagic = []byte("BZ")

// compress wraps w according to c. Closing the returned writer flushes the
// compressor but never closes w.
func (c Compression) compress(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case Gzip:
		return gzip.NewWriter(w), nil
	case Bzip2:
		// The magic is written here; the compressor's own copy is dropped.
		if _, err := w.Write(bzipMagic); err != nil {
			return nil, fmt.Errorf("writing bzip2 magic: %w", err)
		}
		bw, err := bzip2.NewWriter(&skipWriter{w: w, skip: len(bzipMagic)}, &bzip2.WriterConfig{Level: bzip2.BestCompression})
		if err != nil {
			return nil, err
		}
		return bw, nil
	default:
		return nopWriteCloser{w}, nil
	}
}

// skipWriter discards the first skip bytes written to it.
type skipWriter struct {
	w    io.Writer
	skip int
}

func (s *skipWriter) Write(p []byte) (int, error) {
	n := len(p)
	if s.skip > 0 {
		k := min(s.skip, len(p))
		s.skip -= k
		p = p[k:]
	}
	if len(p) == 0 {
		return n, nil
	}
	if _, err := s.w.Write(p); err != nil {
		return 0, err
	}
	return n, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
