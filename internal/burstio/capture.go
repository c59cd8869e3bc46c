// Package burstio reads and writes complex baseband captures and the result
// records produced from them.
//
// Captures are interleaved little-endian float32 I/Q pairs, the format
// written by GNU Radio file sinks and most SDR tools as .cf32 / .cfile.
// Paths ending in .gz or .zst are compressed and decompressed transparently.
package burstio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// bytesPerSample is the size of one interleaved float32 I/Q pair.
const bytesPerSample = 8

// ErrTruncated is returned when a capture ends inside a sample.
var ErrTruncated = errors.New("burstio: capture ends mid-sample")

// Compression identifies a capture container.
type Compression int

// Supported containers.
const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
)

// CompressionFor derives the container from the file extension.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	default:
		return CompressionNone
	}
}

type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Open opens a capture for reading, decompressing by extension.
// "-" reads standard input uncompressed.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	return NewReader(f, CompressionFor(path), f.Close)
}

// NewReader wraps r with the decompressor for c. closeFn, if non-nil, is
// called after the decompressor is closed.
func NewReader(r io.Reader, c Compression, closeFn func() error) (io.ReadCloser, error) {
	rc := &readCloser{}

	switch c {
	case CompressionNone:
		rc.Reader = bufio.NewReader(r)
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			if closeFn != nil {
				_ = closeFn()
			}
			return nil, fmt.Errorf("burstio: gzip: %w", err)
		}
		rc.Reader = zr
		rc.closers = append(rc.closers, zr.Close)
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			if closeFn != nil {
				_ = closeFn()
			}
			return nil, fmt.Errorf("burstio: zstd: %w", err)
		}
		rc.Reader = zr
		rc.closers = append(rc.closers, func() error { zr.Close(); return nil })
	default:
		return nil, fmt.Errorf("burstio: unknown compression %d", c)
	}

	if closeFn != nil {
		rc.closers = append(rc.closers, closeFn)
	}
	return rc, nil
}

type writeCloser struct {
	io.Writer
	closers []func() error
}

func (w *writeCloser) Close() error {
	var errs []error
	for _, c := range w.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Create creates a capture file, compressing by extension.
// "-" writes standard output uncompressed.
func Create(path string) (io.WriteCloser, error) {
	if path == "-" {
		return &writeCloser{Writer: os.Stdout}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	return NewWriter(f, CompressionFor(path), f.Close)
}

// NewWriter wraps w with the compressor for c. closeFn, if non-nil, is called
// after the compressor has been flushed and closed.
func NewWriter(w io.Writer, c Compression, closeFn func() error) (io.WriteCloser, error) {
	wc := &writeCloser{}

	switch c {
	case CompressionNone:
		bw := bufio.NewWriter(w)
		wc.Writer = bw
		wc.closers = append(wc.closers, bw.Flush)
	case CompressionGzip:
		zw := gzip.NewWriter(w)
		wc.Writer = zw
		wc.closers = append(wc.closers, zw.Close)
	case CompressionZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			if closeFn != nil {
				_ = closeFn()
			}
			return nil, fmt.Errorf("burstio: zstd: %w", err)
		}
		wc.Writer = zw
		wc.closers = append(wc.closers, zw.Close)
	default:
		return nil, fmt.Errorf("burstio: unknown compression %d", c)
	}

	if closeFn != nil {
		wc.closers = append(wc.closers, closeFn)
	}
	return wc, nil
}

// ReadCF32 reads interleaved float32 I/Q samples until EOF.
func ReadCF32(r io.Reader) ([]complex128, error) {
	var (
		out []complex128
		buf = make([]byte, 4096*bytesPerSample)
		rem int
	)

	for {
		n, err := io.ReadFull(r, buf[rem:])
		n += rem
		whole := n - n%bytesPerSample
		for i := 0; i < whole; i += bytesPerSample {
			re := math.Float32frombits(binary.LittleEndian.Uint32(buf[i:]))
			im := math.Float32frombits(binary.LittleEndian.Uint32(buf[i+4:]))
			out = append(out, complex(float64(re), float64(im)))
		}
		rem = copy(buf, buf[whole:n])

		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF):
			if rem != 0 {
				return out, fmt.Errorf("%w: %d trailing bytes", ErrTruncated, rem)
			}
			return out, nil
		default:
			return out, err
		}
	}
}

// WriteCF32 writes samples as interleaved float32 I/Q.
func WriteCF32(w io.Writer, samples []complex128) error {
	buf := make([]byte, bytesPerSample*min(len(samples), 4096))
	for len(samples) > 0 {
		n := min(len(samples), len(buf)/bytesPerSample)
		for i, s := range samples[:n] {
			binary.LittleEndian.PutUint32(buf[i*bytesPerSample:], math.Float32bits(float32(real(s))))
			binary.LittleEndian.PutUint32(buf[i*bytesPerSample+4:], math.Float32bits(float32(imag(s))))
		}
		if _, err := w.Write(buf[:n*bytesPerSample]); err != nil {
			return err
		}
		samples = samples[n:]
	}
	return nil
}

// Split cuts samples into consecutive bursts of burstLen samples. The last
// burst is shorter when the length does not divide evenly. The bursts alias
// samples.
func Split(samples []complex128, burstLen int) ([][]complex128, error) {
	if burstLen <= 0 {
		return nil, fmt.Errorf("burstio: burst length must be > 0: %d", burstLen)
	}

	out := make([][]complex128, 0, (len(samples)+burstLen-1)/burstLen)
	for start := 0; start < len(samples); start += burstLen {
		end := min(start+burstLen, len(samples))
		out = append(out, samples[start:end:end])
	}
	return out, nil
}
