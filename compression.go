// Copyright 2025 Lemon4ksan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splitzip

import (
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
)

// CompressionMethod represents the compression algorithm used for a
// member of the archive.
type CompressionMethod uint16

// Compression methods of the ZIP32 subset.
const (
	Stored   CompressionMethod = 0 // No compression - file stored as-is
	Deflated CompressionMethod = 8 // DEFLATE compression
)

// Compression levels for the DEFLATE algorithm.
const (
	DeflateNormal    = 6 // Default compression level (good balance between speed and ratio)
	DeflateMaximum   = 9 // Maximum compression (best ratio, slowest speed)
	DeflateFast      = 3 // Fast compression (lower ratio, faster speed)
	DeflateSuperFast = 1 // Super fast compression (lowest ratio, fastest speed)
)

// versionNeeded returns the version-needed-to-extract value for a method.
func (m CompressionMethod) versionNeeded() uint16 {
	if m == Deflated {
		return 20
	}
	return 10
}

func validateCompression(method CompressionMethod, level int) error {
	switch method {
	case Stored:
		return nil
	case Deflated:
		if level < DeflateSuperFast || level > DeflateMaximum {
			return fmt.Errorf("%w: deflate level %d out of range 1-9", ErrConfig, level)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported compression method %d", ErrConfig, method)
	}
}

// Compressor transforms raw data into compressed data.
type Compressor interface {
	// Compress reads from src and writes compressed data to dest.
	// Returns the number of uncompressed bytes read.
	Compress(src io.Reader, dest io.Writer) (int64, error)
}

// StoredCompressor implements no compression (STORE method).
type StoredCompressor struct{}

func (sc *StoredCompressor) Compress(src io.Reader, dest io.Writer) (int64, error) {
	return io.Copy(dest, src)
}

// DeflateCompressor implements DEFLATE compression with memory pooling.
type DeflateCompressor struct {
	pool sync.Pool
}

// NewDeflateCompressor creates a reusable compressor for a specific level.
func NewDeflateCompressor(level int) *DeflateCompressor {
	return &DeflateCompressor{
		pool: sync.Pool{
			New: func() interface{} {
				w, _ := flate.NewWriter(io.Discard, level)
				return w
			},
		},
	}
}

func (d *DeflateCompressor) Compress(src io.Reader, dest io.Writer) (int64, error) {
	w := d.pool.Get().(*flate.Writer)
	defer d.pool.Put(w)

	w.Reset(dest)

	n, err := io.Copy(w, src)
	if err != nil {
		return n, err
	}

	if err := w.Close(); err != nil {
		return n, fmt.Errorf("%w: %w", ErrCompression, err)
	}

	return n, nil
}

// resolveCompressor returns the compressor for a method and level.
// Deflate compressors are cached per level so their flate writers pool.
func (w *Writer) resolveCompressor(method CompressionMethod, level int) (Compressor, error) {
	switch method {
	case Stored:
		return new(StoredCompressor), nil
	case Deflated:
		if c, ok := w.compressors[level]; ok {
			return c, nil
		}
		c := NewDeflateCompressor(level)
		w.compressors[level] = c
		return c, nil
	default:
		return nil, fmt.Errorf("%w: unsupported compression method %d", ErrConfig, method)
	}
}
