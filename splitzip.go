// Copyright 2025 Lemon4ksan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package splitzip creates split (multi-volume) ZIP archives that
// standard tools extract without reassembly.
//
// Archives are written across a sequence of fixed-size volume files
// following the convention recognized by Windows Explorer, WinZip, 7-Zip
// and unzip:
//
//	backup.z01, backup.z02, ..., backup.zip
//
// The final .zip volume carries the central directory and must be kept
// together with the .zNN files. Payload bytes may span volumes, but the
// records extractors locate by signature - local file headers, data
// descriptors, the end-of-central-directory record - never do.
//
// # Basic Usage
//
// Creating an archive from files on disk:
//
//	w, _ := splitzip.NewWriter("backup.zip", 100_000_000)
//	w.AddFile("documents/")
//	w.AddFile("notes.txt")
//	w.AddString("created by splitzip", "README.txt")
//	volumes, err := w.Close()
//
// Or with the one-shot helper, which aborts cleanly on failure:
//
//	volumes, err := splitzip.Create("backup.zip", []string{"documents/"}, size)
//
// Writers observe ZIP32 limits: members up to 4 GiB, 65535 entries. A
// writer that fails while streaming a member is poisoned; call Abort and
// delete the partial volumes.
package splitzip

import (
	"io/fs"
	"log"
	"time"
)

// SizeUnknown is a sentinel value for AddReader sources whose total
// length cannot be determined ahead of time.
const SizeUnknown int64 = -1

func defaultWarn(msg string) {
	log.Printf("splitzip: %s", msg)
}

// Option configures a Writer.
type Option func(*Writer)

// WithCompression sets the archive's default compression method and
// level. The default is Deflated at DeflateNormal.
func WithCompression(method CompressionMethod, level int) Option {
	return func(w *Writer) {
		w.compression = method
		w.level = level
	}
}

// WithVolumeHook installs a callback invoked right after each volume
// file is opened, including the first. volume is 1-based.
func WithVolumeHook(fn func(volume int, path string)) Option {
	return func(w *Writer) {
		w.vw.onVolume = fn
	}
}

// WithProgressHook installs a callback invoked as a member's body is
// streamed. total is SizeUnknown when the source length is unknown.
func WithProgressHook(fn func(name string, done, total int64)) Option {
	return func(w *Writer) {
		w.onProgress = fn
	}
}

// WithWarningHandler replaces the sink for non-fatal notices (skipped
// symlinks, volume counts past 99). The default logs via the standard
// logger; nil silences warnings.
func WithWarningHandler(fn func(msg string)) Option {
	return func(w *Writer) {
		w.warn = fn
	}
}

// WithClock replaces the time source used to stamp in-memory members.
func WithClock(fn func() time.Time) Option {
	return func(w *Writer) {
		w.now = fn
	}
}

// addConfig collects per-entry settings.
type addConfig struct {
	name string

	method    CompressionMethod
	level     int
	hasMethod bool

	modTime    time.Time
	hasModTime bool

	mode fs.FileMode

	expectedCRC    uint32
	hasExpectedCRC bool

	expectedSize    int64
	hasExpectedSize bool

	nonRecursive bool
}

// AddOption configures a single member.
type AddOption func(*addConfig)

func (w *Writer) newAddConfig(opts []AddOption) addConfig {
	var cfg addConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithName overrides the member's name within the archive.
func WithName(name string) AddOption {
	return func(c *addConfig) {
		c.name = name
	}
}

// WithEntryCompression overrides the archive default for one member.
// Ignored for directories.
func WithEntryCompression(method CompressionMethod, level int) AddOption {
	return func(c *addConfig) {
		c.method = method
		c.level = level
		c.hasMethod = true
	}
}

// WithModTime overrides the member's modification timestamp.
func WithModTime(t time.Time) AddOption {
	return func(c *addConfig) {
		c.modTime = t
		c.hasModTime = true
	}
}

// WithExpectedCRC32 declares the member's CRC32 up front. A mismatch
// after streaming fails with ErrIntegrity.
func WithExpectedCRC32(crc uint32) AddOption {
	return func(c *addConfig) {
		c.expectedCRC = crc
		c.hasExpectedCRC = true
	}
}

// WithExpectedSize declares the member's uncompressed size up front. A
// mismatch after streaming fails with ErrIntegrity.
func WithExpectedSize(size int64) AddOption {
	return func(c *addConfig) {
		c.expectedSize = size
		c.hasExpectedSize = true
	}
}

// NonRecursive limits a directory add to the directory entry itself.
func NonRecursive() AddOption {
	return func(c *addConfig) {
		c.nonRecursive = true
	}
}

// Create builds a split archive from a list of files and directories.
// On success the archive is finalized and the ordered volume paths are
// returned. On failure the writer is aborted: no central directory is
// written, and the partial volumes are left on disk for the caller.
func Create(path string, members []string, splitSize int64, opts ...Option) ([]string, error) {
	w, err := NewWriter(path, splitSize, opts...)
	if err != nil {
		return nil, err
	}

	for _, member := range members {
		if err := w.AddFile(member); err != nil {
			_ = w.Abort()
			return nil, err
		}
	}

	paths, err := w.Close()
	if err != nil {
		_ = w.Abort()
		return nil, err
	}
	return paths, nil
}
