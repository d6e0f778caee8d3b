// Copyright 2025 Lemon4ksan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splitzip

import (
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/twwat/splitzip/internal/headers"
)

// ZIP32 limits.
const (
	max32      = math.MaxUint32 // largest representable size or offset
	maxEntries = math.MaxUint16 // largest representable entry count
)

// Writer streams members into a split ZIP archive. Entries are written
// in add order, one at a time; the central directory accumulates in
// memory and is flushed by Close. A Writer is not safe for concurrent
// use.
//
// Any error that occurs after an entry's local header has been written
// leaves the archive in an unrecoverable state: the error is remembered
// and returned from every subsequent operation, and the caller should
// Abort. Validation errors raised before any bytes are written (unsafe
// names, limit checks, bad options) leave the archive usable.
type Writer struct {
	vw *volumeWriter

	compression CompressionMethod
	level       int

	onProgress func(name string, done, total int64)
	warn       func(msg string)
	now        func() time.Time

	compressors map[int]Compressor
	entries     []*entry

	err     error // first terminal error
	closed  bool
	aborted bool
	paths   []string // result of a successful Close
}

// NewWriter creates a split archive writer. path names the final .zip
// volume; earlier volumes take .z01, .z02, ... siblings next to it.
// splitSize caps every non-final volume and must be at least
// MinVolumeSize. No file is created until the first member is added.
func NewWriter(path string, splitSize int64, opts ...Option) (*Writer, error) {
	vw, err := newVolumeWriter(path, splitSize)
	if err != nil {
		return nil, err
	}

	w := &Writer{
		vw:          vw,
		compression: Deflated,
		level:       DeflateNormal,
		warn:        defaultWarn,
		now:         time.Now,
		compressors: make(map[int]Compressor),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := validateCompression(w.compression, w.level); err != nil {
		return nil, err
	}

	vw.warn = w.warn
	return w, nil
}

// VolumePaths returns the volumes created so far, in order.
func (w *Writer) VolumePaths() []string {
	return w.vw.volumePaths()
}

// AddFile adds a file or directory from the local filesystem. Directories
// recurse in lexical order unless NonRecursive is given; symlinks are
// skipped with a warning.
func (w *Writer) AddFile(path string, opts ...AddOption) error {
	if err := w.usable(); err != nil {
		return err
	}
	cfg := w.newAddConfig(opts)

	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		w.warnf("skipping symlink: %s", path)
		return nil
	}
	if info.IsDir() {
		return w.addDirectory(path, info, cfg)
	}
	name := cfg.name
	if name == "" {
		name = filepath.Base(path)
	}
	return w.addRegularFile(path, name, info, cfg)
}

// AddBytes adds an in-memory member stamped with the writer's clock.
func (w *Writer) AddBytes(data []byte, name string, opts ...AddOption) error {
	if err := w.usable(); err != nil {
		return err
	}
	cfg := w.newAddConfig(opts)
	if cfg.name != "" {
		name = cfg.name
	}
	if int64(len(data)) > max32 {
		return fmt.Errorf("%w: %d bytes exceeds 4 GiB", ErrOverflow, len(data))
	}
	return w.addStream(bytes.NewReader(data), name, int64(len(data)), cfg)
}

// AddString adds a string member stamped with the writer's clock.
func (w *Writer) AddString(content, name string, opts ...AddOption) error {
	return w.AddBytes([]byte(content), name, opts...)
}

// AddReader streams a member from r. size is used for progress reporting
// and may be SizeUnknown; the ZIP32 limit is enforced on the bytes
// actually read either way.
func (w *Writer) AddReader(r io.Reader, name string, size int64, opts ...AddOption) error {
	if err := w.usable(); err != nil {
		return err
	}
	cfg := w.newAddConfig(opts)
	if cfg.name != "" {
		name = cfg.name
	}
	if size > max32 {
		return fmt.Errorf("%w: %d bytes exceeds 4 GiB", ErrOverflow, size)
	}
	if size < 0 {
		size = SizeUnknown
	}
	return w.addStream(r, name, size, cfg)
}

// Mkdir adds an explicit directory entry.
func (w *Writer) Mkdir(name string, opts ...AddOption) error {
	if err := w.usable(); err != nil {
		return err
	}
	cfg := w.newAddConfig(opts)
	if cfg.name != "" {
		name = cfg.name
	}
	modTime := w.now()
	if cfg.hasModTime {
		modTime = cfg.modTime
	}
	return w.addDirEntry(name, modTime)
}

// Close finalizes the archive: the central directory and EOCD record are
// written to the last volume, which is then renamed to the .zip path.
// Returns the ordered volume paths. Idempotent: a second Close repeats
// the same result without side effects.
func (w *Writer) Close() ([]string, error) {
	if w.err != nil {
		return nil, w.err
	}
	if w.aborted {
		return nil, ErrClosed
	}
	if w.closed {
		return w.paths, nil
	}

	if err := w.vw.enterFinalVolume(); err != nil {
		return nil, w.fail(err)
	}

	cdStartDisk, cdStartOffset := w.vw.position()

	var cdSize int64
	recordDisks := make([]int, 0, len(w.entries))
	for _, e := range w.entries {
		disk, _ := w.vw.position()
		rec := e.centralRecord().Encode()
		if _, err := w.vw.Write(rec); err != nil {
			return nil, w.fail(err)
		}
		cdSize += int64(len(rec))
		recordDisks = append(recordDisks, disk)
	}

	endDisk, _ := w.vw.position()
	entriesOnDisk := 0
	for _, disk := range recordDisks {
		if disk == endDisk {
			entriesOnDisk++
		}
	}

	eocd := endOfCentralDirectory(
		endDisk, cdStartDisk, entriesOnDisk, len(w.entries), cdSize, cdStartOffset,
	)
	if err := w.vw.writeAtomic(eocd); err != nil {
		return nil, w.fail(err)
	}

	paths, err := w.vw.finalize()
	if err != nil {
		return nil, w.fail(err)
	}

	w.paths = paths
	w.closed = true
	return paths, nil
}

// Abort releases the file handle without writing the central directory
// or renaming anything. Partial volumes remain on disk for the caller to
// delete. Idempotent.
func (w *Writer) Abort() error {
	if w.aborted {
		return nil
	}
	w.aborted = true
	return w.vw.abort()
}

// usable reports whether the writer can accept another operation.
func (w *Writer) usable() error {
	if w.err != nil {
		return w.err
	}
	if w.closed || w.aborted {
		return ErrClosed
	}
	return nil
}

// fail records the first terminal error. Streaming and volume failures
// poison the archive; see the Writer doc.
func (w *Writer) fail(err error) error {
	if w.err == nil {
		w.err = err
	}
	return err
}

func (w *Writer) warnf(format string, args ...interface{}) {
	if w.warn != nil {
		w.warn(fmt.Sprintf(format, args...))
	}
}

func (w *Writer) checkEntryLimit() error {
	if len(w.entries) >= maxEntries {
		return fmt.Errorf("%w: %d entries", ErrOverflow, maxEntries)
	}
	return nil
}

// addDirectory writes the directory's own entry, then walks its contents.
func (w *Writer) addDirectory(dir string, info fs.FileInfo, cfg addConfig) error {
	base := cfg.name
	if base == "" {
		base = filepath.Base(dir)
	}
	base = strings.TrimSuffix(base, "/")

	if err := w.addDirEntry(base+"/", info.ModTime()); err != nil {
		return err
	}
	if cfg.nonRecursive {
		return nil
	}

	return filepath.WalkDir(dir, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if walkPath == dir {
			return nil
		}

		rel, err := filepath.Rel(dir, walkPath)
		if err != nil {
			return err
		}
		arcname := base + "/" + filepath.ToSlash(rel)

		if d.Type()&fs.ModeSymlink != 0 {
			w.warnf("skipping symlink: %s", walkPath)
			return nil
		}

		sub, err := d.Info()
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.addDirEntry(arcname+"/", sub.ModTime())
		}
		return w.addRegularFile(walkPath, arcname, sub, cfg)
	})
}

func (w *Writer) addRegularFile(path, name string, info fs.FileInfo, cfg addConfig) error {
	if info.Size() > max32 {
		return fmt.Errorf("%w: %s is %d bytes, exceeds 4 GiB", ErrOverflow, path, info.Size())
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fileCfg := cfg
	fileCfg.name = "" // already resolved into name
	if !fileCfg.hasModTime {
		fileCfg.modTime = info.ModTime()
		fileCfg.hasModTime = true
	}
	fileCfg.mode = info.Mode()

	return w.addStream(f, name, info.Size(), fileCfg)
}

// addStream runs the entry pipeline: sanitize, local header, body
// streaming through the CRC/compressor stage, data descriptor, and the
// queued central-directory record.
func (w *Writer) addStream(src io.Reader, name string, total int64, cfg addConfig) error {
	arcname, err := sanitizeArcname(name)
	if err != nil {
		return err
	}
	if strings.HasSuffix(arcname, "/") {
		return fmt.Errorf("%w: %q names a directory", ErrUnsafePath, name)
	}
	if err := w.checkEntryLimit(); err != nil {
		return err
	}

	method, level := w.compression, w.level
	if cfg.hasMethod {
		method, level = cfg.method, cfg.level
	}
	if err := validateCompression(method, level); err != nil {
		return err
	}

	modTime := w.now()
	if cfg.hasModTime {
		modTime = cfg.modTime
	}
	dosDate, dosTime := timeToMsDos(modTime)

	e := &entry{
		name:          arcname,
		method:        method,
		flags:         flagDataDescriptor | flagUTF8,
		dosDate:       dosDate,
		dosTime:       dosTime,
		externalAttrs: externalAttrsFor(cfg.mode, false),
	}

	if err := w.writeLocalHeader(e); err != nil {
		if errors.Is(err, ErrVolumeTooSmall) {
			// Rejected before any bytes moved; the archive stays usable.
			return err
		}
		return w.fail(err)
	}
	if err := w.streamBody(e, src, total, level); err != nil {
		return w.fail(err)
	}
	if err := w.verifyDeclared(e, cfg); err != nil {
		return w.fail(err)
	}
	if err := w.vw.writeAtomic(e.dataDescriptor().Encode()); err != nil {
		return w.fail(err)
	}

	w.entries = append(w.entries, e)
	return nil
}

// addDirEntry writes a zero-body directory member: STORED, CRC 0, final
// values in the local header, so no data descriptor follows.
func (w *Writer) addDirEntry(name string, modTime time.Time) error {
	arcname, err := sanitizeArcname(name)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(arcname, "/") {
		arcname += "/"
	}
	if err := w.checkEntryLimit(); err != nil {
		return err
	}

	dosDate, dosTime := timeToMsDos(modTime)
	e := &entry{
		name:          arcname,
		isDir:         true,
		method:        Stored,
		flags:         flagUTF8,
		dosDate:       dosDate,
		dosTime:       dosTime,
		externalAttrs: externalAttrsFor(0, true),
	}

	if err := w.writeLocalHeader(e); err != nil {
		if errors.Is(err, ErrVolumeTooSmall) {
			return err
		}
		return w.fail(err)
	}

	w.entries = append(w.entries, e)
	return nil
}

// writeLocalHeader reserves an atomic slot for the header, captures the
// entry's starting volume and offset, and emits the header.
func (w *Writer) writeLocalHeader(e *entry) error {
	encoded := e.localHeader().Encode()
	disk, offset, err := w.vw.reserveAtomic(len(encoded))
	if err != nil {
		return err
	}
	e.diskNumberStart = disk
	e.localHeaderOffset = offset
	return w.vw.writeAtomic(encoded)
}

// streamBody pulls uncompressed bytes from src, accumulates the CRC32,
// and writes the (possibly compressed) output through the splittable
// path, rolling volumes as needed.
func (w *Writer) streamBody(e *entry, src io.Reader, total int64, level int) error {
	comp, err := w.resolveCompressor(e.method, level)
	if err != nil {
		return err
	}

	reader := src
	if w.onProgress != nil {
		reader = &progressReader{r: src, name: e.name, total: total, fn: w.onProgress}
	}

	hasher := crc32.NewIEEE()
	counter := &byteCountWriter{dest: w.vw}

	uncompressed, err := comp.Compress(io.TeeReader(reader, hasher), counter)
	if err != nil {
		if isTerminal(err) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrCompression, err)
	}

	e.uncompressedSize = uncompressed
	e.compressedSize = counter.bytesWritten
	e.crc32 = hasher.Sum32()

	if e.uncompressedSize > max32 || e.compressedSize > max32 {
		return fmt.Errorf("%w: entry %q exceeds 4 GiB (uncompressed=%d, compressed=%d)",
			ErrOverflow, e.name, e.uncompressedSize, e.compressedSize)
	}
	return nil
}

// verifyDeclared checks caller-declared CRC and size against what was
// actually streamed.
func (w *Writer) verifyDeclared(e *entry, cfg addConfig) error {
	if cfg.hasExpectedCRC && e.crc32 != cfg.expectedCRC {
		return fmt.Errorf("%w: %q crc32 %08x, declared %08x", ErrIntegrity, e.name, e.crc32, cfg.expectedCRC)
	}
	if cfg.hasExpectedSize && e.uncompressedSize != cfg.expectedSize {
		return fmt.Errorf("%w: %q is %d bytes, declared %d", ErrIntegrity, e.name, e.uncompressedSize, cfg.expectedSize)
	}
	return nil
}

// isTerminal reports whether an error from the compression stage already
// carries one of the package sentinels (volume errors surface through
// the compressor's writes).
func isTerminal(err error) bool {
	for _, sentinel := range []error{ErrVolume, ErrVolumeTooSmall, ErrCompression, ErrOverflow, ErrClosed} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// endOfCentralDirectory encodes the EOCD record. Disk indexes arrive
// 0-based, matching the wire format.
func endOfCentralDirectory(thisDisk, cdStartDisk, entriesOnDisk, totalEntries int, cdSize, cdOffset int64) []byte {
	return headers.EndOfCentralDirectory{
		ThisDiskNum:                     uint16(thisDisk),
		DiskNumWithTheStartOfCentralDir: uint16(cdStartDisk),
		TotalNumberOfEntriesOnThisDisk:  uint16(entriesOnDisk),
		TotalNumberOfEntries:            uint16(totalEntries),
		CentralDirSize:                  uint32(cdSize),
		CentralDirOffset:                uint32(cdOffset),
	}.Encode()
}
