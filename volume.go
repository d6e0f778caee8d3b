// Copyright 2025 Lemon4ksan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splitzip

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MinVolumeSize is the smallest accepted split size. A volume must have
// room for at least a local file header plus some payload.
const MinVolumeSize = 64 * 1024

// volumeWriter is a byte sink that spreads its output over a sequence of
// fixed-size volume files named <stem>.z01, <stem>.z02, ..., <stem>.zip.
//
// Payload bytes may cross volume boundaries (Write); record structures
// that extractors locate by signature must not (writeAtomic). Volume 1 is
// opened directly under the final .zip path and only renamed to .z01 if a
// second volume ever becomes necessary.
type volumeWriter struct {
	basePath  string // path of the final .zip volume
	splitSize int64

	file    *os.File
	volume  int   // 1-based number of the open volume, 0 before first open
	written int64 // bytes written to the open volume
	paths   []string

	final     bool // set during finalization: rollover suppressed
	finalized bool
	closed    bool

	onVolume func(volume int, path string)
	warn     func(msg string)
}

func newVolumeWriter(path string, splitSize int64) (*volumeWriter, error) {
	if splitSize < MinVolumeSize {
		return nil, fmt.Errorf("%w: %d bytes, minimum %d", ErrVolumeTooSmall, splitSize, MinVolumeSize)
	}
	return &volumeWriter{
		basePath:  path,
		splitSize: splitSize,
	}, nil
}

// partPath returns the on-disk name for a non-final volume. The 2-digit
// suffix widens on its own past volume 99.
func (vw *volumeWriter) partPath(volume int) string {
	stem := strings.TrimSuffix(vw.basePath, filepath.Ext(vw.basePath))
	return fmt.Sprintf("%s.z%02d", stem, volume)
}

// nextVolume closes the open volume, if any, and opens the following one.
// The very first volume opens under the final .zip name; the rollover
// away from it renames it to .z01.
func (vw *volumeWriter) nextVolume() error {
	if vw.final {
		return fmt.Errorf("%w: rollover during finalization", ErrVolume)
	}

	if vw.file != nil {
		if err := vw.file.Close(); err != nil {
			return fmt.Errorf("%w: close volume %d: %w", ErrVolume, vw.volume, err)
		}
		vw.file = nil
		if vw.volume == 1 {
			renamed := vw.partPath(1)
			if err := os.Rename(vw.basePath, renamed); err != nil {
				return fmt.Errorf("%w: rename volume 1: %w", ErrVolume, err)
			}
			vw.paths[0] = renamed
		}
	}

	next := vw.volume + 1
	path := vw.basePath
	if next > 1 {
		path = vw.partPath(next)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrVolume, path, err)
	}

	vw.file = f
	vw.volume = next
	vw.written = 0
	vw.paths = append(vw.paths, path)

	if next > 99 && vw.warn != nil {
		vw.warn(fmt.Sprintf("volume count exceeds 99 (%d volumes); some tools may not handle 3-digit extensions", next))
	}
	if vw.onVolume != nil {
		vw.onVolume(next, path)
	}

	return nil
}

func (vw *volumeWriter) ensureOpen() error {
	if vw.file == nil {
		return vw.nextVolume()
	}
	return nil
}

func (vw *volumeWriter) spaceRemaining() int64 {
	return vw.splitSize - vw.written
}

// position returns the 0-based disk index and offset where the next byte
// will land, accounting for an exactly-full volume.
func (vw *volumeWriter) position() (disk int, offset int64) {
	if !vw.final && vw.written == vw.splitSize {
		return vw.volume, 0
	}
	return vw.volume - 1, vw.written
}

func (vw *volumeWriter) writeChunk(p []byte) error {
	n, err := vw.file.Write(p)
	vw.written += int64(n)
	if err != nil {
		return fmt.Errorf("%w: write volume %d: %w", ErrVolume, vw.volume, err)
	}
	return nil
}

// Write emits bytes that may cross volume boundaries, rolling over as
// many times as the payload requires. Implements io.Writer so compressed
// streams copy straight through.
func (vw *volumeWriter) Write(p []byte) (int, error) {
	if vw.closed {
		return 0, ErrClosed
	}
	if err := vw.ensureOpen(); err != nil {
		return 0, err
	}

	written := 0
	for remaining := p; len(remaining) > 0; {
		if vw.final {
			if err := vw.writeChunk(remaining); err != nil {
				return written, err
			}
			written += len(remaining)
			break
		}

		space := vw.spaceRemaining()
		switch {
		case space >= int64(len(remaining)):
			if err := vw.writeChunk(remaining); err != nil {
				return written, err
			}
			written += len(remaining)
			remaining = nil
		case space > 0:
			if err := vw.writeChunk(remaining[:space]); err != nil {
				return written, err
			}
			written += int(space)
			remaining = remaining[space:]
			if err := vw.nextVolume(); err != nil {
				return written, err
			}
		default:
			if err := vw.nextVolume(); err != nil {
				return written, err
			}
		}
	}

	return len(p), nil
}

// writeAtomic emits bytes that must land wholly inside one volume,
// rolling over first when the open volume cannot hold them. Filling a
// volume to the exact boundary is permitted.
func (vw *volumeWriter) writeAtomic(p []byte) error {
	if vw.closed {
		return ErrClosed
	}
	if int64(len(p)) > vw.splitSize {
		return fmt.Errorf("%w: %d-byte record exceeds split size %d", ErrVolumeTooSmall, len(p), vw.splitSize)
	}
	if err := vw.ensureOpen(); err != nil {
		return err
	}
	if !vw.final && int64(len(p)) > vw.spaceRemaining() {
		if err := vw.nextVolume(); err != nil {
			return err
		}
	}
	return vw.writeChunk(p)
}

// reserveAtomic rolls over if an n-byte atomic write would not fit and
// returns the 0-based disk index and offset where it will land. Called
// before a local header is emitted so the central directory can record
// the header's true location.
func (vw *volumeWriter) reserveAtomic(n int) (disk int, offset int64, err error) {
	if vw.closed {
		return 0, 0, ErrClosed
	}
	if int64(n) > vw.splitSize {
		return 0, 0, fmt.Errorf("%w: %d-byte record exceeds split size %d", ErrVolumeTooSmall, n, vw.splitSize)
	}
	if err := vw.ensureOpen(); err != nil {
		return 0, 0, err
	}
	if !vw.final && int64(n) > vw.spaceRemaining() {
		if err := vw.nextVolume(); err != nil {
			return 0, 0, err
		}
	}
	return vw.volume - 1, vw.written, nil
}

// enterFinalVolume marks the open volume as the archive's last. From
// here on rollover is suppressed: the central directory and EOCD belong
// on this volume even if it ends up larger than the split size.
func (vw *volumeWriter) enterFinalVolume() error {
	if err := vw.ensureOpen(); err != nil {
		return err
	}
	vw.final = true
	return nil
}

// finalize closes the last volume and renames it to the .zip path. A
// single-volume archive was opened under that path already, so nothing
// moves. Idempotent.
func (vw *volumeWriter) finalize() ([]string, error) {
	if vw.finalized {
		return vw.volumePaths(), nil
	}

	if vw.file != nil {
		if err := vw.file.Close(); err != nil {
			return nil, fmt.Errorf("%w: close volume %d: %w", ErrVolume, vw.volume, err)
		}
		vw.file = nil
	}

	if vw.volume > 1 {
		if err := os.Rename(vw.partPath(vw.volume), vw.basePath); err != nil {
			return nil, fmt.Errorf("%w: rename final volume: %w", ErrVolume, err)
		}
		vw.paths[len(vw.paths)-1] = vw.basePath
	}

	vw.finalized = true
	vw.closed = true
	return vw.volumePaths(), nil
}

// abort releases the file handle without finalizing. Partial volumes are
// left on disk for the caller to inspect or delete.
func (vw *volumeWriter) abort() error {
	if vw.closed {
		return nil
	}
	vw.closed = true
	if vw.file != nil {
		err := vw.file.Close()
		vw.file = nil
		if err != nil {
			return fmt.Errorf("%w: close volume %d: %w", ErrVolume, vw.volume, err)
		}
	}
	return nil
}

func (vw *volumeWriter) volumePaths() []string {
	out := make([]string, len(vw.paths))
	copy(out, vw.paths)
	return out
}
