// Copyright 2025 Lemon4ksan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splitzip

import "errors"

var (
	// ErrConfig is returned for invalid configuration: unparsable size
	// strings, unsupported compression methods, or out-of-range levels.
	ErrConfig = errors.New("splitzip: invalid configuration")

	// ErrVolume is returned when writing, opening, or renaming a volume
	// file fails. The underlying OS error remains in the chain.
	ErrVolume = errors.New("splitzip: volume error")

	// ErrVolumeTooSmall is returned when the split size is below
	// MinVolumeSize, or a record that must not span volumes is larger
	// than the split size itself.
	ErrVolumeTooSmall = errors.New("splitzip: split size too small")

	// ErrUnsafePath is returned when a member name is empty after
	// normalization, escapes the archive root, or exceeds 65535 bytes.
	ErrUnsafePath = errors.New("splitzip: unsafe member path")

	// ErrCompression is returned when the DEFLATE codec fails.
	ErrCompression = errors.New("splitzip: compression error")

	// ErrIntegrity is returned when streamed data does not match a
	// caller-declared CRC32 or size.
	ErrIntegrity = errors.New("splitzip: integrity check failed")

	// ErrOverflow is returned when a ZIP32 limit is breached: an entry
	// reaching 4 GiB, or a 65536th member.
	ErrOverflow = errors.New("splitzip: zip32 limit exceeded")

	// ErrClosed is returned when adding to a writer that has been
	// closed or aborted.
	ErrClosed = errors.New("splitzip: writer is closed")
)
