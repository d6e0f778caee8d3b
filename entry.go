// Copyright 2025 Lemon4ksan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splitzip

import (
	"io/fs"

	"github.com/twwat/splitzip/internal/headers"
)

// General-purpose bit flags carried by every entry. Bit 3 marks the CRC
// and sizes as living in a data descriptor after the body; bit 11 marks
// the name as UTF-8.
const (
	flagDataDescriptor uint16 = 1 << 3
	flagUTF8           uint16 = 1 << 11
)

// versionMadeBy encodes "version 2.0, MS-DOS compatible".
const versionMadeBy uint16 = 20

// DOS external-attribute directory bit.
const msdosDirAttr uint32 = 0x10

// entry tracks one archive member from local header to central-directory
// record.
type entry struct {
	name   string // canonical forward-slash arcname
	isDir  bool
	method CompressionMethod
	flags  uint16

	dosDate uint16
	dosTime uint16

	crc32            uint32
	compressedSize   int64
	uncompressedSize int64

	diskNumberStart   int   // 0-based volume of the local header
	localHeaderOffset int64 // offset of the local header on that volume
	externalAttrs     uint32
}

// externalAttrsFor packs unix permission bits into the high word of the
// external attributes, plus the DOS directory bit for directories.
func externalAttrsFor(mode fs.FileMode, isDir bool) uint32 {
	if isDir {
		return uint32(0o40755)<<16 | msdosDirAttr
	}
	perm := uint32(mode.Perm())
	if perm == 0 {
		perm = 0o644
	}
	return perm << 16
}

// localHeader builds the entry's local file header. For streamed members
// the CRC and size fields are zero placeholders; the real values follow
// in the data descriptor. Directory entries carry their final (all-zero)
// values directly, so they take no descriptor and no bit 3.
func (e *entry) localHeader() headers.LocalFileHeader {
	return headers.LocalFileHeader{
		VersionNeededToExtract: e.method.versionNeeded(),
		GeneralPurposeBitFlag:  e.flags,
		CompressionMethod:      uint16(e.method),
		LastModFileTime:        e.dosTime,
		LastModFileDate:        e.dosDate,
		CRC32:                  0,
		CompressedSize:         0,
		UncompressedSize:       0,
		Filename:               e.name,
	}
}

// dataDescriptor builds the post-body record carrying the final CRC and
// sizes.
func (e *entry) dataDescriptor() headers.DataDescriptor {
	return headers.DataDescriptor{
		CRC32:            e.crc32,
		CompressedSize:   uint32(e.compressedSize),
		UncompressedSize: uint32(e.uncompressedSize),
	}
}

// centralRecord builds the entry's central-directory record, including
// the volume and offset captured when its local header was reserved.
func (e *entry) centralRecord() headers.CentralDirectory {
	return headers.CentralDirectory{
		VersionMadeBy:          versionMadeBy,
		VersionNeededToExtract: e.method.versionNeeded(),
		GeneralPurposeBitFlag:  e.flags,
		CompressionMethod:      uint16(e.method),
		LastModFileTime:        e.dosTime,
		LastModFileDate:        e.dosDate,
		CRC32:                  e.crc32,
		CompressedSize:         uint32(e.compressedSize),
		UncompressedSize:       uint32(e.uncompressedSize),
		DiskNumberStart:        uint16(e.diskNumberStart),
		InternalFileAttributes: 0,
		ExternalFileAttributes: e.externalAttrs,
		LocalHeaderOffset:      uint32(e.localHeaderOffset),
		Filename:               e.name,
	}
}
