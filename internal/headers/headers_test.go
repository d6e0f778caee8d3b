// Copyright 2025 Lemon4ksan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package headers

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileHeader_Encode(t *testing.T) {
	h := LocalFileHeader{
		VersionNeededToExtract: 20,
		GeneralPurposeBitFlag:  0x0808,
		CompressionMethod:      8,
		LastModFileTime:        0x6000,
		LastModFileDate:        0x5821,
		Filename:               "docs/readme.txt",
	}

	buf := h.Encode()

	require.Len(t, buf, LocalFileHeaderFixedSize+len(h.Filename))
	assert.Equal(t, LocalFileHeaderSignature, binary.LittleEndian.Uint32(buf[0:4]))
	assert.Equal(t, uint16(20), binary.LittleEndian.Uint16(buf[4:6]))
	assert.Equal(t, uint16(0x0808), binary.LittleEndian.Uint16(buf[6:8]))
	assert.Equal(t, uint16(len(h.Filename)), binary.LittleEndian.Uint16(buf[26:28]))
	assert.Equal(t, uint16(0), binary.LittleEndian.Uint16(buf[28:30]))
	assert.Equal(t, []byte(h.Filename), buf[30:])

	parsed, err := ReadLocalFileHeader(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, h, parsed)
}

func TestDataDescriptor_Encode(t *testing.T) {
	d := DataDescriptor{
		CRC32:            0xb1d4025b,
		CompressedSize:   10,
		UncompressedSize: 10,
	}

	buf := d.Encode()

	require.Len(t, buf, DataDescriptorSize)
	assert.Equal(t, DataDescriptorSignature, binary.LittleEndian.Uint32(buf[0:4]))
	assert.Equal(t, uint32(0xb1d4025b), binary.LittleEndian.Uint32(buf[4:8]))

	parsed, err := ReadDataDescriptor(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
}

func TestCentralDirectory_Encode(t *testing.T) {
	d := CentralDirectory{
		VersionMadeBy:          20,
		VersionNeededToExtract: 20,
		GeneralPurposeBitFlag:  0x0808,
		CompressionMethod:      8,
		CRC32:                  0xdeadbeef,
		CompressedSize:         1234,
		UncompressedSize:       4321,
		DiskNumberStart:        3,
		ExternalFileAttributes: 0o644 << 16,
		LocalHeaderOffset:      98765,
		Filename:               "big.bin",
	}

	buf := d.Encode()

	require.Len(t, buf, CentralDirectoryFixedSize+len(d.Filename))
	assert.Equal(t, CentralDirectorySignature, binary.LittleEndian.Uint32(buf[0:4]))
	assert.Equal(t, uint16(3), binary.LittleEndian.Uint16(buf[34:36]))
	assert.Equal(t, uint32(98765), binary.LittleEndian.Uint32(buf[42:46]))

	parsed, err := ReadCentralDirEntry(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
}

func TestEndOfCentralDirectory_Encode(t *testing.T) {
	e := EndOfCentralDirectory{
		ThisDiskNum:                     1,
		DiskNumWithTheStartOfCentralDir: 1,
		TotalNumberOfEntriesOnThisDisk:  2,
		TotalNumberOfEntries:            2,
		CentralDirSize:                  104,
		CentralDirOffset:                34517,
	}

	buf := e.Encode()

	require.Len(t, buf, EndOfCentralDirFixedSize)
	assert.Equal(t, EndOfCentralDirSignature, binary.LittleEndian.Uint32(buf[0:4]))
	assert.Equal(t, uint16(0), binary.LittleEndian.Uint16(buf[20:22]))

	parsed, err := ReadEndOfCentralDir(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, e, parsed)
}

func TestRead_BadSignature(t *testing.T) {
	junk := make([]byte, 64)

	_, err := ReadLocalFileHeader(bytes.NewReader(junk))
	assert.Error(t, err)

	_, err = ReadCentralDirEntry(bytes.NewReader(junk))
	assert.Error(t, err)

	_, err = ReadEndOfCentralDir(bytes.NewReader(junk))
	assert.Error(t, err)

	_, err = ReadDataDescriptor(bytes.NewReader(junk))
	assert.Error(t, err)
}
