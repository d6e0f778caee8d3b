// Copyright 2025 Lemon4ksan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splitzip

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVolumeWriter(t *testing.T, splitSize int64) (*volumeWriter, string) {
	t.Helper()
	base := filepath.Join(t.TempDir(), "out.zip")
	vw, err := newVolumeWriter(base, splitSize)
	require.NoError(t, err)
	return vw, base
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	st, err := os.Stat(path)
	require.NoError(t, err)
	return st.Size()
}

func TestNewVolumeWriter_RejectsTinySplitSize(t *testing.T) {
	_, err := newVolumeWriter(filepath.Join(t.TempDir(), "out.zip"), MinVolumeSize-1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVolumeTooSmall)
}

func TestVolumeWriter_SingleVolume(t *testing.T) {
	vw, base := newTestVolumeWriter(t, MinVolumeSize)

	_, err := vw.Write([]byte("payload"))
	require.NoError(t, err)

	paths, err := vw.finalize()
	require.NoError(t, err)

	// Volume 1 lives under the final name the whole time; no .z01 appears.
	require.Equal(t, []string{base}, paths)
	assert.NoFileExists(t, vw.partPath(1))
	assert.Equal(t, int64(7), fileSize(t, base))
}

func TestVolumeWriter_SplittableRollover(t *testing.T) {
	vw, base := newTestVolumeWriter(t, MinVolumeSize)

	var volumes []int
	vw.onVolume = func(volume int, path string) {
		volumes = append(volumes, volume)
	}

	payload := bytes.Repeat([]byte{0xAB}, MinVolumeSize+1000)
	n, err := vw.Write(payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)

	paths, err := vw.finalize()
	require.NoError(t, err)

	require.Len(t, paths, 2)
	z01 := vw.partPath(1)
	assert.Equal(t, []string{z01, base}, paths)
	assert.Equal(t, []int{1, 2}, volumes)

	assert.Equal(t, int64(MinVolumeSize), fileSize(t, z01))
	assert.Equal(t, int64(1000), fileSize(t, base))
	assert.NoFileExists(t, vw.partPath(2))
}

func TestVolumeWriter_AtomicRollsOverBeforeWriting(t *testing.T) {
	vw, _ := newTestVolumeWriter(t, MinVolumeSize)

	_, err := vw.Write(bytes.Repeat([]byte{1}, MinVolumeSize-10))
	require.NoError(t, err)

	// 20 bytes do not fit in the 10 remaining: the record must land at
	// the start of volume 2 in one piece.
	record := bytes.Repeat([]byte{2}, 20)
	require.NoError(t, vw.writeAtomic(record))

	assert.Equal(t, 2, vw.volume)
	assert.Equal(t, int64(20), vw.written)

	// Volume 1 was left short of the cap.
	assert.Equal(t, int64(MinVolumeSize-10), fileSize(t, vw.partPath(1)))
}

func TestVolumeWriter_AtomicFillsToExactBoundary(t *testing.T) {
	vw, _ := newTestVolumeWriter(t, MinVolumeSize)

	_, err := vw.Write(bytes.Repeat([]byte{1}, MinVolumeSize-10))
	require.NoError(t, err)

	// Exactly the remaining space: no rollover.
	require.NoError(t, vw.writeAtomic(bytes.Repeat([]byte{2}, 10)))
	assert.Equal(t, 1, vw.volume)
	assert.Equal(t, int64(MinVolumeSize), vw.written)
}

func TestVolumeWriter_AtomicLargerThanSplitSize(t *testing.T) {
	vw, _ := newTestVolumeWriter(t, MinVolumeSize)

	err := vw.writeAtomic(make([]byte, MinVolumeSize+1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVolumeTooSmall)

	// Nothing was opened or written.
	assert.Equal(t, 0, vw.volume)
	assert.Empty(t, vw.paths)
}

func TestVolumeWriter_ReserveAtomic(t *testing.T) {
	vw, _ := newTestVolumeWriter(t, MinVolumeSize)

	disk, offset, err := vw.reserveAtomic(30)
	require.NoError(t, err)
	assert.Equal(t, 0, disk)
	assert.Equal(t, int64(0), offset)

	_, err = vw.Write(bytes.Repeat([]byte{1}, MinVolumeSize-15))
	require.NoError(t, err)

	disk, offset, err = vw.reserveAtomic(30)
	require.NoError(t, err)
	assert.Equal(t, 1, disk)
	assert.Equal(t, int64(0), offset)

	// The reservation already rolled over; the write lands where promised.
	require.NoError(t, vw.writeAtomic(make([]byte, 30)))
	assert.Equal(t, 2, vw.volume)
	assert.Equal(t, int64(30), vw.written)
}

func TestVolumeWriter_FinalVolumeMayExceedCap(t *testing.T) {
	vw, base := newTestVolumeWriter(t, MinVolumeSize)

	_, err := vw.Write(bytes.Repeat([]byte{1}, MinVolumeSize-100))
	require.NoError(t, err)
	require.NoError(t, vw.enterFinalVolume())

	// Rollover is suppressed now; the final volume grows past the cap.
	_, err = vw.Write(bytes.Repeat([]byte{2}, 500))
	require.NoError(t, err)
	assert.Equal(t, 1, vw.volume)

	paths, err := vw.finalize()
	require.NoError(t, err)
	require.Equal(t, []string{base}, paths)
	assert.Equal(t, int64(MinVolumeSize+400), fileSize(t, base))
}

func TestVolumeWriter_FinalizeIdempotent(t *testing.T) {
	vw, _ := newTestVolumeWriter(t, MinVolumeSize)

	_, err := vw.Write(bytes.Repeat([]byte{1}, MinVolumeSize+5))
	require.NoError(t, err)

	first, err := vw.finalize()
	require.NoError(t, err)
	second, err := vw.finalize()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestVolumeWriter_AbortLeavesPartialVolumes(t *testing.T) {
	vw, base := newTestVolumeWriter(t, MinVolumeSize)

	_, err := vw.Write(bytes.Repeat([]byte{1}, MinVolumeSize+5))
	require.NoError(t, err)

	require.NoError(t, vw.abort())

	// No rename happened: the in-progress volume keeps its .z02 name.
	assert.FileExists(t, vw.partPath(1))
	assert.FileExists(t, vw.partPath(2))
	assert.NoFileExists(t, base)

	_, err = vw.Write([]byte("more"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestVolumeWriter_WarnsPast99Volumes(t *testing.T) {
	vw, _ := newTestVolumeWriter(t, MinVolumeSize)

	var warnings []string
	vw.warn = func(msg string) { warnings = append(warnings, msg) }

	// Skip ahead: pretend 99 volumes are already full.
	require.NoError(t, vw.ensureOpen())
	vw.volume = 99
	vw.paths = append(vw.paths, "fake")

	require.NoError(t, vw.nextVolume())

	assert.Equal(t, 100, vw.volume)
	assert.Contains(t, vw.paths[len(vw.paths)-1], ".z100")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "99")
}
