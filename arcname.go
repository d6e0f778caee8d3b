// Copyright 2025 Lemon4ksan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splitzip

import (
	"fmt"
	"math"
	"strings"
)

// sanitizeArcname normalizes a raw member name into a canonical archive
// path and rejects names that could escape an extraction root (zip slip).
//
// Backslashes become forward slashes, drive letters and leading slashes
// are stripped, empty and "." segments are dropped, and any ".." segment
// is rejected outright. A trailing slash on the input is preserved to
// mark a directory entry.
func sanitizeArcname(raw string) (string, error) {
	if strings.ContainsRune(raw, 0) {
		return "", fmt.Errorf("%w: %q contains NUL", ErrUnsafePath, raw)
	}

	name := strings.ReplaceAll(raw, "\\", "/")

	// Drive letter prefix, e.g. "C:".
	if len(name) >= 2 && name[1] == ':' {
		name = name[2:]
	}

	isDir := strings.HasSuffix(name, "/")

	segments := strings.Split(name, "/")
	kept := segments[:0]
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			return "", fmt.Errorf("%w: %q traverses parent directories", ErrUnsafePath, raw)
		}
		kept = append(kept, seg)
	}

	name = strings.Join(kept, "/")
	if name == "" {
		return "", fmt.Errorf("%w: empty member name %q", ErrUnsafePath, raw)
	}
	if isDir {
		name += "/"
	}

	if len(name) > math.MaxUint16 {
		return "", fmt.Errorf("%w: member name is %d bytes, max %d", ErrUnsafePath, len(name), math.MaxUint16)
	}

	return name, nil
}
