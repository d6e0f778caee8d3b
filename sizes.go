// Copyright 2025 Lemon4ksan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splitzip

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// sizeMultipliers maps lower-cased unit suffixes to byte multipliers.
// Decimal (SI) units use powers of 1000, binary (IEC) units powers of 1024.
var sizeMultipliers = map[string]int64{
	"":      1,
	"b":     1,
	"byte":  1,
	"bytes": 1,
	"kb":    1000,
	"mb":    1000 * 1000,
	"gb":    1000 * 1000 * 1000,
	"tb":    1000 * 1000 * 1000 * 1000,
	"kib":   1 << 10,
	"mib":   1 << 20,
	"gib":   1 << 30,
	"tib":   1 << 40,
}

// ParseSize parses a human-readable size specification into a byte count.
//
// Accepted forms are a bare number ("104857600") or a number followed by
// a unit ("100MB", "700MiB", "4.7GB"). The numeric portion may carry
// decimals; unit letters are matched case-insensitively. Returns
// ErrConfig for anything else.
func ParseSize(s string) (int64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty size", ErrConfig)
	}

	split := len(trimmed)
	for i, r := range trimmed {
		if (r < '0' || r > '9') && r != '.' {
			split = i
			break
		}
	}

	numPart := trimmed[:split]
	unitPart := strings.TrimSpace(trimmed[split:])

	value, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid size %q", ErrConfig, s)
	}
	if value < 0 || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, fmt.Errorf("%w: invalid size %q", ErrConfig, s)
	}

	mult, ok := sizeMultipliers[strings.ToLower(unitPart)]
	if !ok {
		return 0, fmt.Errorf("%w: unknown size unit %q", ErrConfig, unitPart)
	}

	bytes := value * float64(mult)
	if bytes > math.MaxInt64 {
		return 0, fmt.Errorf("%w: size %q overflows", ErrConfig, s)
	}

	return int64(bytes), nil
}

// FormatSize renders a byte count as a human-readable string, using
// decimal units by default and binary (KiB, MiB, ...) units when binary
// is true.
func FormatSize(n int64, binary bool) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	divisor := 1000.0
	if binary {
		units = []string{"B", "KiB", "MiB", "GiB", "TiB"}
		divisor = 1024.0
	}

	value := float64(n)
	for _, unit := range units[:len(units)-1] {
		if math.Abs(value) < divisor {
			if value == math.Trunc(value) {
				return fmt.Sprintf("%d %s", int64(value), unit)
			}
			return fmt.Sprintf("%.2f %s", value, unit)
		}
		value /= divisor
	}

	return fmt.Sprintf("%.2f %s", value, units[len(units)-1])
}
