// Copyright 2025 Lemon4ksan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	tc "github.com/thijzert/go-termcolours"

	"github.com/twwat/splitzip"
)

const barWidth = 30

func volumeHook(volume int, path string) {
	fmt.Printf("  Created: %s\n", tc.Green(path))
}

func progressHook(name string, done, total int64) {
	if total == splitzip.SizeUnknown || total <= 0 {
		fmt.Printf("\r  %s: %s", filepath.Base(name), splitzip.FormatSize(done, false))
		return
	}

	pct := float64(done) / float64(total) * 100
	filled := int(barWidth * done / total)
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Printf("\r  %s %5.1f%% %s", bar, pct, filepath.Base(name))
	if done >= total {
		fmt.Println()
	}
}
