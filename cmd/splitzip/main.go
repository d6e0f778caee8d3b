// Copyright 2025 Lemon4ksan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command splitzip creates split ZIP archives from the command line.
//
//	splitzip create -o backup.zip -s 100MB [-level 1-9] [-store] [-verbose] PATH...
//
// Flag defaults can be kept in a ~/.splitziprc file.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/thijzert/go-rcfile"

	"github.com/twwat/splitzip"
)

var Config = struct {
	Create struct {
		Output      string
		SplitSize   string
		Level       int
		Store       bool
		Verbose     bool
		NoRecursive bool
	}
}{}

func init() {
	// Settings pertaining to `splitzip create`
	flag.StringVar(&Config.Create.Output, "o", "", "Output archive path (e.g. backup.zip)")
	flag.StringVar(&Config.Create.SplitSize, "s", "", "Maximum size per volume (e.g. 100MB, 700MiB, 4.7GB)")
	flag.IntVar(&Config.Create.Level, "level", splitzip.DeflateNormal, "Compression level (1-9)")
	flag.BoolVar(&Config.Create.Store, "store", false, "Store members without compression")
	flag.BoolVar(&Config.Create.Verbose, "verbose", false, "Show progress and volume creation")
	flag.BoolVar(&Config.Create.NoRecursive, "no-recursive", false, "Don't add directory contents recursively")

	// Parse config file first, and override with anything on the commandline
	rcfile.Parse()
}

func main() {
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s create -o OUTPUT -s SIZE [options] PATH...\n", filepath.Base(os.Args[0]))
		os.Exit(1)
	}

	if args[0] == "create" {
		os.Exit(createMain(args[1:]))
	}

	fmt.Fprintf(os.Stderr, "Unknown subcommand %s.\n", args[0])
	os.Exit(1)
}

func createMain(args []string) int {
	// Accept flags on either side of the subcommand.
	if err := flag.CommandLine.Parse(args); err != nil {
		return 1
	}
	paths := flag.Args()

	cfg := Config.Create
	if cfg.Output == "" || cfg.SplitSize == "" || len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "create requires -o OUTPUT, -s SIZE and at least one path")
		return 1
	}

	splitSize, err := splitzip.ParseSize(cfg.SplitSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	for _, p := range paths {
		if _, err := os.Lstat(p); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %q does not exist\n", p)
			return 1
		}
	}

	method := splitzip.Deflated
	compression := fmt.Sprintf("DEFLATE level %d", cfg.Level)
	if cfg.Store {
		method = splitzip.Stored
		compression = "STORED"
	}

	fmt.Printf("Creating split archive: %s\n", cfg.Output)
	fmt.Printf("  Split size: %s\n", splitzip.FormatSize(splitSize, false))
	fmt.Printf("  Compression: %s\n\n", compression)

	opts := []splitzip.Option{splitzip.WithCompression(method, cfg.Level)}
	if cfg.Verbose {
		opts = append(opts, splitzip.WithVolumeHook(volumeHook), splitzip.WithProgressHook(progressHook))
	}

	w, err := splitzip.NewWriter(cfg.Output, splitSize, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	var addOpts []splitzip.AddOption
	if cfg.NoRecursive {
		addOpts = append(addOpts, splitzip.NonRecursive())
	}

	for _, p := range paths {
		if cfg.Verbose {
			fmt.Printf("Adding: %s\n", p)
		}
		if err := w.AddFile(p, addOpts...); err != nil {
			w.Abort()
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	volumes, err := w.Close()
	if err != nil {
		w.Abort()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Printf("\nCreated %d volume(s):\n", len(volumes))
	for _, v := range volumes {
		size := int64(0)
		if st, err := os.Stat(v); err == nil {
			size = st.Size()
		}
		fmt.Printf("  %s: %s\n", filepath.Base(v), splitzip.FormatSize(size, false))
	}

	return 0
}
