package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/finnlevik/go-vpk"
)

func runUnpack(args []string) error {
	fs := flag.NewFlagSet("unpack", flag.ExitOnError)
	verbose := fs.Bool("v", false, "print each extracted path")
	outDir := fs.String("o", "", "output directory")
	filter := fs.String("filter", "", "only extract entries whose path matches this glob")
	force := fs.Bool("force", false, "overwrite existing files instead of failing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var pkgPath string
	switch {
	case fs.NArg() == 2 && *outDir == "":
		// Positional OUTDIR form, kept for convenience alongside -o.
		pkgPath, *outDir = fs.Arg(0), fs.Arg(1)
	case fs.NArg() == 1 && *outDir != "":
		pkgPath = fs.Arg(0)
	default:
		fmt.Fprintln(os.Stderr, "usage: vpk unpack [-v] [--force] [--filter GLOB] PATH -o OUTDIR")
		os.Exit(2)
		return nil
	}

	pkg, err := vpk.Open(pkgPath)
	if err != nil {
		return err
	}
	defer pkg.Close()

	for _, e := range pkg.Iter() {
		if *filter != "" {
			matched, err := filepath.Match(*filter, e.Path())
			if err != nil {
				return err
			}
			if !matched {
				continue
			}
		}

		dest := filepath.Join(*outDir, filepath.FromSlash(e.Path()))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}

		flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
		if *force {
			flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		}
		f, err := os.OpenFile(dest, flags, 0o644)
		if err != nil {
			return err
		}
		err = pkg.Extract(e, f)
		closeErr := f.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			return closeErr
		}

		if *verbose {
			log.Printf("extracted %s (%d bytes)", e.Path(), e.TotalSize())
		}
	}
	return nil
}
