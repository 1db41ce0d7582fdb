package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/finnlevik/go-vpk"
)

func runPack(args []string) error {
	defaults := vpk.DefaultPackOptions()

	fs := flag.NewFlagSet("pack", flag.ExitOnError)
	archiveSize := fs.Int64("archive-size", defaults.ArchiveSize, "sibling archive size cap in bytes (0 = unlimited)")
	inlineThreshold := fs.Int64("inline-threshold", defaults.InlineThreshold, "max file size inlined into the directory file")
	force := fs.Bool("force", false, "overwrite an existing package")
	strictASCII := fs.Bool("strict-ascii", false, "reject input paths containing non-ASCII bytes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: vpk pack [flags] OUTPREFIX INDIR")
		os.Exit(2)
	}

	opts := vpk.PackOptions{
		ArchiveSize:     *archiveSize,
		InlineThreshold: *inlineThreshold,
		Force:           *force,
		StrictASCII:     *strictASCII,
	}

	pkg, err := vpk.Pack(fs.Arg(0), fs.Arg(1), opts)
	if err != nil {
		return err
	}
	defer pkg.Close()

	log.Printf("wrote %s (%d entries)", pkg.Path, pkg.Tree.Len())
	return nil
}
