package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/finnlevik/go-vpk"
)

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: vpk stats PATH")
		os.Exit(2)
	}

	pkg, err := vpk.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer pkg.Close()

	s := vpk.Stats(pkg)

	fmt.Printf("version:        %d\n", s.Version)
	fmt.Printf("entries:        %d\n", s.TotalEntries)
	fmt.Printf("inline bytes:   %d\n", s.TotalInlineBytes)
	fmt.Printf("archives used:  %d\n", len(s.ArchiveIndices))
	fmt.Printf("archive-md5s:   %t\n", s.HasArchiveMd5s)
	fmt.Printf("other-md5s:     %t\n", s.HasOtherMd5s)
	fmt.Printf("signature:      %t\n", s.HasSignature)

	exts := make([]string, 0, len(s.ByExt))
	for ext := range s.ByExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	fmt.Println("\nby extension:")
	for _, ext := range exts {
		es := s.ByExt[ext]
		label := ext
		if label == "" {
			label = "(none)"
		}
		fmt.Printf("  %-12s %6d files  %10d bytes\n", label, es.Count, es.TotalBytes)
	}
	return nil
}
