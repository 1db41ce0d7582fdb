package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/finnlevik/go-vpk"
)

// runDiff prints a unified diff between the sorted "path crc32 size" manifest
// lines of two packages.
func runDiff(args []string) error {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: vpk diff PATH_A PATH_B")
		os.Exit(2)
	}

	a, err := manifest(fs.Arg(0))
	if err != nil {
		return err
	}
	b, err := manifest(fs.Arg(1))
	if err != nil {
		return err
	}

	edits := myers.ComputeEdits(span.URIFromPath(fs.Arg(0)), a, b)
	u := gotextdiff.ToUnified(fs.Arg(0), fs.Arg(1), a, edits)
	fmt.Print(u)
	return nil
}

func manifest(path string) (string, error) {
	pkg, err := vpk.Open(path)
	if err != nil {
		return "", err
	}
	defer pkg.Close()

	entries := pkg.Iter()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = fmt.Sprintf("%s %08x %d", e.Path(), e.CRC32, e.TotalSize())
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n") + "\n", nil
}
