// Command vpk inspects, extracts, builds, and verifies VPK packages.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/finnlevik/go-vpk"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [arguments]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  list PATH                             list entries\n")
	fmt.Fprintf(os.Stderr, "  unpack PATH -o OUTDIR [--filter GLOB] extract entries, optionally filtered\n")
	fmt.Fprintf(os.Stderr, "  pack OUTPREFIX INDIR                  build a new package\n")
	fmt.Fprintf(os.Stderr, "  check PATH                            verify CRC/MD5 integrity\n")
	fmt.Fprintf(os.Stderr, "  stats PATH                            summarize package contents\n")
	fmt.Fprintf(os.Stderr, "  diff PATH_A PATH_B                    unified diff of two manifests\n")
	fmt.Fprintf(os.Stderr, "  mount PATH MOUNTPOINT                 mount read-only (not implemented)\n")
}

// exitCode maps the error taxonomy to the documented process exit codes:
// 2 for a malformed or unsupported package structure, 3 for an underlying
// I/O failure, 1 for everything else. A non-empty Check report does not
// pass through here: runCheck exits with 1 itself.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if vpk.IsIOError(err) {
		return 3
	}

	var unsupportedVersion *vpk.UnsupportedVersionError
	var badTerminator *vpk.BadTerminatorError
	var duplicateEntry *vpk.DuplicateEntryError
	var missingArchive *vpk.MissingArchiveError
	switch {
	case errors.As(err, &unsupportedVersion),
		errors.As(err, &badTerminator),
		errors.As(err, &duplicateEntry),
		errors.As(err, &missingArchive),
		errors.Is(err, vpk.ErrTruncatedIndex),
		errors.Is(err, vpk.ErrTruncatedArchive),
		errors.Is(err, vpk.ErrInvalidName),
		errors.Is(err, vpk.ErrNonASCII),
		errors.Is(err, vpk.ErrTooManyArchives):
		return 2
	}
	return 1
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "list":
		err = runList(args)
	case "unpack":
		err = runUnpack(args)
	case "pack":
		err = runPack(args)
	case "check":
		err = runCheck(args)
	case "stats":
		err = runStats(args)
	case "diff":
		err = runDiff(args)
	case "mount":
		fmt.Fprintln(os.Stderr, "vpk: mount: not implemented (no FUSE binding in this build)")
		os.Exit(2)
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "vpk: unknown command %q\n\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "vpk: %s: %v\n", cmd, err)
		os.Exit(exitCode(err))
	}
}
