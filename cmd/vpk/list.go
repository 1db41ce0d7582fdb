package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/finnlevik/go-vpk"
)

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	long := fs.Bool("l", false, "show crc, archive index, offset, and size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: vpk list [-l] PATH")
		os.Exit(2)
	}

	pkg, err := vpk.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer pkg.Close()

	for _, e := range pkg.Iter() {
		if *long {
			fmt.Printf("%08x  %5d  %7d  %10d  %s\n", e.CRC32, e.ArchiveIndex, e.Offset, e.TotalSize(), e.Path())
		} else {
			fmt.Println(e.Path())
		}
	}
	return nil
}
