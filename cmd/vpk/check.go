package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/finnlevik/go-vpk"
)

func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	adjust := fs.Bool("adjust-dir-md5-offsets", false, "apply header+index offset adjustment to archive-md5 slices in the directory file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: vpk check [flags] PATH")
		os.Exit(2)
	}

	pkg, err := vpk.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer pkg.Close()

	report, err := pkg.Check(vpk.VerifyOptions{AdjustDirArchiveMD5Offsets: *adjust})
	if err != nil {
		return err
	}

	for _, f := range report.CrcFailures {
		fmt.Println(f.Error())
	}
	for _, f := range report.Md5Failures {
		fmt.Println(f.Error())
	}

	if !report.OK() {
		os.Exit(1)
	}
	fmt.Println("OK")
	return nil
}
