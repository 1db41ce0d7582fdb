// Package vpk reads, verifies, and writes Valve's VPK package format.
//
// A VPK package is a directory file (conventionally named "<prefix>_dir.vpk")
// that carries a grouped index of every file the package holds, plus zero or
// more sibling archives ("<prefix>_NNN.vpk") holding the raw file bodies.
// Small files may be inlined directly into the directory file instead of
// living in a sibling archive.
//
// Typical usage:
//
//	pkg, err := vpk.Open("hl2_textures_dir.vpk")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pkg.Close()
//
//	for _, e := range pkg.Iter() {
//	    fmt.Println(e.Path())
//	}
//
// Package is safe for concurrent readers as long as each caller holds its
// own instance; sharing a single *Package across goroutines is not
// supported.
package vpk
