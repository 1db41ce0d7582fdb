package vpk

// Entry describes one file inside a VPK package.
//
// The full content of the file the entry describes is the concatenation of
// Preload followed by Size bytes read at Offset in the archive named by
// ArchiveIndex. When ArchiveIndex equals dirIndex (0x7FFF), Offset is
// relative to the start of the embedded data region of the directory file
// rather than to a sibling archive.
type Entry struct {
	// Ext is the file extension, without a leading dot, exactly as stored;
	// neither the reader nor the writer changes its case. The empty string
	// means "no extension."
	Ext string

	// Dir is the forward-slash separated directory path. The empty string
	// means the file lives at the root of the package; it is never
	// leading- or trailing-slashed.
	Dir string

	// Name is the base filename, without the extension. It may itself
	// contain dots but is never empty.
	Name string

	// CRC32 is the checksum recorded in the entry, as stored on disk.
	CRC32 uint32

	// Preload holds the inline prefix bytes verbatim (0-65535 bytes).
	Preload []byte

	// ArchiveIndex selects the archive the body lives in: 0..0x7FFE for a
	// sibling "_NNN.vpk", or dirIndex (0x7FFF) for the directory file
	// itself.
	ArchiveIndex uint16

	// Offset is the byte offset of the body within the selected archive.
	Offset uint32

	// Size is the length of the body in bytes. Zero means the file is
	// represented entirely by Preload.
	Size uint32
}

// Path reconstructs the entry's logical path as "dir/name.ext", collapsing
// the separators that an empty Dir or Ext would otherwise leave dangling.
func (e *Entry) Path() string {
	switch {
	case e.Dir != "" && e.Ext != "":
		return e.Dir + "/" + e.Name + "." + e.Ext
	case e.Dir != "":
		return e.Dir + "/" + e.Name
	case e.Ext != "":
		return e.Name + "." + e.Ext
	default:
		return e.Name
	}
}

// TotalSize returns the full decoded length of the file: len(Preload) +
// Size.
func (e *Entry) TotalSize() int64 {
	return int64(len(e.Preload)) + int64(e.Size)
}

// InDirectoryFile reports whether the entry's body lives inside the
// directory file rather than a sibling archive.
func (e *Entry) InDirectoryFile() bool { return e.ArchiveIndex == dirIndex }
