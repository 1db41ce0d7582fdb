package vpk

// Format constants for the VPK directory-file grammar.
//
// These mirror the Rust original's constant table. The reader and writer
// rely on these exact values; do not change them unless the on-disk format
// itself changes.
const (
	// magicLE is the little-endian u32 that opens a v1 or v2 directory file.
	// Its on-disk byte sequence is 34 12 AA 55.
	magicLE uint32 = 0x55AA1234

	// dirIndex is the sentinel archive_index meaning "the directory file
	// itself holds this entry's body."
	dirIndex uint16 = 0x7FFF

	// maxArchiveIndex is the largest archive_index a writer may assign to a
	// sibling archive before TooManyArchives triggers.
	maxArchiveIndex uint16 = 0x7FFE

	// terminator is the mandatory sentinel that follows every entry's size
	// field. Any other value is a format violation.
	terminator uint16 = 0xFFFF

	// rootDir is the on-disk spelling of "root directory" (a single space),
	// used because the empty AsciiZ string doubles as a group terminator.
	rootDir = " "

	v1HeaderSize = 4 * 3       // magic + version + index_size
	v2HeaderSize = 4*3 + 4*4   // v1 header + data/archive_md5/other_md5/signature sizes

	archiveMD5RecordSize = 4*3 + 16 // archive_index, offset, size, digest

	// defaultArchiveSize is the writer's default per-archive size budget
	// (200 MiB), matching the Rust original's convention.
	defaultArchiveSize int64 = 200 * 1024 * 1024

	// defaultMaxInlineSize is the writer's default inline threshold.
	defaultMaxInlineSize uint16 = 8 * 1024

	// defaultMD5ChunkSize is the original tool's slice width for v2
	// archive-md5 records. The writer here emits only v1 packages, so
	// nothing in this package uses it; it is kept for parity with the
	// original tool's constant table.
	defaultMD5ChunkSize uint32 = 1024 * 1024
)

// Version identifies the on-disk directory-file format.
type Version uint32

const (
	// Version0 has no header: the index begins at offset 0 and its length
	// must be inferred by draining the grammar.
	Version0 Version = 0
	// Version1 has a 12-byte header (magic, version, index_size).
	Version1 Version = 1
	// Version2 additionally carries data_size, archive_md5_size,
	// other_md5_size, and signature_size, plus the trailing sections those
	// sizes describe.
	Version2 Version = 2
)

// headerSize returns the byte length of the fixed header for v, or 0 for
// Version0 (which has no header at all).
func (v Version) headerSize() int {
	switch v {
	case Version1:
		return v1HeaderSize
	case Version2:
		return v2HeaderSize
	default:
		return 0
	}
}
