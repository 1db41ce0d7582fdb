package vpk

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/exp/mmap"
)

// Md5Digest is a raw 16-byte MD5 sum.
type Md5Digest [16]byte

// ArchiveMd5Entry is one slice checksum from a v2 package's archive-md5
// table. Slices do not need to cover a whole archive and may overlap or be
// unordered; the format does not constrain this.
type ArchiveMd5Entry struct {
	ArchiveIndex uint16
	Offset       uint32
	Size         uint32
	Digest       Md5Digest
}

// OtherMd5s carries the three fixed v2 digests: over the raw index section,
// over the raw archive-md5 section, and over every byte of the directory
// file up to (but not including) this section itself.
type OtherMd5s struct {
	IndexMD5        Md5Digest
	ArchiveMd5sMD5  Md5Digest
	EverythingMD5   Md5Digest
}

// SignatureBlob is the opaque, length-prefixed public-key/signature pair
// that closes a v2 directory file. The codec round-trips it verbatim;
// verification is an explicit non-goal.
type SignatureBlob struct {
	PublicKey []byte
	Signature []byte
}

// Package is the root, in-memory representation of an opened VPK. It is
// immutable after Open returns, except when it is the product of the
// writer building a brand-new package.
type Package struct {
	Version Version
	Path    string // absolute path to the "_dir.vpk" file

	Tree *IndexTree

	// dataSize is the length of the embedded data section inside the
	// directory file: the region between the end of the index and the
	// start of the v2 trailers, as recorded in the v2 header. It stays
	// zero for v1 and v0, whose headers carry no data_size; entries with
	// ArchiveIndex == dirIndex in those versions still resolve into the
	// bytes after the index (see resolve).
	dataSize int64

	// headerSize + indexSize locate the embedded data region; entries with
	// ArchiveIndex == dirIndex resolve their Offset relative to
	// headerSize+indexSize.
	headerSize int64
	indexSize  int64

	// archiveMd5Size is the on-disk archive_md5_size from the v2 header,
	// kept separately from len(ArchiveMd5s)*archiveMD5RecordSize because a
	// producer may pad the section or include out-of-range archive
	// indices that readArchiveMd5Section skips when building ArchiveMd5s.
	archiveMd5Size int64

	ArchiveMd5s []ArchiveMd5Entry
	OtherMd5s   OtherMd5s
	Signature   SignatureBlob

	dirFile *mmap.ReaderAt
	prefix  string // "<prefix>" from "<prefix>_dir.vpk"
	dirname string // directory containing the package files

	archives *archiveCache
}

// dirFileSuffix is the mandatory filename suffix of a VPK directory file.
const dirFileSuffix = "_dir.vpk"

// Open opens the directory file at path, parses its header and index, and
// — for Version2 — its archive-md5 table, OtherMd5s, and signature blob.
// It does not open any sibling archive until an Extract or integrity check
// requires one.
func Open(path string) (*Package, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(absPath)
	if !strings.HasSuffix(base, dirFileSuffix) {
		return nil, fmt.Errorf("vpk: filename does not end in %q: %s", dirFileSuffix, base)
	}
	prefix := strings.TrimSuffix(base, dirFileSuffix)
	dirname := filepath.Dir(absPath)

	ra, err := mmap.Open(absPath)
	if err != nil {
		return nil, wrapIO(absPath, err)
	}

	pkg, err := parsePackage(ra, absPath, prefix, dirname)
	if err != nil {
		_ = ra.Close()
		return nil, err
	}
	return pkg, nil
}

func parsePackage(ra *mmap.ReaderAt, absPath, prefix, dirname string) (*Package, error) {
	sr := io.NewSectionReader(ra, 0, int64(ra.Len()))
	r := newReader(sr)

	hdr, present, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	var version Version
	var headerSize int64
	if present {
		version = hdr.version
		headerSize = int64(version.headerSize())
	} else {
		version = Version0
		headerSize = 0
	}

	tree, err := buildIndexTree(r)
	if err != nil {
		return nil, err
	}

	var indexSize int64
	if present {
		indexSize = int64(hdr.indexSize)
	} else {
		// Version0: index_size is whatever the grammar actually consumed.
		indexSize = r.Pos()
	}

	pkg := &Package{
		Version:    version,
		Path:       absPath,
		Tree:       tree,
		headerSize: headerSize,
		indexSize:  indexSize,
		dirFile:    ra,
		prefix:     prefix,
		dirname:    dirname,
	}
	pkg.archives = newArchiveCache(pkg)

	if version != Version2 {
		return pkg, nil
	}

	pkg.dataSize = int64(hdr.dataSize)
	pkg.archiveMd5Size = int64(hdr.archiveMD5Size)

	// Skip over the embedded data region (writers built by this package
	// never populate it, but third-party v2 packages may).
	if _, err := io.CopyN(io.Discard, r.br, pkg.dataSize); err != nil {
		return nil, eofToTruncated(err)
	}
	r.pos += pkg.dataSize

	if err := readArchiveMd5Section(r, hdr.archiveMD5Size, pkg); err != nil {
		return nil, err
	}
	if err := readOtherMd5Section(r, hdr.otherMD5Size, pkg); err != nil {
		return nil, err
	}
	if err := readSignatureSection(r, hdr.signatureSize, pkg); err != nil {
		return nil, err
	}

	return pkg, nil
}

func readArchiveMd5Section(r *reader, size uint32, pkg *Package) error {
	remaining := int64(size)
	for remaining >= archiveMD5RecordSize {
		archiveIndex, err := r.ReadU32()
		if err != nil {
			return err
		}
		offset, err := r.ReadU32()
		if err != nil {
			return err
		}
		sz, err := r.ReadU32()
		if err != nil {
			return err
		}
		var digest Md5Digest
		if err := r.readFull(digest[:]); err != nil {
			return eofToTruncated(err)
		}
		remaining -= archiveMD5RecordSize

		if archiveIndex > 0xFFFF {
			continue // out of range for a u16 archive_index, skip like the reference tool
		}
		pkg.ArchiveMd5s = append(pkg.ArchiveMd5s, ArchiveMd5Entry{
			ArchiveIndex: uint16(archiveIndex),
			Offset:       offset,
			Size:         sz,
			Digest:       digest,
		})
	}
	if remaining > 0 {
		if _, err := io.CopyN(io.Discard, r.br, remaining); err != nil {
			return eofToTruncated(err)
		}
		r.pos += remaining
	}
	return nil
}

func readOtherMd5Section(r *reader, size uint32, pkg *Package) error {
	remaining := int64(size)
	fields := []*Md5Digest{&pkg.OtherMd5s.IndexMD5, &pkg.OtherMd5s.ArchiveMd5sMD5, &pkg.OtherMd5s.EverythingMD5}
	for _, f := range fields {
		if remaining < 16 {
			break
		}
		if err := r.readFull(f[:]); err != nil {
			return eofToTruncated(err)
		}
		remaining -= 16
	}
	if remaining > 0 {
		if _, err := io.CopyN(io.Discard, r.br, remaining); err != nil {
			return eofToTruncated(err)
		}
		r.pos += remaining
	}
	return nil
}

func readSignatureSection(r *reader, size uint32, pkg *Package) error {
	remaining := int64(size)
	if remaining >= 4 {
		n, err := r.ReadU32()
		if err != nil {
			return err
		}
		remaining -= 4
		buf, err := readN(r, int64(n))
		if err != nil {
			return err
		}
		remaining -= int64(n)
		pkg.Signature.PublicKey = buf

		if remaining >= 4 {
			n, err := r.ReadU32()
			if err != nil {
				return err
			}
			remaining -= 4
			buf, err := readN(r, int64(n))
			if err != nil {
				return err
			}
			remaining -= int64(n)
			pkg.Signature.Signature = buf
		}
	}
	if remaining > 0 {
		if _, err := io.CopyN(io.Discard, r.br, remaining); err != nil {
			return eofToTruncated(err)
		}
		r.pos += remaining
	}
	return nil
}

func readN(r *reader, n int64) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if err := r.readFull(buf); err != nil {
		return nil, eofToTruncated(err)
	}
	return buf, nil
}

// Iter returns every entry in the package in on-disk order.
func (p *Package) Iter() []*Entry { return p.Tree.Entries() }

// Lookup resolves a "dir/name.ext" style path to its entry.
func (p *Package) Lookup(path string) (*Entry, bool) { return p.Tree.Lookup(path) }

// Close releases the directory file's memory mapping and every cached
// sibling-archive handle.
func (p *Package) Close() error {
	var firstErr error
	if p.archives != nil {
		if err := p.archives.closeAll(); err != nil {
			firstErr = err
		}
	}
	if err := p.dirFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// archivePath returns the path of the sibling archive <prefix>_NNN.vpk for
// the given index.
func (p *Package) archivePath(index uint16) string {
	return filepath.Join(p.dirname, fmt.Sprintf("%s_%03d.vpk", p.prefix, index))
}

