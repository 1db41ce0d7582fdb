package vpk

import (
	"fmt"
	"hash/crc32"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PackOptions configures the writer.
type PackOptions struct {
	// ArchiveSize caps how many body bytes a single sibling archive may
	// hold before the writer rolls over to the next archive index. Zero
	// means unlimited: every non-inlined file goes into one archive,
	// "<prefix>_000.vpk".
	ArchiveSize int64

	// InlineThreshold is the largest file size, in bytes, eligible to be
	// stored entirely inside the directory file's index instead of a
	// sibling archive. Files at or below this size never touch an
	// archive. Must fit in a uint16 (65535); larger values are clamped.
	InlineThreshold int64

	// Force allows overwriting an existing directory file and its
	// sibling archives instead of failing with create-new semantics.
	Force bool

	// StrictASCII rejects any input path whose extension, directory, or
	// base name contains a byte outside printable ASCII (0x20-0x7E),
	// returning ErrNonASCII instead of silently encoding the raw bytes.
	StrictASCII bool
}

// DefaultPackOptions returns the writer's default size budget: a 200 MiB
// archive cap and an 8 KiB inline threshold.
func DefaultPackOptions() PackOptions {
	return PackOptions{
		ArchiveSize:     defaultArchiveSize,
		InlineThreshold: int64(defaultMaxInlineSize),
	}
}

// planItem is one file discovered under the input root, with enough state
// to carry it from the filesystem walk through CRC computation, storage
// assignment, and final emission.
type planItem struct {
	ext, dir, name string
	hostPath       string
	size           int64
	crc            uint32

	inline       []byte
	archiveIndex uint16
	offset       uint32
	bodySize     uint32
}

// Pack builds a brand-new v1 package at "<outPrefix>_dir.vpk" (plus any
// "<outPrefix>_NNN.vpk" sibling archives it needs) from every regular file
// found under inDir, and returns the freshly written Package opened for
// reading.
//
// Output is atomic: on any error, every file this call created is removed
// before it returns.
func Pack(outPrefix, inDir string, opts PackOptions) (*Package, error) {
	dirname := filepath.Dir(outPrefix)
	prefix := filepath.Base(outPrefix)
	dirPath := filepath.Join(dirname, prefix+dirFileSuffix)

	items, err := planFiles(inDir, opts.StrictASCII)
	if err != nil {
		return nil, err
	}

	threshold := opts.InlineThreshold
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 0xFFFF {
		threshold = 0xFFFF
	}

	if err := computeCRCsAndInline(items, threshold); err != nil {
		return nil, err
	}

	tree := NewIndexTree()
	for _, it := range items {
		if err := tree.Insert(planItemToEntry(it)); err != nil {
			return nil, err
		}
	}

	indexBuf := &sliceWriter{}
	iw := newWriter(indexBuf)
	if err := writeIndexTree(iw, tree); err != nil {
		return nil, err
	}
	if err := iw.Flush(); err != nil {
		return nil, err
	}
	indexSize := int64(len(indexBuf.buf))

	if err := assignStorage(items, opts.ArchiveSize); err != nil {
		return nil, err
	}

	// Storage assignment can change archive_index/offset on entries whose
	// bodies don't fit inline; build a fresh tree from the updated items so
	// the serialized index reflects the final placement.
	tree = NewIndexTree()
	for _, it := range items {
		if err := tree.Insert(planItemToEntry(it)); err != nil {
			return nil, err
		}
	}

	created, err := writePackageFiles(dirPath, dirname, prefix, items, tree, indexSize, opts.Force)
	if err != nil {
		for _, p := range created {
			_ = os.Remove(p)
		}
		return nil, err
	}

	return Open(dirPath)
}

// planFiles walks inDir and derives (ext, dir, name) for every regular file
// it finds: the extension is whatever follows the last dot in the base
// name (empty allowed), and host path separators become "/". When strict
// is set, any component containing a byte outside printable ASCII fails
// the walk with ErrNonASCII.
func planFiles(inDir string, strict bool) ([]*planItem, error) {
	var items []*planItem
	err := filepath.WalkDir(inDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(inDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		dir, base := "", rel
		if i := strings.LastIndexByte(rel, '/'); i >= 0 {
			dir, base = rel[:i], rel[i+1:]
		}
		if base == "" {
			return fmt.Errorf("%w: empty filename at %q", ErrInvalidName, path)
		}

		ext, name := "", base
		if i := strings.LastIndexByte(base, '.'); i > 0 {
			ext, name = base[i+1:], base[:i]
		}

		if strict {
			if !isPrintableASCII(ext) || !isPrintableASCII(dir) || !isPrintableASCII(name) {
				return fmt.Errorf("%w: %q", ErrNonASCII, path)
			}
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		items = append(items, &planItem{
			ext: ext, dir: dir, name: name,
			hostPath: path,
			size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.ext != b.ext {
			return a.ext < b.ext
		}
		if a.dir != b.dir {
			return a.dir < b.dir
		}
		return a.name < b.name
	})
	return items, nil
}

// isPrintableASCII reports whether every byte in s is in the printable
// ASCII range 0x20-0x7E.
func isPrintableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7E {
			return false
		}
	}
	return true
}

// computeCRCsAndInline streams every file once, computing its CRC32 and, for
// files at or below threshold, capturing the whole body as inline data.
func computeCRCsAndInline(items []*planItem, threshold int64) error {
	buf := getCopyBuf()
	defer putCopyBuf(buf)

	for _, it := range items {
		f, err := os.Open(it.hostPath)
		if err != nil {
			return wrapIO(it.hostPath, err)
		}

		h := crc32.NewIEEE()
		if it.size <= threshold {
			data := make([]byte, it.size)
			if _, err := io.ReadFull(f, data); err != nil {
				f.Close()
				return wrapIO(it.hostPath, err)
			}
			h.Write(data)
			it.inline = data
		} else {
			if _, err := io.CopyBuffer(h, f, buf); err != nil {
				f.Close()
				return wrapIO(it.hostPath, err)
			}
		}
		f.Close()
		it.crc = h.Sum32()
	}
	return nil
}

// assignStorage places every non-inlined item's body into a sibling
// archive, rolling to a new archive index whenever the next file would
// exceed archiveSize (0 meaning unbounded).
func assignStorage(items []*planItem, archiveSize int64) error {
	var archiveIndex uint16
	var curSize int64

	for _, it := range items {
		if it.inline != nil {
			it.archiveIndex = dirIndex
			it.bodySize = 0
			continue
		}

		if archiveSize > 0 && curSize+it.size > archiveSize && curSize > 0 {
			if archiveIndex == maxArchiveIndex {
				return ErrTooManyArchives
			}
			archiveIndex++
			curSize = 0
		}

		it.archiveIndex = archiveIndex
		it.offset = uint32(curSize)
		it.bodySize = uint32(it.size)
		curSize += it.size
	}
	return nil
}

func planItemToEntry(it *planItem) *Entry {
	return &Entry{
		Ext: it.ext, Dir: it.dir, Name: it.name,
		CRC32:        it.crc,
		Preload:      it.inline,
		ArchiveIndex: it.archiveIndex,
		Offset:       it.offset,
		Size:         it.bodySize,
	}
}

// writePackageFiles emits the directory file (header + index) and every
// sibling archive its items were assigned to. It returns the paths it
// created, in creation order, so the caller can clean up on error.
func writePackageFiles(dirPath, dirname, prefix string, items []*planItem, tree *IndexTree, indexSize int64, force bool) ([]string, error) {
	var created []string

	dirFlags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		dirFlags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	df, err := os.OpenFile(dirPath, dirFlags, 0o644)
	if err != nil {
		return created, wrapIO(dirPath, err)
	}
	created = append(created, dirPath)
	defer df.Close()

	dw := newWriter(df)
	if err := writeHeader(dw, dirHeader{version: Version1, indexSize: uint32(indexSize)}); err != nil {
		return created, err
	}
	if err := writeIndexTree(dw, tree); err != nil {
		return created, err
	}
	if err := dw.Flush(); err != nil {
		return created, err
	}

	byArchive := make(map[uint16][]*planItem)
	for _, it := range items {
		if it.archiveIndex == dirIndex {
			continue
		}
		byArchive[it.archiveIndex] = append(byArchive[it.archiveIndex], it)
	}

	buf := getCopyBuf()
	defer putCopyBuf(buf)

	indices := make([]uint16, 0, len(byArchive))
	for idx := range byArchive {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	for _, idx := range indices {
		archPath := filepath.Join(dirname, fmt.Sprintf("%s_%03d.vpk", prefix, idx))
		archFlags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
		if force {
			archFlags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		}
		af, err := os.OpenFile(archPath, archFlags, 0o644)
		if err != nil {
			return created, wrapIO(archPath, err)
		}
		created = append(created, archPath)

		group := byArchive[idx]
		sort.Slice(group, func(i, j int) bool { return group[i].offset < group[j].offset })

		for _, it := range group {
			sf, err := os.Open(it.hostPath)
			if err != nil {
				af.Close()
				return created, wrapIO(it.hostPath, err)
			}
			n, err := io.CopyBuffer(af, sf, buf)
			sf.Close()
			if err != nil {
				af.Close()
				return created, wrapIO(it.hostPath, err)
			}
			if n != it.size {
				af.Close()
				return created, fmt.Errorf("vpk: short write to %s for %s", archPath, it.hostPath)
			}
		}

		if err := af.Close(); err != nil {
			return created, wrapIO(archPath, err)
		}
	}

	return created, nil
}
