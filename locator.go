package vpk

import (
	"io"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/exp/mmap"
)

// defaultArchiveCacheSize bounds how many sibling-archive mappings stay
// open at once. Sibling archives are opened lazily and cached per
// archive index; evicted handles are closed immediately, keeping a
// package with thousands of sibling archives from exhausting file
// descriptors.
const defaultArchiveCacheSize = 64

// archiveCache lazily memory-maps sibling "_NNN.vpk" archives and keeps a
// bounded LRU of the open handles, keyed by archive index rather than an
// unbounded map keyed by path.
type archiveCache struct {
	pkg *Package
	lru *lru.Cache[uint16, *mmap.ReaderAt]
}

func newArchiveCache(pkg *Package) *archiveCache {
	c := &archiveCache{pkg: pkg}
	l, err := lru.NewWithEvict(defaultArchiveCacheSize, func(_ uint16, ra *mmap.ReaderAt) {
		_ = ra.Close()
	})
	if err != nil {
		// Only returns an error for a non-positive size, which
		// defaultArchiveCacheSize never is.
		panic(err)
	}
	c.lru = l
	return c
}

// get returns the mmap'd handle for the archive at index, opening and
// caching it on first use.
func (c *archiveCache) get(index uint16) (*mmap.ReaderAt, error) {
	if index == dirIndex {
		return c.pkg.dirFile, nil
	}

	if ra, ok := c.lru.Get(index); ok {
		return ra, nil
	}

	path := c.pkg.archivePath(index)
	ra, err := mmap.Open(path)
	if err != nil {
		return nil, &MissingArchiveError{Index: index, Path: path, Err: err}
	}
	c.lru.Add(index, ra)
	return ra, nil
}

func (c *archiveCache) closeAll() error {
	var firstErr error
	for _, index := range c.lru.Keys() {
		if ra, ok := c.lru.Peek(index); ok {
			if err := ra.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	c.lru.Purge()
	return firstErr
}

// dataOffset returns the byte offset of the embedded data region inside the
// directory file: the first byte after the index's final terminator (which
// itself follows the optional header).
func (p *Package) dataOffset() int64 { return p.headerSize + p.indexSize }

// resolve computes the absolute byte range of e's body within whichever
// archive holds it.
func (p *Package) resolve(e *Entry) (archiveIndex uint16, absOffset int64) {
	if e.InDirectoryFile() {
		return dirIndex, p.dataOffset() + int64(e.Offset)
	}
	return e.ArchiveIndex, int64(e.Offset)
}

// readBody reads e's body (excluding Preload) into a freshly allocated
// slice, resolving and, if necessary, opening the archive that holds it.
func (p *Package) readBody(e *Entry) ([]byte, error) {
	if e.Size == 0 {
		return nil, nil
	}
	index, offset := p.resolve(e)
	ra, err := p.archives.get(index)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, e.Size)
	n, err := ra.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, wrapIO(p.archivePathFor(index), err)
	}
	if n != len(buf) {
		return nil, ErrTruncatedArchive
	}
	return buf, nil
}

func (p *Package) archivePathFor(index uint16) string {
	if index == dirIndex {
		return p.Path
	}
	return p.archivePath(index)
}

// Extract writes e's full content — Preload followed by its body — to w.
func (p *Package) Extract(e *Entry, w io.Writer) error {
	if len(e.Preload) > 0 {
		if _, err := w.Write(e.Preload); err != nil {
			return err
		}
	}
	if e.Size == 0 {
		return nil
	}

	index, offset := p.resolve(e)
	ra, err := p.archives.get(index)
	if err != nil {
		return err
	}

	sec := io.NewSectionReader(ra, offset, int64(e.Size))
	n, err := io.Copy(w, sec)
	if err != nil {
		return wrapIO(p.archivePathFor(index), err)
	}
	if n != int64(e.Size) {
		return ErrTruncatedArchive
	}
	return nil
}
