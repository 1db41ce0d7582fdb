package vpk

import (
	arc "github.com/hashicorp/golang-lru/arc/v2"
)

// defaultContentCacheSize bounds the number of fully-materialized files
// ContentCache keeps warm. 4096 entries comfortably covers a mod's worth of
// small scripts/textures without holding an entire multi-gigabyte package
// in memory.
const defaultContentCacheSize = 4096

// ContentCache decorates a Package with an Adaptive Replacement Cache of
// fully-extracted file bytes, keyed by entry path.
// It exists for repeat-read consumers — most notably an external FUSE
// mount adapter, which re-reads the same handful of hot files on every
// directory listing or page-in — that would otherwise pay the extraction
// cost (a seek plus a copy from the archive) on every call.
//
// ContentCache is not required for Check or the CLI's one-shot `unpack`,
// which each read every entry exactly once: `unpack` calls Package.Extract
// directly and Check streams each body into its CRC32 itself.
type ContentCache struct {
	pkg   *Package
	cache *arc.ARCCache[string, []byte]
}

// NewContentCache wraps pkg with a bounded ARC cache keyed by the entry's
// reconstructed path.
func NewContentCache(pkg *Package) (*ContentCache, error) {
	c, err := arc.NewARC[string, []byte](defaultContentCacheSize)
	if err != nil {
		return nil, err
	}
	return &ContentCache{pkg: pkg, cache: c}, nil
}

// Get returns e's full decoded content (Preload followed by its body),
// serving from the cache when possible and populating it on a miss.
func (c *ContentCache) Get(e *Entry) ([]byte, error) {
	path := e.Path()
	if data, ok := c.cache.Get(path); ok {
		return data, nil
	}

	buf := make([]byte, 0, e.TotalSize())
	w := &sliceWriter{buf: buf}
	if err := c.pkg.Extract(e, w); err != nil {
		return nil, err
	}

	c.cache.Add(path, w.buf)
	return w.buf, nil
}

// Purge discards every cached entry, e.g. after the underlying package has
// been rewritten.
func (c *ContentCache) Purge() { c.cache.Purge() }

// sliceWriter is a minimal io.Writer over a growable byte slice, avoiding a
// bytes.Buffer allocation for the common case where the final size is
// already known from TotalSize.
type sliceWriter struct{ buf []byte }

func (w *sliceWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}
