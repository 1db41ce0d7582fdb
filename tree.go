package vpk

import farm "github.com/dgryski/go-farm"

// dirGroup holds every entry that shares one (ext, dir) pair, in the order
// they were inserted — which, for a freshly parsed index, is on-disk order.
type dirGroup struct {
	dir       string
	entries   []*Entry
	nameIndex map[string]int // name -> index into entries
}

// extGroup holds every directory group that shares one extension.
type extGroup struct {
	ext      string
	dirs     []*dirGroup
	dirIndex map[string]*dirGroup
}

// IndexTree is the three-level ordered map described by the directory
// file's index grammar: extension -> directory -> name -> Entry. Iteration
// preserves insertion order at every level so that a parsed index can be
// re-serialized byte-for-byte (see writer.go and the round-trip tests).
//
// Lookup-by-path is additionally accelerated by a flat map keyed on a
// 64-bit farm hash fingerprint of the reconstructed path, avoiding a
// three-level descent for the common case of "give me the entry at this
// exact path."
type IndexTree struct {
	exts     []*extGroup
	extIndex map[string]*extGroup

	byFingerprint map[uint64][]*Entry // hash collisions resolved by linear scan of the bucket
	count         int
}

// NewIndexTree returns an empty tree ready to accept Insert calls.
func NewIndexTree() *IndexTree {
	return &IndexTree{
		extIndex:      make(map[string]*extGroup),
		byFingerprint: make(map[uint64][]*Entry),
	}
}

func pathFingerprint(ext, dir, name string) uint64 {
	// NUL cannot appear inside any of the three components (it is the
	// on-disk AsciiZ terminator), so joining with it guarantees that
	// ("a/b", "c", "txt") and ("a", "b/c", "txt") never collide by
	// concatenation alone.
	return farm.Hash64([]byte(ext + "\x00" + dir + "\x00" + name))
}

// Insert adds e to the tree. It returns *DuplicateEntryError if an entry
// with the same (Ext, Dir, Name) triple was already present.
func (t *IndexTree) Insert(e *Entry) error {
	eg, ok := t.extIndex[e.Ext]
	if !ok {
		eg = &extGroup{ext: e.Ext, dirIndex: make(map[string]*dirGroup)}
		t.exts = append(t.exts, eg)
		t.extIndex[e.Ext] = eg
	}

	dg, ok := eg.dirIndex[e.Dir]
	if !ok {
		dg = &dirGroup{dir: e.Dir, nameIndex: make(map[string]int)}
		eg.dirs = append(eg.dirs, dg)
		eg.dirIndex[e.Dir] = dg
	}

	if _, exists := dg.nameIndex[e.Name]; exists {
		return &DuplicateEntryError{Ext: e.Ext, Dir: e.Dir, Name: e.Name}
	}

	dg.nameIndex[e.Name] = len(dg.entries)
	dg.entries = append(dg.entries, e)
	t.count++

	fp := pathFingerprint(e.Ext, e.Dir, e.Name)
	t.byFingerprint[fp] = append(t.byFingerprint[fp], e)

	return nil
}

// Len reports the total number of entries in the tree.
func (t *IndexTree) Len() int { return t.count }

// Entries returns every entry in on-disk order: extensions in insertion
// order, directories in insertion order within each extension, names in
// insertion order within each directory.
func (t *IndexTree) Entries() []*Entry {
	out := make([]*Entry, 0, t.count)
	for _, eg := range t.exts {
		for _, dg := range eg.dirs {
			out = append(out, dg.entries...)
		}
	}
	return out
}

// Get returns the entry at (ext, dir, name) and whether it was found.
func (t *IndexTree) Get(ext, dir, name string) (*Entry, bool) {
	eg, ok := t.extIndex[ext]
	if !ok {
		return nil, false
	}
	dg, ok := eg.dirIndex[dir]
	if !ok {
		return nil, false
	}
	i, ok := dg.nameIndex[name]
	if !ok {
		return nil, false
	}
	return dg.entries[i], true
}

// Lookup resolves a reconstructed path (as produced by Entry.Path) to its
// entry via the farm-hash fingerprint index, falling back to a linear
// bucket scan on hash collision.
func (t *IndexTree) Lookup(path string) (*Entry, bool) {
	ext, dir, name := splitReconstructedPath(path)
	fp := pathFingerprint(ext, dir, name)
	for _, e := range t.byFingerprint[fp] {
		if e.Ext == ext && e.Dir == dir && e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// splitReconstructedPath inverts Entry.Path for a path of the canonical
// "dir/name.ext" shape. It is only used by Lookup, which accepts paths in
// that exact shape; callers with raw (ext, dir, name) triples should use
// Get directly.
func splitReconstructedPath(path string) (ext, dir, name string) {
	slash := -1
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			slash = i
			break
		}
	}
	base := path
	if slash >= 0 {
		dir = path[:slash]
		base = path[slash+1:]
	}

	dot := -1
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			dot = i
			break
		}
	}
	if dot <= 0 {
		name = base
		return ext, dir, name
	}
	return base[dot+1:], dir, base[:dot]
}
