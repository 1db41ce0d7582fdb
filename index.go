package vpk

// buildIndexTree consumes the nested extension -> directory -> entry
// grammar from r and returns the resulting IndexTree. It assumes r is
// positioned at the first byte of the index (immediately after the header,
// or at offset 0 for Version0).
//
// Each level is terminated by an empty AsciiZ string (a bare NUL). The
// special directory spelling " " (a single space) is normalized to the
// empty string, matching the on-disk convention that reserves the empty
// AsciiZ string as the group terminator.
func buildIndexTree(r *reader) (*IndexTree, error) {
	tree := NewIndexTree()

	for {
		ext, err := r.ReadAsciiZ()
		if err != nil {
			return nil, err
		}
		if ext == "" {
			break // top-level terminator
		}

		for {
			dir, err := r.ReadAsciiZ()
			if err != nil {
				return nil, err
			}
			if dir == "" {
				break // extension-level terminator
			}
			if dir == rootDir {
				dir = ""
			}

			for {
				name, err := r.ReadAsciiZ()
				if err != nil {
					return nil, err
				}
				if name == "" {
					break // directory-level terminator
				}

				entry, err := readEntryRecord(r, ext, dir, name)
				if err != nil {
					return nil, err
				}
				if err := tree.Insert(entry); err != nil {
					return nil, err
				}
			}
		}
	}

	return tree, nil
}

// readEntryRecord reads the fixed 18-byte entry record (crc, inline_size,
// archive_index, offset, size, terminator) followed by inline_size bytes of
// inline data, and returns the populated Entry.
func readEntryRecord(r *reader, ext, dir, name string) (*Entry, error) {
	crc, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	inlineSize, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	archiveIndex, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	offset, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	size, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	term, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	if term != terminator {
		return nil, &BadTerminatorError{Expected: terminator, Got: term}
	}
	preload, err := r.ReadInline(inlineSize)
	if err != nil {
		return nil, err
	}

	return &Entry{
		Ext:          ext,
		Dir:          dir,
		Name:         name,
		CRC32:        crc,
		Preload:      preload,
		ArchiveIndex: archiveIndex,
		Offset:       offset,
		Size:         size,
	}, nil
}

// writeIndexTree serializes tree back into the nested extension ->
// directory -> entry grammar, preserving the tree's insertion order so
// that a parse-then-serialize round trip reproduces the original bytes.
func writeIndexTree(w *writer, tree *IndexTree) error {
	for _, eg := range tree.exts {
		if err := w.WriteAsciiZ(eg.ext); err != nil {
			return err
		}
		for _, dg := range eg.dirs {
			dir := dg.dir
			if dir == "" {
				dir = rootDir
			}
			if err := w.WriteAsciiZ(dir); err != nil {
				return err
			}
			for _, e := range dg.entries {
				if err := w.WriteAsciiZ(e.Name); err != nil {
					return err
				}
				if err := writeEntryRecord(w, e); err != nil {
					return err
				}
			}
			if err := w.WriteAsciiZ(""); err != nil { // directory-level terminator
				return err
			}
		}
		if err := w.WriteAsciiZ(""); err != nil { // extension-level terminator
			return err
		}
	}
	return w.WriteAsciiZ("") // top-level terminator
}

func writeEntryRecord(w *writer, e *Entry) error {
	if err := w.WriteU32(e.CRC32); err != nil {
		return err
	}
	if err := w.WriteU16(uint16(len(e.Preload))); err != nil {
		return err
	}
	if err := w.WriteU16(e.ArchiveIndex); err != nil {
		return err
	}
	if err := w.WriteU32(e.Offset); err != nil {
		return err
	}
	if err := w.WriteU32(e.Size); err != nil {
		return err
	}
	if err := w.WriteU16(terminator); err != nil {
		return err
	}
	return w.WriteBytes(e.Preload)
}
