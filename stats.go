package vpk

// ExtStats summarizes every entry sharing one extension.
type ExtStats struct {
	Count      int
	TotalBytes int64
}

// PackageStats is the supplemented `stats` command's report: a single pass
// over the index tree, grouped the way original_source/src/stats.rs groups
// its own report.
type PackageStats struct {
	Version Version

	ByExt map[string]ExtStats

	TotalEntries     int
	TotalInlineBytes int64

	ArchiveIndices map[uint16]struct{}

	HasArchiveMd5s bool
	HasOtherMd5s   bool
	HasSignature   bool
}

// Stats walks pkg's index tree once and reports per-extension counts and
// byte totals, total inline bytes, the set of archive indices actually
// referenced, and which v2 trailer sections are present.
func Stats(pkg *Package) PackageStats {
	s := PackageStats{
		Version:        pkg.Version,
		ByExt:          make(map[string]ExtStats),
		ArchiveIndices: make(map[uint16]struct{}),
	}

	for _, e := range pkg.Iter() {
		s.TotalEntries++
		s.TotalInlineBytes += int64(len(e.Preload))

		es := s.ByExt[e.Ext]
		es.Count++
		es.TotalBytes += e.TotalSize()
		s.ByExt[e.Ext] = es

		if !e.InDirectoryFile() {
			s.ArchiveIndices[e.ArchiveIndex] = struct{}{}
		}
	}

	s.HasArchiveMd5s = len(pkg.ArchiveMd5s) > 0
	s.HasOtherMd5s = pkg.OtherMd5s != OtherMd5s{}
	s.HasSignature = len(pkg.Signature.PublicKey) > 0 || len(pkg.Signature.Signature) > 0

	return s
}
