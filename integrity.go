// integrity.go
//
// CRC32 and MD5 integrity verification for an opened VPK package. The
// engine validates *entry bodies* against the CRC32 the index recorded for
// them, and — for v2 packages — the three whole-section MD5 digests plus
// any per-slice archive-md5 records. It streams bytes directly from the
// memory-mapped directory file and sibling archives and never aborts on
// the first failure: every mismatch is collected and returned together so
// a single `check` run surfaces all damage at once.
package vpk

import (
	"crypto/md5"
	"fmt"
	"hash/crc32"
	"io"
	"sort"
)

// VerifyOptions controls the integrity engine's behavior for open
// questions the format itself leaves unanswered.
type VerifyOptions struct {
	// AdjustDirArchiveMD5Offsets, when true, applies the same
	// header_size+index_size adjustment used for file-entry offsets to
	// archive-md5 slices whose ArchiveIndex is dirIndex. Default false:
	// such slices are read starting at the raw, unadjusted offset.
	AdjustDirArchiveMD5Offsets bool
}

// CheckReport collects every integrity failure found during a Check run.
type CheckReport struct {
	CrcFailures []CrcMismatchError
	Md5Failures []Md5MismatchError
}

// OK reports whether the report contains no failures.
func (r *CheckReport) OK() bool { return len(r.CrcFailures) == 0 && len(r.Md5Failures) == 0 }

// Check runs all three integrity checks: per-file CRC32, v2 archive-md5
// slices, and v2 OtherMd5s. It never stops at the first failure.
func (p *Package) Check(opts VerifyOptions) (*CheckReport, error) {
	report := &CheckReport{}

	if err := p.checkEntryCRCs(report); err != nil {
		return nil, err
	}

	if p.Version == Version2 {
		if err := p.checkArchiveMd5s(opts, report); err != nil {
			return nil, err
		}
		if err := p.checkOtherMd5s(report); err != nil {
			return nil, err
		}
	}

	sortCheckReport(report)
	return report, nil
}

func (p *Package) checkEntryCRCs(report *CheckReport) error {
	for _, e := range p.Iter() {
		got, err := p.entryCRC32(e)
		if err != nil {
			return err
		}
		if got != e.CRC32 {
			report.CrcFailures = append(report.CrcFailures, CrcMismatchError{
				Path:     e.Path(),
				Expected: e.CRC32,
				Got:      got,
			})
		}
	}
	return nil
}

// entryCRC32 computes the IEEE CRC32 over Preload followed by the entry's
// body, streaming the body directly from its archive without loading the
// whole file into memory first.
func (p *Package) entryCRC32(e *Entry) (uint32, error) {
	h := crc32.NewIEEE()
	if len(e.Preload) > 0 {
		h.Write(e.Preload)
	}
	if e.Size == 0 {
		return h.Sum32(), nil
	}

	index, offset := p.resolve(e)
	ra, err := p.archives.get(index)
	if err != nil {
		return 0, err
	}

	sec := io.NewSectionReader(ra, offset, int64(e.Size))
	n, err := io.Copy(h, sec)
	if err != nil {
		return 0, wrapIO(p.archivePathFor(index), err)
	}
	if n != int64(e.Size) {
		return 0, ErrTruncatedArchive
	}
	return h.Sum32(), nil
}

func (p *Package) checkArchiveMd5s(opts VerifyOptions, report *CheckReport) error {
	for _, am := range p.ArchiveMd5s {
		offset := int64(am.Offset)
		if am.ArchiveIndex == dirIndex && opts.AdjustDirArchiveMD5Offsets {
			offset += p.dataOffset()
		}

		ra, err := p.archives.get(am.ArchiveIndex)
		if err != nil {
			return err
		}

		buf := make([]byte, am.Size)
		n, err := ra.ReadAt(buf, offset)
		if err != nil && err != io.EOF {
			return wrapIO(p.archivePathFor(am.ArchiveIndex), err)
		}
		if n != len(buf) {
			return ErrTruncatedArchive
		}

		if md5.Sum(buf) != [16]byte(am.Digest) {
			report.Md5Failures = append(report.Md5Failures, Md5MismatchError{
				Where: fmt.Sprintf("archive-md5 slice archive=%d offset=%d size=%d", am.ArchiveIndex, am.Offset, am.Size),
			})
		}
	}
	return nil
}

func (p *Package) checkOtherMd5s(report *CheckReport) error {
	indexBytes, err := p.rawIndexBytes()
	if err != nil {
		return err
	}
	if md5.Sum(indexBytes) != [16]byte(p.OtherMd5s.IndexMD5) {
		report.Md5Failures = append(report.Md5Failures, Md5MismatchError{Where: "index_md5"})
	}

	archiveMd5Bytes, err := p.rawArchiveMd5Bytes()
	if err != nil {
		return err
	}
	if md5.Sum(archiveMd5Bytes) != [16]byte(p.OtherMd5s.ArchiveMd5sMD5) {
		report.Md5Failures = append(report.Md5Failures, Md5MismatchError{Where: "archive_md5s_md5"})
	}

	everythingBytes, err := p.rawEverythingBytes()
	if err != nil {
		return err
	}
	if md5.Sum(everythingBytes) != [16]byte(p.OtherMd5s.EverythingMD5) {
		report.Md5Failures = append(report.Md5Failures, Md5MismatchError{Where: "everything_md5"})
	}
	return nil
}

// rawIndexBytes returns the raw bytes of the index section exactly as it
// appeared on disk: [headerSize, headerSize+indexSize).
func (p *Package) rawIndexBytes() ([]byte, error) {
	return p.readDirFileRange(p.headerSize, p.indexSize)
}

// rawArchiveMd5Bytes returns the raw bytes of the archive-md5 section:
// [headerSize+indexSize+dataSize, +archiveMd5Size), using the on-disk
// section length rather than len(ArchiveMd5s)*archiveMD5RecordSize —
// those diverge when a producer pads the section or when it contains
// records readArchiveMd5Section skipped for carrying an out-of-range
// archive index.
func (p *Package) rawArchiveMd5Bytes() ([]byte, error) {
	start := p.headerSize + p.indexSize + p.dataSize
	return p.readDirFileRange(start, p.archiveMd5Size)
}

// rawEverythingBytes returns every byte of the directory file from 0 up to
// but not including the everything_md5 field itself: header + index +
// data + archive-md5s + the first 32 bytes of OtherMd5s (index_md5 and
// archive_md5s_md5).
func (p *Package) rawEverythingBytes() ([]byte, error) {
	start := p.headerSize + p.indexSize + p.dataSize
	size := p.archiveMd5Size + 32
	return p.readDirFileRange(0, start+size)
}

func (p *Package) readDirFileRange(offset, size int64) ([]byte, error) {
	buf := make([]byte, size)
	n, err := p.dirFile.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, wrapIO(p.Path, err)
	}
	if int64(n) != size {
		return nil, ErrTruncatedIndex
	}
	return buf, nil
}

// sortCheckReport orders CrcFailures by entry path and Md5Failures by their
// Where text, both compared as strings. For archive-md5 slice failures this
// is a lexicographic order of the description, not a numeric
// (archive_index, offset) order: "archive=10" sorts before "archive=2".
func sortCheckReport(report *CheckReport) {
	sort.SliceStable(report.CrcFailures, func(i, j int) bool {
		return report.CrcFailures[i].Path < report.CrcFailures[j].Path
	})
	sort.SliceStable(report.Md5Failures, func(i, j int) bool {
		return report.Md5Failures[i].Where < report.Md5Failures[j].Where
	})
}
