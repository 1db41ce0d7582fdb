package vpk

import (
	"bytes"
	"crypto/md5"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildV2Package hand-assembles a one-file v2 package on disk (the writer
// only emits v1) so the integrity engine's v2 code paths can be exercised.
func buildV2Package(t *testing.T, dir string, content []byte) string {
	t.Helper()

	e := &Entry{
		Ext: "bin", Dir: "", Name: "data",
		CRC32: crc32.ChecksumIEEE(content),
		Size:  uint32(len(content)),
	}
	tree := NewIndexTree()
	require.NoError(t, tree.Insert(e))

	indexBuf := &sliceWriter{}
	iw := newWriter(indexBuf)
	require.NoError(t, writeIndexTree(iw, tree))
	require.NoError(t, iw.Flush())
	indexBytes := indexBuf.buf

	digest := md5.Sum(content)
	archiveMD5Buf := &sliceWriter{}
	amw := newWriter(archiveMD5Buf)
	require.NoError(t, amw.WriteU32(0)) // archive_index
	require.NoError(t, amw.WriteU32(0)) // offset
	require.NoError(t, amw.WriteU32(uint32(len(content))))
	require.NoError(t, amw.WriteBytes(digest[:]))
	require.NoError(t, amw.Flush())
	archiveMD5Bytes := archiveMD5Buf.buf

	indexMD5 := md5.Sum(indexBytes)
	archiveMD5sMD5 := md5.Sum(archiveMD5Bytes)

	hdr := dirHeader{
		version:        Version2,
		indexSize:      uint32(len(indexBytes)),
		dataSize:       0,
		archiveMD5Size: uint32(len(archiveMD5Bytes)),
		otherMD5Size:   48,
		signatureSize:  0,
	}

	var headerBuf bytes.Buffer
	hw := newWriter(&headerBuf)
	require.NoError(t, writeHeader(hw, hdr))
	require.NoError(t, hw.Flush())

	everything := append([]byte{}, headerBuf.Bytes()...)
	everything = append(everything, indexBytes...)
	everything = append(everything, archiveMD5Bytes...)
	everything = append(everything, indexMD5[:]...)
	everything = append(everything, archiveMD5sMD5[:]...)
	everythingMD5 := md5.Sum(everything)

	dirPath := filepath.Join(dir, "pak_dir.vpk")
	df, err := os.Create(dirPath)
	require.NoError(t, err)
	_, err = df.Write(headerBuf.Bytes())
	require.NoError(t, err)
	_, err = df.Write(indexBytes)
	require.NoError(t, err)
	_, err = df.Write(archiveMD5Bytes)
	require.NoError(t, err)
	_, err = df.Write(indexMD5[:])
	require.NoError(t, err)
	_, err = df.Write(archiveMD5sMD5[:])
	require.NoError(t, err)
	_, err = df.Write(everythingMD5[:])
	require.NoError(t, err)
	require.NoError(t, df.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pak_000.vpk"), content, 0o644))
	return dirPath
}

func TestCheckCleanV2Package(t *testing.T) {
	dir := t.TempDir()
	dirPath := buildV2Package(t, dir, []byte("the quick brown fox"))

	pkg, err := Open(dirPath)
	require.NoError(t, err)
	defer pkg.Close()
	require.Equal(t, Version2, pkg.Version)

	report, err := pkg.Check(VerifyOptions{})
	require.NoError(t, err)
	require.True(t, report.OK())
}

// TestScenarioS5V2Integrity corrupts one body byte and expects exactly one
// CrcMismatch and one Md5Mismatch, with index_md5/everything_md5 unaffected.
func TestScenarioS5V2Integrity(t *testing.T) {
	dir := t.TempDir()
	dirPath := buildV2Package(t, dir, []byte("the quick brown fox"))

	archPath := filepath.Join(dir, "pak_000.vpk")
	data, err := os.ReadFile(archPath)
	require.NoError(t, err)
	data[3] ^= 0xFF
	require.NoError(t, os.WriteFile(archPath, data, 0o644))

	pkg, err := Open(dirPath)
	require.NoError(t, err)
	defer pkg.Close()

	report, err := pkg.Check(VerifyOptions{})
	require.NoError(t, err)
	require.False(t, report.OK())
	require.Len(t, report.CrcFailures, 1)

	var indexOrEverythingFailed bool
	for _, f := range report.Md5Failures {
		if f.Where == "index_md5" || f.Where == "everything_md5" {
			indexOrEverythingFailed = true
		}
	}
	require.False(t, indexOrEverythingFailed)
	require.Len(t, report.Md5Failures, 1) // the archive-md5 slice covering the corrupted byte fails
}

func TestCheckEntryCRCSuccess(t *testing.T) {
	in := t.TempDir()
	content := []byte("hello world")
	require.NoError(t, os.WriteFile(filepath.Join(in, "f.txt"), content, 0o644))

	out := t.TempDir()
	pkg, err := Pack(filepath.Join(out, "pak"), in, PackOptions{InlineThreshold: 0})
	require.NoError(t, err)
	defer pkg.Close()

	report, err := pkg.Check(VerifyOptions{})
	require.NoError(t, err)
	require.True(t, report.OK())
}
