package vpk

import (
	"bytes"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestScenarioS1SingleFilePackUnpack packs one small file with no inline
// threshold so its body always lands in a sibling archive, then verifies
// the directory file's magic prefix, the entry's CRC32, and a byte-exact
// unpack.
func TestScenarioS1SingleFilePackUnpack(t *testing.T) {
	in := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(in, "sound/music"), 0o755))
	content := []byte("RIFF\x00\x00\x00\x00WAVE")
	require.NoError(t, os.WriteFile(filepath.Join(in, "sound/music/ding_on.wav"), content, 0o644))

	out := t.TempDir()
	pkg, err := Pack(filepath.Join(out, "pak"), in, PackOptions{ArchiveSize: 0, InlineThreshold: 0})
	require.NoError(t, err)
	defer pkg.Close()

	require.FileExists(t, filepath.Join(out, "pak_dir.vpk"))
	require.FileExists(t, filepath.Join(out, "pak_000.vpk"))

	raw, err := os.ReadFile(filepath.Join(out, "pak_dir.vpk"))
	require.NoError(t, err)
	require.Equal(t, []byte{0x34, 0x12, 0xAA, 0x55, 0x01, 0x00, 0x00, 0x00}, raw[:8])

	e, ok := pkg.Lookup("sound/music/ding_on.wav")
	require.True(t, ok)
	require.Equal(t, crc32.ChecksumIEEE(content), e.CRC32)

	var buf bytes.Buffer
	require.NoError(t, pkg.Extract(e, &buf))
	require.Equal(t, content, buf.Bytes())
}

// TestScenarioS2InlineThreshold packs a file below the inline threshold and
// checks that no sibling archive is created and the entry is fully inline.
func TestScenarioS2InlineThreshold(t *testing.T) {
	in := t.TempDir()
	content := []byte("abcd")
	require.NoError(t, os.WriteFile(filepath.Join(in, "t.txt"), content, 0o644))

	out := t.TempDir()
	pkg, err := Pack(filepath.Join(out, "pak"), in, PackOptions{ArchiveSize: 0, InlineThreshold: 16})
	require.NoError(t, err)
	defer pkg.Close()

	require.NoFileExists(t, filepath.Join(out, "pak_000.vpk"))

	e, ok := pkg.Lookup("t.txt")
	require.True(t, ok)
	require.Equal(t, uint32(0), e.Size)
	require.Equal(t, 4, len(e.Preload))
	require.Equal(t, dirIndex, e.ArchiveIndex)
}

// TestScenarioS3GroupedOrdering checks that the index groups files by
// extension ascending, then directory ascending within the extension.
func TestScenarioS3GroupedOrdering(t *testing.T) {
	in := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(in, "a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(in, "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(in, "a/x.mdl"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "a/y.mdl"), []byte("y"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "b/z.vtx"), []byte("z"), 0o644))

	out := t.TempDir()
	pkg, err := Pack(filepath.Join(out, "pak"), in, DefaultPackOptions())
	require.NoError(t, err)
	defer pkg.Close()

	var order []string
	for _, e := range pkg.Iter() {
		order = append(order, e.Path())
	}
	require.Equal(t, []string{"a/x.mdl", "a/y.mdl", "b/z.vtx"}, order)
}

// TestScenarioS6Version0Read builds a bare index (no magic header) and
// confirms it is parsed as Version0 and its lone entry extracts correctly.
func TestScenarioS6Version0Read(t *testing.T) {
	dir := t.TempDir()
	dirPath := filepath.Join(dir, "pak_dir.vpk")

	content := []byte("hello")
	crc := crc32.ChecksumIEEE(content)

	df, err := os.Create(dirPath)
	require.NoError(t, err)
	w := newWriter(df)
	require.NoError(t, w.WriteAsciiZ("txt"))
	require.NoError(t, w.WriteAsciiZ(rootDir))
	require.NoError(t, w.WriteAsciiZ("hello"))
	require.NoError(t, w.WriteU32(crc))
	require.NoError(t, w.WriteU16(0))      // inline_size
	require.NoError(t, w.WriteU16(dirIndex)) // body lives right after the index
	require.NoError(t, w.WriteU32(0))      // offset
	require.NoError(t, w.WriteU32(uint32(len(content))))
	require.NoError(t, w.WriteU16(terminator))
	require.NoError(t, w.WriteAsciiZ("")) // dir terminator
	require.NoError(t, w.WriteAsciiZ("")) // ext terminator
	require.NoError(t, w.WriteAsciiZ("")) // top-level terminator
	require.NoError(t, w.Flush())
	_, err = df.Write(content)
	require.NoError(t, err)
	require.NoError(t, df.Close())

	pkg, err := Open(dirPath)
	require.NoError(t, err)
	defer pkg.Close()

	require.Equal(t, Version0, pkg.Version)

	e, ok := pkg.Lookup("hello.txt")
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, pkg.Extract(e, &buf))
	require.Equal(t, content, buf.Bytes())
}
