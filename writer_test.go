package vpk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackStrictASCIIRejectsNonASCIIName(t *testing.T) {
	in := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "caf\xc3\xa9.txt"), []byte("x"), 0o644))

	out := t.TempDir()
	opts := DefaultPackOptions()
	opts.StrictASCII = true

	_, err := Pack(filepath.Join(out, "pak"), in, opts)
	require.ErrorIs(t, err, ErrNonASCII)
}

func TestPackStrictASCIIAllowsASCIIName(t *testing.T) {
	in := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "plain.txt"), []byte("x"), 0o644))

	out := t.TempDir()
	opts := DefaultPackOptions()
	opts.StrictASCII = true

	pkg, err := Pack(filepath.Join(out, "pak"), in, opts)
	require.NoError(t, err)
	defer pkg.Close()
}

func TestAssignStorageRollsOverArchives(t *testing.T) {
	items := []*planItem{
		{name: "a", size: 100},
		{name: "b", size: 100},
		{name: "c", size: 100},
	}
	require.NoError(t, assignStorage(items, 150))

	require.Equal(t, uint16(0), items[0].archiveIndex)
	require.Equal(t, uint32(0), items[0].offset)
	require.Equal(t, uint16(1), items[1].archiveIndex)
	require.Equal(t, uint32(0), items[1].offset)
	require.Equal(t, uint16(2), items[2].archiveIndex)
	require.Equal(t, uint32(0), items[2].offset)
}

func TestAssignStorageTooManyArchives(t *testing.T) {
	items := make([]*planItem, 0, int(maxArchiveIndex)+2)
	for i := 0; i < int(maxArchiveIndex)+2; i++ {
		items = append(items, &planItem{size: 10})
	}
	err := assignStorage(items, 5)
	require.ErrorIs(t, err, ErrTooManyArchives)
}

func TestPackRejectsExistingOutputWithoutForce(t *testing.T) {
	in := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "f.txt"), []byte("x"), 0o644))

	out := t.TempDir()
	prefix := filepath.Join(out, "pak")

	_, err := Pack(prefix, in, DefaultPackOptions())
	require.NoError(t, err)

	_, err = Pack(prefix, in, DefaultPackOptions())
	require.Error(t, err)

	opts := DefaultPackOptions()
	opts.Force = true
	pkg, err := Pack(prefix, in, opts)
	require.NoError(t, err)
	defer pkg.Close()
}

// TestPackCleansUpOnFailure removes a source file after planning but
// before the archive-write pass, forcing writePackageFiles to fail partway
// through, and checks that the paths it returns cover every file it had
// already created: removing them, as Pack does on error, leaves no output
// behind.
func TestPackCleansUpOnFailure(t *testing.T) {
	in := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "a.bin"), bytesOfSize(400), 0o644))

	out := t.TempDir()
	prefix := filepath.Join(out, "pak")

	items, err := planFiles(in, false)
	require.NoError(t, err)
	require.NoError(t, computeCRCsAndInline(items, 0))
	require.NoError(t, assignStorage(items, 0))

	require.NoError(t, os.Remove(filepath.Join(in, "a.bin")))

	tree := NewIndexTree()
	for _, it := range items {
		require.NoError(t, tree.Insert(planItemToEntry(it)))
	}

	created, err := writePackageFiles(prefix+dirFileSuffix, out, "pak", items, tree, 0, false)
	require.Error(t, err)

	for _, p := range created {
		_ = os.Remove(p)
	}

	require.NoFileExists(t, prefix+dirFileSuffix)
	require.NoFileExists(t, prefix+"_000.vpk")
}
