package vpk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatsByExtension(t *testing.T) {
	in := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(in, "a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(in, "a/one.mdl"), bytesOfSize(10), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "a/two.mdl"), bytesOfSize(20), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "three.vtx"), bytesOfSize(30), 0o644))

	out := t.TempDir()
	pkg, err := Pack(filepath.Join(out, "pak"), in, PackOptions{InlineThreshold: 0})
	require.NoError(t, err)
	defer pkg.Close()

	s := Stats(pkg)
	require.Equal(t, 3, s.TotalEntries)
	require.Equal(t, ExtStats{Count: 2, TotalBytes: 30}, s.ByExt["mdl"])
	require.Equal(t, ExtStats{Count: 1, TotalBytes: 30}, s.ByExt["vtx"])
	require.False(t, s.HasArchiveMd5s)
	require.False(t, s.HasOtherMd5s)
	require.False(t, s.HasSignature)
}
