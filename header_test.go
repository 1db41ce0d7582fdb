package vpk

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadHeaderV1(t *testing.T) {
	var buf bytes.Buffer
	w := newWriter(&buf)
	require.NoError(t, writeHeader(w, dirHeader{version: Version1, indexSize: 42}))
	require.NoError(t, w.Flush())
	require.Equal(t, v1HeaderSize, buf.Len())

	r := newReader(bytes.NewReader(buf.Bytes()))
	hdr, present, err := readHeader(r)
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, Version1, hdr.version)
	require.Equal(t, uint32(42), hdr.indexSize)
}

func TestWriteReadHeaderV2(t *testing.T) {
	var buf bytes.Buffer
	w := newWriter(&buf)
	hdr := dirHeader{
		version:        Version2,
		indexSize:      10,
		dataSize:       0,
		archiveMD5Size: 23,
		otherMD5Size:   48,
		signatureSize:  0,
	}
	require.NoError(t, writeHeader(w, hdr))
	require.NoError(t, w.Flush())
	require.Equal(t, v2HeaderSize, buf.Len())

	r := newReader(bytes.NewReader(buf.Bytes()))
	got, present, err := readHeader(r)
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, hdr, got)
}

func TestReadHeaderAbsentFallsBackToV0(t *testing.T) {
	r := newReader(bytes.NewReader([]byte{0})) // top-level terminator, no magic
	hdr, present, err := readHeader(r)
	require.NoError(t, err)
	require.False(t, present)
	require.Equal(t, dirHeader{}, hdr)
	require.Equal(t, int64(0), r.Pos()) // magic check must not consume on mismatch
}

func TestReadHeaderUnsupportedVersion(t *testing.T) {
	var buf bytes.Buffer
	w := newWriter(&buf)
	require.NoError(t, w.WriteU32(magicLE))
	require.NoError(t, w.WriteU32(99))
	require.NoError(t, w.Flush())

	r := newReader(bytes.NewReader(buf.Bytes()))
	_, _, err := readHeader(r)
	var uve *UnsupportedVersionError
	require.ErrorAs(t, err, &uve)
	require.Equal(t, uint32(99), uve.Version)
}
