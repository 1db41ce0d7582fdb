package vpk

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// reader is the little-endian primitive codec the index builder and header
// codec are built on. It tracks how many bytes have been consumed so that
// callers can recover the absolute index_size once the grammar has been
// fully drained (see parsePackage's version-0 inference in package.go).
type reader struct {
	br   *bufio.Reader
	pos  int64
}

func newReader(r io.Reader) *reader {
	return &reader{br: bufio.NewReaderSize(r, 64<<10)}
}

// Pos returns the number of bytes read so far.
func (r *reader) Pos() int64 { return r.pos }

func (r *reader) readByte() (byte, error) {
	b, err := r.br.ReadByte()
	if err != nil {
		return 0, err
	}
	r.pos++
	return b, nil
}

func (r *reader) readFull(buf []byte) error {
	n, err := io.ReadFull(r.br, buf)
	r.pos += int64(n)
	return err
}

// ReadU16 reads a little-endian uint16.
func (r *reader) ReadU16() (uint16, error) {
	var buf [2]byte
	if err := r.readFull(buf[:]); err != nil {
		return 0, eofToTruncated(err)
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// ReadU32 reads a little-endian uint32.
func (r *reader) ReadU32() (uint32, error) {
	var buf [4]byte
	if err := r.readFull(buf[:]); err != nil {
		return 0, eofToTruncated(err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// ReadAsciiZ reads bytes up to and including a terminating NUL and returns
// the bytes before the NUL. It fails with ErrTruncatedIndex if EOF is hit
// before a NUL is found. No UTF-8 validation is performed: the format is
// byte-oriented ASCII in practice and the reader accepts any byte >= 0x01.
func (r *reader) ReadAsciiZ() (string, error) {
	var buf []byte
	for {
		b, err := r.readByte()
		if err != nil {
			return "", eofToTruncated(err)
		}
		if b == 0 {
			return btostr(buf), nil
		}
		buf = append(buf, b)
	}
}

// ReadInline reads exactly n raw bytes without interpretation (used for an
// entry's inline prefix).
func (r *reader) ReadInline(n uint16) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if err := r.readFull(buf); err != nil {
		return nil, eofToTruncated(err)
	}
	return buf, nil
}

func eofToTruncated(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrTruncatedIndex
	}
	return err
}

// writer is the little-endian primitive codec the index serializer and
// header codec write through.
type writer struct {
	bw  *bufio.Writer
	pos int64
}

func newWriter(w io.Writer) *writer {
	return &writer{bw: bufio.NewWriterSize(w, 64<<10)}
}

func (w *writer) Pos() int64 { return w.pos }

func (w *writer) Flush() error { return w.bw.Flush() }

func (w *writer) WriteU16(v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	n, err := w.bw.Write(buf[:])
	w.pos += int64(n)
	return err
}

func (w *writer) WriteU32(v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	n, err := w.bw.Write(buf[:])
	w.pos += int64(n)
	return err
}

// WriteAsciiZ writes s followed by a terminating NUL. s must not contain an
// embedded NUL byte.
func (w *writer) WriteAsciiZ(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return fmt.Errorf("%w: embedded NUL in %q", ErrInvalidName, s)
		}
	}
	n, err := w.bw.WriteString(s)
	w.pos += int64(n)
	if err != nil {
		return err
	}
	return w.WriteByte(0)
}

func (w *writer) WriteByte(b byte) error {
	err := w.bw.WriteByte(b)
	if err == nil {
		w.pos++
	}
	return err
}

func (w *writer) WriteBytes(b []byte) error {
	n, err := w.bw.Write(b)
	w.pos += int64(n)
	return err
}
