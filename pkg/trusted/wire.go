package trusted

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// MaxBlobLen is the largest key, signature or text payload a
// 16-bit length prefix can describe.
const MaxBlobLen = math.MaxUint16

// countingReader tracks how many bytes were pulled through it.
type countingReader struct { // A
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) { // A
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// countingWriter tracks how many bytes were pushed through it.
type countingWriter struct { // A
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) { // A
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// readFull is io.ReadFull, except that a stream ending before
// the first byte is also reported as io.ErrUnexpectedEOF. Every
// read in this package happens in the middle of an attribute.
func readFull(r io.Reader, buf []byte) error { // A
	_, err := io.ReadFull(r, buf)
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

func readU8(r io.Reader) (uint8, error) { // A
	var b [1]byte
	if err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func readU16(r io.Reader) (uint16, error) { // A
	var b [2]byte
	if err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func readU32(r io.Reader) (uint32, error) { // A
	var b [4]byte
	if err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// readBlob reads a 16-bit length prefix followed by that many
// bytes.
func readBlob(r io.Reader) ([]byte, error) { // A
	n, err := readU16(r)
	if err != nil {
		return nil, fmt.Errorf("read length prefix: %w", err)
	}
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if err := readFull(r, buf); err != nil {
		return nil, fmt.Errorf("read %d byte payload: %w", n, err)
	}
	return buf, nil
}

// readBool reads a single 0/1 byte.
func readBool(r io.Reader) (bool, error) { // A
	b, err := readU8(r)
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf(
			"%w: boolean byte is %d, want 0 or 1",
			ErrFormat,
			b,
		)
	}
}

func writeU8(w io.Writer, v uint8) error { // A
	_, err := w.Write([]byte{v})
	return err
}

func writeU16(w io.Writer, v uint16) error { // A
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeU32(w io.Writer, v uint32) error { // A
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeBool(w io.Writer, v bool) error { // A
	if v {
		return writeU8(w, 1)
	}
	return writeU8(w, 0)
}

// writeBlob writes a 16-bit length prefix followed by data.
func writeBlob(w io.Writer, data []byte) error { // A
	n, err := lenToUint16(len(data))
	if err != nil {
		return err
	}
	if err := writeU16(w, n); err != nil {
		return fmt.Errorf("write length prefix: %w", err)
	}
	if n == 0 {
		return nil
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %d byte payload: %w", n, err)
	}
	return nil
}

func lenToUint16(value int) (uint16, error) { // A
	if value < 0 || value > math.MaxUint16 {
		return 0, fmt.Errorf(
			"length out of uint16 range: %d",
			value,
		)
	}
	// #nosec G115 -- bounds are validated just above.
	return uint16(value), nil
}
