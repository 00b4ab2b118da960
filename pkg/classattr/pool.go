package classattr

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Pool is a minimal ordinary constant pool holding only names.
// Pool[0] is unused.
type Pool []string

// NewPool returns a Pool whose first name has index 1.
func NewPool(names ...string) Pool {
	return append(Pool{""}, names...)
}

// Utf8 returns the name at index.
func (p Pool) Utf8(index uint16) (string, error) {
	if index == 0 || int(index) >= len(p) {
		return "", fmt.Errorf(
			"constant pool index %d out of range (%d entries)",
			index,
			max(len(p)-1, 0),
		)
	}
	return p[index], nil
}

// Index returns the index of name, or 0.
func (p Pool) Index(name string) uint16 {
	for i := 1; i < len(p); i++ {
		if p[i] == name {
			return uint16(i)
		}
	}
	return 0
}

// ReadPool reads a 16-bit count followed by that many
// length-prefixed names.
func ReadPool(r io.Reader) (Pool, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return nil, fmt.Errorf("read pool count: %w", err)
	}
	n := int(binary.BigEndian.Uint16(b[:]))
	p := make(Pool, 1, n+1)
	for i := 1; i <= n; i++ {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, fmt.Errorf("read name %d length: %w", i, err)
		}
		name := make([]byte, binary.BigEndian.Uint16(b[:]))
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, fmt.Errorf("read name %d: %w", i, err)
		}
		p = append(p, string(name))
	}
	return p, nil
}

// WritePool writes p in the layout ReadPool reads.
func WritePool(w io.Writer, p Pool) error {
	n := max(len(p)-1, 0)
	if n > 0xFFFF {
		return fmt.Errorf("pool has %d names", n)
	}
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(n))
	if _, err := w.Write(b[:]); err != nil {
		return err
	}
	for i := 1; i < len(p); i++ {
		if len(p[i]) > 0xFFFF {
			return fmt.Errorf("name %d is %d bytes", i, len(p[i]))
		}
		binary.BigEndian.PutUint16(b[:], uint16(len(p[i])))
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
		if _, err := io.WriteString(w, p[i]); err != nil {
			return err
		}
	}
	return nil
}
