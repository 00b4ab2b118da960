package trusted

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Decode reads an attribute body of the declared length from r.
// It never reads past length bytes. The result is checked only
// for layout and length; call Validate to resolve references.
//
// Wire format, big-endian:
//
//	[secure pool]
//	[4B cp_extra_entry_offset, signed]
//	[2B csp identifier][2B access flags]
//	[2B subclass key][2B class resource access key]
//	[1B default field access][2B n][n x 2B field index]
//	[1B default method access][2B n][n x 2B method index]
//	[2B subclass n][2B resource n][2B ref resource n]
//	[permits, 4B each, in the same order as the counts]
//	[2B domain n][n x domain]
func Decode(r io.Reader, length uint32) (*Attribute, error) { // A
	cr := &countingReader{r: io.LimitReader(r, int64(length))}
	a, err := decodeBody(cr)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &LengthError{
				Expected: int64(length),
				Actual:   cr.n,
				Err:      err,
			}
		}
		return nil, err
	}
	if cr.n != int64(length) {
		return nil, &LengthError{
			Expected: int64(length),
			Actual:   cr.n,
		}
	}
	a.length = length
	return a, nil
}

// Unmarshal decodes data as a complete attribute body.
func Unmarshal(data []byte) (*Attribute, error) { // A
	length, err := lenToUint32(len(data))
	if err != nil {
		return nil, err
	}
	return Decode(bytes.NewReader(data), length)
}

func decodeBody(r io.Reader) (*Attribute, error) { // A
	pool, err := ReadSecurePool(r)
	if err != nil {
		return nil, err
	}
	a := &Attribute{pool: pool}
	if err := decodeHeader(r, a); err != nil {
		return nil, err
	}
	if err := decodeAccessibility(r, a); err != nil {
		return nil, err
	}
	if err := decodePermits(r, a); err != nil {
		return nil, err
	}
	domains, err := readDomains(r)
	if err != nil {
		return nil, err
	}
	a.domains = domains
	return a, nil
}

// decodeHeader reads the scalar fields between the secure pool
// and the accessibility lists.
func decodeHeader(r io.Reader, a *Attribute) error { // A
	offset, err := readU32(r)
	if err != nil {
		return fmt.Errorf("read cp extra entry offset: %w", err)
	}
	a.cpExtraEntryOffset = int32(offset)

	fields := []struct {
		name string
		dst  *uint16
	}{
		{"csp identifier", &a.cspIdentifier},
		{"access flags", (*uint16)(&a.accessFlags)},
		{"subclass key", &a.subclassKey},
		{"class resource access key", &a.resourceAccessKey},
	}
	for _, f := range fields {
		v, err := readU16(r)
		if err != nil {
			return fmt.Errorf("read %s: %w", f.name, err)
		}
		*f.dst = v
	}
	return nil
}

func decodeAccessibility(r io.Reader, a *Attribute) error { // A
	var err error
	a.defaultFieldAccess, a.nonDefaultFields, err =
		readAccessibility(r)
	if err != nil {
		return fmt.Errorf("read field accessibility: %w", err)
	}
	a.defaultMethodAccess, a.nonDefaultMethods, err =
		readAccessibility(r)
	if err != nil {
		return fmt.Errorf("read method accessibility: %w", err)
	}
	return nil
}

// readAccessibility reads a default flag followed by the
// counted list of indices that deviate from it.
func readAccessibility(r io.Reader) (bool, []uint16, error) { // A
	def, err := readBool(r)
	if err != nil {
		return false, nil, err
	}
	n, err := readU16(r)
	if err != nil {
		return false, nil, fmt.Errorf("read count: %w", err)
	}
	indices := make([]uint16, 0, n)
	for i := 0; i < int(n); i++ {
		v, err := readU16(r)
		if err != nil {
			return false, nil, fmt.Errorf("read index %d: %w", i, err)
		}
		indices = append(indices, v)
	}
	return def, indices, nil
}

// decodePermits reads all three counts before any permit.
func decodePermits(r io.Reader, a *Attribute) error { // A
	var counts [permitKinds]uint16
	for k := range counts {
		n, err := readU16(r)
		if err != nil {
			return fmt.Errorf(
				"read %s permit count: %w",
				PermitKind(k),
				err,
			)
		}
		counts[k] = n
	}
	for k, n := range counts {
		permits, err := readPermits(r, n)
		if err != nil {
			return fmt.Errorf("%s permits: %w", PermitKind(k), err)
		}
		a.permits[k] = permits
	}
	return nil
}

func readDomains(r io.Reader) ([]Domain, error) { // A
	n, err := readU16(r)
	if err != nil {
		return nil, fmt.Errorf("read domain count: %w", err)
	}
	domains := make([]Domain, 0, n)
	for i := 0; i < int(n); i++ {
		d, err := ReadDomain(r)
		if err != nil {
			return nil, fmt.Errorf("domain %d: %w", i, err)
		}
		domains = append(domains, d)
	}
	return domains, nil
}

// Encode writes the attribute body to w in the layout Decode
// reads. It fails with a *LengthError when the bytes written do
// not add up to the declared length, which happens when an
// attribute was built with an inconsistent Params.Length.
func (a *Attribute) Encode(w io.Writer) error { // A
	cw := &countingWriter{w: w}
	if err := a.encodeBody(cw); err != nil {
		return err
	}
	if cw.n != int64(a.length) {
		return &LengthError{
			Expected: int64(a.length),
			Actual:   cw.n,
		}
	}
	return nil
}

// Marshal encodes a into a new byte slice.
func Marshal(a *Attribute) ([]byte, error) { // A
	if a == nil {
		return nil, errors.New("attribute must not be nil")
	}
	var buf bytes.Buffer
	buf.Grow(a.EncodedLen())
	if err := a.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *Attribute) encodeBody(w io.Writer) error { // A
	if err := WriteSecurePool(w, a.pool); err != nil {
		return err
	}
	if err := writeU32(w, uint32(a.cpExtraEntryOffset)); err != nil {
		return fmt.Errorf("write cp extra entry offset: %w", err)
	}
	for _, v := range []uint16{
		a.cspIdentifier,
		uint16(a.accessFlags),
		a.subclassKey,
		a.resourceAccessKey,
	} {
		if err := writeU16(w, v); err != nil {
			return fmt.Errorf("write attribute header: %w", err)
		}
	}
	if err := writeAccessibility(
		w, a.defaultFieldAccess, a.nonDefaultFields,
	); err != nil {
		return fmt.Errorf("write field accessibility: %w", err)
	}
	if err := writeAccessibility(
		w, a.defaultMethodAccess, a.nonDefaultMethods,
	); err != nil {
		return fmt.Errorf("write method accessibility: %w", err)
	}
	if err := a.encodePermits(w); err != nil {
		return err
	}
	return writeDomains(w, a.domains)
}

func writeAccessibility( // A
	w io.Writer,
	def bool,
	indices []uint16,
) error {
	n, err := lenToUint16(len(indices))
	if err != nil {
		return err
	}
	if err := writeBool(w, def); err != nil {
		return err
	}
	if err := writeU16(w, n); err != nil {
		return err
	}
	for _, v := range indices {
		if err := writeU16(w, v); err != nil {
			return err
		}
	}
	return nil
}

func (a *Attribute) encodePermits(w io.Writer) error { // A
	for k, permits := range a.permits {
		n, err := lenToUint16(len(permits))
		if err != nil {
			return fmt.Errorf("%s permit count: %w", PermitKind(k), err)
		}
		if err := writeU16(w, n); err != nil {
			return fmt.Errorf(
				"write %s permit count: %w",
				PermitKind(k),
				err,
			)
		}
	}
	for k, permits := range a.permits {
		if err := writePermits(w, permits); err != nil {
			return fmt.Errorf("%s permits: %w", PermitKind(k), err)
		}
	}
	return nil
}

func writeDomains(w io.Writer, domains []Domain) error { // A
	n, err := lenToUint16(len(domains))
	if err != nil {
		return fmt.Errorf("domain count: %w", err)
	}
	if err := writeU16(w, n); err != nil {
		return fmt.Errorf("write domain count: %w", err)
	}
	for i, d := range domains {
		if err := WriteDomain(w, d); err != nil {
			return fmt.Errorf("domain %d: %w", i, err)
		}
	}
	return nil
}

func lenToUint32(value int) (uint32, error) { // A
	if value < 0 || uint64(value) > uint64(^uint32(0)) {
		return 0, fmt.Errorf(
			"length out of uint32 range: %d",
			value,
		)
	}
	// #nosec G115 -- bounds are validated just above.
	return uint32(value), nil
}
