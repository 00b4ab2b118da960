package trusted

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat marks an attribute whose bytes do not match
	// the wire layout or its declared length.
	ErrFormat = errors.New("trusted: malformed attribute")
	// ErrBadReference marks a secure pool index that is zero,
	// out of range, or points at an entry of the wrong tag.
	ErrBadReference = errors.New("trusted: bad reference")
)

// LengthError reports a disagreement between the declared
// attribute length and the bytes actually consumed or
// produced. Err is set when the stream ended before the
// attribute was complete.
type LengthError struct { // A
	Expected int64
	Actual   int64
	Err      error
}

func (e *LengthError) Error() string { // A
	if e.Err != nil {
		return fmt.Sprintf(
			"trusted: attribute truncated after %d of %d "+
				"declared bytes: %v",
			e.Actual,
			e.Expected,
			e.Err,
		)
	}
	return fmt.Sprintf(
		"trusted: attribute length mismatch: declared %d, "+
			"actual %d",
		e.Expected,
		e.Actual,
	)
}

// Is reports LengthError as an ErrFormat.
func (e *LengthError) Is(target error) bool { // A
	return target == ErrFormat
}

func (e *LengthError) Unwrap() error { // A
	return e.Err
}

// TagError reports an unrecognized secure pool tag.
type TagError struct { // A
	Tag   Tag
	Index int
}

func (e *TagError) Error() string { // A
	return fmt.Sprintf(
		"trusted: unknown constant tag %d at secure pool index %d",
		uint8(e.Tag),
		e.Index,
	)
}

// Is reports TagError as an ErrFormat.
func (e *TagError) Is(target error) bool { // A
	return target == ErrFormat
}

// ReferenceError describes a secure pool index that could not
// be resolved to an entry of the expected tag. Actual is zero
// when no entry exists at Index.
type ReferenceError struct { // A
	Index    uint16
	Expected Tag
	Actual   Tag
	PoolLen  int
}

func (e *ReferenceError) Error() string { // A
	switch {
	case e.Index == 0:
		return fmt.Sprintf(
			"trusted: index 0 used where a %s entry is required",
			e.Expected,
		)
	case int(e.Index) > e.PoolLen:
		return fmt.Sprintf(
			"trusted: index %d out of range, secure pool has "+
				"%d entries (want %s)",
			e.Index,
			e.PoolLen,
			e.Expected,
		)
	default:
		return fmt.Sprintf(
			"trusted: index %d is a %s entry, want %s",
			e.Index,
			e.Actual,
			e.Expected,
		)
	}
}

// Is reports ReferenceError as an ErrBadReference.
func (e *ReferenceError) Is(target error) bool { // A
	return target == ErrBadReference
}
