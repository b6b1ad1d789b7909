package colour

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPalette is returned when an operation that needs at least one colour
	// receives a zero-length palette.
	ErrEmptyPalette = errors.New("palette is empty")

	// ErrConversionOverflow is returned when a Lab value cannot be represented
	// (NaN or infinite channels). Callers recover by clamping or keeping the
	// previous colour.
	ErrConversionOverflow = errors.New("lab value outside representable range")
)

// ColorFormatError reports a malformed hex colour string.
type ColorFormatError struct {
	Value  string
	Reason string
}

func (e *ColorFormatError) Error() string {
	return fmt.Sprintf("invalid hex colour %q: %s", e.Value, e.Reason)
}
