package resource

import "errors"

var (
	// ErrSizeMismatch is returned by Upload when the encoded data does not fill the
	// buffer exactly.
	ErrSizeMismatch = errors.New("buffer size mismatch")

	// ErrEmptyBuffer is returned when a buffer would be created with zero bytes.
	ErrEmptyBuffer = errors.New("empty buffer")
)
