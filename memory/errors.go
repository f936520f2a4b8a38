package memory

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

var (
	ErrTruncatedInput      = errors.New("truncated input")
	ErrEndOfChunks         = errors.New("end of chunks")
	ErrLengthMismatch      = errors.New("length mismatch")
	ErrUnknownTag          = errors.New("unknown tag")
	ErrSizeAssertionFailed = errors.New("size assertion failed")
	ErrIntegrityMismatch   = errors.New("integrity mismatch")
	ErrDecompressionFailed = errors.New("decompression failed")
	ErrDepthExceeded       = errors.New("nesting depth exceeded")
)

// DecodeError is a failure at a known byte offset. Kind is one of the Err*
// values above and Err, when set, is the underlying cause.
type DecodeError struct {
	Kind   error
	Offset int64
	Msg    string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("%v at offset %d", e.Kind, e.Offset)
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Is(target error) bool {
	return target == e.Kind
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Errorf builds a DecodeError positioned at the current offset of r.
func Errorf(r io.Reader, kind error, format string, args ...any) error {
	return &DecodeError{
		Kind:   kind,
		Offset: Offset(r),
		Msg:    fmt.Sprintf(format, args...),
	}
}

// WrapKind is Errorf with an underlying cause.
func WrapKind(r io.Reader, kind error, cause error, format string, args ...any) error {
	return &DecodeError{
		Kind:   kind,
		Offset: Offset(r),
		Msg:    fmt.Sprintf(format, args...),
		Err:    cause,
	}
}

// Truncated maps short reads to ErrTruncatedInput and passes anything else
// through untouched.
func Truncated(r io.Reader, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			return err
		}
		return &DecodeError{Kind: ErrTruncatedInput, Offset: Offset(r), Err: err}
	}
	return err
}
