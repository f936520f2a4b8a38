package ue

import (
	"io"

	"github.com/pkg/errors"

	"github.com/backwardspy/satisfactory-sav-parser/memory"
)

// ElementReader decodes one element. Per-element arguments are captured by
// the closure.
type ElementReader[T any] func(r io.Reader) (T, error)

// Count is the width of a sized container prefix.
type Count interface {
	int32 | int64
}

// ReadCount reads a non-negative element count of width C.
func ReadCount[C Count](r io.Reader) (int, error) {
	count, err := memory.ReadInt[C](r)
	if err != nil {
		return 0, err
	}
	if count < 0 {
		return 0, memory.Errorf(r, memory.ErrLengthMismatch, "negative element count %d", count)
	}
	return int(count), nil
}

// ReadElements decodes exactly count elements in order.
func ReadElements[T any](r io.Reader, count int, read ElementReader[T]) ([]T, error) {
	// the count comes from the stream, so only trust it as far as elements
	// actually decode
	items := make([]T, 0, min(count, 1024))
	for i := 0; i < count; i++ {
		item, err := read(r)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d of %d", i, count)
		}
		items = append(items, item)
	}
	return items, nil
}

// ReadArray reads a count of width C followed by that many elements.
func ReadArray[T any, C Count](r io.Reader, read ElementReader[T]) ([]T, error) {
	count, err := ReadCount[C](r)
	if err != nil {
		return nil, err
	}
	return ReadElements(r, count, read)
}
