package memory

import (
	"encoding/binary"
	"io"
)

type Int interface {
	int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64
}

type Number interface {
	Int | float32 | float64
}

// ReadInt reads one little-endian value. Running out of input is reported as
// ErrTruncatedInput; a clean io.EOF stays reachable through errors.Is.
func ReadInt[T Number](r io.Reader) (T, error) {
	var value T
	err := binary.Read(r, binary.LittleEndian, &value)
	if err != nil {
		return 0, Truncated(r, err)
	}
	return value, nil
}

// ReadBytes reads exactly n bytes.
func ReadBytes(r io.Reader, n int) ([]byte, error) {
	data := make([]byte, n)
	_, err := io.ReadFull(r, data)
	if err != nil {
		return nil, Truncated(r, err)
	}
	return data, nil
}

// ReadFixed fills a fixed-size array or struct of fixed-size fields.
func ReadFixed(r io.Reader, data any) error {
	err := binary.Read(r, binary.LittleEndian, data)
	if err != nil {
		return Truncated(r, err)
	}
	return nil
}

// Bool is the one nonzero-is-true rule used for every flag in the format.
func Bool(value int32) bool {
	return value != 0
}

// ReadBool reads a 32-bit flag.
func ReadBool(r io.Reader) (bool, error) {
	value, err := ReadInt[int32](r)
	if err != nil {
		return false, err
	}
	return Bool(value), nil
}
