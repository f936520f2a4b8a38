package ue

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"
	"unicode/utf16"

	"github.com/backwardspy/satisfactory-sav-parser/memory"
)

type StringEncoding uint8

const (
	EncodingEmpty StringEncoding = iota
	EncodingUTF8
	EncodingUTF16
)

func (e StringEncoding) String() string {
	switch e {
	case EncodingUTF8:
		return "utf-8"
	case EncodingUTF16:
		return "utf-16"
	}
	return "empty"
}

// String is a length-prefixed engine string. A positive prefix is a UTF-8
// byte count and a negative one a UTF-16 code unit count, both including
// the trailing null. Zero means the empty string with no payload and no
// terminator.
//
// The payload is kept without its terminator: raw UTF-8 bytes or
// little-endian UTF-16 code units. String values are comparable.
type String struct {
	encoding StringEncoding
	data     string
}

func NewString(text string) String {
	if text == "" {
		return String{}
	}
	return String{encoding: EncodingUTF8, data: text}
}

func NewUTF16String(text string) String {
	if text == "" {
		return String{}
	}
	units := utf16.Encode([]rune(text))
	data := make([]byte, 2*len(units))
	for i, unit := range units {
		binary.LittleEndian.PutUint16(data[2*i:], unit)
	}
	return String{encoding: EncodingUTF16, data: string(data)}
}

func (s String) Encoding() StringEncoding {
	return s.encoding
}

// Bytes returns the raw payload without terminator.
func (s String) Bytes() []byte {
	return []byte(s.data)
}

// Units returns the UTF-16 code units, or nil for any other encoding.
func (s String) Units() []uint16 {
	if s.encoding != EncodingUTF16 {
		return nil
	}
	units := make([]uint16, len(s.data)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16([]byte(s.data[2*i : 2*i+2]))
	}
	return units
}

func (s String) String() string {
	switch s.encoding {
	case EncodingUTF8:
		return strings.ToValidUTF8(s.data, "\uFFFD")
	case EncodingUTF16:
		return string(utf16.Decode(s.Units()))
	}
	return ""
}

// Equal compares the decoded text, regardless of the encoding it was
// stored with.
func (s String) Equal(text string) bool {
	return s.String() == text
}

func (s String) IsEmpty() bool {
	return s.data == ""
}

func (s String) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ReadString reads an engine string. A positive length counts UTF-8 bytes and
// a negative one counts UTF-16 units, the terminator included either way.
func ReadString(r io.Reader) (String, error) {
	length, err := memory.ReadInt[int32](r)
	if err != nil {
		return String{}, err
	}

	switch {
	case length == 0:
		return String{}, nil

	case length > 0:
		payload, err := readTerminated(r, int64(length), 1)
		if err != nil {
			return String{}, err
		}
		return String{encoding: EncodingUTF8, data: string(payload)}, nil

	default:
		units := -int64(length)
		payload, err := readTerminated(r, units*2, 2)
		if err != nil {
			return String{}, err
		}
		return String{encoding: EncodingUTF16, data: string(payload)}, nil
	}
}

// readTerminated reads size bytes, terminator included. The terminator must
// be the first null unit.
func readTerminated(r io.Reader, size int64, width int) ([]byte, error) {
	var buf bytes.Buffer
	_, err := io.CopyN(&buf, r, size)
	if err != nil {
		return nil, memory.Truncated(r, err)
	}

	data := buf.Bytes()
	end := terminatorIndex(data, width)
	if end != len(data)-width {
		return nil, memory.Errorf(r, memory.ErrLengthMismatch,
			"string declares %d bytes including terminator, terminator found at %d", size, end)
	}

	return data[:end], nil
}

func terminatorIndex(data []byte, width int) int {
	if width == 1 {
		return bytes.IndexByte(data, 0)
	}
	for i := 0; i+1 < len(data); i += 2 {
		if data[i] == 0 && data[i+1] == 0 {
			return i
		}
	}
	return -1
}
