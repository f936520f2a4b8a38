// Package binarytest builds little-endian save fragments for tests.
package binarytest

import (
	"bytes"
	"encoding/binary"
	"unicode/utf16"
)

type Builder struct {
	buf bytes.Buffer
}

func New() *Builder {
	return &Builder{}
}

func (b *Builder) Bytes() []byte {
	return b.buf.Bytes()
}

func (b *Builder) Len() int {
	return b.buf.Len()
}

func (b *Builder) put(v any) *Builder {
	// writes into a bytes.Buffer cannot fail
	_ = binary.Write(&b.buf, binary.LittleEndian, v)
	return b
}

func (b *Builder) I8(v int8) *Builder     { return b.put(v) }
func (b *Builder) U8(v uint8) *Builder    { return b.put(v) }
func (b *Builder) I32(v int32) *Builder   { return b.put(v) }
func (b *Builder) U32(v uint32) *Builder  { return b.put(v) }
func (b *Builder) I64(v int64) *Builder   { return b.put(v) }
func (b *Builder) U64(v uint64) *Builder  { return b.put(v) }
func (b *Builder) F32(v float32) *Builder { return b.put(v) }
func (b *Builder) F64(v float64) *Builder { return b.put(v) }

func (b *Builder) Raw(data []byte) *Builder {
	b.buf.Write(data)
	return b
}

func (b *Builder) Zeros(n int) *Builder {
	b.buf.Write(make([]byte, n))
	return b
}

// Str writes a UTF-8 engine string; the empty string is written as a bare
// zero prefix.
func (b *Builder) Str(s string) *Builder {
	if s == "" {
		return b.I32(0)
	}
	b.I32(int32(len(s) + 1))
	b.buf.WriteString(s)
	return b.U8(0)
}

// WStr writes a UTF-16 engine string.
func (b *Builder) WStr(s string) *Builder {
	if s == "" {
		return b.I32(0)
	}
	units := utf16.Encode([]rune(s))
	b.I32(-int32(len(units) + 1))
	for _, unit := range units {
		b.put(unit)
	}
	return b.put(uint16(0))
}

func (b *Builder) Ref(level, path string) *Builder {
	return b.Str(level).Str(path)
}

// Append copies another builder's bytes.
func (b *Builder) Append(other *Builder) *Builder {
	return b.Raw(other.Bytes())
}

// Sized writes the length of body as an int32 followed by body itself.
func (b *Builder) Sized(body *Builder) *Builder {
	return b.I32(int32(body.Len())).Append(body)
}

// Sized64 is Sized with an int64 length.
func (b *Builder) Sized64(body *Builder) *Builder {
	return b.I64(int64(body.Len())).Append(body)
}
