package ue

import (
	"bytes"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/backwardspy/satisfactory-sav-parser/internal/binarytest"
	"github.com/backwardspy/satisfactory-sav-parser/memory"
)

func readInt32(r io.Reader) (int32, error) {
	return memory.ReadInt[int32](r)
}

func TestReadArrayInt32Count(t *testing.T) {
	data := binarytest.New().I32(3).I32(10).I32(20).I32(30).U8(0xAA).Bytes()
	r := bytes.NewReader(data)

	items, err := ReadArray[int32, int32](r, readInt32)
	require.NoError(t, err)
	require.Equal(t, []int32{10, 20, 30}, items)
	require.EqualValues(t, 1, r.Len())
}

func TestReadArrayInt64Count(t *testing.T) {
	data := binarytest.New().I64(2).Str("a").Str("b").Bytes()

	items, err := ReadArray[String, int64](bytes.NewReader(data), ReadString)
	require.NoError(t, err)
	require.Equal(t, []String{NewString("a"), NewString("b")}, items)
}

func TestReadArrayEmpty(t *testing.T) {
	items, err := ReadArray[int32, int32](bytes.NewReader(binarytest.New().I32(0).Bytes()), readInt32)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestReadArrayTruncatedMidSequence(t *testing.T) {
	data := binarytest.New().I32(3).I32(10).I32(20).Bytes()

	_, err := ReadArray[int32, int32](bytes.NewReader(data), readInt32)
	require.True(t, errors.Is(err, memory.ErrTruncatedInput))
	require.Contains(t, err.Error(), "element 2 of 3")
}

func TestReadArrayNegativeCount(t *testing.T) {
	_, err := ReadArray[int32, int32](bytes.NewReader(binarytest.New().I32(-1).Bytes()), readInt32)
	require.True(t, errors.Is(err, memory.ErrLengthMismatch))
}

func TestReadArrayElementErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	read := func(r io.Reader) (int32, error) {
		calls++
		if calls == 2 {
			return 0, boom
		}
		return readInt32(r)
	}

	data := binarytest.New().I32(5).I32(1).I32(2).I32(3).I32(4).I32(5).Bytes()
	_, err := ReadArray[int32, int32](bytes.NewReader(data), read)
	require.True(t, errors.Is(err, boom))
	require.Equal(t, 2, calls)
}

func TestReadElementsWithArguments(t *testing.T) {
	scale := int32(3)
	read := func(r io.Reader) (int32, error) {
		v, err := readInt32(r)
		return v * scale, err
	}

	items, err := ReadElements[int32](bytes.NewReader(binarytest.New().I32(1).I32(2).Bytes()), 2, read)
	require.NoError(t, err)
	require.Equal(t, []int32{3, 6}, items)
}

func TestReadMapPreservesOrderAndDuplicates(t *testing.T) {
	data := binarytest.New().
		I32(4).
		Str("zeta").I32(1).
		Str("alpha").I32(2).
		Str("zeta").I32(3).
		Str("mid").I32(4).
		Bytes()

	m, err := ReadMap[String, int32](bytes.NewReader(data), ReadString, readInt32)
	require.NoError(t, err)
	require.Equal(t, 4, m.Len())
	require.Equal(t, []String{NewString("zeta"), NewString("alpha"), NewString("zeta"), NewString("mid")}, m.Keys())

	v, ok := Get(m, NewString("zeta"))
	require.True(t, ok)
	require.EqualValues(t, 1, v)

	require.EqualValues(t, 3, m.Entries[2].Value)

	_, ok = Get(m, NewString("missing"))
	require.False(t, ok)
}

func TestReadMapFindAcrossEncodings(t *testing.T) {
	data := binarytest.New().I32(1).WStr("Key").I32(7).Bytes()

	m, err := ReadMap[String, int32](bytes.NewReader(data), ReadString, readInt32)
	require.NoError(t, err)

	v, ok := m.Find(func(k String) bool { return k.Equal("Key") })
	require.True(t, ok)
	require.EqualValues(t, 7, v)
}

func TestReadMapTruncatedValue(t *testing.T) {
	data := binarytest.New().I32(2).Str("a").I32(1).Str("b").Bytes()

	_, err := ReadMap[String, int32](bytes.NewReader(data), ReadString, readInt32)
	require.True(t, errors.Is(err, memory.ErrTruncatedInput))
	require.Contains(t, err.Error(), "value 1 of 2")
}

func TestReadObjectReferenceAndTransform(t *testing.T) {
	data := binarytest.New().
		Ref("Persistent_Level", "Persistent_Level:PersistentLevel.Build_Foundation_C_1").
		F32(0).F32(0).F32(0).F32(1).
		F32(100).F32(200).F32(300).
		F32(1).F32(1).F32(1).
		Bytes()
	r := bytes.NewReader(data)

	ref, err := ReadObjectReference(r)
	require.NoError(t, err)
	require.True(t, ref.LevelName.Equal("Persistent_Level"))
	require.True(t, ref.PathName.Equal("Persistent_Level:PersistentLevel.Build_Foundation_C_1"))

	transform, err := ReadFTransform(r)
	require.NoError(t, err)
	require.Equal(t, FQuat{W: 1}, transform.Rotation)
	require.Equal(t, FVector{X: 100, Y: 200, Z: 300}, transform.Translation)
	require.Equal(t, FVector{X: 1, Y: 1, Z: 1}, transform.Scale)
	require.Zero(t, r.Len())
}

func TestReadFBox(t *testing.T) {
	data := binarytest.New().
		F32(-1).F32(-2).F32(-3).
		F32(1).F32(2).F32(3).
		U8(2).
		Bytes()

	box, err := ReadFBox(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, FVector{X: -1, Y: -2, Z: -3}, box.Min)
	require.Equal(t, FVector{X: 1, Y: 2, Z: 3}, box.Max)
	require.True(t, box.IsValid)
}
