package satisfactory

import (
	"io"

	"github.com/pkg/errors"

	"github.com/backwardspy/satisfactory-sav-parser/memory"
	"github.com/backwardspy/satisfactory-sav-parser/ue"
)

// MD5Hash is always 20 bytes on disk. Bytes is meaningful only when IsValid.
type MD5Hash struct {
	IsValid bool
	Bytes   [16]byte
}

// Header is the uncompressed metadata block at the start of a save file.
type Header struct {
	Version               int32
	SaveVersion           int32
	BuildVersion          int32
	MapName               ue.String
	MapOptions            ue.String
	SessionName           ue.String
	SecondsPlayed         int32
	SaveTimestamp         int64
	SessionVisibility     int8
	EditorObjectVersion   int32
	ModMetadata           ue.String
	ModFlags              int32
	SaveIdentifier        ue.String
	IsPartitionedWorld    bool
	MD5Hash               MD5Hash
	IsCreativeModeEnabled bool
}

// fieldReader keeps the first error so a long run of fixed fields reads
// without a check after every one.
type fieldReader struct {
	r     io.Reader
	err   error
	field string
}

func (f *fieldReader) i8(field string, dst *int8) {
	readField(f, field, dst, memory.ReadInt[int8])
}

func (f *fieldReader) i32(field string, dst *int32) {
	readField(f, field, dst, memory.ReadInt[int32])
}

func (f *fieldReader) i64(field string, dst *int64) {
	readField(f, field, dst, memory.ReadInt[int64])
}

func (f *fieldReader) flag(field string, dst *bool) {
	readField(f, field, dst, memory.ReadBool)
}

func (f *fieldReader) str(field string, dst *ue.String) {
	readField(f, field, dst, ue.ReadString)
}

func (f *fieldReader) hash(field string, dst *[16]byte) {
	readField(f, field, dst, func(r io.Reader) ([16]byte, error) {
		var data [16]byte
		err := memory.ReadFixed(r, &data)
		return data, err
	})
}

func readField[T any](f *fieldReader, field string, dst *T, read func(io.Reader) (T, error)) {
	if f.err != nil {
		return
	}
	value, err := read(f.r)
	if err != nil {
		f.err = err
		f.field = field
		return
	}
	*dst = value
}

// ReadHeader decodes the metadata header and leaves r at the first chunk.
func ReadHeader(r io.Reader) (Header, error) {
	header := Header{}
	f := &fieldReader{r: r}

	f.i32("version", &header.Version)
	f.i32("save version", &header.SaveVersion)
	f.i32("build version", &header.BuildVersion)
	f.str("map name", &header.MapName)
	f.str("map options", &header.MapOptions)
	f.str("session name", &header.SessionName)
	f.i32("seconds played", &header.SecondsPlayed)
	f.i64("save timestamp", &header.SaveTimestamp)
	f.i8("session visibility", &header.SessionVisibility)
	f.i32("editor object version", &header.EditorObjectVersion)
	f.str("mod metadata", &header.ModMetadata)
	f.i32("mod flags", &header.ModFlags)
	f.str("save identifier", &header.SaveIdentifier)
	f.flag("partitioned world flag", &header.IsPartitionedWorld)
	f.flag("md5 valid flag", &header.MD5Hash.IsValid)
	f.hash("md5 hash", &header.MD5Hash.Bytes)
	f.flag("creative mode flag", &header.IsCreativeModeEnabled)

	if f.err != nil {
		return header, errors.Wrapf(f.err, "failed to read header %s", f.field)
	}
	return header, nil
}
