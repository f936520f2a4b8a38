package satisfactory

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"

	"github.com/backwardspy/satisfactory-sav-parser/internal/binarytest"
)

func none() *binarytest.Builder {
	return binarytest.New().Str("None")
}

// property writes a tagged property whose declared size is the length of
// value. tag holds the type-specific tag fields before the closing byte.
func property(name, propertyType string, tag, value *binarytest.Builder) *binarytest.Builder {
	b := binarytest.New().Str(name).Str(propertyType).I32(int32(value.Len())).I32(0)
	if tag != nil {
		b.Append(tag)
	}
	return b.U8(0).Append(value)
}

func structProperty(name, structType string, value *binarytest.Builder) *binarytest.Builder {
	return binarytest.New().
		Str(name).Str("StructProperty").I32(int32(value.Len())).I32(0).
		Str(structType).Zeros(16).U8(0).
		Append(value)
}

func readTestProperties(data []byte, opts ...Option) (PropertyList, *bytes.Reader, error) {
	r := bytes.NewReader(data)
	list, err := readProperties(r, newDecodeState(opts...))
	return list, r, err
}

func identityTransform(b *binarytest.Builder) *binarytest.Builder {
	return b.
		F32(0).F32(0).F32(0).F32(1).
		F32(0).F32(0).F32(0).
		F32(1).F32(1).F32(1)
}

func actorHeader(typePath, instance string) *binarytest.Builder {
	b := binarytest.New().I32(OBJECT_TYPE_ACTOR).
		Str(typePath).Str("Persistent_Level").Str(instance).
		I32(1)
	return identityTransform(b).I32(0)
}

func componentHeader(typePath, instance, parent string) *binarytest.Builder {
	return binarytest.New().I32(OBJECT_TYPE_COMPONENT).
		Str(typePath).Str("Persistent_Level").Str(instance).
		Str(parent)
}

func actorObject(parent string, components []string, properties *binarytest.Builder) *binarytest.Builder {
	body := binarytest.New().Ref("Persistent_Level", parent).I32(int32(len(components)))
	for _, component := range components {
		body.Ref("Persistent_Level", component)
	}
	body.Append(properties).Zeros(OBJECT_TRAILER_SIZE)
	return binarytest.New().Sized(body)
}

func componentObject(properties *binarytest.Builder) *binarytest.Builder {
	body := binarytest.New().Append(properties).Zeros(OBJECT_TRAILER_SIZE)
	return binarytest.New().Sized(body)
}

// saveLevel writes a level; name "" means the persistent level.
func saveLevel(name string, headers, objects []*binarytest.Builder) *binarytest.Builder {
	b := binarytest.New()
	if name != "" {
		b.Str(name)
	}

	b.I32(int32(len(headers)))
	for _, header := range headers {
		b.Append(header)
	}
	b.I32(0)

	objectsBody := binarytest.New().I32(int32(len(objects)))
	for _, object := range objects {
		objectsBody.Append(object)
	}
	b.Sized64(objectsBody)

	return b.I32(0)
}

func saveBody(sublevels []*binarytest.Builder, persistent *binarytest.Builder, refs ...string) *binarytest.Builder {
	inner := binarytest.New().I32(int32(len(sublevels)))
	for _, sublevel := range sublevels {
		inner.Append(sublevel)
	}
	inner.Append(persistent)
	inner.I32(int32(len(refs)))
	for _, ref := range refs {
		inner.Ref("Persistent_Level", ref)
	}
	return binarytest.New().Sized64(inner)
}

func deflate(t *testing.T, payload []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func chunkRecord(archiveHeader uint32, algorithm int8, compressed []byte, uncompressed int) *binarytest.Builder {
	b := binarytest.New().
		U32(PACKAGE_FILE_TAG).
		U32(archiveHeader).
		I64(LOADING_COMPRESSION_CHUNK_SIZE)
	if archiveHeader == ARCHIVE_V2_HEADER_TAG {
		b.I8(algorithm)
	}
	return b.
		I64(int64(len(compressed))).I64(int64(uncompressed)).
		I64(int64(len(compressed))).I64(int64(uncompressed)).
		Raw(compressed)
}

// chunked splits payload into zlib chunks of at most size bytes each.
func chunked(t *testing.T, payload []byte, size int) *binarytest.Builder {
	t.Helper()

	b := binarytest.New()
	for start := 0; start < len(payload); start += size {
		end := min(start+size, len(payload))
		part := payload[start:end]
		b.Append(chunkRecord(ARCHIVE_V2_HEADER_TAG, COMPRESSION_ZLIB, deflate(t, part), len(part)))
	}
	return b
}
