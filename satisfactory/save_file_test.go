package satisfactory

import (
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/backwardspy/satisfactory-sav-parser/internal/binarytest"
	"github.com/backwardspy/satisfactory-sav-parser/memory"
)

func testPayload(n int) []byte {
	payload := make([]byte, n)
	for i := range payload {
		payload[i] = byte(i * 7 % 251)
	}
	return payload
}

func TestReadChunksAndReassemble(t *testing.T) {
	payload := testPayload(300000)
	data := chunked(t, payload, LOADING_COMPRESSION_CHUNK_SIZE).Bytes()

	chunks, err := ReadChunks(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	require.EqualValues(t, 0, chunks[0].Offset)
	require.EqualValues(t, LOADING_COMPRESSION_CHUNK_SIZE, chunks[0].UncompressedSize)
	require.EqualValues(t, 300000-2*LOADING_COMPRESSION_CHUNK_SIZE, chunks[2].UncompressedSize)
	require.EqualValues(t, 300000, UncompressedTotal(chunks))
	require.EqualValues(t, len(chunks[0].Data)+len(chunks[1].Data)+len(chunks[2].Data), CompressedTotal(chunks))

	body, err := Reassemble(chunks)
	require.NoError(t, err)
	require.Equal(t, payload, body)

	parallel, err := ReassembleParallel(context.Background(), chunks, 2)
	require.NoError(t, err)
	require.Equal(t, body, parallel)
}

func TestReadChunkOffsetsWithoutSeeker(t *testing.T) {
	first := chunkRecord(0, 0, deflate(t, []byte("abc")), 3)
	second := chunkRecord(0, 0, deflate(t, []byte("def")), 3)
	data := binarytest.New().Append(first).Append(second).Bytes()

	// bytes.Buffer cannot seek, so offsets come from counting
	chunks, err := ReadChunks(bytes.NewBuffer(data))
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	require.EqualValues(t, 0, chunks[0].Offset)
	require.EqualValues(t, first.Len(), chunks[1].Offset)
	require.False(t, chunks[0].HasCompressionAlgorithm())

	body, err := Decompress(bytes.NewBuffer(data))
	require.NoError(t, err)
	require.Equal(t, []byte("abcdef"), body)
}

func TestReadChunkEndOfInput(t *testing.T) {
	chunk, err := ReadChunk(bytes.NewReader(nil))
	require.NoError(t, err)
	require.Nil(t, chunk)

	chunks, err := ReadChunks(bytes.NewReader(nil))
	require.NoError(t, err)
	require.Empty(t, chunks)
}

func TestReadChunkPartialMagic(t *testing.T) {
	_, err := ReadChunk(bytes.NewReader([]byte{0xC1, 0x83}))
	require.True(t, errors.Is(err, memory.ErrTruncatedInput))
}

func TestReadChunkBadMagic(t *testing.T) {
	data := binarytest.New().U32(0xDEADBEEF).U32(0).I64(LOADING_COMPRESSION_CHUNK_SIZE).Bytes()

	_, err := ReadChunk(bytes.NewReader(data))
	require.True(t, errors.Is(err, memory.ErrSizeAssertionFailed))
}

func TestReadChunkWrongMaxSizeFailsBeforePayload(t *testing.T) {
	// nothing after the max size field
	data := binarytest.New().U32(PACKAGE_FILE_TAG).U32(0).I64(65536).Bytes()

	_, err := ReadChunk(bytes.NewReader(data))
	require.True(t, errors.Is(err, memory.ErrSizeAssertionFailed))
	require.False(t, errors.Is(err, memory.ErrTruncatedInput))
}

func TestReadChunkDuplicateSizeMismatch(t *testing.T) {
	data := binarytest.New().
		U32(PACKAGE_FILE_TAG).U32(0).I64(LOADING_COMPRESSION_CHUNK_SIZE).
		I64(10).I64(20).I64(11).I64(20).
		Zeros(10).
		Bytes()

	_, err := ReadChunk(bytes.NewReader(data))
	require.True(t, errors.Is(err, memory.ErrIntegrityMismatch))
}

func TestReadChunkTruncatedPayload(t *testing.T) {
	data := chunkRecord(0, 0, deflate(t, []byte("hello world")), 11).Bytes()

	_, err := ReadChunk(bytes.NewReader(data[:len(data)-3]))
	require.True(t, errors.Is(err, memory.ErrTruncatedInput))
}

func TestReadChunkCompressionAlgorithm(t *testing.T) {
	compressed := deflate(t, []byte("zlib"))

	chunk, err := ReadChunk(bytes.NewReader(chunkRecord(ARCHIVE_V2_HEADER_TAG, COMPRESSION_ZLIB, compressed, 4).Bytes()))
	require.NoError(t, err)
	require.True(t, chunk.HasCompressionAlgorithm())
	require.EqualValues(t, COMPRESSION_ZLIB, chunk.CompressionAlgorithm)

	_, err = ReadChunk(bytes.NewReader(chunkRecord(ARCHIVE_V2_HEADER_TAG, 1, compressed, 4).Bytes()))
	require.True(t, errors.Is(err, memory.ErrDecompressionFailed))
}

func TestReassembleDeclaredSizeMismatch(t *testing.T) {
	for _, declared := range []int{3, 5} {
		data := chunkRecord(0, 0, deflate(t, []byte("four")), declared).Bytes()
		chunks, err := ReadChunks(bytes.NewReader(data))
		require.NoError(t, err)

		_, err = Reassemble(chunks)
		require.True(t, errors.Is(err, memory.ErrIntegrityMismatch), "declared %d", declared)

		_, err = ReassembleParallel(context.Background(), chunks, 4)
		require.True(t, errors.Is(err, memory.ErrIntegrityMismatch), "declared %d", declared)
	}
}

func TestReadChunkOversizedUncompressedSize(t *testing.T) {
	data := chunkRecord(0, 0, deflate(t, []byte("abc")), LOADING_COMPRESSION_CHUNK_SIZE+1).Bytes()

	_, err := ReadChunk(bytes.NewReader(data))
	require.True(t, errors.Is(err, memory.ErrSizeAssertionFailed))
}

func TestReassembleCorruptDeclaredSizes(t *testing.T) {
	compressed := deflate(t, []byte("abc"))
	for _, declared := range []int64{1 << 62, -1} {
		chunk := Chunk{ChunkHeader: ChunkHeader{
			PackageFileTag:      PACKAGE_FILE_TAG,
			MaxChunkSize:        LOADING_COMPRESSION_CHUNK_SIZE,
			CompressedSize:      int64(len(compressed)),
			UncompressedSize:    declared,
			CompressedSizeDup:   int64(len(compressed)),
			UncompressedSizeDup: declared,
		}, Data: compressed}
		chunks := []Chunk{chunk, chunk}

		require.NotPanics(t, func() {
			_, err := Reassemble(chunks)
			require.True(t, errors.Is(err, memory.ErrIntegrityMismatch), "declared %d", declared)

			_, err = ReassembleParallel(context.Background(), chunks, 2)
			require.True(t, errors.Is(err, memory.ErrIntegrityMismatch), "declared %d", declared)
		})
	}
}

func TestReassembleCorruptPayload(t *testing.T) {
	data := chunkRecord(0, 0, []byte("definitely not zlib"), 19).Bytes()
	chunks, err := ReadChunks(bytes.NewReader(data))
	require.NoError(t, err)

	_, err = Reassemble(chunks)
	require.True(t, errors.Is(err, memory.ErrDecompressionFailed))
}

func TestReassembleParallelCancelled(t *testing.T) {
	data := chunked(t, testPayload(1000), 100).Bytes()
	chunks, err := ReadChunks(bytes.NewReader(data))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ReassembleParallel(ctx, chunks, 2)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestReassembleParallelKeepsOrder(t *testing.T) {
	payload := testPayload(5000)
	chunks, err := ReadChunks(bytes.NewReader(chunked(t, payload, 97).Bytes()))
	require.NoError(t, err)

	for _, workers := range []int{0, 1, 3, 16} {
		body, err := ReassembleParallel(context.Background(), chunks, workers)
		require.NoError(t, err)
		require.Equal(t, payload, body, "workers %d", workers)
	}
}

func TestReadSaveFile(t *testing.T) {
	bodyData := saveBody(nil, factoryLevel(""), constructorName).Bytes()
	data := testHeader().Append(chunked(t, bodyData, 64)).Bytes()

	for _, workers := range []int{1, 4} {
		save, err := ReadSaveFile(context.Background(), bytes.NewReader(data), workers, WithStrictSizes(true))
		require.NoError(t, err)
		require.True(t, save.Header.SessionName.Equal("Northern Forest"))
		require.EqualValues(t, len(bodyData), UncompressedTotal(save.Chunks))
		require.Len(t, save.Body.Persistent.Objects, 2)
		require.Equal(t, bodyData, save.Data)
	}
}

func TestReadSaveDataLeavesBodyUndecoded(t *testing.T) {
	bodyData := saveBody(nil, factoryLevel(""), constructorName).Bytes()
	data := testHeader().Append(chunked(t, bodyData, 64)).Bytes()

	save, err := ReadSaveData(context.Background(), bytes.NewBuffer(data), 1)
	require.NoError(t, err)
	require.Equal(t, bodyData, save.Data)
	require.Empty(t, save.Body.Persistent.Objects)

	require.NoError(t, save.DecodeBody(WithStrictSizes(true)))
	require.Len(t, save.Body.Persistent.Objects, 2)

	save.Data = save.Data[:len(save.Data)-1]
	require.Error(t, save.DecodeBody())
}
