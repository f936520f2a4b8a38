package satisfactory

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/backwardspy/satisfactory-sav-parser/memory"
)

const (
	PACKAGE_FILE_TAG               = 0x9E2A83C1
	ARCHIVE_V2_HEADER_TAG          = 0x22222222
	LOADING_COMPRESSION_CHUNK_SIZE = 131072
	COMPRESSION_ZLIB               = 3
)

type ChunkHeader struct {
	PackageFileTag uint32
	ArchiveHeader  uint32
	MaxChunkSize   int64
	// only on disk when ArchiveHeader is ARCHIVE_V2_HEADER_TAG
	CompressionAlgorithm int8
	CompressedSize       int64
	UncompressedSize     int64
	CompressedSizeDup    int64
	UncompressedSizeDup  int64
}

func (h ChunkHeader) HasCompressionAlgorithm() bool {
	return h.ArchiveHeader == ARCHIVE_V2_HEADER_TAG
}

type Chunk struct {
	ChunkHeader
	// where the record started, -1 when the input cannot report offsets
	Offset int64
	Data   []byte
}

// CompressedTotal sums the declared compressed sizes.
func CompressedTotal(chunks []Chunk) int64 {
	var total int64
	for _, chunk := range chunks {
		total += chunk.CompressedSize
	}
	return total
}

// UncompressedTotal sums the declared uncompressed sizes.
func UncompressedTotal(chunks []Chunk) int64 {
	var total int64
	for _, chunk := range chunks {
		total += chunk.UncompressedSize
	}
	return total
}

func readChunkHeader(r io.Reader) (ChunkHeader, error) {
	header := ChunkHeader{}
	var err error

	header.PackageFileTag, err = memory.ReadInt[uint32](r)
	if errors.Is(err, io.EOF) {
		return header, memory.WrapKind(r, memory.ErrEndOfChunks, err, "no chunk record")
	}
	if err != nil {
		return header, err
	}
	if header.PackageFileTag != PACKAGE_FILE_TAG {
		return header, memory.Errorf(r, memory.ErrSizeAssertionFailed,
			"chunk magic is %#08x, expected %#08x", header.PackageFileTag, PACKAGE_FILE_TAG)
	}

	header.ArchiveHeader, err = memory.ReadInt[uint32](r)
	if err != nil {
		return header, err
	}

	header.MaxChunkSize, err = memory.ReadInt[int64](r)
	if err != nil {
		return header, err
	}
	if header.MaxChunkSize != LOADING_COMPRESSION_CHUNK_SIZE {
		return header, memory.Errorf(r, memory.ErrSizeAssertionFailed,
			"max chunk size is %d, expected %d", header.MaxChunkSize, LOADING_COMPRESSION_CHUNK_SIZE)
	}

	if header.HasCompressionAlgorithm() {
		header.CompressionAlgorithm, err = memory.ReadInt[int8](r)
		if err != nil {
			return header, err
		}
		if header.CompressionAlgorithm != COMPRESSION_ZLIB {
			return header, memory.Errorf(r, memory.ErrDecompressionFailed,
				"compression algorithm %d is not zlib", header.CompressionAlgorithm)
		}
	}

	sizes := [4]int64{}
	err = memory.ReadFixed(r, &sizes)
	if err != nil {
		return header, err
	}
	header.CompressedSize = sizes[0]
	header.UncompressedSize = sizes[1]
	header.CompressedSizeDup = sizes[2]
	header.UncompressedSizeDup = sizes[3]

	if header.CompressedSize != header.CompressedSizeDup {
		return header, memory.Errorf(r, memory.ErrIntegrityMismatch,
			"compressed size %d disagrees with its copy %d", header.CompressedSize, header.CompressedSizeDup)
	}
	if header.UncompressedSize != header.UncompressedSizeDup {
		return header, memory.Errorf(r, memory.ErrIntegrityMismatch,
			"uncompressed size %d disagrees with its copy %d", header.UncompressedSize, header.UncompressedSizeDup)
	}
	if header.CompressedSize < 0 || header.UncompressedSize < 0 {
		return header, memory.Errorf(r, memory.ErrLengthMismatch,
			"negative chunk sizes %d/%d", header.CompressedSize, header.UncompressedSize)
	}
	if header.UncompressedSize > header.MaxChunkSize {
		return header, memory.Errorf(r, memory.ErrSizeAssertionFailed,
			"uncompressed size %d exceeds max chunk size %d", header.UncompressedSize, header.MaxChunkSize)
	}

	return header, nil
}

// ReadChunk reads one compressed chunk record. It returns nil, nil when the
// input ends exactly where the next record would begin.
func ReadChunk(r io.Reader) (*Chunk, error) {
	if memory.Offset(r) < 0 {
		r = memory.NewCountingReader(r)
	}
	offset := memory.Offset(r)

	header, err := readChunkHeader(r)
	if errors.Is(err, memory.ErrEndOfChunks) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read chunk header")
	}

	data := bytes.Buffer{}
	_, err = io.CopyN(&data, r, header.CompressedSize)
	if err != nil {
		return nil, errors.Wrapf(memory.Truncated(r, err), "failed to read %d byte chunk payload", header.CompressedSize)
	}

	return &Chunk{
		ChunkHeader: header,
		Offset:      offset,
		Data:        data.Bytes(),
	}, nil
}

// ReadChunks reads chunk records until the input runs out.
func ReadChunks(r io.Reader) ([]Chunk, error) {
	if memory.Offset(r) < 0 {
		r = memory.NewCountingReader(r)
	}

	chunks := []Chunk{}
	for {
		chunk, err := ReadChunk(r)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read chunk %d", len(chunks))
		}
		if chunk == nil {
			return chunks, nil
		}
		chunks = append(chunks, *chunk)
	}
}

func decompressChunk(chunk Chunk) ([]byte, error) {
	if chunk.UncompressedSize < 0 || chunk.UncompressedSize > LOADING_COMPRESSION_CHUNK_SIZE {
		return nil, &memory.DecodeError{
			Kind:   memory.ErrIntegrityMismatch,
			Offset: chunk.Offset,
			Msg:    fmt.Sprintf("chunk declares %d uncompressed bytes, at most %d allowed", chunk.UncompressedSize, LOADING_COMPRESSION_CHUNK_SIZE),
		}
	}

	zr, err := zlib.NewReader(bytes.NewReader(chunk.Data))
	if err != nil {
		return nil, &memory.DecodeError{Kind: memory.ErrDecompressionFailed, Offset: chunk.Offset, Err: err}
	}
	defer zr.Close()

	buf := bytes.Buffer{}
	buf.Grow(int(chunk.UncompressedSize))

	// one byte over the declared size is enough to notice a chunk that grew
	_, err = io.Copy(&buf, io.LimitReader(zr, chunk.UncompressedSize+1))
	if err != nil {
		return nil, &memory.DecodeError{Kind: memory.ErrDecompressionFailed, Offset: chunk.Offset, Err: err}
	}

	if int64(buf.Len()) != chunk.UncompressedSize {
		return nil, &memory.DecodeError{
			Kind:   memory.ErrIntegrityMismatch,
			Offset: chunk.Offset,
			Msg:    fmt.Sprintf("chunk inflated to %d bytes, declared %d", buf.Len(), chunk.UncompressedSize),
		}
	}

	return buf.Bytes(), nil
}

// Reassemble inflates every chunk and concatenates the results in order.
func Reassemble(chunks []Chunk) ([]byte, error) {
	var body []byte

	for i, chunk := range chunks {
		data, err := decompressChunk(chunk)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decompress chunk %d", i)
		}
		body = append(body, data...)
	}

	err := checkReassembled(body, chunks)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// ReassembleParallel is Reassemble with up to workers chunks inflating at
// once. The output is identical.
func ReassembleParallel(ctx context.Context, chunks []Chunk, workers int) ([]byte, error) {
	parts := make([][]byte, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i := range chunks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := decompressChunk(chunks[i])
			if err != nil {
				return errors.Wrapf(err, "failed to decompress chunk %d", i)
			}
			parts[i] = data
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var body []byte
	for _, part := range parts {
		body = append(body, part...)
	}

	err := checkReassembled(body, chunks)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func checkReassembled(body []byte, chunks []Chunk) error {
	expected := UncompressedTotal(chunks)
	if int64(len(body)) != expected {
		return &memory.DecodeError{
			Kind:   memory.ErrIntegrityMismatch,
			Offset: -1,
			Msg:    fmt.Sprintf("reassembled %d bytes, chunks declare %d", len(body), expected),
		}
	}
	return nil
}

// Decompress reads every chunk left in r and returns the reassembled body.
func Decompress(r io.Reader) ([]byte, error) {
	chunks, err := ReadChunks(r)
	if err != nil {
		return nil, err
	}
	return Reassemble(chunks)
}

type SaveFile struct {
	Header Header
	Chunks []Chunk
	// reassembled body bytes, before decoding
	Data []byte `json:"-"`
	Body Body
}

// ReadSaveData reads the metadata header and every chunk, then reassembles
// the body bytes into Data. Body is left for DecodeBody.
func ReadSaveData(ctx context.Context, r io.Reader, workers int) (*SaveFile, error) {
	if memory.Offset(r) < 0 {
		r = memory.NewCountingReader(r)
	}

	header, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	chunks, err := ReadChunks(r)
	if err != nil {
		return nil, err
	}

	var data []byte
	if workers > 1 {
		data, err = ReassembleParallel(ctx, chunks, workers)
	} else {
		data, err = Reassemble(chunks)
	}
	if err != nil {
		return nil, err
	}

	return &SaveFile{
		Header: header,
		Chunks: chunks,
		Data:   data,
	}, nil
}

// DecodeBody decodes Data into Body.
func (s *SaveFile) DecodeBody(opts ...Option) error {
	body, err := ReadBody(bytes.NewReader(s.Data), opts...)
	if err != nil {
		return errors.Wrap(err, "failed to read body")
	}
	s.Body = body
	return nil
}

// ReadSaveFile decodes a whole save: metadata header, chunks, body.
func ReadSaveFile(ctx context.Context, r io.Reader, workers int, opts ...Option) (*SaveFile, error) {
	save, err := ReadSaveData(ctx, r, workers)
	if err != nil {
		return nil, err
	}

	err = save.DecodeBody(opts...)
	if err != nil {
		return nil, err
	}
	return save, nil
}
