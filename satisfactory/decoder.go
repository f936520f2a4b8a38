package satisfactory

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/backwardspy/satisfactory-sav-parser/memory"
)

const DEFAULT_MAX_DEPTH = 64

type Option func(*decodeState)

// WithLogger sets where declared-size warnings go. The default discards them.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *decodeState) {
		s.logger = logger
	}
}

// WithMaxDepth bounds how deeply property lists may nest.
func WithMaxDepth(depth int) Option {
	return func(s *decodeState) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// WithStrictSizes turns declared-size disagreements into ErrLengthMismatch
// instead of warnings.
func WithStrictSizes(strict bool) Option {
	return func(s *decodeState) {
		s.strictSizes = strict
	}
}

// decodeState is threaded through every body reader.
type decodeState struct {
	logger      zerolog.Logger
	maxDepth    int
	strictSizes bool

	depth int
	// offset where the current property's sized value begins, -1 if the
	// property has no sized value yet
	valueStart int64
}

func newDecodeState(opts ...Option) *decodeState {
	s := &decodeState{
		logger:     zerolog.Nop(),
		maxDepth:   DEFAULT_MAX_DEPTH,
		valueStart: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *decodeState) enter(r io.Reader) error {
	if s.depth >= s.maxDepth {
		return memory.Errorf(r, memory.ErrDepthExceeded, "property lists nested deeper than %d", s.maxDepth)
	}
	s.depth++
	return nil
}

func (s *decodeState) leave() {
	s.depth--
}

// markValue records that the sized part of the current property starts here.
func (s *decodeState) markValue(r io.Seeker) error {
	pos, err := position(r)
	if err != nil {
		return err
	}
	s.valueStart = pos
	return nil
}

// checkSize compares a declared byte count with what was decoded since start.
func (s *decodeState) checkSize(r io.ReadSeeker, start int64, declared int64, record string) error {
	end, err := position(r)
	if err != nil {
		return err
	}

	actual := end - start
	if actual == declared {
		return nil
	}

	if s.strictSizes {
		return memory.Errorf(r, memory.ErrLengthMismatch,
			"%s declares %d bytes, decoded %d", record, declared, actual)
	}

	s.logger.Warn().
		Int64("offset", start).
		Int64("declared", declared).
		Int64("read", actual).
		Msgf("did not read declared size of %s", record)
	return nil
}

func position(r io.Seeker) (int64, error) {
	return r.Seek(0, io.SeekCurrent)
}
