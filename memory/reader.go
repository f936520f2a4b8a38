package memory

import "io"

// CountingReader tracks how many bytes have been consumed from a stream that
// cannot seek.
type CountingReader struct {
	r      io.Reader
	offset int64
}

func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.offset += int64(n)
	return n, err
}

func (c *CountingReader) Offset() int64 {
	return c.offset
}

type offsetter interface {
	Offset() int64
}

// Offset reports the current position of r, or -1 when r can neither seek
// nor count.
func Offset(r io.Reader) int64 {
	switch v := r.(type) {
	case offsetter:
		return v.Offset()
	case io.Seeker:
		pos, err := v.Seek(0, io.SeekCurrent)
		if err != nil {
			return -1
		}
		return pos
	}
	return -1
}
