package source

// streaming.go provides the reader chain used for delimited text sources.
//
// These readers wrap io.Reader to handle common export issues without
// loading the whole file into memory:
//
//   - bomSkippingReader: Removes the UTF-8 BOM Excel writes in front of CSV
//   - utf8Sanitizer: Replaces invalid UTF-8 (Latin-1 exports) with U+FFFD
//   - countingReader: Tracks bytes read for load logging
//
// Use wrapForStreaming to apply all transforms in the correct order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bomSkippingReader drops a leading UTF-8 byte order mark.
type bomSkippingReader struct {
	r       *bufio.Reader
	checked bool
}

func newBOMSkippingReader(r io.Reader) *bomSkippingReader {
	return &bomSkippingReader{r: bufio.NewReader(r)}
}

func (b *bomSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		if head, err := b.r.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
			_, _ = b.r.Discard(len(utf8BOM))
		}
	}
	return b.r.Read(p)
}

// utf8Sanitizer replaces invalid UTF-8 sequences with U+FFFD on the fly.
// A multi-byte rune split across two reads is carried over to the next one.
type utf8Sanitizer struct {
	r       io.Reader
	pending []byte // incomplete trailing rune from the previous read
	out     []byte // sanitized bytes not yet handed to the caller
	err     error
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	for len(s.out) == 0 {
		if s.err != nil {
			if len(s.pending) > 0 {
				s.out = bytes.ToValidUTF8(s.pending, []byte("\uFFFD"))
				s.pending = nil
				break
			}
			return 0, s.err
		}

		buf := make([]byte, 32*1024)
		n, err := s.r.Read(buf)
		s.err = err
		data := append(s.pending, buf[:n]...)
		s.pending = nil

		keep := incompleteTail(data)
		if keep > 0 && err == nil {
			s.pending = append([]byte(nil), data[len(data)-keep:]...)
			data = data[:len(data)-keep]
		}
		if utf8.Valid(data) {
			s.out = data
		} else {
			s.out = bytes.ToValidUTF8(data, []byte("\uFFFD"))
		}
	}

	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

// incompleteTail returns how many trailing bytes form the start of a rune
// that needs more input to decode.
func incompleteTail(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		c := data[len(data)-i]
		if c < utf8.RuneSelf {
			return 0
		}
		if utf8.RuneStart(c) {
			if !utf8.FullRune(data[len(data)-i:]) {
				return i
			}
			return 0
		}
	}
	return 0
}

// countingReader tracks bytes read.
type countingReader struct {
	r         io.Reader
	BytesRead int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.BytesRead += int64(n)
	return n, err
}

// wrapForStreaming strips the BOM, sanitizes UTF-8 and counts bytes, in
// that order.
func wrapForStreaming(r io.Reader) *countingReader {
	return &countingReader{r: newUTF8Sanitizer(newBOMSkippingReader(r))}
}
