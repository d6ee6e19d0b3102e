// Write primitives for the archive format.
//
// Every integer is fixed-width little-endian. Byte blobs and strings are
// prefixed with their length in bytes as an int32. The encoder counts the
// bytes it has accepted so the builder can report where the index ends
// (the index offset) without asking the sink for its position.
package solid

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

type encoder struct {
	w   *bufio.Writer
	n   int64 // bytes accepted so far
	buf [8]byte
}

func newEncoder(w io.Writer, size int) *encoder {
	return &encoder{w: bufio.NewWriterSize(w, size)}
}

// raw writes p verbatim and advances the byte count.
func (e *encoder) raw(p []byte) error {
	n, err := e.w.Write(p)
	e.n += int64(n)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

func (e *encoder) int32(v int32) error {
	binary.LittleEndian.PutUint32(e.buf[:4], uint32(v))
	return e.raw(e.buf[:4])
}

func (e *encoder) int64(v int64) error {
	binary.LittleEndian.PutUint64(e.buf[:8], uint64(v))
	return e.raw(e.buf[:8])
}

// blob writes len(p) as an int32 followed by p. A nil or empty blob is
// written as a zero length with nothing following.
func (e *encoder) blob(p []byte) error {
	if len(p) > math.MaxInt32 {
		return ErrTooLarge
	}
	if err := e.int32(int32(len(p))); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	return e.raw(p)
}

// str writes a length-prefixed UTF-8 string. The prefix counts bytes, not
// runes.
func (e *encoder) str(s string) error {
	if len(s) > math.MaxInt32 {
		return ErrTooLarge
	}
	if err := e.int32(int32(len(s))); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	n, err := e.w.WriteString(s)
	e.n += int64(n)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

func (e *encoder) flush() error {
	if err := e.w.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}
