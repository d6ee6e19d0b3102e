// Read primitives for the archive format.
//
// The decoder reads the index through an io.SectionReader so that parsing
// never moves a shared file position, and it knows the total source size
// up front. Every length read from the input is checked against the bytes
// that remain before anything is allocated or read: a declared length
// that runs past the end is reported as ErrMalformed rather than
// over-reading or allocating whatever a corrupt prefix asks for.
package solid

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

type decoder struct {
	r    *bufio.Reader
	pos  int64 // bytes consumed so far
	size int64 // total bytes in the source
	buf  [8]byte
}

func newDecoder(src io.ReaderAt, size int64, bufSize int) *decoder {
	section := io.NewSectionReader(src, 0, size)
	return &decoder{r: bufio.NewReaderSize(section, bufSize), size: size}
}

func (d *decoder) remaining() int64 {
	return d.size - d.pos
}

// need fails with ErrMalformed when n bytes are not available.
func (d *decoder) need(n int64, what string) error {
	if n < 0 || n > d.remaining() {
		return fmt.Errorf("%w: %s: need %d bytes at offset %d, %d remain",
			ErrMalformed, what, n, d.pos, d.remaining())
	}
	return nil
}

// read fills p. A short read inside the declared structure is malformed
// input; anything else is a transport failure.
func (d *decoder) read(p []byte, what string) error {
	if err := d.need(int64(len(p)), what); err != nil {
		return err
	}
	n, err := io.ReadFull(d.r, p)
	d.pos += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: %s: unexpected end of input at offset %d", ErrMalformed, what, d.pos)
		}
		return fmt.Errorf("%w: %s: %w", ErrIO, what, err)
	}
	return nil
}

func (d *decoder) int32(what string) (int32, error) {
	if err := d.read(d.buf[:4], what); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(d.buf[:4])), nil
}

func (d *decoder) int64(what string) (int64, error) {
	if err := d.read(d.buf[:8], what); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(d.buf[:8])), nil
}

// length reads an int32 length prefix and checks it against the remaining
// input.
func (d *decoder) length(what string) (int, error) {
	n, err := d.int32(what)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %s: negative length %d", ErrMalformed, what, n)
	}
	if err := d.need(int64(n), what); err != nil {
		return 0, err
	}
	return int(n), nil
}

// count reads an int32 record count. Each record occupies at least min
// bytes, so a count the remaining input cannot hold is rejected before
// any table is allocated.
func (d *decoder) count(min int64, what string) (int, error) {
	n, err := d.int32(what)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %s: negative count %d", ErrMalformed, what, n)
	}
	if int64(n)*min > d.remaining() {
		return 0, fmt.Errorf("%w: %s: %d records cannot fit in %d bytes",
			ErrMalformed, what, n, d.remaining())
	}
	return int(n), nil
}

// blob reads a length-prefixed byte blob. A zero length yields nil.
func (d *decoder) blob(what string) ([]byte, error) {
	n, err := d.length(what)
	if err != nil || n == 0 {
		return nil, err
	}
	p := make([]byte, n)
	if err := d.read(p, what); err != nil {
		return nil, err
	}
	return p, nil
}

// str reads a length-prefixed string and rejects invalid UTF-8.
func (d *decoder) str(what string) (string, error) {
	p, err := d.blob(what)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(p) {
		return "", fmt.Errorf("%w: %s: invalid UTF-8", ErrMalformed, what)
	}
	return string(p), nil
}
