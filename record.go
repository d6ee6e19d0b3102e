// Entry types.
//
// EntryMetadata is the indexed form of an entry: what the entry table
// stores and what stays resident once an archive is opened. Entry is the
// caller-facing form returned by Get, carrying the content bytes and the
// tag strings resolved through the tag table.
package solid

import (
	"bytes"
	"fmt"
	"math"
	"slices"
	"unicode/utf8"
)

// FormatVersion is the newest archive version this package reads and the
// version Build writes by default.
const FormatVersion = 1

// Minimum encoded sizes, used to bound table counts before allocation.
const (
	minTagRecord   = 4 + 4             // string length + id
	minEntryRecord = 4 + 8 + 4 + 4 + 4 // id length + offset + length + tag count + metadata length
)

// EntryMetadata describes one entry as stored in the entry table.
type EntryMetadata struct {
	ID            string
	Tags          []int32 // tag ids in resolution order
	Metadata      []byte
	ContentLength int32
	ContentOffset int64 // relative to the start of the content region
}

// clone returns a copy that shares no slices with m.
func (m *EntryMetadata) clone() EntryMetadata {
	c := *m
	c.Tags = slices.Clone(m.Tags)
	c.Metadata = bytes.Clone(m.Metadata)
	return c
}

// Entry is an entry with its content and resolved tags.
type Entry struct {
	ID            string
	Contents      []byte
	Tags          []string
	Metadata      []byte
	ContentOffset int64 // relative to the start of the content region
	ContentLength int32
}

// validateEntry checks id, content, tags and metadata against the format's
// limits before anything is registered.
func validateEntry(id string, contents []byte, tags []string, metadata []byte) error {
	if id == "" || !utf8.ValidString(id) {
		return ErrInvalidID
	}
	if len(id) > math.MaxInt32 {
		return fmt.Errorf("%w: id length %d", ErrTooLarge, len(id))
	}
	if len(contents) > math.MaxInt32 {
		return fmt.Errorf("%w: content length %d", ErrTooLarge, len(contents))
	}
	if len(metadata) > math.MaxInt32 {
		return fmt.Errorf("%w: metadata length %d", ErrTooLarge, len(metadata))
	}
	if len(tags) > math.MaxInt32 {
		return fmt.Errorf("%w: %d tags", ErrTooLarge, len(tags))
	}
	for _, tag := range tags {
		if tag == "" || !utf8.ValidString(tag) {
			return fmt.Errorf("%w: %q", ErrInvalidTag, tag)
		}
		if len(tag) > math.MaxInt32 {
			return fmt.Errorf("%w: tag length %d", ErrTooLarge, len(tag))
		}
	}
	return nil
}
