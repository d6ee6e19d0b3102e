// Package solid implements a solid archive: a single file holding many
// named byte blobs (entries), each optionally tagged and annotated with
// opaque metadata.
//
// The file is divided into an index and a content region. The index holds
// the format version, global metadata, the tag table and the entry table,
// and is read in one linear pass when the archive is opened. The content
// region follows the index and holds every entry's bytes back to back.
// Entry offsets are relative to the start of the content region, so once
// the index is parsed any entry is a single positioned read away and the
// payload itself never has to be resident.
//
// An Archive is either mutable (created with New, accumulating entries in
// memory until Build serialises it) or immutable (created by Open over a
// finished byte source). The mode is fixed when the Archive is created.
package solid

import "errors"

// Sentinel errors for programmatic handling. Callers use errors.Is to
// distinguish a missing entry (ErrNotFound) from lifecycle misuse
// (ErrImmutable, ErrClosed) and from damaged input (ErrMalformed).
var (
	ErrNotFound           = errors.New("solid: entry not found")
	ErrDuplicateEntry     = errors.New("solid: entry already exists")
	ErrImmutable          = errors.New("solid: archive is immutable")
	ErrClosed             = errors.New("solid: archive is closed")
	ErrIO                 = errors.New("solid: i/o failure")
	ErrMalformed          = errors.New("solid: malformed archive")
	ErrUnsupportedVersion = errors.New("solid: unsupported version")
	ErrTooLarge           = errors.New("solid: value exceeds format limit")
	ErrInvalidID          = errors.New("solid: invalid entry id")
	ErrInvalidTag         = errors.New("solid: invalid tag")
)
