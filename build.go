// Serialising an archive.
//
// Build makes one pass over the output in a fixed order, with no
// backtracking:
//
//  1. version (int32)
//  2. global metadata (int32 length, then bytes if non-zero)
//  3. tag table: count, then per tag its string and id, in id order
//  4. layout: each entry's offset is the sum of the lengths before it,
//     relative to the start of the content region
//  5. entry table: count, then per entry id, offset, length, tag ids
//     and metadata
//  6. content region: every entry's bytes back to back, in entry order
//
// Offsets only depend on lengths, so the content is streamed straight to
// the sink after the entry table instead of being staged first. The
// position after step 5 is the index offset a reader adds to each entry's
// offset.
package solid

import (
	"fmt"
	"hash"
	"io"
	"log/slog"
	"math"
)

// Build writes the archive to w and reports what was written.
//
// A mutable archive is left as it was, apart from each entry's recorded
// ContentOffset, and can keep accepting entries and be built again. An
// opened archive can also be built: its content is read from the backing
// source entry by entry, which rewrites it in canonical order.
//
// On failure the returned Report has Success set to false. Nothing
// already written to w is undone.
func (a *Archive) Build(w io.Writer) (*Report, error) {
	r := &Report{Algorithm: algName(a.config.HashAlgorithm)}
	if err := a.live(); err != nil {
		return r, err
	}
	if err := a.build(w, r); err != nil {
		r.Success = false
		a.log.Warn("build failed",
			slog.Int("entries", r.Entries),
			slog.Int64("bytes", r.MetadataBytes+r.ContentBytes),
			slog.Any("error", err))
		return r, fmt.Errorf("build: %w", err)
	}
	r.Success = true
	a.log.Debug("archive built",
		slog.Int("entries", r.Entries),
		slog.Int("tags", r.UniqueTags),
		slog.Int64("index_offset", r.IndexOffset),
		slog.Int64("content_bytes", r.ContentBytes))
	return r, nil
}

func (a *Archive) build(w io.Writer, r *Report) error {
	if a.version < 1 || a.version > FormatVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, a.version)
	}
	h := newHash(a.config.HashAlgorithm)
	if h == nil {
		return fmt.Errorf("unknown hash algorithm %d", a.config.HashAlgorithm)
	}
	if a.tags.len() > math.MaxInt32 || a.index.len() > math.MaxInt32 {
		return fmt.Errorf("%w: %d tags, %d entries", ErrTooLarge, a.tags.len(), a.index.len())
	}

	e := newEncoder(w, a.config.WriteBuffer)

	if err := e.int32(a.version); err != nil {
		return err
	}
	if err := e.blob(a.global); err != nil {
		return err
	}
	if err := a.writeTags(e); err != nil {
		return err
	}

	offsets, err := a.layout()
	if err != nil {
		return err
	}

	if err := a.writeEntries(e, offsets); err != nil {
		return err
	}
	r.IndexOffset = e.n
	r.MetadataBytes = e.n
	r.UniqueTags = a.tags.len()

	if err := a.writeContent(e, h, r); err != nil {
		return err
	}
	if err := e.flush(); err != nil {
		return err
	}
	r.Digest = digest(a.config.HashAlgorithm, h)

	// A building archive records where each entry landed.
	if _, ok := a.state.(*building); ok {
		i := 0
		for m := range a.index.each {
			m.ContentOffset = offsets[i]
			i++
		}
	}
	return nil
}

func (a *Archive) writeTags(e *encoder) error {
	if err := e.int32(int32(a.tags.len())); err != nil {
		return err
	}
	for _, id := range a.tags.order {
		tag, _ := a.tags.name(id)
		if err := e.str(tag); err != nil {
			return err
		}
		if err := e.int32(id); err != nil {
			return err
		}
	}
	return nil
}

// layout assigns each entry its region-relative offset, in build order.
// Every entry of a building archive must have pending content.
func (a *Archive) layout() ([]int64, error) {
	offsets := make([]int64, 0, a.index.len())
	var off int64
	for m := range a.index.each {
		if b, ok := a.state.(*building); ok {
			if _, ok := b.pending[m.ID]; !ok {
				return nil, fmt.Errorf("%w: no content for entry %q", ErrNotFound, m.ID)
			}
		}
		offsets = append(offsets, off)
		off += int64(m.ContentLength)
	}
	return offsets, nil
}

func (a *Archive) writeEntries(e *encoder, offsets []int64) error {
	if err := e.int32(int32(a.index.len())); err != nil {
		return err
	}
	i := 0
	for m := range a.index.each {
		if err := e.str(m.ID); err != nil {
			return err
		}
		if err := e.int64(offsets[i]); err != nil {
			return err
		}
		if err := e.int32(m.ContentLength); err != nil {
			return err
		}
		if err := e.int32(int32(len(m.Tags))); err != nil {
			return err
		}
		for _, id := range m.Tags {
			if err := e.int32(id); err != nil {
				return err
			}
		}
		if err := e.blob(m.Metadata); err != nil {
			return err
		}
		i++
	}
	return nil
}

// writeContent streams every entry's bytes into the content region and
// the digest. ContentBytes is the sum of the individual lengths.
func (a *Archive) writeContent(e *encoder, h hash.Hash, r *Report) error {
	for m := range a.index.each {
		data, err := a.state.content(m)
		if err != nil {
			return err
		}
		if len(data) != int(m.ContentLength) {
			return fmt.Errorf("%w: entry %q has %d bytes, index says %d",
				ErrMalformed, m.ID, len(data), m.ContentLength)
		}
		if err := e.raw(data); err != nil {
			return err
		}
		h.Write(data)
		r.ContentBytes += int64(len(data))
		r.Entries++
	}
	return nil
}
