// Opening an archive.
//
// Open parses the whole index in one linear pass, in the order Build
// wrote it: version, global metadata, tag table, entry table. The
// position after the entry table is the index offset, where the content
// region begins. Content is not touched until Get asks for it.
package solid

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"slices"
)

// Open parses the index of the archive held in src, which must contain
// size bytes. The returned Archive is immutable and reads content from
// src on demand; src must stay valid until Close.
func Open(src io.ReaderAt, size int64, config Config) (*Archive, error) {
	return open(src, size, config, nil)
}

// OpenBytes opens an archive held in memory.
func OpenBytes(data []byte, config Config) (*Archive, error) {
	return open(bytes.NewReader(data), int64(len(data)), config, nil)
}

func open(src io.ReaderAt, size int64, config Config, release func() error) (*Archive, error) {
	config = config.defaults()
	a := &Archive{
		config: config,
		log:    config.Logger,
		tags:   newRegistry(),
		index:  newEntryIndex(),
	}

	d := newDecoder(src, size, config.ReadBuffer)
	if err := a.parse(d); err != nil {
		a.log.Debug("open failed", slog.Int64("size", size), slog.Any("error", err))
		return nil, fmt.Errorf("open: %w", err)
	}

	a.state = &opened{
		src:         src,
		size:        size,
		indexOffset: d.pos,
		release:     release,
	}
	a.log.Debug("archive opened",
		slog.Int("version", int(a.version)),
		slog.Int("entries", a.index.len()),
		slog.Int("tags", a.tags.len()),
		slog.Int64("index_offset", d.pos))
	return a, nil
}

func (a *Archive) parse(d *decoder) error {
	version, err := d.int32("version")
	if err != nil {
		return err
	}
	if version < 1 || version > FormatVersion {
		return fmt.Errorf("%w: %w: %d", ErrMalformed, ErrUnsupportedVersion, version)
	}
	a.version = version

	if a.global, err = d.blob("global metadata"); err != nil {
		return err
	}

	if err := a.parseTags(d); err != nil {
		return err
	}
	if err := a.parseEntries(d); err != nil {
		return err
	}

	// Every entry must lie inside the content region.
	region := d.remaining()
	for m := range a.index.each {
		end := m.ContentOffset + int64(m.ContentLength)
		if m.ContentOffset < 0 || m.ContentLength < 0 || end < m.ContentOffset || end > region {
			return fmt.Errorf("%w: entry %q: content [%d, %d) outside region of %d bytes",
				ErrMalformed, m.ID, m.ContentOffset, end, region)
		}
	}
	return nil
}

func (a *Archive) parseTags(d *decoder) error {
	n, err := d.count(minTagRecord, "tag count")
	if err != nil {
		return err
	}
	for range n {
		tag, err := d.str("tag")
		if err != nil {
			return err
		}
		id, err := d.int32("tag id")
		if err != nil {
			return err
		}
		if err := a.tags.load(tag, id); err != nil {
			return err
		}
	}
	return nil
}

func (a *Archive) parseEntries(d *decoder) error {
	n, err := d.count(minEntryRecord, "entry count")
	if err != nil {
		return err
	}
	for range n {
		m, err := a.parseEntry(d)
		if err != nil {
			return err
		}
		if _, dup := a.index.lookup(m.ID); dup {
			return fmt.Errorf("%w: entry %q listed twice", ErrMalformed, m.ID)
		}
		a.index.put(m)
	}
	return nil
}

func (a *Archive) parseEntry(d *decoder) (*EntryMetadata, error) {
	id, err := d.str("entry id")
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("%w: empty entry id", ErrMalformed)
	}
	m := &EntryMetadata{ID: id}

	if m.ContentOffset, err = d.int64("content offset"); err != nil {
		return nil, err
	}
	if m.ContentLength, err = d.int32("content length"); err != nil {
		return nil, err
	}

	n, err := d.count(4, "tag reference count")
	if err != nil {
		return nil, err
	}
	if n > 0 {
		m.Tags = make([]int32, 0, n)
	}
	for range n {
		tid, err := d.int32("tag reference")
		if err != nil {
			return nil, err
		}
		if _, ok := a.tags.name(tid); !ok {
			return nil, fmt.Errorf("%w: entry %q references unknown tag id %d", ErrMalformed, id, tid)
		}
		if slices.Contains(m.Tags, tid) {
			return nil, fmt.Errorf("%w: entry %q references tag id %d twice", ErrMalformed, id, tid)
		}
		m.Tags = append(m.Tags, tid)
	}

	if m.Metadata, err = d.blob("entry metadata"); err != nil {
		return nil, err
	}
	return m, nil
}
