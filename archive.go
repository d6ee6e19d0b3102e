// Archive type and lifecycle.
//
// An Archive holds the version, global metadata, tag registry and entry
// index, plus a state that says where entry content comes from:
//
//   - building: created by New. Content is held in memory keyed by id,
//     and the archive accepts new and updated entries.
//   - opened: created by Open. Content is read from the backing source at
//     indexOffset + ContentOffset; mutation is rejected with ErrImmutable.
//   - closed: after Close. Every operation fails with ErrClosed.
//
// The state is chosen when the Archive is created and only ever moves to
// closed. Only building carries pending content, so reading pending
// content from an opened archive cannot be expressed.
package solid

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"slices"
)

// Config holds archive configuration options. The zero value is usable.
type Config struct {
	Version       int32        // Version written by Build (default FormatVersion)
	HashAlgorithm int          // Content digest algorithm (default AlgXXHash3)
	ReadBuffer    int          // Buffer size for parsing the index (default 64KB)
	WriteBuffer   int          // Buffer size for Build output (default 64KB)
	SyncWrites    bool         // Call fsync at the end of BuildFile
	Logger        *slog.Logger // Debug/warn logging (default discards)
}

func (c Config) defaults() Config {
	if c.Version == 0 {
		c.Version = FormatVersion
	}
	if c.HashAlgorithm == 0 {
		c.HashAlgorithm = AlgXXHash3
	}
	if c.ReadBuffer == 0 {
		c.ReadBuffer = 64 * 1024
	}
	if c.WriteBuffer == 0 {
		c.WriteBuffer = 64 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Archive is a solid archive, either being built or opened for reading.
//
// An Archive is not safe for concurrent use. Building is single-writer.
// An opened archive reads through io.ReaderAt, so concurrent Get calls
// only race if the source's ReadAt does; callers that need more should
// serialise access or open one Archive per reader.
type Archive struct {
	config  Config
	log     *slog.Logger
	version int32
	global  []byte
	tags    *registry
	index   *entryIndex
	state   state
}

// state supplies entry content for the lifecycle variant it represents.
type state interface {
	content(m *EntryMetadata) ([]byte, error)
}

type building struct {
	pending map[string][]byte
}

func (b *building) content(m *EntryMetadata) ([]byte, error) {
	data, ok := b.pending[m.ID]
	if !ok {
		return nil, fmt.Errorf("%w: no pending content for %q", ErrNotFound, m.ID)
	}
	return data, nil
}

type opened struct {
	src         io.ReaderAt
	size        int64
	indexOffset int64
	release     func() error // closes the backing handle, if owned
}

// content seeks to the entry's absolute position and reads exactly its
// length. Nothing is cached between calls.
func (o *opened) content(m *EntryMetadata) ([]byte, error) {
	start := o.indexOffset + m.ContentOffset
	end := start + int64(m.ContentLength)
	if m.ContentOffset < 0 || m.ContentLength < 0 || end > o.size {
		return nil, fmt.Errorf("%w: entry %q spans [%d, %d) beyond %d bytes",
			ErrMalformed, m.ID, start, end, o.size)
	}
	buf := make([]byte, m.ContentLength)
	if len(buf) == 0 {
		return buf, nil
	}
	n, err := o.src.ReadAt(buf, start)
	if n == len(buf) {
		return buf, nil
	}
	if err == nil || err == io.EOF {
		return nil, fmt.Errorf("%w: entry %q: short read %d of %d bytes", ErrMalformed, m.ID, n, len(buf))
	}
	return nil, fmt.Errorf("%w: entry %q: %w", ErrIO, m.ID, err)
}

type closed struct{}

func (closed) content(*EntryMetadata) ([]byte, error) {
	return nil, ErrClosed
}

// New returns an empty mutable archive.
func New(config Config) *Archive {
	config = config.defaults()
	return &Archive{
		config:  config,
		log:     config.Logger,
		version: config.Version,
		tags:    newRegistry(),
		index:   newEntryIndex(),
		state:   &building{pending: make(map[string][]byte)},
	}
}

// Close releases the backing source and the in-memory tables. It is safe
// to call more than once; every later operation fails with ErrClosed.
func (a *Archive) Close() error {
	var err error
	switch s := a.state.(type) {
	case closed:
		return nil
	case *opened:
		if s.release != nil {
			err = s.release()
		}
	}
	a.state = closed{}
	a.tags = nil
	a.index = nil
	a.global = nil
	a.log.Debug("archive closed")
	if err != nil {
		return fmt.Errorf("%w: close: %w", ErrIO, err)
	}
	return nil
}

// live reports ErrClosed once the archive has been closed.
func (a *Archive) live() error {
	if _, ok := a.state.(closed); ok {
		return ErrClosed
	}
	return nil
}

// pending returns the building state, or the error a mutation on the
// current state must fail with.
func (a *Archive) pending() (*building, error) {
	switch s := a.state.(type) {
	case *building:
		return s, nil
	case *opened:
		return nil, ErrImmutable
	default:
		return nil, ErrClosed
	}
}

// SetGlobalMetadata attaches an archive-wide metadata blob. A nil or
// empty blob clears it; both are stored as a zero length.
func (a *Archive) SetGlobalMetadata(data []byte) error {
	if _, err := a.pending(); err != nil {
		return err
	}
	if len(data) == 0 {
		a.global = nil
		return nil
	}
	a.global = bytes.Clone(data)
	return nil
}

// Add inserts a new entry. It fails with ErrDuplicateEntry if id is
// already present, leaving the existing entry untouched.
func (a *Archive) Add(id string, contents []byte, tags []string, metadata []byte) error {
	b, err := a.pending()
	if err != nil {
		return err
	}
	if _, ok := a.index.lookup(id); ok {
		return fmt.Errorf("%w: %q", ErrDuplicateEntry, id)
	}
	return a.put(b, id, contents, tags, metadata)
}

// Set inserts or replaces an entry. A replaced entry's content, tags and
// metadata are all superseded; tag ids already assigned stay assigned.
func (a *Archive) Set(id string, contents []byte, tags []string, metadata []byte) error {
	b, err := a.pending()
	if err != nil {
		return err
	}
	return a.put(b, id, contents, tags, metadata)
}

// put validates everything before touching the registry, so a rejected
// entry leaves no tags behind. Content and metadata are copied.
func (a *Archive) put(b *building, id string, contents []byte, tags []string, metadata []byte) error {
	if err := validateEntry(id, contents, tags, metadata); err != nil {
		return err
	}

	ids := make([]int32, 0, len(tags))
	for _, tag := range tags {
		tid, err := a.tags.resolve(tag)
		if err != nil {
			return err
		}
		if !slices.Contains(ids, tid) {
			ids = append(ids, tid)
		}
	}

	var meta []byte
	if len(metadata) > 0 {
		meta = bytes.Clone(metadata)
	}
	data := bytes.Clone(contents)
	if data == nil {
		data = []byte{}
	}

	a.index.put(&EntryMetadata{
		ID:            id,
		Tags:          ids,
		Metadata:      meta,
		ContentLength: int32(len(data)),
	})
	b.pending[id] = data
	return nil
}

// Get returns the entry stored under id, or ErrNotFound. On an opened
// archive each call reads the content from the backing source afresh.
func (a *Archive) Get(id string) (*Entry, error) {
	if err := a.live(); err != nil {
		return nil, err
	}
	m, ok := a.index.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return a.entry(m)
}

// Has reports whether id is present.
func (a *Archive) Has(id string) (bool, error) {
	if err := a.live(); err != nil {
		return false, err
	}
	_, ok := a.index.lookup(id)
	return ok, nil
}

// entry resolves m for a caller. Pending content is the building
// archive's own buffer, so it is copied; an opened archive reads a fresh
// buffer on every call.
func (a *Archive) entry(m *EntryMetadata) (*Entry, error) {
	data, err := a.state.content(m)
	if err != nil {
		return nil, err
	}
	if _, ok := a.state.(*building); ok {
		data = bytes.Clone(data)
	}
	return &Entry{
		ID:            m.ID,
		Contents:      data,
		Tags:          a.tags.strings(m.Tags),
		Metadata:      bytes.Clone(m.Metadata),
		ContentOffset: m.ContentOffset,
		ContentLength: m.ContentLength,
	}, nil
}

// ByTag returns every entry carrying tag, with content, in the order the
// entries were added (or parsed). An unknown tag yields an empty result
// and does not register the tag.
func (a *Archive) ByTag(tag string) ([]*Entry, error) {
	if err := a.live(); err != nil {
		return nil, err
	}
	tid, ok := a.tags.lookup(tag)
	if !ok {
		return nil, nil
	}
	list := a.index.tagged(tid)
	out := make([]*Entry, 0, len(list))
	for _, m := range list {
		e, err := a.entry(m)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// MetadataByTag is ByTag without reading any content. The results are
// copies.
func (a *Archive) MetadataByTag(tag string) ([]EntryMetadata, error) {
	if err := a.live(); err != nil {
		return nil, err
	}
	tid, ok := a.tags.lookup(tag)
	if !ok {
		return nil, nil
	}
	list := a.index.tagged(tid)
	out := make([]EntryMetadata, len(list))
	for i, m := range list {
		out[i] = m.clone()
	}
	return out, nil
}

// Metadata returns the indexed metadata for id without reading content.
func (a *Archive) Metadata(id string) (EntryMetadata, error) {
	if err := a.live(); err != nil {
		return EntryMetadata{}, err
	}
	m, ok := a.index.lookup(id)
	if !ok {
		return EntryMetadata{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return m.clone(), nil
}

// IDs returns entry ids in build (or parse) order.
func (a *Archive) IDs() ([]string, error) {
	if err := a.live(); err != nil {
		return nil, err
	}
	return slices.Clone(a.index.order), nil
}

// Tags returns the known tags in registration (or tag table) order.
func (a *Archive) Tags() ([]string, error) {
	if err := a.live(); err != nil {
		return nil, err
	}
	return a.tags.strings(a.tags.order), nil
}

// Len returns the number of entries.
func (a *Archive) Len() (int, error) {
	if err := a.live(); err != nil {
		return 0, err
	}
	return a.index.len(), nil
}

// Version returns the archive's format version.
func (a *Archive) Version() (int32, error) {
	if err := a.live(); err != nil {
		return 0, err
	}
	return a.version, nil
}

// GlobalMetadata returns a copy of the archive-wide metadata blob, or nil.
func (a *Archive) GlobalMetadata() ([]byte, error) {
	if err := a.live(); err != nil {
		return nil, err
	}
	return bytes.Clone(a.global), nil
}

// IndexOffset returns the absolute position of the content region. It is
// only known for an opened archive; a building archive reports -1.
func (a *Archive) IndexOffset() (int64, error) {
	switch s := a.state.(type) {
	case *opened:
		return s.indexOffset, nil
	case *building:
		return -1, nil
	default:
		return 0, ErrClosed
	}
}

// Mutable reports whether the archive accepts new entries.
func (a *Archive) Mutable() bool {
	_, ok := a.state.(*building)
	return ok
}
