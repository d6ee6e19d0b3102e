// Entry index and inverted tag index.
//
// entries maps an id to its metadata; order keeps ids in registration
// (or parse) order, which is the order Build lays entries out in. byTag
// maps a tag id to the entries carrying it, in the order they were put.
package solid

import "slices"

type entryIndex struct {
	entries map[string]*EntryMetadata
	order   []string
	byTag   map[int32][]*EntryMetadata
}

func newEntryIndex() *entryIndex {
	return &entryIndex{
		entries: make(map[string]*EntryMetadata),
		byTag:   make(map[int32][]*EntryMetadata),
	}
}

// put stores m under m.ID and links it into the inverted index for each
// of its tags. An existing entry with the same id keeps its position in
// the build order but is unlinked from every tag it carried, so a
// replaced entry is never reachable through its old tags.
func (x *entryIndex) put(m *EntryMetadata) {
	if old, ok := x.entries[m.ID]; ok {
		for _, id := range old.Tags {
			x.unlink(id, old)
		}
	} else {
		x.order = append(x.order, m.ID)
	}
	x.entries[m.ID] = m
	for _, id := range m.Tags {
		x.byTag[id] = append(x.byTag[id], m)
	}
}

func (x *entryIndex) unlink(tag int32, m *EntryMetadata) {
	list := slices.DeleteFunc(x.byTag[tag], func(e *EntryMetadata) bool { return e == m })
	if len(list) == 0 {
		delete(x.byTag, tag)
		return
	}
	x.byTag[tag] = list
}

func (x *entryIndex) lookup(id string) (*EntryMetadata, bool) {
	m, ok := x.entries[id]
	return m, ok
}

// tagged returns the entries carrying tag, or nil.
func (x *entryIndex) tagged(tag int32) []*EntryMetadata {
	return x.byTag[tag]
}

func (x *entryIndex) len() int {
	return len(x.order)
}

// each yields entries in build order.
func (x *entryIndex) each(yield func(*EntryMetadata) bool) {
	for _, id := range x.order {
		if !yield(x.entries[id]) {
			return
		}
	}
}
