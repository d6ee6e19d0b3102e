// Tag registry.
//
// Tags are stored once in the tag table and referenced by id from each
// entry. Ids are assigned densely from 1 in first-seen order and are never
// reused or renumbered. Two operations are kept apart: lookup never
// changes the registry and is the only one query paths use; resolve
// assigns an id to an unseen tag and is only reachable while building.
package solid

import (
	"fmt"
	"math"
)

type registry struct {
	ids   map[string]int32
	names map[int32]string
	order []int32 // ids in registration (or parse) order
}

func newRegistry() *registry {
	return &registry{
		ids:   make(map[string]int32),
		names: make(map[int32]string),
	}
}

// lookup returns the id of a known tag.
func (r *registry) lookup(tag string) (int32, bool) {
	id, ok := r.ids[tag]
	return id, ok
}

// resolve returns the id of tag, assigning the next id if it is new.
func (r *registry) resolve(tag string) (int32, error) {
	if id, ok := r.ids[tag]; ok {
		return id, nil
	}
	if len(r.order) >= math.MaxInt32 {
		return 0, fmt.Errorf("%w: tag table full", ErrTooLarge)
	}
	id := int32(len(r.order) + 1)
	r.add(tag, id)
	return id, nil
}

// name returns the tag string for id.
func (r *registry) name(id int32) (string, bool) {
	s, ok := r.names[id]
	return s, ok
}

// load records a tag read from the tag table. Ids must be positive and
// both directions must stay one-to-one.
func (r *registry) load(tag string, id int32) error {
	if id <= 0 {
		return fmt.Errorf("%w: tag %q has id %d", ErrMalformed, tag, id)
	}
	if tag == "" {
		return fmt.Errorf("%w: empty tag with id %d", ErrMalformed, id)
	}
	if _, ok := r.ids[tag]; ok {
		return fmt.Errorf("%w: tag %q listed twice", ErrMalformed, tag)
	}
	if prev, ok := r.names[id]; ok {
		return fmt.Errorf("%w: tag id %d used by %q and %q", ErrMalformed, id, prev, tag)
	}
	r.add(tag, id)
	return nil
}

func (r *registry) add(tag string, id int32) {
	r.ids[tag] = id
	r.names[id] = tag
	r.order = append(r.order, id)
}

func (r *registry) len() int {
	return len(r.order)
}

// strings maps tag ids back to their strings, in the order given.
func (r *registry) strings(ids []int32) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.names[id]; ok {
			out = append(out, s)
		}
	}
	return out
}
