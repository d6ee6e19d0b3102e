package solid

import (
	"errors"
	"testing"
)

func TestRegistryResolveDense(t *testing.T) {
	r := newRegistry()
	for i, tag := range []string{"a", "b", "a", "c", "b"} {
		id, err := r.resolve(tag)
		if err != nil {
			t.Fatalf("resolve(%q): %v", tag, err)
		}
		want := map[string]int32{"a": 1, "b": 2, "c": 3}[tag]
		if id != want {
			t.Errorf("step %d: resolve(%q) = %d, want %d", i, tag, id, want)
		}
	}
	if r.len() != 3 {
		t.Errorf("len = %d, want 3", r.len())
	}
	for tag, id := range r.ids {
		if got, _ := r.name(id); got != tag {
			t.Errorf("name(%d) = %q, want %q", id, got, tag)
		}
	}
}

// TestRegistryLookupReadOnly verifies that query paths cannot grow the
// registry.
func TestRegistryLookupReadOnly(t *testing.T) {
	r := newRegistry()
	r.resolve("a")
	if _, ok := r.lookup("zzz"); ok {
		t.Error("lookup found an unknown tag")
	}
	if r.len() != 1 {
		t.Errorf("len = %d after lookup, want 1", r.len())
	}
}

func TestRegistryLoad(t *testing.T) {
	tests := []struct {
		name string
		load [][2]any
		ok   bool
	}{
		{"dense", [][2]any{{"a", int32(1)}, {"b", int32(2)}}, true},
		{"sparse ids", [][2]any{{"a", int32(5)}, {"b", int32(9)}}, true},
		{"zero id", [][2]any{{"a", int32(0)}}, false},
		{"negative id", [][2]any{{"a", int32(-1)}}, false},
		{"duplicate tag", [][2]any{{"a", int32(1)}, {"a", int32(2)}}, false},
		{"duplicate id", [][2]any{{"a", int32(1)}, {"b", int32(1)}}, false},
		{"empty tag", [][2]any{{"", int32(1)}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRegistry()
			var err error
			for _, kv := range tt.load {
				if err = r.load(kv[0].(string), kv[1].(int32)); err != nil {
					break
				}
			}
			if tt.ok && err != nil {
				t.Errorf("load: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrMalformed) {
				t.Errorf("load = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestRegistryStrings(t *testing.T) {
	r := newRegistry()
	r.resolve("x")
	r.resolve("y")
	got := r.strings([]int32{2, 1, 7})
	if len(got) != 2 || got[0] != "y" || got[1] != "x" {
		t.Errorf("strings = %v, want [y x]", got)
	}
	if r.strings(nil) != nil {
		t.Error("strings(nil) should be nil")
	}
}
