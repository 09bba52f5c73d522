package cache

import (
	"strings"
	"testing"
)

// Fuzz Set/Get/Peek/Add/Remove under arbitrary string inputs.
// Key/value lengths are capped to keep fuzzing memory bounded.
func FuzzCache_SetGetRemove(f *testing.F) {
	f.Add("", "")
	f.Add("a", "1")
	f.Add("αβγ", "δ")
	f.Add("emoji🙂", "🙂🙂")
	f.Add("long", strings.Repeat("x", 1024))

	f.Fuzz(func(t *testing.T, k, v string) {
		const limit = 1 << 12
		k, v = k[:min(len(k), limit)], v[:min(len(v), limit)]

		c := New[string, string](Options[string, string]{Capacity: 16, Shards: 1})
		t.Cleanup(func() { _ = c.Close() })

		c.Set(k, v)
		if got, ok := c.Get(k); !ok || got != v {
			t.Fatalf("after Set/Get: want %q, got %q ok=%v", v, got, ok)
		}
		if got, ok := c.Peek(k); !ok || got != v {
			t.Fatalf("Peek: want %q, got %q ok=%v", v, got, ok)
		}

		if c.Add(k, "other") {
			t.Fatalf("Add duplicate returned true")
		}
		if got, _ := c.Get(k); got != v {
			t.Fatalf("after duplicate Add: want %q, got %q", v, got)
		}

		// Fill past capacity with derived keys; the cache must stay bounded.
		for i := range 32 {
			c.Set(k+strings.Repeat("#", i+1), v)
		}
		if n := c.Len(); n > 16 {
			t.Fatalf("Len=%d exceeds capacity", n)
		}

		c.Set(k, v)
		if !c.Remove(k) {
			t.Fatalf("Remove must return true")
		}
		if _, ok := c.Get(k); ok {
			t.Fatalf("key must be absent after Remove")
		}
		if !c.Add(k, v) {
			t.Fatalf("Add after Remove must return true")
		}
	})
}
