// Package sha1 includes tests for the SHA-1 hasher adapter.
package sha1

import "testing"

// TestHasherHashDeterministic ensures repeated hashing yields the same digest.
func TestHasherHashDeterministic(t *testing.T) {
	t.Parallel()

	h := New()
	got, err := h.Hash([]byte("http://x/a.pdf"))
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if len(got) != 40 {
		t.Fatalf("expected 40 hex chars, got %d (%s)", len(got), got)
	}
	again, err := h.Hash([]byte("http://x/a.pdf"))
	if err != nil {
		t.Fatalf("Hash() repeat error = %v", err)
	}
	if again != got {
		t.Fatalf("expected deterministic hash, got %s vs %s", got, again)
	}
	other, err := h.Hash([]byte("http://x/b.pdf"))
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if other == got {
		t.Fatalf("expected distinct digests for distinct URLs")
	}
}
