package utils

import (
	"strings"
	"testing"
)

func TestNewIDShapeAndUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		id := NewID()
		if len(id) != idLength {
			t.Fatalf("expected %d chars, got %q", idLength, id)
		}
		if strings.Trim(id, idAlphabet) != "" {
			t.Fatalf("id %q has characters outside the alphabet", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}
