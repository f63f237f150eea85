package uuid

import (
	"testing"

	goUUID "github.com/google/uuid"
)

// TestGeneratorNewID ensures generated IDs are unique, valid and time ordered.
func TestGeneratorNewID(t *testing.T) {
	t.Parallel()

	gen := NewGenerator()
	prev := ""
	for range 100 {
		id, err := gen.NewID()
		if err != nil {
			t.Fatalf("NewID() error = %v", err)
		}
		parsed, err := goUUID.Parse(id)
		if err != nil {
			t.Fatalf("id not valid UUID: %v", err)
		}
		if parsed.Version() != 7 {
			t.Fatalf("expected version 7, got %d", parsed.Version())
		}
		if id <= prev {
			t.Fatalf("expected %s to sort after %s", id, prev)
		}
		prev = id
	}
}

func TestNewRequestID(t *testing.T) {
	t.Parallel()

	a, b := NewRequestID(), NewRequestID()
	if a == b {
		t.Fatalf("expected unique request ids, got %s twice", a)
	}
	if _, err := goUUID.Parse(a); err != nil {
		t.Fatalf("request id not valid UUID: %v", err)
	}
}
