package id

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDGeneratorIssuesDistinctV7(t *testing.T) {
	gen := NewUUIDGenerator()
	first, err := gen.NewID()
	if err != nil {
		t.Fatalf("NewID: %v", err)
	}
	second, err := gen.NewID()
	if err != nil {
		t.Fatalf("NewID: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct ids, got %s twice", first)
	}

	parsed, err := uuid.Parse(first)
	if err != nil {
		t.Fatalf("parse %q: %v", first, err)
	}
	if parsed.Version() != 7 {
		t.Fatalf("expected version 7, got %d", parsed.Version())
	}
}
