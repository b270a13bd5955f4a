package identity

import (
	"strings"
	"testing"
)

func TestNewUUID_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewUUID()
		if seen[id] {
			t.Fatalf("duplicate id after %d iterations: %s", i, id)
		}
		seen[id] = true
	}
}

func TestNewUUID_PathSafe(t *testing.T) {
	t.Parallel()

	for i := 0; i < 100; i++ {
		id := NewUUID()
		if id == "" || id == "." || id == ".." {
			t.Fatalf("unsafe id: %q", id)
		}
		if strings.ContainsAny(id, `/\`) {
			t.Fatalf("id contains separator: %q", id)
		}
	}
}

func TestNewRunID_Sortable(t *testing.T) {
	t.Parallel()

	a := NewRunID()
	b := NewRunID()

	if len(a) != 26 || len(b) != 26 {
		t.Fatalf("expected 26 character ULIDs, got %q and %q", a, b)
	}
	if a == b {
		t.Fatal("run ids must be unique")
	}
	if a > b {
		t.Errorf("run ids should sort by creation: %s > %s", a, b)
	}
}

func TestNewRequestID(t *testing.T) {
	t.Parallel()

	id := NewRequestID()
	if len(id) != 36 {
		t.Errorf("expected canonical uuid, got %q", id)
	}
}
