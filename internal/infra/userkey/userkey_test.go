package userkey

import "testing"

func TestCandidatesNumericFirst(t *testing.T) {
	got := Candidates(" 12345 ")
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %v", got)
	}
	if n, ok := got[0].(int64); !ok || n != 12345 {
		t.Fatalf("expected int64 first, got %#v", got[0])
	}
	if s, ok := got[1].(string); !ok || s != "12345" {
		t.Fatalf("expected string fallback, got %#v", got[1])
	}
}

func TestCandidatesStringOnly(t *testing.T) {
	got := Candidates("alice")
	if len(got) != 1 || got[0] != "alice" {
		t.Fatalf("expected only the string form, got %v", got)
	}
}

func TestCanonical(t *testing.T) {
	if Canonical(int64(42)) != "42" || Canonical("42") != "42" || Canonical(3.5) != "" {
		t.Fatalf("unexpected canonical forms")
	}
}
