package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	raw := EncodeToken(ActionAnswer, "s1", "2", "0")
	if raw != "quiz_answer:s1:2:0" {
		t.Fatalf("unexpected token %q", raw)
	}
	tok, err := ParseToken(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	idx, _ := tok.IntArg(0)
	opt, _ := tok.IntArg(1)
	if tok.Action != ActionAnswer || tok.Target != "s1" || idx != 2 || opt != 0 {
		t.Fatalf("unexpected token %+v", tok)
	}
	if _, err := tok.IntArg(2); !errors.Is(err, ErrInvalidSetting) {
		t.Fatalf("expected invalid setting for a missing argument, got %v", err)
	}
}

func TestParseTokenRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "quiz_join", ":s1", "quiz_join:", "a:b:c:d:e:f:g:h:i"} {
		if _, err := ParseToken(raw); !errors.Is(err, ErrUnknownAction) {
			t.Fatalf("%q: expected unknown action, got %v", raw, err)
		}
	}
	tok, _ := ParseToken("quiz_qcount:s1:ten")
	if _, err := tok.IntArg(0); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition for a non-numeric argument, got %v", err)
	}
}

func TestNormalizeUserID(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{" 42 ", "42"},
		{42, "42"},
		{int64(7), "7"},
		{json.Number("123"), "123"},
		{float64(99), "99"},
		{"alice", "alice"},
	}
	for _, c := range cases {
		got, err := NormalizeUserID(c.in)
		if err != nil || got != c.want {
			t.Fatalf("NormalizeUserID(%#v) = %q, %v; want %q", c.in, got, err, c.want)
		}
	}
	for _, bad := range []any{"", 1.5, nil, []byte("1")} {
		if _, err := NormalizeUserID(bad); err == nil {
			t.Fatalf("expected error for %#v", bad)
		}
	}
}

func TestKindOf(t *testing.T) {
	cases := map[error]Kind{
		nil:                                  KindNone,
		ErrSessionNotFound:                   KindNotFound,
		fmt.Errorf("x: %w", ErrUserNotFound): KindNotFound,
		ErrNotCreator:                        KindInvalidTransition,
		ErrRateLimited:                       KindRateLimited,
		CommitResult{SessionID: "s", Failures: []ParticipantFailure{{UserID: "1"}}}.Err(): KindPartialWrite,
		fmt.Errorf("%w: dial", ErrStoreUnavailable):                                       KindStoreUnavailable,
		errors.New("boom"): KindInternal,
	}
	for err, want := range cases {
		if got := KindOf(err); got != want {
			t.Fatalf("KindOf(%v) = %s, want %s", err, got, want)
		}
	}
	if !errors.Is(ErrTopicNotFound, ErrNotFound) || errors.Is(ErrTopicNotFound, ErrUserNotFound) {
		t.Fatalf("unexpected sentinel matching")
	}
}
