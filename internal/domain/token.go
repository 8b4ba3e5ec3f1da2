package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Action names. They double as the prefix of choice tokens and as the
// rate-limit key.
const (
	ActionCreate  = "quiz_new"
	ActionJoin    = "quiz_join"
	ActionCount   = "quiz_qcount"
	ActionTime    = "quiz_tlimit"
	ActionStart   = "quiz_start"
	ActionAnswer  = "quiz_answer"
	ActionCancel  = "quiz_cancel"
	ActionView    = "quiz_view"
	ActionStats   = "bot_stats"
	tokenSep      = ":"
	maxTokenParts = 8
)

// Token is a decoded action token: "{action}:{target}[:{arg}...]".
type Token struct {
	Action string
	Target string
	Args   []string
}

// EncodeToken builds the opaque token carried by a Choice.
func EncodeToken(action, target string, args ...string) string {
	parts := append([]string{action, target}, args...)
	return strings.Join(parts, tokenSep)
}

// ParseToken decodes a token produced by EncodeToken.
func ParseToken(raw string) (Token, error) {
	parts := strings.Split(strings.TrimSpace(raw), tokenSep)
	if len(parts) < 2 || len(parts) > maxTokenParts || parts[0] == "" || parts[1] == "" {
		return Token{}, fmt.Errorf("parse token %q: %w", raw, ErrUnknownAction)
	}
	return Token{Action: parts[0], Target: parts[1], Args: parts[2:]}, nil
}

// IntArg returns argument i as an int.
func (t Token) IntArg(i int) (int, error) {
	if i >= len(t.Args) {
		return 0, fmt.Errorf("token %s: missing argument %d: %w", t.Action, i, ErrInvalidSetting)
	}
	v, err := strconv.Atoi(t.Args[i])
	if err != nil {
		return 0, fmt.Errorf("token %s: argument %d: %w", t.Action, i, ErrInvalidSetting)
	}
	return v, nil
}

// NormalizeUserID maps the numeric or string user id forms a transport may
// deliver onto the canonical string form used everywhere past the boundary.
func NormalizeUserID(v any) (string, error) {
	switch id := v.(type) {
	case string:
		id = strings.TrimSpace(id)
		if id == "" {
			return "", fmt.Errorf("empty user id")
		}
		return id, nil
	case int:
		return strconv.Itoa(id), nil
	case int64:
		return strconv.FormatInt(id, 10), nil
	case json.Number:
		return NormalizeUserID(id.String())
	case float64:
		if id != math.Trunc(id) || math.IsInf(id, 0) {
			return "", fmt.Errorf("user id %v is not an integer", id)
		}
		return strconv.FormatInt(int64(id), 10), nil
	default:
		return "", fmt.Errorf("unsupported user id type %T", v)
	}
}
