// Package dispatch routes inbound user actions to quiz handlers behind a
// per-user, per-action cooldown gate.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/app"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
)

// Handler serves one action. The token is the decoded payload.
type Handler func(ctx context.Context, action domain.Action, token domain.Token) (domain.Response, error)

type route struct {
	cooldown time.Duration
	handler  Handler
}

// Router looks up the handler for an action and consults the rate limiter
// before running it.
type Router struct {
	limiter app.RateLimiter
	logger  *slog.Logger

	mu     sync.RWMutex
	routes map[string]route
}

func NewRouter(limiter app.RateLimiter, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		limiter: limiter,
		logger:  logger,
		routes:  make(map[string]route),
	}
}

// Handle registers h for action. A zero cooldown disables rate limiting for it.
func (r *Router) Handle(action string, cooldown time.Duration, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[action] = route{cooldown: cooldown, handler: h}
}

// Dispatch runs the handler for action. Actions denied by the cooldown gate
// return an error matching domain.ErrRateLimited and must not be answered.
func (r *Router) Dispatch(ctx context.Context, action domain.Action) (domain.Response, error) {
	token, err := actionToken(action)
	if err != nil {
		return domain.Response{}, err
	}

	r.mu.RLock()
	rt, ok := r.routes[token.Action]
	r.mu.RUnlock()
	if !ok {
		return domain.Response{}, fmt.Errorf("dispatch %q: %w", token.Action, domain.ErrUnknownAction)
	}

	if rt.cooldown > 0 && r.limiter != nil {
		allowed, err := r.limiter.Allow(ctx, action.UserID, token.Action, rt.cooldown)
		if err != nil {
			// fail closed: an unreachable counter store drops the action
			r.logger.Error("rate limiter unavailable", "user_id", action.UserID, "action", token.Action, "error", err)
			return domain.Response{}, fmt.Errorf("dispatch %q: %w", token.Action, domain.ErrRateLimited)
		}
		if !allowed {
			r.logger.Info("action rate limited", "user_id", action.UserID, "action", token.Action)
			return domain.Response{}, fmt.Errorf("dispatch %q: %w", token.Action, domain.ErrRateLimited)
		}
	}

	return rt.handler(ctx, action, token)
}

// actionToken decodes the payload, or builds a bare token for actions that
// carry none (e.g. a plain "bot_stats" command).
func actionToken(action domain.Action) (domain.Token, error) {
	if strings.TrimSpace(action.Payload) == "" {
		if action.Type == "" {
			return domain.Token{}, fmt.Errorf("empty action: %w", domain.ErrUnknownAction)
		}
		return domain.Token{Action: action.Type}, nil
	}
	return domain.ParseToken(action.Payload)
}

// Message turns a handler error into the text shown to the user. Rate
// limited actions have no message.
func Message(err error) string {
	switch domain.KindOf(err) {
	case domain.KindNone, domain.KindRateLimited:
		return ""
	case domain.KindNotFound, domain.KindInvalidTransition:
		return rootMessage(err)
	case domain.KindStoreUnavailable:
		return "The service is temporarily unavailable, please try again."
	default:
		return "Something went wrong."
	}
}

// rootMessage strips the "op: " prefixes added while the error was wrapped.
func rootMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		msg = msg[i+2:]
	}
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}
