package memory

import (
	"context"
	"sync"
	"time"
)

const pruneThreshold = 1024

// RateLimiter keeps cooldown tickets in process memory. It is used when no
// Redis is configured; tickets do not survive restarts.
type RateLimiter struct {
	mu      sync.Mutex
	clock   func() time.Time
	tickets map[ticketKey]time.Time
}

type ticketKey struct {
	userID string
	action string
}

func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithClock(time.Now)
}

// NewRateLimiterWithClock allows deterministic cooldowns in tests.
func NewRateLimiterWithClock(now func() time.Time) *RateLimiter {
	return &RateLimiter{clock: now, tickets: make(map[ticketKey]time.Time)}
}

// Allow returns true at most once per cooldown window per (user, action).
func (l *RateLimiter) Allow(_ context.Context, userID, action string, cooldown time.Duration) (bool, error) {
	key := ticketKey{userID: userID, action: action}
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()
	if expires, ok := l.tickets[key]; ok && now.Before(expires) {
		return false, nil
	}
	if len(l.tickets) >= pruneThreshold {
		for k, expires := range l.tickets {
			if !now.Before(expires) {
				delete(l.tickets, k)
			}
		}
	}
	l.tickets[key] = now.Add(cooldown)
	return true, nil
}

// committedTTL matches the Redis ledger's marker lifetime.
const committedTTL = 24 * time.Hour

// CommitLedger is an in-process set of committed session ids. Claims expire
// after committedTTL and are pruned like rate limit tickets.
type CommitLedger struct {
	mu      sync.Mutex
	clock   func() time.Time
	claimed map[string]time.Time
}

func NewCommitLedger() *CommitLedger {
	return NewCommitLedgerWithClock(time.Now)
}

func NewCommitLedgerWithClock(now func() time.Time) *CommitLedger {
	return &CommitLedger{clock: now, claimed: make(map[string]time.Time)}
}

func (l *CommitLedger) Claim(_ context.Context, sessionID string) (bool, error) {
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()
	if expires, ok := l.claimed[sessionID]; ok && now.Before(expires) {
		return false, nil
	}
	if len(l.claimed) >= pruneThreshold {
		for id, expires := range l.claimed {
			if !now.Before(expires) {
				delete(l.claimed, id)
			}
		}
	}
	l.claimed[sessionID] = now.Add(committedTTL)
	return true, nil
}

// Len reports how many claims are held.
func (l *CommitLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.claimed)
}
