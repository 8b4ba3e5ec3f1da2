package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/app"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
	"github.com/redis/go-redis/v9"
)

const committedTTL = 24 * time.Hour

// CommitLedger records committed session ids so that several instances
// sharing one Redis never apply the same session's stats twice.
type CommitLedger struct {
	client *redis.Client
}

func NewCommitLedger(client *redis.Client) *CommitLedger {
	return &CommitLedger{client: client}
}

func (l *CommitLedger) Claim(ctx context.Context, sessionID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, "quiz:committed:"+sessionID, time.Now().Unix(), committedTTL).Result()
	if err != nil {
		return false, fmt.Errorf("%w: claim %s: %v", domain.ErrStoreUnavailable, sessionID, err)
	}
	return ok, nil
}

var _ app.CommitLedger = (*CommitLedger)(nil)
