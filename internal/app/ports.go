package app

import (
	"context"
	"time"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
)

// SessionRepository abstracts where live sessions are kept (in-memory, Redis mirror, ...).
// Operations on one id are serialized; operations on different ids are not.
type SessionRepository interface {
	Get(ctx context.Context, id string) (domain.Session, error)
	Upsert(ctx context.Context, session domain.Session) error
	// Update runs fn on a private copy of the session under the session's
	// lock and commits the copy only if fn returns nil.
	Update(ctx context.Context, id string, fn func(*domain.Session) error) (domain.Session, error)
	Delete(ctx context.Context, id string) error
	IDs(ctx context.Context) ([]string, error)
}

// QuestionRepository loads approved question content (from cache/backing store).
type QuestionRepository interface {
	ApprovedQuestions(ctx context.Context, topicID string) ([]domain.Question, error)
}

// DocumentStore is the slice of the persistent store the session engine writes to.
type DocumentStore interface {
	GetTopic(ctx context.Context, topicID string) (domain.Topic, error)
	IncrementTopicPlayed(ctx context.Context, topicID string) error
	IncrementUserStats(ctx context.Context, userID string, delta domain.StatDelta) error
	IncrementUserQuizCreated(ctx context.Context, userID string) error
}

// StatsSource is the read side used by the statistics aggregator.
type StatsSource interface {
	CountUsers(ctx context.Context, filter domain.UserFilter) (int, error)
	CountTopics(ctx context.Context, activeOnly bool) (int, error)
	CountQuestions(ctx context.Context, filter domain.QuestionFilter) (int, error)
	TopTopicsByPlays(ctx context.Context, limit int) ([]domain.TopicPlays, error)
	AggregateTopSubmitters(ctx context.Context, limit int) ([]domain.SubmitterCount, error)
	AggregateTopCreators(ctx context.Context, limit int) ([]domain.CreatorCount, error)
	GetUser(ctx context.Context, userID string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListTopics(ctx context.Context) ([]domain.Topic, error)
	ListApprovedQuestions(ctx context.Context) ([]domain.Question, error)
	ListApprovedQuestionsByTopic(ctx context.Context, topicID string) ([]domain.Question, error)
}

// RateLimiter gates actions per (user, action) pair.
type RateLimiter interface {
	Allow(ctx context.Context, userID, action string, cooldown time.Duration) (bool, error)
}

// CommitLedger remembers which sessions have already been committed.
type CommitLedger interface {
	// Claim returns true exactly once per session id.
	Claim(ctx context.Context, sessionID string) (bool, error)
}
