package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
	"golang.org/x/sync/errgroup"
)

// StatWriter applies finished sessions to the persistent counters.
type StatWriter struct {
	store       DocumentStore
	ledger      CommitLedger
	concurrency int
	logger      *slog.Logger
}

func NewStatWriter(store DocumentStore, ledger CommitLedger, concurrency int, logger *slog.Logger) *StatWriter {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatWriter{store: store, ledger: ledger, concurrency: concurrency, logger: logger}
}

// Commit writes each participant's tallies and bumps the topic play counter.
// The ledger makes repeated calls for the same session no-ops. One failing
// participant does not stop the others; failures are reported in the result.
func (w *StatWriter) Commit(ctx context.Context, sess domain.Session) (domain.CommitResult, error) {
	result := domain.CommitResult{SessionID: sess.ID}

	claimed, err := w.ledger.Claim(ctx, sess.ID)
	if err != nil {
		return result, fmt.Errorf("claim commit for session %s: %w", sess.ID, err)
	}
	if !claimed {
		w.logger.Debug("session already committed", "session_id", sess.ID)
		return result, nil
	}
	result.Applied = true

	errs := make([]error, len(sess.Participants))
	var (
		mu      sync.Mutex
		written int
	)
	var g errgroup.Group
	g.SetLimit(w.concurrency)
	for i, p := range sess.Participants {
		i, p := i, p
		g.Go(func() error {
			err := w.store.IncrementUserStats(ctx, p.UserID, domain.StatDelta{
				Correct: p.Correct,
				Wrong:   p.Wrong,
				Points:  p.Score,
			})
			if err != nil {
				errs[i] = err
				w.logger.Warn("participant stat update failed",
					"session_id", sess.ID, "user_id", p.UserID, "error", err)
				return nil
			}
			mu.Lock()
			written++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err != nil {
			result.Failures = append(result.Failures, domain.ParticipantFailure{
				UserID: sess.Participants[i].UserID,
				Err:    err,
			})
		}
	}
	result.Written = written

	if err := w.store.IncrementTopicPlayed(ctx, sess.TopicID); err != nil {
		result.TopicFailed = err
		w.logger.Warn("topic play counter update failed",
			"session_id", sess.ID, "topic_id", sess.TopicID, "error", err)
	}

	if err := result.Err(); err != nil {
		w.logger.Warn("session committed with failures", "session_id", sess.ID, "error", err)
	} else {
		w.logger.Info("session committed", "session_id", sess.ID, "participants", written)
	}
	return result, nil
}
