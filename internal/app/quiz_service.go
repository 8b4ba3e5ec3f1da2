package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
	"github.com/google/uuid"
)

// QuizService drives quiz sessions from creation through run to completion.
type QuizService struct {
	sessions  SessionRepository
	questions QuestionRepository
	store     DocumentStore
	writer    *StatWriter
	hub       *Hub
	opts      Options

	now    func() time.Time
	newID  func() string
	pick   func([]domain.Question) []domain.Question
	logger *slog.Logger
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithClock is used by tests for deterministic deadlines.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *QuizService) { s.newID = fn }
}

// WithQuestionPicker replaces the random ordering of a topic's question pool.
func WithQuestionPicker(fn func([]domain.Question) []domain.Question) Option {
	return func(s *QuizService) { s.pick = fn }
}

func WithHub(h *Hub) Option {
	return func(s *QuizService) { s.hub = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *QuizService) { s.logger = l }
}

func NewQuizService(sessions SessionRepository, questions QuestionRepository, store DocumentStore, writer *StatWriter, opts Options, options ...Option) *QuizService {
	s := &QuizService{
		sessions:  sessions,
		questions: questions,
		store:     store,
		writer:    writer,
		hub:       NewHub(),
		opts:      opts.sanitized(),
		now:       time.Now,
		newID:     uuid.NewString,
		pick:      shuffler(),
		logger:    slog.Default(),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Options returns the engine settings in use.
func (s *QuizService) Options() Options {
	return s.opts
}

// Create opens a new session for topicID owned by creatorID.
func (s *QuizService) Create(ctx context.Context, topicID, creatorID string) (domain.Snapshot, error) {
	topic, err := s.store.GetTopic(ctx, topicID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("create quiz: %w", err)
	}

	sess := newSession(s.newID(), topic, creatorID, s.opts.defaultSettings(), s.now())
	if err := s.sessions.Upsert(ctx, sess); err != nil {
		return domain.Snapshot{}, fmt.Errorf("create quiz: %w", err)
	}
	if err := s.store.IncrementUserQuizCreated(ctx, creatorID); err != nil {
		s.logger.Warn("quiz_created counter update failed", "user_id", creatorID, "error", err)
	}
	s.logger.Info("quiz session created", "session_id", sess.ID, "topic_id", topicID, "user_id", creatorID)
	return s.publish(sess), nil
}

// Join registers a participant. Joining twice is not an error.
func (s *QuizService) Join(ctx context.Context, sessionID, userID, displayName string) (domain.Snapshot, error) {
	sess, err := s.sessions.Update(ctx, sessionID, func(sess *domain.Session) error {
		_, err := joinSession(sess, userID, displayName, s.now())
		return err
	})
	if err != nil {
		return domain.Snapshot{}, s.reject("join", sessionID, userID, err)
	}
	return s.publish(sess), nil
}

// ChangeSetting lets the creator pick another enumerated value while open.
func (s *QuizService) ChangeSetting(ctx context.Context, sessionID, userID string, field domain.SettingField, value int) (domain.Snapshot, error) {
	sess, err := s.sessions.Update(ctx, sessionID, func(sess *domain.Session) error {
		return changeSetting(sess, s.opts, userID, field, value)
	})
	if err != nil {
		return domain.Snapshot{}, s.reject("change setting", sessionID, userID, err)
	}
	return s.publish(sess), nil
}

// Start freezes settings, draws the questions and opens the first one.
func (s *QuizService) Start(ctx context.Context, sessionID, userID string) (domain.Snapshot, error) {
	current, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Snapshot{}, s.reject("start", sessionID, userID, err)
	}
	if err := checkStart(&current, userID); err != nil {
		return domain.Snapshot{}, s.reject("start", sessionID, userID, err)
	}

	// Question I/O happens before the session lock is taken.
	pool, err := s.questions.ApprovedQuestions(ctx, current.TopicID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load questions for topic %s: %w", current.TopicID, err)
	}
	picked := s.pick(pool)

	sess, err := s.sessions.Update(ctx, sessionID, func(sess *domain.Session) error {
		return startSession(sess, userID, picked, s.now())
	})
	if err != nil {
		return domain.Snapshot{}, s.reject("start", sessionID, userID, err)
	}
	s.logger.Info("quiz session started", "session_id", sessionID, "participants", len(sess.Participants))
	return s.publish(sess), nil
}

// SubmitAnswer records userID's option for the question at index. Stale or
// repeated answers leave the session unchanged.
func (s *QuizService) SubmitAnswer(ctx context.Context, sessionID, userID string, index, option int) (domain.Snapshot, error) {
	sess, err := s.sessions.Update(ctx, sessionID, func(sess *domain.Session) error {
		_, err := submitAnswer(sess, s.opts, userID, index, option, s.now())
		return err
	})
	if err != nil {
		return domain.Snapshot{}, s.reject("answer", sessionID, userID, err)
	}
	return s.settle(ctx, sess), nil
}

// Advance resolves the question at index once its deadline passed. Timers
// firing for an index that already advanced are ignored.
func (s *QuizService) Advance(ctx context.Context, sessionID string, index int) (domain.Snapshot, error) {
	sess, err := s.sessions.Update(ctx, sessionID, func(sess *domain.Session) error {
		advanceSession(sess, s.opts, index, s.now())
		return nil
	})
	if err != nil {
		return domain.Snapshot{}, err
	}
	return s.settle(ctx, sess), nil
}

// Cancel expires the session on the creator's request.
func (s *QuizService) Cancel(ctx context.Context, sessionID, userID string) (domain.Snapshot, error) {
	sess, err := s.sessions.Update(ctx, sessionID, func(sess *domain.Session) error {
		return cancelSession(sess, userID, s.now())
	})
	if err != nil {
		return domain.Snapshot{}, s.reject("cancel", sessionID, userID, err)
	}
	s.logger.Info("quiz session cancelled", "session_id", sessionID, "user_id", userID)
	return s.settle(ctx, sess), nil
}

// Snapshot renders the current state without changing it.
func (s *QuizService) Snapshot(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return Render(sess, s.opts), nil
}

// Subscribe returns a channel that receives snapshots for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(ctx context.Context, sessionID string) (<-chan domain.Snapshot, func(), error) {
	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hub.Subscribe(sessionID)
	return ch, cancel, nil
}

// Finalize commits a terminal session's results. Once committed it writes
// nothing and reports the failures recorded by the first commit.
func (s *QuizService) Finalize(ctx context.Context, sessionID string) (domain.CommitResult, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.CommitResult{SessionID: sessionID}, err
	}
	if !needsCommit(sess) {
		return recordedResult(sess), nil
	}
	_, result, err := s.commit(ctx, sess)
	return result, err
}

// recordedResult reports the failures saved by an earlier commit.
func recordedResult(sess domain.Session) domain.CommitResult {
	result := domain.CommitResult{SessionID: sess.ID}
	for _, id := range sess.CommitFailures {
		result.Failures = append(result.Failures, domain.ParticipantFailure{UserID: id, Err: domain.ErrPartialWrite})
	}
	return result
}

// Sweep expires idle sessions, resolves overdue questions, retries pending
// commits and evicts terminal sessions past the grace period.
func (s *QuizService) Sweep(ctx context.Context) {
	ids, err := s.sessions.IDs(ctx)
	if err != nil {
		s.logger.Error("list sessions failed", "error", err)
		return
	}
	for _, id := range ids {
		s.sweepOne(ctx, id)
	}
}

func (s *QuizService) sweepOne(ctx context.Context, id string) {
	changed := false
	sess, err := s.sessions.Update(ctx, id, func(sess *domain.Session) error {
		now := s.now()
		switch {
		case idle(*sess, s.opts, now):
			expireSession(sess, now)
			changed = true
			s.logger.Info("quiz session expired", "session_id", sess.ID, "resolved", sess.Resolved)
		case overdue(*sess, now):
			resolveQuestion(sess, s.opts, now)
			changed = true
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			s.logger.Error("sweep session failed", "session_id", id, "error", err)
		}
		return
	}
	if changed {
		sess = s.settleSession(ctx, sess)
		s.publish(sess)
	} else if needsCommit(sess) {
		sess = s.settleSession(ctx, sess)
	}

	if evictable(sess, s.opts, s.now()) {
		if err := s.sessions.Delete(ctx, id); err != nil {
			s.logger.Error("evict session failed", "session_id", id, "error", err)
			return
		}
		s.hub.Close(id)
		s.logger.Debug("quiz session evicted", "session_id", id, "state", sess.State)
	}
}

// Run sweeps on every tick until ctx is done.
func (s *QuizService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// settle commits the session if it just became terminal and publishes it.
func (s *QuizService) settle(ctx context.Context, sess domain.Session) domain.Snapshot {
	return s.publish(s.settleSession(ctx, sess))
}

func (s *QuizService) settleSession(ctx context.Context, sess domain.Session) domain.Session {
	if !needsCommit(sess) {
		return sess
	}
	committed, _, err := s.commit(ctx, sess)
	if err != nil {
		s.logger.Error("commit failed, will retry on sweep", "session_id", sess.ID, "error", err)
		return sess
	}
	return committed
}

// commit writes outside the session lock, then flags the session and keeps
// the ids of participants whose update failed.
func (s *QuizService) commit(ctx context.Context, sess domain.Session) (domain.Session, domain.CommitResult, error) {
	result, err := s.writer.Commit(ctx, sess)
	if err != nil {
		return sess, result, err
	}
	failed := result.FailedUserIDs()
	updated, err := s.sessions.Update(ctx, sess.ID, func(cur *domain.Session) error {
		cur.Committed = true
		if result.Applied {
			cur.CommitFailures = append([]string(nil), failed...)
			bump(cur)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			s.logger.Warn("mark session committed failed", "session_id", sess.ID, "error", err)
		}
		sess.Committed = true
		if result.Applied {
			sess.CommitFailures = failed
		}
		return sess, result, nil
	}
	return updated, result, nil
}

func (s *QuizService) publish(sess domain.Session) domain.Snapshot {
	snap := Render(sess, s.opts)
	if s.hub != nil {
		s.hub.Publish(snap)
	}
	return snap
}

func (s *QuizService) reject(op, sessionID, userID string, err error) error {
	s.logger.Debug("quiz action rejected", "op", op, "session_id", sessionID, "user_id", userID, "error", err)
	return err
}

// shuffler returns a concurrency-safe random permutation of a question pool.
func shuffler() func([]domain.Question) []domain.Question {
	var mu sync.Mutex
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	return func(pool []domain.Question) []domain.Question {
		out := append([]domain.Question(nil), pool...)
		mu.Lock()
		rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		mu.Unlock()
		return out
	}
}
