package app

import (
	"slices"
	"time"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
)

// Options are the engine settings loaded from config.
type Options struct {
	QuestionCounts    []int
	TimeLimits        []int
	PointsPerQuestion int
	IdleTimeout       time.Duration
	CompletedGrace    time.Duration
	// CommitConcurrency bounds concurrent participant writes during commit.
	CommitConcurrency int
}

// DefaultOptions mirrors the defaults shipped in config.yaml.
func DefaultOptions() Options {
	return Options{
		QuestionCounts:    []int{5, 10, 15, 20},
		TimeLimits:        []int{10, 15, 20, 30},
		PointsPerQuestion: 1,
		IdleTimeout:       10 * time.Minute,
		CompletedGrace:    time.Minute,
		CommitConcurrency: 4,
	}
}

// sanitized drops non-positive entries from the enumerated choices.
func (o Options) sanitized() Options {
	o.QuestionCounts = positive(o.QuestionCounts)
	o.TimeLimits = positive(o.TimeLimits)
	return o
}

func positive(in []int) []int {
	out := make([]int, 0, len(in))
	for _, v := range in {
		if v > 0 {
			out = append(out, v)
		}
	}
	return out
}

func (o Options) defaultSettings() domain.Settings {
	var s domain.Settings
	if len(o.QuestionCounts) > 0 {
		s.QuestionCount = o.QuestionCounts[0]
	}
	if len(o.TimeLimits) > 0 {
		s.TimeLimitSeconds = o.TimeLimits[0]
	}
	return s
}

func (o Options) allowed(field domain.SettingField, value int) bool {
	switch field {
	case domain.SettingQuestionCount:
		return slices.Contains(o.QuestionCounts, value)
	case domain.SettingTimeLimit:
		return slices.Contains(o.TimeLimits, value)
	default:
		return false
	}
}

func (o Options) points(q domain.Question) int {
	if q.Points > 0 {
		return q.Points
	}
	if o.PointsPerQuestion > 0 {
		return o.PointsPerQuestion
	}
	return 1
}

func newSession(id string, topic domain.Topic, creatorID string, settings domain.Settings, now time.Time) domain.Session {
	return domain.Session{
		ID:           id,
		TopicID:      topic.ID,
		TopicName:    topic.Name,
		CreatorID:    creatorID,
		Settings:     settings,
		State:        domain.StateOpen,
		CreatedAt:    now,
		LastActivity: now,
		Version:      1,
	}
}

func bump(sess *domain.Session) {
	sess.Version++
}

// joinSession adds the user once; a repeated join is a no-op.
func joinSession(sess *domain.Session, userID, displayName string, now time.Time) (bool, error) {
	if _, ok := sess.Participant(userID); ok {
		return false, nil
	}
	if sess.State != domain.StateOpen {
		return false, domain.ErrNotOpen
	}
	sess.Participants = append(sess.Participants, domain.Participant{
		UserID:      userID,
		DisplayName: displayName,
		JoinedAt:    now,
	})
	sess.LastActivity = now
	bump(sess)
	return true, nil
}

func changeSetting(sess *domain.Session, opts Options, userID string, field domain.SettingField, value int) error {
	if userID != sess.CreatorID {
		return domain.ErrNotCreator
	}
	if sess.State != domain.StateOpen {
		return domain.ErrNotOpen
	}
	if !opts.allowed(field, value) {
		return domain.ErrInvalidSetting
	}
	switch field {
	case domain.SettingQuestionCount:
		if sess.Settings.QuestionCount == value {
			return nil
		}
		sess.Settings.QuestionCount = value
	case domain.SettingTimeLimit:
		if sess.Settings.TimeLimitSeconds == value {
			return nil
		}
		sess.Settings.TimeLimitSeconds = value
	}
	bump(sess)
	return nil
}

// checkStart validates everything start needs except the question pool.
func checkStart(sess *domain.Session, userID string) error {
	if userID != sess.CreatorID {
		return domain.ErrNotCreator
	}
	if sess.State != domain.StateOpen {
		return domain.ErrNotOpen
	}
	if len(sess.Participants) == 0 {
		return domain.ErrNoParticipants
	}
	return nil
}

func startSession(sess *domain.Session, userID string, questions []domain.Question, now time.Time) error {
	if err := checkStart(sess, userID); err != nil {
		return err
	}
	if sess.Settings.QuestionCount < 1 || sess.Settings.TimeLimitSeconds < 1 {
		return domain.ErrInvalidSetting
	}
	if len(questions) < sess.Settings.QuestionCount {
		return domain.ErrNotEnoughQuestions
	}
	sess.Questions = questions[:sess.Settings.QuestionCount]
	sess.State = domain.StateRunning
	sess.CurrentIndex = 0
	sess.Deadline = now.Add(sess.Settings.TimeLimit())
	sess.Answers = make(map[string]int)
	sess.LastActivity = now
	bump(sess)
	return nil
}

// submitAnswer records one answer per participant per question index. Answers
// for any other index than the current one are discarded, as are repeats.
func submitAnswer(sess *domain.Session, opts Options, userID string, index, option int, now time.Time) (bool, error) {
	if sess.State == domain.StateOpen {
		return false, domain.ErrNotRunning
	}
	if _, ok := sess.Participant(userID); !ok {
		return false, domain.ErrParticipantNotFound
	}
	if sess.State != domain.StateRunning || index != sess.CurrentIndex {
		return false, nil
	}
	if _, dup := sess.Answers[userID]; dup {
		return false, nil
	}
	if option < 0 || option >= len(sess.Questions[index].Options) {
		return false, domain.ErrOptionNotFound
	}
	sess.Answers[userID] = option
	sess.LastActivity = now
	bump(sess)
	if len(sess.Answers) == len(sess.Participants) {
		resolveQuestion(sess, opts, now)
	}
	return true, nil
}

// advanceSession resolves the question at index if it is still current.
func advanceSession(sess *domain.Session, opts Options, index int, now time.Time) bool {
	if sess.State != domain.StateRunning || index != sess.CurrentIndex {
		return false
	}
	resolveQuestion(sess, opts, now)
	return true
}

func resolveQuestion(sess *domain.Session, opts Options, now time.Time) {
	q := sess.Questions[sess.CurrentIndex]
	points := opts.points(q)
	for i := range sess.Participants {
		p := &sess.Participants[i]
		picked, ok := sess.Answers[p.UserID]
		if !ok {
			continue
		}
		if picked == q.CorrectOption {
			p.Correct++
			p.Score += points
		} else {
			p.Wrong++
		}
	}
	sess.Resolved++
	sess.CurrentIndex++
	sess.Answers = make(map[string]int)
	sess.LastActivity = now
	if sess.CurrentIndex >= sess.Settings.QuestionCount {
		sess.State = domain.StateCompleted
		sess.Deadline = time.Time{}
		sess.FinishedAt = now
		sess.Answers = nil
	} else {
		sess.Deadline = now.Add(sess.Settings.TimeLimit())
	}
	bump(sess)
}

func expireSession(sess *domain.Session, now time.Time) {
	sess.State = domain.StateExpired
	sess.Deadline = time.Time{}
	sess.Answers = nil
	sess.FinishedAt = now
	bump(sess)
}

func cancelSession(sess *domain.Session, userID string, now time.Time) error {
	if userID != sess.CreatorID {
		return domain.ErrNotCreator
	}
	if sess.State.Terminal() {
		return domain.ErrNotRunning
	}
	expireSession(sess, now)
	return nil
}

// idle reports whether no qualifying event happened within the idle timeout.
func idle(sess domain.Session, opts Options, now time.Time) bool {
	return !sess.State.Terminal() && opts.IdleTimeout > 0 && now.Sub(sess.LastActivity) > opts.IdleTimeout
}

func overdue(sess domain.Session, now time.Time) bool {
	return sess.State == domain.StateRunning && !sess.Deadline.IsZero() && !now.Before(sess.Deadline)
}

func evictable(sess domain.Session, opts Options, now time.Time) bool {
	if !sess.State.Terminal() || needsCommit(sess) {
		return false
	}
	return now.Sub(sess.FinishedAt) >= opts.CompletedGrace
}

// needsCommit is true for terminal sessions with resolved questions that have
// not been written yet. Sessions that never ran a question write nothing.
func needsCommit(sess domain.Session) bool {
	return sess.State.Terminal() && sess.Resolved > 0 && !sess.Committed
}
