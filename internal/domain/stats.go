package domain

import (
	"fmt"
	"time"
)

// UserFilter narrows a user count.
type UserFilter struct {
	StartedOnly  bool
	CreatedSince time.Time
}

// QuestionFilter narrows a question count. A nil Approved counts every question.
type QuestionFilter struct {
	Approved *bool
}

// TopicPlays is a topic ranked by how often it was played.
type TopicPlays struct {
	TopicID   string `json:"topic_id" yaml:"topic_id"`
	TopicName string `json:"topic_name" yaml:"topic_name"`
	PlayCount int    `json:"play_count" yaml:"play_count"`
}

// SubmitterCount is a user ranked by submitted questions.
type SubmitterCount struct {
	UserID        string `json:"user_id" yaml:"user_id"`
	FullName      string `json:"full_name" yaml:"full_name"`
	QuestionCount int    `json:"question_count" yaml:"question_count"`
}

// CreatorCount is a user ranked by quizzes created.
type CreatorCount struct {
	UserID    string `json:"user_id" yaml:"user_id"`
	FullName  string `json:"full_name" yaml:"full_name"`
	QuizCount int    `json:"quiz_count" yaml:"quiz_count"`
}

// TopicQuestionCount is the number of approved questions in a topic.
type TopicQuestionCount struct {
	TopicID       string `json:"topic_id" yaml:"topic_id"`
	TopicName     string `json:"topic_name" yaml:"topic_name"`
	QuestionCount int    `json:"question_count" yaml:"question_count"`
}

type UserCounts struct {
	Total   int `json:"total" yaml:"total"`
	Started int `json:"started" yaml:"started"`
	New24h  int `json:"new_24h" yaml:"new_24h"`
}

type TopicCounts struct {
	Total   int          `json:"total" yaml:"total"`
	Active  int          `json:"active" yaml:"active"`
	Popular []TopicPlays `json:"popular" yaml:"popular"`
}

type QuestionCounts struct {
	Total         int                  `json:"total" yaml:"total"`
	Approved      int                  `json:"approved" yaml:"approved"`
	Pending       int                  `json:"pending" yaml:"pending"`
	TopSubmitters []SubmitterCount     `json:"top_submitters" yaml:"top_submitters"`
	TopCreators   []CreatorCount       `json:"top_creators" yaml:"top_creators"`
	PerTopic      []TopicQuestionCount `json:"per_topic" yaml:"per_topic"`
	// InvalidTopics lists approved questions whose topic no longer exists.
	InvalidTopics []string `json:"invalid_topics" yaml:"invalid_topics"`
}

// BotStatistics is the full statistics report.
type BotStatistics struct {
	Users       UserCounts     `json:"users" yaml:"users"`
	Topics      TopicCounts    `json:"topics" yaml:"topics"`
	Questions   QuestionCounts `json:"questions" yaml:"questions"`
	GeneratedAt time.Time      `json:"generated_at" yaml:"generated_at"`
}

// ParticipantFailure records one participant whose counters were not updated.
type ParticipantFailure struct {
	UserID string
	Err    error
}

// CommitResult is the outcome of applying a session to persistent counters.
type CommitResult struct {
	SessionID string
	// Applied is false when the session had already been committed.
	Applied     bool
	Written     int
	Failures    []ParticipantFailure
	TopicFailed error
}

// Partial reports whether any individual write failed.
func (r CommitResult) Partial() bool {
	return len(r.Failures) > 0 || r.TopicFailed != nil
}

// FailedUserIDs lists the participants whose updates failed.
func (r CommitResult) FailedUserIDs() []string {
	var ids []string
	for _, f := range r.Failures {
		ids = append(ids, f.UserID)
	}
	return ids
}

// Err returns ErrPartialWrite wrapped with the failure count, or nil.
func (r CommitResult) Err() error {
	if !r.Partial() {
		return nil
	}
	n := len(r.Failures)
	if r.TopicFailed != nil {
		n++
	}
	return fmt.Errorf("session %s: %d stat updates failed: %w", r.SessionID, n, ErrPartialWrite)
}
