// Package postgres provides PostgreSQL storage for users, topics and questions.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/app"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/infra/userkey"
)

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var userColumns = []string{
	"user_key #>> '{}'", "username", "full_name", "has_start",
	"total_quiz", "total_correct", "total_wrong", "total_points", "quiz_created", "created_at",
}

var topicColumns = []string{"id", "name", "description", "active", "played", "created_at"}

var questionColumns = []string{
	"id", "topic_id", "prompt", "options", "correct_option", "points", "created_by", "approved", "created_at",
}

// Store implements app.DocumentStore and app.StatsSource using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL document store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}

// keyMatch builds the predicate for one user_key candidate.
func keyMatch(candidate any) sq.Sqlizer {
	if n, ok := candidate.(int64); ok {
		return sq.Expr("user_key = to_jsonb(?::bigint)", n)
	}
	return sq.Expr("user_key = to_jsonb(?::text)", fmt.Sprint(candidate))
}

// InsertUser stores a user under key, which must be an int64 or a string.
func (s *Store) InsertUser(ctx context.Context, key any, user domain.User) error {
	var keyExpr sq.Sqlizer
	switch k := key.(type) {
	case int64:
		keyExpr = sq.Expr("to_jsonb(?::bigint)", k)
	case string:
		keyExpr = sq.Expr("to_jsonb(?::text)", k)
	default:
		return fmt.Errorf("unsupported user key %T", key)
	}
	query, args, err := psq.Insert("users").
		Columns("user_key", "username", "full_name", "has_start", "created_at").
		Values(keyExpr, user.Username, user.FullName, user.HasStart, user.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("building user insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return unavailable("insert user", err)
	}
	return nil
}

func (s *Store) InsertTopic(ctx context.Context, topic domain.Topic) error {
	query, args, err := psq.Insert("topics").
		Columns("id", "name", "description", "active", "created_at").
		Values(topic.ID, topic.Name, topic.Description, topic.Active, topic.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("building topic insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return unavailable("insert topic", err)
	}
	return nil
}

func (s *Store) InsertQuestion(ctx context.Context, q domain.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	query, args, err := psq.Insert("questions").
		Columns("id", "topic_id", "prompt", "options", "correct_option", "points", "created_by", "approved", "created_at").
		Values(q.ID, q.TopicID, q.Prompt, string(options), q.CorrectOption, q.Points, q.CreatedBy, q.Approved, q.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("building question insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return unavailable("insert question", err)
	}
	return nil
}

func (s *Store) GetTopic(ctx context.Context, topicID string) (domain.Topic, error) {
	query, args, err := psq.Select(topicColumns...).From("topics").Where(sq.Eq{"id": topicID}).ToSql()
	if err != nil {
		return domain.Topic{}, fmt.Errorf("building topic query: %w", err)
	}
	var t domain.Topic
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&t.ID, &t.Name, &t.Description, &t.Active, &t.Played, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Topic{}, domain.ErrTopicNotFound
	}
	if err != nil {
		return domain.Topic{}, unavailable("get topic", err)
	}
	return t, nil
}

func (s *Store) IncrementTopicPlayed(ctx context.Context, topicID string) error {
	query, args, err := psq.Update("topics").
		Set("played", sq.Expr("played + 1")).
		Where(sq.Eq{"id": topicID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building topic update: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return unavailable("increment topic played", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrTopicNotFound
	}
	return nil
}

// IncrementUserStats adds one played quiz plus the delta. The numeric key is
// tried before the string key.
func (s *Store) IncrementUserStats(ctx context.Context, userID string, delta domain.StatDelta) error {
	return s.updateUser(ctx, userID, func(b sq.UpdateBuilder) sq.UpdateBuilder {
		return b.
			Set("total_quiz", sq.Expr("total_quiz + 1")).
			Set("total_correct", sq.Expr("total_correct + ?", delta.Correct)).
			Set("total_wrong", sq.Expr("total_wrong + ?", delta.Wrong)).
			Set("total_points", sq.Expr("total_points + ?", delta.Points))
	})
}

func (s *Store) IncrementUserQuizCreated(ctx context.Context, userID string) error {
	return s.updateUser(ctx, userID, func(b sq.UpdateBuilder) sq.UpdateBuilder {
		return b.Set("quiz_created", sq.Expr("quiz_created + 1"))
	})
}

func (s *Store) updateUser(ctx context.Context, userID string, set func(sq.UpdateBuilder) sq.UpdateBuilder) error {
	for _, candidate := range userkey.Candidates(userID) {
		query, args, err := set(psq.Update("users")).Where(keyMatch(candidate)).ToSql()
		if err != nil {
			return fmt.Errorf("building user update: %w", err)
		}
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return unavailable("update user", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (s *Store) GetUser(ctx context.Context, userID string) (domain.User, error) {
	for _, candidate := range userkey.Candidates(userID) {
		query, args, err := psq.Select(userColumns...).From("users").Where(keyMatch(candidate)).ToSql()
		if err != nil {
			return domain.User{}, fmt.Errorf("building user query: %w", err)
		}
		u, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return domain.User{}, unavailable("get user", err)
		}
		return u, nil
	}
	return domain.User{}, domain.ErrUserNotFound
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.HasStart,
		&u.Stats.TotalQuiz, &u.Stats.TotalCorrect, &u.Stats.TotalWrong, &u.Stats.TotalPoints, &u.Stats.QuizCreated,
		&u.CreatedAt)
	return u, err
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	query, args, err := psq.Select(userColumns...).From("users").OrderBy("seq").ToSql()
	if err != nil {
		return nil, fmt.Errorf("building users query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("list users", err)
	}
	defer func() { _ = rows.Close() }()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}
	return users, nil
}

func (s *Store) CountUsers(ctx context.Context, filter domain.UserFilter) (int, error) {
	qb := psq.Select("COUNT(*)").From("users")
	if filter.StartedOnly {
		qb = qb.Where(sq.Eq{"has_start": true})
	}
	if !filter.CreatedSince.IsZero() {
		qb = qb.Where(sq.GtOrEq{"created_at": filter.CreatedSince})
	}
	return s.count(ctx, qb)
}

func (s *Store) CountTopics(ctx context.Context, activeOnly bool) (int, error) {
	qb := psq.Select("COUNT(*)").From("topics")
	if activeOnly {
		qb = qb.Where(sq.Eq{"active": true})
	}
	return s.count(ctx, qb)
}

func (s *Store) CountQuestions(ctx context.Context, filter domain.QuestionFilter) (int, error) {
	qb := psq.Select("COUNT(*)").From("questions")
	if filter.Approved != nil {
		qb = qb.Where(sq.Eq{"approved": *filter.Approved})
	}
	return s.count(ctx, qb)
}

func (s *Store) count(ctx context.Context, qb sq.SelectBuilder) (int, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, unavailable("count", err)
	}
	return n, nil
}

func (s *Store) TopTopicsByPlays(ctx context.Context, limit int) ([]domain.TopicPlays, error) {
	qb := psq.Select("id", "name", "played").From("topics").OrderBy("played DESC", "seq")
	out := []domain.TopicPlays{}
	err := s.each(ctx, limited(qb, limit), func(rows *sql.Rows) error {
		var t domain.TopicPlays
		if err := rows.Scan(&t.TopicID, &t.TopicName, &t.PlayCount); err != nil {
			return err
		}
		out = append(out, t)
		return nil
	})
	return out, err
}

// AggregateTopSubmitters groups questions by submitter. Ties keep the order
// in which each submitter first appears.
func (s *Store) AggregateTopSubmitters(ctx context.Context, limit int) ([]domain.SubmitterCount, error) {
	qb := psq.Select("created_by", "COUNT(*)").From("questions").
		GroupBy("created_by").
		OrderBy("COUNT(*) DESC", "MIN(seq)")
	out := []domain.SubmitterCount{}
	err := s.each(ctx, limited(qb, limit), func(rows *sql.Rows) error {
		var c domain.SubmitterCount
		if err := rows.Scan(&c.UserID, &c.QuestionCount); err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	return out, err
}

func (s *Store) AggregateTopCreators(ctx context.Context, limit int) ([]domain.CreatorCount, error) {
	qb := psq.Select(userColumns...).From("users").
		Where(sq.Gt{"quiz_created": 0}).
		OrderBy("quiz_created DESC", "seq")
	out := []domain.CreatorCount{}
	err := s.each(ctx, limited(qb, limit), func(rows *sql.Rows) error {
		u, err := scanUser(rows)
		if err != nil {
			return err
		}
		out = append(out, domain.CreatorCount{UserID: u.ID, FullName: u.DisplayName(), QuizCount: u.Stats.QuizCreated})
		return nil
	})
	return out, err
}

func (s *Store) ListTopics(ctx context.Context) ([]domain.Topic, error) {
	out := []domain.Topic{}
	err := s.each(ctx, psq.Select(topicColumns...).From("topics").OrderBy("seq"), func(rows *sql.Rows) error {
		var t domain.Topic
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Active, &t.Played, &t.CreatedAt); err != nil {
			return err
		}
		out = append(out, t)
		return nil
	})
	return out, err
}

func (s *Store) ListApprovedQuestions(ctx context.Context) ([]domain.Question, error) {
	return s.approvedQuestions(ctx, sq.Eq{"approved": true})
}

func (s *Store) ListApprovedQuestionsByTopic(ctx context.Context, topicID string) ([]domain.Question, error) {
	return s.approvedQuestions(ctx, sq.Eq{"approved": true, "topic_id": topicID})
}

func (s *Store) approvedQuestions(ctx context.Context, where sq.Eq) ([]domain.Question, error) {
	qb := psq.Select(questionColumns...).From("questions").Where(where).OrderBy("seq")
	out := []domain.Question{}
	err := s.each(ctx, qb, func(rows *sql.Rows) error {
		var (
			q   domain.Question
			raw []byte
		)
		if err := rows.Scan(&q.ID, &q.TopicID, &q.Prompt, &raw, &q.CorrectOption, &q.Points, &q.CreatedBy, &q.Approved, &q.CreatedAt); err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &q.Options); err != nil {
			return fmt.Errorf("unmarshal options for %s: %w", q.ID, err)
		}
		out = append(out, q)
		return nil
	})
	return out, err
}

func (s *Store) each(ctx context.Context, qb sq.SelectBuilder, scan func(*sql.Rows) error) error {
	query, args, err := qb.ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return unavailable("query", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rows: %w", err)
	}
	return nil
}

func limited(qb sq.SelectBuilder, limit int) sq.SelectBuilder {
	if limit > 0 {
		return qb.Limit(uint64(limit))
	}
	return qb
}

var (
	_ app.DocumentStore = (*Store)(nil)
	_ app.StatsSource   = (*Store)(nil)
)
