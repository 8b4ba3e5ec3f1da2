package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionLoader loads approved questions from Postgres to back the
// question cache.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadApprovedQuestions(ctx context.Context, topicID string) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, topic_id, prompt, options, correct_option, points, created_by, approved, created_at
		FROM questions
		WHERE topic_id = $1 AND approved
		ORDER BY seq`, topicID)
	if err != nil {
		return nil, fmt.Errorf("%w: load questions: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	questions := []domain.Question{}
	for rows.Next() {
		var (
			q   domain.Question
			raw []byte
		)
		if err := rows.Scan(&q.ID, &q.TopicID, &q.Prompt, &raw, &q.CorrectOption, &q.Points, &q.CreatedBy, &q.Approved, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(raw, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options for %s: %w", q.ID, err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return questions, nil
}
