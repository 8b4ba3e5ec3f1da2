package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
	"golang.org/x/sync/errgroup"
)

const topN = 3

// StatsService builds the read-only statistics report over persisted counters.
type StatsService struct {
	source StatsSource
	now    func() time.Time
	logger *slog.Logger
}

func NewStatsService(source StatsSource, logger *slog.Logger) *StatsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsService{source: source, now: time.Now, logger: logger}
}

// NewStatsServiceWithClock is test-only for a deterministic "last 24h" window.
func NewStatsServiceWithClock(source StatsSource, now func() time.Time) *StatsService {
	s := NewStatsService(source, nil)
	s.now = now
	return s
}

// BotStatistics gathers user, topic and question statistics. The three
// sections are independent reads and run concurrently.
func (s *StatsService) BotStatistics(ctx context.Context) (domain.BotStatistics, error) {
	now := s.now()
	report := domain.BotStatistics{GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, err := s.userCounts(gctx, now)
		report.Users = users
		return err
	})
	g.Go(func() error {
		topics, err := s.topicCounts(gctx)
		report.Topics = topics
		return err
	})
	g.Go(func() error {
		questions, err := s.questionCounts(gctx)
		report.Questions = questions
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.BotStatistics{}, fmt.Errorf("bot statistics: %w", err)
	}

	s.logger.Info("generated bot statistics",
		"users", report.Users.Total, "topics", report.Topics.Total, "questions", report.Questions.Total)
	return report, nil
}

func (s *StatsService) userCounts(ctx context.Context, now time.Time) (domain.UserCounts, error) {
	var out domain.UserCounts
	var err error
	if out.Total, err = s.source.CountUsers(ctx, domain.UserFilter{}); err != nil {
		return out, fmt.Errorf("count users: %w", err)
	}
	if out.Started, err = s.source.CountUsers(ctx, domain.UserFilter{StartedOnly: true}); err != nil {
		return out, fmt.Errorf("count started users: %w", err)
	}
	if out.New24h, err = s.source.CountUsers(ctx, domain.UserFilter{CreatedSince: now.Add(-24 * time.Hour)}); err != nil {
		return out, fmt.Errorf("count new users: %w", err)
	}
	return out, nil
}

func (s *StatsService) topicCounts(ctx context.Context) (domain.TopicCounts, error) {
	out := domain.TopicCounts{Popular: []domain.TopicPlays{}}
	var err error
	if out.Total, err = s.source.CountTopics(ctx, false); err != nil {
		return out, fmt.Errorf("count topics: %w", err)
	}
	if out.Active, err = s.source.CountTopics(ctx, true); err != nil {
		return out, fmt.Errorf("count active topics: %w", err)
	}
	popular, err := s.source.TopTopicsByPlays(ctx, topN)
	if err != nil {
		return out, fmt.Errorf("top topics: %w", err)
	}
	if popular != nil {
		out.Popular = popular
	}
	return out, nil
}

func (s *StatsService) questionCounts(ctx context.Context) (domain.QuestionCounts, error) {
	out := domain.QuestionCounts{
		TopSubmitters: []domain.SubmitterCount{},
		TopCreators:   []domain.CreatorCount{},
		PerTopic:      []domain.TopicQuestionCount{},
		InvalidTopics: []string{},
	}
	approved, pending := true, false
	var err error
	if out.Total, err = s.source.CountQuestions(ctx, domain.QuestionFilter{}); err != nil {
		return out, fmt.Errorf("count questions: %w", err)
	}
	if out.Approved, err = s.source.CountQuestions(ctx, domain.QuestionFilter{Approved: &approved}); err != nil {
		return out, fmt.Errorf("count approved questions: %w", err)
	}
	if out.Pending, err = s.source.CountQuestions(ctx, domain.QuestionFilter{Approved: &pending}); err != nil {
		return out, fmt.Errorf("count pending questions: %w", err)
	}
	if out.TopSubmitters, err = s.TopSubmitters(ctx); err != nil {
		return out, err
	}
	if out.TopCreators, err = s.TopCreators(ctx); err != nil {
		return out, err
	}
	if out.PerTopic, out.InvalidTopics, err = s.topicIntegrity(ctx); err != nil {
		return out, err
	}
	return out, nil
}

// TopSubmitters ranks users by submitted questions and resolves their names.
func (s *StatsService) TopSubmitters(ctx context.Context) ([]domain.SubmitterCount, error) {
	rows, err := s.source.AggregateTopSubmitters(ctx, topN)
	if err != nil {
		return nil, fmt.Errorf("top submitters: %w", err)
	}
	out := make([]domain.SubmitterCount, 0, len(rows))
	for _, row := range rows {
		if row.FullName == "" {
			user, err := s.source.GetUser(ctx, row.UserID)
			switch {
			case err == nil:
				row.FullName = user.DisplayName()
			case !errors.Is(err, domain.ErrNotFound):
				return nil, fmt.Errorf("resolve submitter %s: %w", row.UserID, err)
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// TopCreators prefers the store's aggregation. When it yields nothing the
// users are scanned and ranked in process; that path is meant for small
// datasets and stores without an aggregation pipeline, and must rank the
// same way.
func (s *StatsService) TopCreators(ctx context.Context) ([]domain.CreatorCount, error) {
	rows, err := s.source.AggregateTopCreators(ctx, topN)
	if err != nil {
		return nil, fmt.Errorf("top creators: %w", err)
	}
	if len(rows) > 0 {
		return rows, nil
	}
	users, err := s.source.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("top creators scan: %w", err)
	}
	return RankCreators(users, topN), nil
}

// RankCreators orders users by quizzes created, keeping the input (creation)
// order for ties, and drops users who created none.
func RankCreators(users []domain.User, limit int) []domain.CreatorCount {
	out := make([]domain.CreatorCount, 0, len(users))
	for _, u := range users {
		if u.Stats.QuizCreated <= 0 {
			continue
		}
		out = append(out, domain.CreatorCount{
			UserID:    u.ID,
			FullName:  u.DisplayName(),
			QuizCount: u.Stats.QuizCreated,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].QuizCount > out[j].QuizCount
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// topicIntegrity counts approved questions per topic and lists approved
// questions pointing at topics that no longer exist.
func (s *StatsService) topicIntegrity(ctx context.Context) ([]domain.TopicQuestionCount, []string, error) {
	topics, err := s.source.ListTopics(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list topics: %w", err)
	}

	perTopic := make([]domain.TopicQuestionCount, len(topics))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, t := range topics {
		i, t := i, t
		g.Go(func() error {
			qs, err := s.source.ListApprovedQuestionsByTopic(gctx, t.ID)
			if err != nil {
				return fmt.Errorf("approved questions for topic %s: %w", t.ID, err)
			}
			perTopic[i] = domain.TopicQuestionCount{TopicID: t.ID, TopicName: t.Name, QuestionCount: len(qs)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	sort.SliceStable(perTopic, func(i, j int) bool {
		return perTopic[i].QuestionCount > perTopic[j].QuestionCount
	})

	known := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		known[t.ID] = struct{}{}
	}
	approved, err := s.source.ListApprovedQuestions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list approved questions: %w", err)
	}
	invalid := []string{}
	for _, q := range approved {
		if _, ok := known[q.TopicID]; q.TopicID == "" || !ok {
			id := q.ID
			if id == "" {
				id = "unknown"
			}
			invalid = append(invalid, id)
		}
	}
	return perTopic, invalid, nil
}
