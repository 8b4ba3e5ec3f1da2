package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/app"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
)

// Cooldowns holds the per-action cooldown policy.
type Cooldowns struct {
	Default   time.Duration
	PerAction map[string]time.Duration
}

// For returns the cooldown configured for action, or the default.
func (c Cooldowns) For(action string) time.Duration {
	if d, ok := c.PerAction[action]; ok {
		return d
	}
	return c.Default
}

// Register wires the quiz and statistics actions onto r.
func Register(r *Router, quiz *app.QuizService, stats *app.StatsService, cooldowns Cooldowns) {
	snapshot := func(fn func(context.Context, domain.Action, domain.Token) (domain.Snapshot, error)) Handler {
		return func(ctx context.Context, a domain.Action, t domain.Token) (domain.Response, error) {
			snap, err := fn(ctx, a, t)
			if err != nil {
				return domain.Response{}, err
			}
			return domain.ResponseFromSnapshot(snap), nil
		}
	}

	r.Handle(domain.ActionCreate, cooldowns.For(domain.ActionCreate), snapshot(func(ctx context.Context, a domain.Action, t domain.Token) (domain.Snapshot, error) {
		return quiz.Create(ctx, t.Target, a.UserID)
	}))
	r.Handle(domain.ActionJoin, cooldowns.For(domain.ActionJoin), snapshot(func(ctx context.Context, a domain.Action, t domain.Token) (domain.Snapshot, error) {
		return quiz.Join(ctx, t.Target, a.UserID, a.DisplayName)
	}))
	r.Handle(domain.ActionCount, cooldowns.For(domain.ActionCount), snapshot(setting(quiz, domain.SettingQuestionCount)))
	r.Handle(domain.ActionTime, cooldowns.For(domain.ActionTime), snapshot(setting(quiz, domain.SettingTimeLimit)))
	r.Handle(domain.ActionStart, cooldowns.For(domain.ActionStart), snapshot(func(ctx context.Context, a domain.Action, t domain.Token) (domain.Snapshot, error) {
		return quiz.Start(ctx, t.Target, a.UserID)
	}))
	r.Handle(domain.ActionAnswer, cooldowns.For(domain.ActionAnswer), snapshot(func(ctx context.Context, a domain.Action, t domain.Token) (domain.Snapshot, error) {
		index, err := t.IntArg(0)
		if err != nil {
			return domain.Snapshot{}, err
		}
		option, err := t.IntArg(1)
		if err != nil {
			return domain.Snapshot{}, err
		}
		return quiz.SubmitAnswer(ctx, t.Target, a.UserID, index, option)
	}))
	r.Handle(domain.ActionCancel, cooldowns.For(domain.ActionCancel), snapshot(func(ctx context.Context, a domain.Action, t domain.Token) (domain.Snapshot, error) {
		return quiz.Cancel(ctx, t.Target, a.UserID)
	}))
	r.Handle(domain.ActionView, cooldowns.For(domain.ActionView), snapshot(func(ctx context.Context, _ domain.Action, t domain.Token) (domain.Snapshot, error) {
		return quiz.Snapshot(ctx, t.Target)
	}))

	if stats != nil {
		r.Handle(domain.ActionStats, cooldowns.For(domain.ActionStats), func(ctx context.Context, _ domain.Action, _ domain.Token) (domain.Response, error) {
			report, err := stats.BotStatistics(ctx)
			if err != nil {
				return domain.Response{}, err
			}
			return domain.Response{Text: FormatStatistics(report), Choices: []domain.Choice{}}, nil
		})
	}
}

func setting(quiz *app.QuizService, field domain.SettingField) func(context.Context, domain.Action, domain.Token) (domain.Snapshot, error) {
	return func(ctx context.Context, a domain.Action, t domain.Token) (domain.Snapshot, error) {
		value, err := t.IntArg(0)
		if err != nil {
			return domain.Snapshot{}, err
		}
		return quiz.ChangeSetting(ctx, t.Target, a.UserID, field, value)
	}
}

// FormatStatistics renders the statistics report as chat text.
func FormatStatistics(s domain.BotStatistics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Users: %d total, %d started, %d new in 24h\n", s.Users.Total, s.Users.Started, s.Users.New24h)
	fmt.Fprintf(&b, "Topics: %d total, %d active\n", s.Topics.Total, s.Topics.Active)
	for i, t := range s.Topics.Popular {
		fmt.Fprintf(&b, "  %d. %s (%d plays)\n", i+1, t.TopicName, t.PlayCount)
	}
	fmt.Fprintf(&b, "Questions: %d total, %d approved, %d pending\n", s.Questions.Total, s.Questions.Approved, s.Questions.Pending)
	if len(s.Questions.TopSubmitters) > 0 {
		b.WriteString("Top submitters:\n")
		for i, c := range s.Questions.TopSubmitters {
			fmt.Fprintf(&b, "  %d. %s (%d)\n", i+1, nameOr(c.FullName, c.UserID), c.QuestionCount)
		}
	}
	if len(s.Questions.TopCreators) > 0 {
		b.WriteString("Top quiz creators:\n")
		for i, c := range s.Questions.TopCreators {
			fmt.Fprintf(&b, "  %d. %s (%d)\n", i+1, nameOr(c.FullName, c.UserID), c.QuizCount)
		}
	}
	if len(s.Questions.InvalidTopics) > 0 {
		fmt.Fprintf(&b, "Questions with missing topics: %s\n", strings.Join(s.Questions.InvalidTopics, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func nameOr(name, id string) string {
	if name != "" {
		return name
	}
	return "User " + id
}
