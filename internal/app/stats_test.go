package app_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/app"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/infra/memory"
)

var statsNow = time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)

func TestBotStatisticsEmpty(t *testing.T) {
	stats := app.NewStatsServiceWithClock(memory.NewDocumentStore(), func() time.Time { return statsNow })

	report, err := stats.BotStatistics(context.Background())
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if report.Users != (domain.UserCounts{}) || report.Topics.Total != 0 || report.Questions.Total != 0 {
		t.Fatalf("expected zero counts, got %+v", report)
	}
	q := report.Questions
	if report.Topics.Popular == nil || q.TopSubmitters == nil || q.TopCreators == nil || q.PerTopic == nil || q.InvalidTopics == nil {
		t.Fatalf("expected empty, non-nil lists: %+v", report)
	}
	if len(report.Topics.Popular)+len(q.TopSubmitters)+len(q.TopCreators)+len(q.PerTopic)+len(q.InvalidTopics) != 0 {
		t.Fatalf("expected empty lists: %+v", report)
	}
}

func seededStats() *memory.DocumentStore {
	docs := memory.NewDocumentStore()
	docs.AddUser(int64(1), domain.User{FullName: "Ann", HasStart: true, CreatedAt: statsNow.Add(-72 * time.Hour), Stats: domain.UserStats{QuizCreated: 2}})
	docs.AddUser("2", domain.User{Username: "bob", CreatedAt: statsNow.Add(-time.Hour), Stats: domain.UserStats{QuizCreated: 5}})
	docs.AddUser("3", domain.User{FullName: "Cy", HasStart: true, CreatedAt: statsNow.Add(-2 * time.Hour), Stats: domain.UserStats{QuizCreated: 2}})
	docs.AddUser("4", domain.User{FullName: "Di", Stats: domain.UserStats{QuizCreated: 1}})

	docs.AddTopic(domain.Topic{ID: "math", Name: "Math", Active: true, Played: 4})
	docs.AddTopic(domain.Topic{ID: "art", Name: "Art", Played: 9})
	docs.AddTopic(domain.Topic{ID: "geo", Name: "Geo", Active: true, Played: 4})
	docs.AddTopic(domain.Topic{ID: "gone", Name: "Gone", Active: true})

	add := func(id, topic, by string, approved bool) {
		docs.AddQuestion(domain.Question{ID: id, TopicID: topic, CreatedBy: by, Approved: approved, Options: []string{"a", "b"}})
	}
	add("m1", "math", "2", true)
	add("m2", "math", "1", true)
	add("m3", "math", "2", false)
	add("a1", "art", "1", true)
	add("g1", "gone", "3", true)
	docs.DeleteTopic("gone")
	return docs
}

func TestBotStatistics(t *testing.T) {
	stats := app.NewStatsServiceWithClock(seededStats(), func() time.Time { return statsNow })

	report, err := stats.BotStatistics(context.Background())
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if report.Users != (domain.UserCounts{Total: 4, Started: 2, New24h: 2}) {
		t.Fatalf("unexpected user counts %+v", report.Users)
	}
	if report.Topics.Total != 3 || report.Topics.Active != 2 {
		t.Fatalf("unexpected topic counts %+v", report.Topics)
	}
	wantPopular := []domain.TopicPlays{
		{TopicID: "art", TopicName: "Art", PlayCount: 9},
		{TopicID: "math", TopicName: "Math", PlayCount: 4},
		{TopicID: "geo", TopicName: "Geo", PlayCount: 4},
	}
	if !reflect.DeepEqual(report.Topics.Popular, wantPopular) {
		t.Fatalf("unexpected popular topics %+v", report.Topics.Popular)
	}

	q := report.Questions
	if q.Total != 5 || q.Approved != 4 || q.Pending != 1 {
		t.Fatalf("unexpected question counts %+v", q)
	}
	wantSubmitters := []domain.SubmitterCount{
		{UserID: "2", FullName: "@bob", QuestionCount: 2},
		{UserID: "1", FullName: "Ann", QuestionCount: 2},
		{UserID: "3", FullName: "Cy", QuestionCount: 1},
	}
	if !reflect.DeepEqual(q.TopSubmitters, wantSubmitters) {
		t.Fatalf("unexpected submitters %+v", q.TopSubmitters)
	}
	wantCreators := []domain.CreatorCount{
		{UserID: "2", FullName: "@bob", QuizCount: 5},
		{UserID: "1", FullName: "Ann", QuizCount: 2},
		{UserID: "3", FullName: "Cy", QuizCount: 2},
	}
	if !reflect.DeepEqual(q.TopCreators, wantCreators) {
		t.Fatalf("unexpected creators %+v", q.TopCreators)
	}
	wantPerTopic := []domain.TopicQuestionCount{
		{TopicID: "math", TopicName: "Math", QuestionCount: 2},
		{TopicID: "art", TopicName: "Art", QuestionCount: 1},
		{TopicID: "geo", TopicName: "Geo", QuestionCount: 0},
	}
	if !reflect.DeepEqual(q.PerTopic, wantPerTopic) {
		t.Fatalf("unexpected per-topic counts %+v", q.PerTopic)
	}
	if !reflect.DeepEqual(q.InvalidTopics, []string{"g1"}) {
		t.Fatalf("unexpected invalid topics %v", q.InvalidTopics)
	}

	again, _ := stats.BotStatistics(context.Background())
	if !reflect.DeepEqual(report, again) {
		t.Fatalf("repeated statistics differ")
	}
}

// noAggregation forces the full-scan path for top creators.
type noAggregation struct {
	*memory.DocumentStore
}

func (noAggregation) AggregateTopCreators(context.Context, int) ([]domain.CreatorCount, error) {
	return nil, nil
}

func TestTopCreatorsPathsAgree(t *testing.T) {
	docs := seededStats()
	ctx := context.Background()

	aggregated, err := app.NewStatsService(docs, nil).TopCreators(ctx)
	if err != nil {
		t.Fatalf("aggregated: %v", err)
	}
	scanned, err := app.NewStatsService(noAggregation{docs}, nil).TopCreators(ctx)
	if err != nil {
		t.Fatalf("scanned: %v", err)
	}
	if len(aggregated) != 3 || !reflect.DeepEqual(aggregated, scanned) {
		t.Fatalf("paths disagree:\naggregated %+v\nscanned    %+v", aggregated, scanned)
	}
}
