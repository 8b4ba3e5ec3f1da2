package redis

import (
	"context"
	"testing"
	"time"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/infra/memory"
)

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	mr := runRedis(t)
	client := newClient(mr)

	loader := &countingLoader{QuestionLoader: sampleStore()}
	repo := NewQuestionRepository(client, loader, time.Minute)

	qs, err := repo.ApprovedQuestions(context.Background(), "t1")
	if err != nil {
		t.Fatalf("get questions: %v", err)
	}
	if len(qs) != 1 || qs[0].Options[qs[0].CorrectOption] != "4" {
		t.Fatalf("unexpected questions %+v", qs)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("quiz:topic:t1:questions") {
		t.Fatalf("expected cache key")
	}

	// Second call should hit cache, loader not incremented.
	_, _ = repo.ApprovedQuestions(context.Background(), "t1")
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}

	_ = repo.Invalidate(context.Background(), "t1")
	_, _ = repo.ApprovedQuestions(context.Background(), "t1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

type countingLoader struct {
	memory.QuestionLoader
	calls int
}

func (l *countingLoader) LoadApprovedQuestions(ctx context.Context, topicID string) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadApprovedQuestions(ctx, topicID)
}

func sampleStore() *memory.DocumentStore {
	store := memory.NewDocumentStore()
	store.AddTopic(domain.Topic{ID: "t1", Name: "Math", Active: true})
	store.AddQuestion(domain.Question{
		ID:            "q1",
		TopicID:       "t1",
		Prompt:        "What is 2 + 2?",
		Options:       []string{"3", "4"},
		CorrectOption: 1,
		Points:        1,
		Approved:      true,
	})
	return store
}
