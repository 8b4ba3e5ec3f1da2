package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
)

func TestDocumentStoreUserLookupTriesNumericThenString(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()
	store.AddUser(int64(100), domain.User{FullName: "Legacy"})
	store.AddUser("200", domain.User{Username: "current"})
	store.AddUser("alice", domain.User{FullName: "Alice"})

	for _, id := range []string{"100", "200", "alice"} {
		if err := store.IncrementUserStats(ctx, id, domain.StatDelta{Correct: 2, Wrong: 1, Points: 2}); err != nil {
			t.Fatalf("increment %s: %v", id, err)
		}
	}
	legacy, _ := store.GetUser(ctx, "100")
	if legacy.Stats.TotalQuiz != 1 || legacy.Stats.TotalCorrect != 2 || legacy.Stats.TotalWrong != 1 || legacy.Stats.TotalPoints != 2 {
		t.Fatalf("unexpected legacy stats %+v", legacy.Stats)
	}
	current, _ := store.GetUser(ctx, "200")
	if current.Stats.TotalQuiz != 1 || current.DisplayName() != "@current" {
		t.Fatalf("unexpected current user %+v", current)
	}

	if err := store.IncrementUserStats(ctx, "missing", domain.StatDelta{}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}

func TestDocumentStoreCounts(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	store := seededStore()
	store.AddUser(int64(1), domain.User{HasStart: true, CreatedAt: now.Add(-48 * time.Hour)})
	store.AddUser("2", domain.User{CreatedAt: now.Add(-time.Hour)})

	total, _ := store.CountUsers(ctx, domain.UserFilter{})
	started, _ := store.CountUsers(ctx, domain.UserFilter{StartedOnly: true})
	fresh, _ := store.CountUsers(ctx, domain.UserFilter{CreatedSince: now.Add(-24 * time.Hour)})
	if total != 2 || started != 1 || fresh != 1 {
		t.Fatalf("unexpected user counts total=%d started=%d new=%d", total, started, fresh)
	}

	approved := true
	all, _ := store.CountQuestions(ctx, domain.QuestionFilter{})
	ok, _ := store.CountQuestions(ctx, domain.QuestionFilter{Approved: &approved})
	if all != 3 || ok != 2 {
		t.Fatalf("unexpected question counts all=%d approved=%d", all, ok)
	}

	if err := store.IncrementTopicPlayed(ctx, "t1"); err != nil {
		t.Fatalf("increment topic: %v", err)
	}
	top, _ := store.TopTopicsByPlays(ctx, 3)
	if len(top) != 1 || top[0].PlayCount != 1 {
		t.Fatalf("unexpected top topics %+v", top)
	}
	if err := store.IncrementTopicPlayed(ctx, "gone"); !errors.Is(err, domain.ErrTopicNotFound) {
		t.Fatalf("expected topic not found, got %v", err)
	}
}

func TestDocumentStoreTopSubmittersKeepFirstSeenOrderOnTies(t *testing.T) {
	store := NewDocumentStore()
	for _, by := range []string{"b", "a", "a", "b", "c"} {
		store.AddQuestion(domain.Question{ID: by, TopicID: "t", CreatedBy: by})
	}
	top, _ := store.AggregateTopSubmitters(context.Background(), 2)
	if len(top) != 2 || top[0].UserID != "b" || top[1].UserID != "a" {
		t.Fatalf("expected b then a, got %+v", top)
	}
}
