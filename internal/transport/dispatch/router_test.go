package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/app"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/infra/memory"
)

type fixture struct {
	router *Router
	store  *memory.DocumentStore
	now    *time.Time
}

func newFixture(t *testing.T, cooldowns Cooldowns) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store := memory.NewDocumentStore()
	store.AddTopic(domain.Topic{ID: "math", Name: "Math", Active: true})
	for i := 0; i < 5; i++ {
		store.AddQuestion(domain.Question{
			ID:            "q" + string(rune('1'+i)),
			TopicID:       "math",
			Prompt:        "Pick the first option",
			Options:       []string{"right", "wrong"},
			CorrectOption: 0,
			Approved:      true,
		})
	}
	store.AddUser(int64(100), domain.User{FullName: "Creator"})
	store.AddUser("200", domain.User{Username: "ann"})

	writer := app.NewStatWriter(store, memory.NewCommitLedger(), 2, logger)
	quiz := app.NewQuizService(
		memory.NewSessionStore(),
		memory.NewQuestionRepository(store, time.Minute),
		store,
		writer,
		app.DefaultOptions(),
		app.WithClock(clock),
		app.WithIDGenerator(func() string { return "s1" }),
		app.WithQuestionPicker(func(qs []domain.Question) []domain.Question { return qs }),
		app.WithLogger(logger),
	)
	stats := app.NewStatsServiceWithClock(store, clock)

	router := NewRouter(memory.NewRateLimiterWithClock(clock), logger)
	Register(router, quiz, stats, cooldowns)
	return fixture{router: router, store: store, now: &now}
}

func act(userID, payload string) domain.Action {
	return domain.Action{UserID: userID, DisplayName: "User " + userID, Type: "callback", Payload: payload}
}

func tokenFor(t *testing.T, resp domain.Response, prefix string) string {
	t.Helper()
	for _, c := range resp.Choices {
		if strings.HasPrefix(c.Token, prefix) {
			return c.Token
		}
	}
	t.Fatalf("no choice with token prefix %q in %+v", prefix, resp.Choices)
	return ""
}

func TestDispatch_QuizRoundTrip(t *testing.T) {
	f := newFixture(t, Cooldowns{})
	ctx := context.Background()

	created, err := f.router.Dispatch(ctx, act("100", "quiz_new:math"))
	require.NoError(t, err)
	assert.Equal(t, "s1", created.SessionID)

	joined, err := f.router.Dispatch(ctx, act("200", tokenFor(t, created, "quiz_join:")))
	require.NoError(t, err)
	assert.Contains(t, joined.Text, "User 200")

	started, err := f.router.Dispatch(ctx, act("100", tokenFor(t, joined, "quiz_start:")))
	require.NoError(t, err)
	require.NotEmpty(t, started.Choices)
	assert.Equal(t, "quiz_answer:s1:0:0", started.Choices[0].Token)

	answered, err := f.router.Dispatch(ctx, act("200", started.Choices[0].Token))
	require.NoError(t, err)
	assert.Equal(t, "quiz_answer:s1:1:0", answered.Choices[0].Token, "single participant answering advances the quiz")
}

func TestDispatch_RejectionsCarryUserMessages(t *testing.T) {
	f := newFixture(t, Cooldowns{})
	ctx := context.Background()

	_, err := f.router.Dispatch(ctx, act("100", "quiz_new:math"))
	require.NoError(t, err)

	_, err = f.router.Dispatch(ctx, act("200", "quiz_start:s1"))
	assert.ErrorIs(t, err, domain.ErrNotCreator)
	assert.Equal(t, "Only the quiz creator can do that.", Message(err))

	_, err = f.router.Dispatch(ctx, act("100", "quiz_qcount:s1:7"))
	assert.ErrorIs(t, err, domain.ErrInvalidSetting)

	_, err = f.router.Dispatch(ctx, act("100", "quiz_join:nope"))
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.Equal(t, "Quiz session not found.", Message(err))

	_, err = f.router.Dispatch(ctx, act("100", "quiz_unknown:s1"))
	assert.ErrorIs(t, err, domain.ErrUnknownAction)

	_, err = f.router.Dispatch(ctx, domain.Action{UserID: "100"})
	assert.ErrorIs(t, err, domain.ErrUnknownAction)
}

func TestDispatch_RateLimitDropsSilently(t *testing.T) {
	f := newFixture(t, Cooldowns{Default: 2 * time.Second})
	ctx := context.Background()

	_, err := f.router.Dispatch(ctx, act("100", "quiz_new:math"))
	require.NoError(t, err)

	_, err = f.router.Dispatch(ctx, act("200", "quiz_join:s1"))
	require.NoError(t, err)
	_, err = f.router.Dispatch(ctx, act("200", "quiz_join:s1"))
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Empty(t, Message(err))

	// other actions by the same user have their own window
	_, err = f.router.Dispatch(ctx, act("200", "quiz_view:s1"))
	assert.NoError(t, err)

	*f.now = f.now.Add(2 * time.Second)
	_, err = f.router.Dispatch(ctx, act("200", "quiz_join:s1"))
	assert.NoError(t, err)
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string, string, time.Duration) (bool, error) {
	return false, domain.ErrStoreUnavailable
}

func TestDispatch_LimiterFailureFailsClosed(t *testing.T) {
	router := NewRouter(brokenLimiter{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	called := false
	router.Handle("ping", time.Second, func(context.Context, domain.Action, domain.Token) (domain.Response, error) {
		called = true
		return domain.Response{Text: "pong"}, nil
	})

	_, err := router.Dispatch(context.Background(), domain.Action{UserID: "1", Type: "ping"})
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.False(t, called)
}

func TestDispatch_Statistics(t *testing.T) {
	f := newFixture(t, Cooldowns{})

	resp, err := f.router.Dispatch(context.Background(), domain.Action{UserID: "100", Type: domain.ActionStats})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Users: 2 total")
	assert.Contains(t, resp.Text, "Questions: 5 total, 5 approved, 0 pending")
	assert.NotNil(t, resp.Choices)
}

func TestCooldownsFor(t *testing.T) {
	c := Cooldowns{Default: time.Second, PerAction: map[string]time.Duration{domain.ActionAnswer: 0}}
	assert.Equal(t, time.Second, c.For(domain.ActionJoin))
	assert.Equal(t, time.Duration(0), c.For(domain.ActionAnswer))
}

func TestMessage(t *testing.T) {
	assert.Empty(t, Message(nil))
	assert.Equal(t, "The service is temporarily unavailable, please try again.", Message(domain.ErrStoreUnavailable))
	assert.Equal(t, "Something went wrong.", Message(errors.New("boom")))
}
