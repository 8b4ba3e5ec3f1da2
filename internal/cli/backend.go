package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/app"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/config"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/infra/memory"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/infra/postgres"
	infraredis "github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun/driver/pgdriver"
)

type documentStore interface {
	app.DocumentStore
	app.StatsSource
}

// backend is the set of stores selected by the config: Postgres and Redis
// when configured, in-memory otherwise.
type backend struct {
	docs      documentStore
	sessions  app.SessionRepository
	questions app.QuestionRepository
	limiter   app.RateLimiter
	ledger    app.CommitLedger
	closers   []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func buildBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backend, error) {
	b := &backend{}

	var loader memory.QuestionLoader
	if cfg.Postgres.URL != "" {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		b.closers = append(b.closers, func() { _ = sqldb.Close() })
		b.docs = postgres.New(sqldb)

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		loader = postgres.NewQuestionLoader(pool)
		logger.Info("using postgres document store")
	} else {
		docs := memory.NewDocumentStore()
		seedSample(docs)
		b.docs = docs
		loader = docs
		logger.Info("using in-memory document store with sample data")
	}

	cacheTTL := cfg.QuestionCacheTTL()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = client.Close() })
		redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

		b.sessions = infraredis.NewSessionStore(client, redisTTL)
		b.questions = infraredis.NewQuestionRepository(client, loader, cacheTTL)
		b.limiter = infraredis.NewRateLimiter(client)
		b.ledger = infraredis.NewCommitLedger(client)
		logger.Info("using redis for sessions, rate limits and question cache", "addr", cfg.Redis.Addr)
	} else {
		b.sessions = memory.NewSessionStore()
		b.questions = memory.NewQuestionRepository(loader, cacheTTL)
		b.limiter = memory.NewRateLimiter()
		b.ledger = memory.NewCommitLedger()
	}
	return b, nil
}

// seedSample provides a minimal data set; configure Postgres in production.
func seedSample(docs *memory.DocumentStore) {
	now := time.Now()
	docs.AddTopic(domain.Topic{ID: "general", Name: "General knowledge", Description: "A bit of everything", Active: true, CreatedAt: now})
	samples := []struct {
		prompt  string
		options []string
		correct int
	}{
		{"What is 2 + 2?", []string{"3", "4", "5"}, 1},
		{"Which planet is known as the Red Planet?", []string{"Venus", "Mars", "Jupiter"}, 1},
		{"What is the boiling point of water at sea level in Celsius?", []string{"90", "100", "120"}, 1},
		{"How many continents are there?", []string{"5", "6", "7"}, 2},
		{"Which gas do plants absorb from the air?", []string{"Oxygen", "Carbon dioxide", "Nitrogen"}, 1},
	}
	for i, s := range samples {
		docs.AddQuestion(domain.Question{
			ID:            fmt.Sprintf("general-%d", i+1),
			TopicID:       "general",
			Prompt:        s.prompt,
			Options:       s.options,
			CorrectOption: s.correct,
			Points:        1,
			Approved:      true,
			CreatedAt:     now,
		})
	}
}
