package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/app"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/transport/dispatch"
)

type Config struct {
	Server struct {
		Port string `yaml:"port" env:"QUIZ_SERVER_PORT"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" env:"QUIZ_LOG_LEVEL"`
		Format string `yaml:"format" env:"QUIZ_LOG_FORMAT"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr" env:"QUIZ_REDIS_ADDR"`
		Password string `yaml:"password" env:"QUIZ_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"QUIZ_REDIS_DB"`
		TTL      string `yaml:"ttl" env:"QUIZ_REDIS_TTL"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" env:"QUIZ_POSTGRES_URL"`
	} `yaml:"postgres"`
	Quiz struct {
		QuestionCounts    []int  `yaml:"question_counts" env:"QUIZ_QUESTION_COUNTS" envSeparator:","`
		TimeLimits        []int  `yaml:"time_limits" env:"QUIZ_TIME_LIMITS" envSeparator:","`
		PointsPerQuestion int    `yaml:"points_per_question" env:"QUIZ_POINTS_PER_QUESTION"`
		IdleTimeout       string `yaml:"idle_timeout" env:"QUIZ_IDLE_TIMEOUT"`
		CompletedGrace    string `yaml:"completed_grace" env:"QUIZ_COMPLETED_GRACE"`
		SweepInterval     string `yaml:"sweep_interval" env:"QUIZ_SWEEP_INTERVAL"`
		QuestionCacheTTL  string `yaml:"question_cache_ttl" env:"QUIZ_QUESTION_CACHE_TTL"`
		CommitConcurrency int    `yaml:"commit_concurrency" env:"QUIZ_COMMIT_CONCURRENCY"`
	} `yaml:"quiz"`
	RateLimits struct {
		Default string            `yaml:"default" env:"QUIZ_RATE_LIMIT_DEFAULT"`
		Actions map[string]string `yaml:"actions" env:"QUIZ_RATE_LIMIT_ACTIONS"`
	} `yaml:"rate_limits"`
}

// Load reads YAML config from path, then applies QUIZ_* environment
// overrides. A missing file leaves only the environment and defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Options builds the session engine settings, keeping defaults for anything
// left unset.
func (c Config) Options() app.Options {
	opts := app.DefaultOptions()
	if counts := positive(c.Quiz.QuestionCounts); len(counts) > 0 {
		opts.QuestionCounts = counts
	}
	if limits := positive(c.Quiz.TimeLimits); len(limits) > 0 {
		opts.TimeLimits = limits
	}
	if c.Quiz.PointsPerQuestion > 0 {
		opts.PointsPerQuestion = c.Quiz.PointsPerQuestion
	}
	if c.Quiz.CommitConcurrency > 0 {
		opts.CommitConcurrency = c.Quiz.CommitConcurrency
	}
	opts.IdleTimeout = TTLDuration(c.Quiz.IdleTimeout, opts.IdleTimeout)
	opts.CompletedGrace = TTLDuration(c.Quiz.CompletedGrace, opts.CompletedGrace)
	return opts
}

// positive keeps the entries above zero.
func positive(values []int) []int {
	var out []int
	for _, v := range values {
		if v > 0 {
			out = append(out, v)
		}
	}
	return out
}

func (c Config) SweepInterval() time.Duration {
	return TTLDuration(c.Quiz.SweepInterval, time.Second)
}

func (c Config) QuestionCacheTTL() time.Duration {
	return TTLDuration(c.Quiz.QuestionCacheTTL, 10*time.Minute)
}

// Cooldowns builds the per-action rate limit policy. Unparseable entries
// fall back to the default cooldown.
func (c Config) Cooldowns() dispatch.Cooldowns {
	cd := dispatch.Cooldowns{
		Default:   TTLDuration(c.RateLimits.Default, time.Second),
		PerAction: make(map[string]time.Duration, len(c.RateLimits.Actions)),
	}
	for action, raw := range c.RateLimits.Actions {
		cd.PerAction[action] = TTLDuration(raw, cd.Default)
	}
	return cd
}
