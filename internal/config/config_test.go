package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
server:
  port: "9090"
redis:
  addr: localhost:6379
  ttl: 5m
quiz:
  question_counts: [3, 6]
  time_limits: [20]
  idle_timeout: 2m
rate_limits:
  default: 2s
  actions:
    quiz_answer: 500ms
    quiz_new: bogus
`

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected config %+v", cfg)
	}

	opts := cfg.Options()
	if len(opts.QuestionCounts) != 2 || opts.QuestionCounts[0] != 3 {
		t.Fatalf("unexpected question counts %v", opts.QuestionCounts)
	}
	if opts.IdleTimeout != 2*time.Minute {
		t.Fatalf("expected idle timeout 2m, got %v", opts.IdleTimeout)
	}
	if opts.CompletedGrace != time.Minute || opts.PointsPerQuestion != 1 {
		t.Fatalf("expected defaults for unset fields, got %+v", opts)
	}

	cd := cfg.Cooldowns()
	if cd.For("quiz_answer") != 500*time.Millisecond || cd.For("quiz_join") != 2*time.Second || cd.For("quiz_new") != 2*time.Second {
		t.Fatalf("unexpected cooldowns %+v", cd)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("QUIZ_REDIS_ADDR", "redis:6379")
	t.Setenv("QUIZ_QUESTION_COUNTS", "5,10")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Redis.Addr != "redis:6379" {
		t.Fatalf("expected env override, got %q", cfg.Redis.Addr)
	}
	if cfg.Redis.TTL != "5m" {
		t.Fatalf("expected file value kept, got %q", cfg.Redis.TTL)
	}
	if got := cfg.Options().QuestionCounts; len(got) != 2 || got[1] != 10 {
		t.Fatalf("unexpected question counts %v", got)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SweepInterval() != time.Second || cfg.QuestionCacheTTL() != 10*time.Minute {
		t.Fatalf("unexpected defaults")
	}
	if got := cfg.Options().TimeLimits; len(got) != 4 || got[0] != 10 {
		t.Fatalf("unexpected default time limits %v", got)
	}
}

func TestTTLDuration(t *testing.T) {
	if TTLDuration("", time.Second) != time.Second {
		t.Fatalf("empty should fall back")
	}
	if TTLDuration("nope", time.Second) != time.Second {
		t.Fatalf("invalid should fall back")
	}
	if TTLDuration("3m", time.Second) != 3*time.Minute {
		t.Fatalf("expected parsed duration")
	}
}

func TestOptionsDropNonPositiveChoices(t *testing.T) {
	var cfg Config
	cfg.Quiz.QuestionCounts = []int{0, 5, -2}
	cfg.Quiz.TimeLimits = []int{0}

	opts := cfg.Options()
	if len(opts.QuestionCounts) != 1 || opts.QuestionCounts[0] != 5 {
		t.Fatalf("expected only positive counts, got %v", opts.QuestionCounts)
	}
	if len(opts.TimeLimits) != 4 || opts.TimeLimits[0] != 10 {
		t.Fatalf("expected default time limits, got %v", opts.TimeLimits)
	}
}
