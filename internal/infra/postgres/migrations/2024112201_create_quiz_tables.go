package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var Migrations = migrate.NewMigrations()

// user_key is JSONB because older rows carry a numeric key and newer rows a
// string key; lookups try both.
const createQuizTablesSQL = `
CREATE TABLE IF NOT EXISTS users (
	seq           BIGSERIAL,
	user_key      JSONB PRIMARY KEY,
	username      TEXT NOT NULL DEFAULT '',
	full_name     TEXT NOT NULL DEFAULT '',
	has_start     BOOLEAN NOT NULL DEFAULT FALSE,
	total_quiz    INTEGER NOT NULL DEFAULT 0,
	total_correct INTEGER NOT NULL DEFAULT 0,
	total_wrong   INTEGER NOT NULL DEFAULT 0,
	total_points  INTEGER NOT NULL DEFAULT 0,
	quiz_created  INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS topics (
	seq         BIGSERIAL,
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	active      BOOLEAN NOT NULL DEFAULT TRUE,
	played      INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS questions (
	seq            BIGSERIAL,
	id             TEXT PRIMARY KEY,
	topic_id       TEXT NOT NULL,
	prompt         TEXT NOT NULL,
	options        JSONB NOT NULL,
	correct_option INTEGER NOT NULL,
	points         INTEGER NOT NULL DEFAULT 1,
	created_by     TEXT NOT NULL DEFAULT '',
	approved       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS questions_topic_approved_idx ON questions (topic_id, approved);
`

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, createQuizTablesSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS questions, topics, users`)
			return err
		},
	)
}
