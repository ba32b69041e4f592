package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

const createSubmissionsSQL = `
CREATE TABLE IF NOT EXISTS submissions (
	id            BIGSERIAL PRIMARY KEY,
	quiz_id       TEXT NOT NULL,
	quiz_title    TEXT NOT NULL DEFAULT '',
	user_id       TEXT NOT NULL,
	username      TEXT NOT NULL DEFAULT '',
	full_name     TEXT NOT NULL DEFAULT '',
	score         DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_score   DOUBLE PRECISION NOT NULL DEFAULT 0,
	percentage    DOUBLE PRECISION NOT NULL DEFAULT 0,
	time_spent_ms BIGINT NOT NULL DEFAULT 0,
	completed_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS submissions_completed_at_idx ON submissions (completed_at DESC);
CREATE INDEX IF NOT EXISTS submissions_quiz_id_idx ON submissions (quiz_id);
`

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(createSubmissionsSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(`DROP TABLE IF EXISTS submissions`)
			return err
		},
	)
}
