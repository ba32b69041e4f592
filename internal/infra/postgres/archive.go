package postgres

import (
	"context"
	"fmt"

	"leaderboard-watch/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Archive is a durable log of push-notified submissions. The watcher records
// every notification it receives; the history command reads them back.
type Archive struct {
	pool *pgxpool.Pool
}

func NewArchive(pool *pgxpool.Pool) *Archive {
	return &Archive{pool: pool}
}

// Record inserts one submission into the archive.
func (a *Archive) Record(ctx context.Context, entry domain.SubmissionEntry) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO submissions (quiz_id, quiz_title, user_id, username, full_name, score, total_score, percentage, time_spent_ms, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.QuizID, entry.QuizTitle, entry.UserID, entry.Username, entry.FullName,
		entry.Score, entry.TotalScore, entry.Percent(), entry.TimeSpentMs, entry.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("archive submission: %w", err)
	}
	return nil
}

// Recent returns the newest archived submissions, newest first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]domain.SubmissionEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.pool.Query(ctx, `
		SELECT id::text, quiz_id, quiz_title, user_id, username, full_name, score, total_score, percentage, time_spent_ms, completed_at
		FROM submissions ORDER BY completed_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	defer rows.Close()

	var entries []domain.SubmissionEntry
	for rows.Next() {
		var e domain.SubmissionEntry
		if err := rows.Scan(&e.ID, &e.QuizID, &e.QuizTitle, &e.UserID, &e.Username, &e.FullName,
			&e.Score, &e.TotalScore, &e.Percentage, &e.TimeSpentMs, &e.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
