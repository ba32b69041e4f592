package view

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"leaderboard-watch/internal/app"
	"leaderboard-watch/internal/domain"
)

// Empty-state placeholders. Rendering never fails on empty or absent input;
// the board degrades to a fixed message instead.
const (
	emptyRecent = "No submissions yet"
	emptyQuiz   = "No one has taken this quiz yet"
	emptyGroup  = "No results for this group yet"
)

// Render draws the board for the snapshot's active scope.
func Render(snap app.Snapshot) string {
	switch snap.Scope.Kind {
	case domain.ScopeQuiz:
		return RenderQuizBoard(snap.Quiz, snap.QuizRows)
	case domain.ScopeGroup:
		return RenderGroupBoard(snap.Group, snap.GroupRows)
	default:
		return RenderRecent(snap.Recent, snap.UpdatedAt)
	}
}

// RenderRecent draws the global recent-submissions feed.
func RenderRecent(entries []domain.SubmissionEntry, now time.Time) string {
	var b strings.Builder
	b.WriteString("Recent Submissions\n\n")
	if len(entries) == 0 {
		b.WriteString(emptyRecent + "\n")
		return b.String()
	}

	tw := tabwriter.NewWriter(&b, 2, 4, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.DisplayName(),
			e.QuizTitle,
			ColorScore(e.Percent()),
			FormatDuration(e.TimeSpentMs),
			RelativeTime(e.CompletedAt, now),
		)
	}
	_ = tw.Flush()
	return b.String()
}

// RenderQuizBoard draws the quiz-scoped leaderboard. Row order is the
// backend's ranking; index 0 is first place.
func RenderQuizBoard(quiz domain.Quiz, rows []domain.LeaderboardRow) string {
	var b strings.Builder
	title := quiz.Title
	if title == "" {
		title = quiz.ID
	}
	fmt.Fprintf(&b, "Leaderboard: %s\n\n", title)
	if len(rows) == 0 {
		b.WriteString(emptyQuiz + "\n")
		return b.String()
	}

	tw := tabwriter.NewWriter(&b, 2, 4, 2, ' ', 0)
	for i, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			RankBadge(i),
			row.DisplayName(),
			row.Email,
			ColorScore(rowPercent(row)),
		)
	}
	_ = tw.Flush()
	return b.String()
}

// RenderGroupBoard draws the group-scoped leaderboard with the aggregate
// columns: average, best and quizzes taken.
func RenderGroupBoard(group domain.Group, rows []domain.LeaderboardRow) string {
	var b strings.Builder
	name := group.Name
	if name == "" {
		name = group.ID
	}
	fmt.Fprintf(&b, "Group Leaderboard: %s\n\n", name)
	if len(rows) == 0 {
		b.WriteString(emptyGroup + "\n")
		return b.String()
	}

	tw := tabwriter.NewWriter(&b, 2, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "\t\tavg\tbest\tquizzes\n")
	for i, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f%%\t%d\n",
			RankBadge(i),
			row.DisplayName(),
			ColorScore(row.AverageScore),
			BestScore(row),
			row.QuizzesTaken,
		)
	}
	_ = tw.Flush()
	return b.String()
}

func rowPercent(row domain.LeaderboardRow) float64 {
	if row.Percentage != 0 {
		return row.Percentage
	}
	if row.TotalScore > 0 {
		return row.Score / row.TotalScore * 100
	}
	return 0
}
