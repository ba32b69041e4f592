package view

import (
	"fmt"
	"time"

	"leaderboard-watch/internal/domain"
)

// FormatDuration renders milliseconds as M:SS with zero-padded seconds.
// There is no hour component: long durations keep accumulating minutes.
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	totalSeconds := ms / 1000
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// RelativeTime describes how long ago t was, relative to now. Anything a day
// or older falls back to an absolute short date.
func RelativeTime(t, now time.Time) string {
	elapsed := now.Sub(t)
	switch {
	case elapsed < time.Minute:
		return "Just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%d min ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(elapsed.Hours()))
	default:
		return t.Format("Jan 2, 3:04 PM")
	}
}

// RankBadge decorates a rank position. It is a pure function of the array
// index: the top three get fixed badges, everyone else a numeric one.
func RankBadge(index int) string {
	switch index {
	case 0:
		return "🏆"
	case 1:
		return "🥈"
	case 2:
		return "⭐"
	default:
		return fmt.Sprintf("#%d", index+1)
	}
}

// Band classifies a percentage score into one of four fixed tiers.
type Band int

const (
	BandLow Band = iota
	BandMid
	BandHigh
	BandTop
)

// ScoreBand buckets a percentage with inclusive lower bounds at 90/75/60.
func ScoreBand(percentage float64) Band {
	switch {
	case percentage >= 90:
		return BandTop
	case percentage >= 75:
		return BandHigh
	case percentage >= 60:
		return BandMid
	default:
		return BandLow
	}
}

// ansi color per band, reused across all three boards
var bandColors = map[Band]string{
	BandTop:  "\033[32m", // green
	BandHigh: "\033[36m", // cyan
	BandMid:  "\033[33m", // yellow
	BandLow:  "\033[31m", // red
}

const ansiReset = "\033[0m"

// ColorScore renders a percentage wrapped in its band's color.
func ColorScore(percentage float64) string {
	return fmt.Sprintf("%s%.1f%%%s", bandColors[ScoreBand(percentage)], percentage, ansiReset)
}

// BestScore is the maximum of a group row's nested per-quiz percentages,
// or 0 when none are recorded.
func BestScore(row domain.LeaderboardRow) float64 {
	best := 0.0
	for _, qs := range row.QuizScores {
		if qs.Percentage > best {
			best = qs.Percentage
		}
	}
	return best
}
