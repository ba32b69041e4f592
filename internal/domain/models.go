package domain

import "time"

// SubmissionEntry is one student's completed attempt at one quiz, as the
// backend reports it via REST snapshots or push notifications.
type SubmissionEntry struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quizId"`
	QuizTitle   string    `json:"quizTitle"`
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	FullName    string    `json:"fullName"`
	Score       float64   `json:"score"`
	TotalScore  float64   `json:"totalScore"`
	Percentage  float64   `json:"percentage"`
	TimeSpentMs int64     `json:"timeSpent"`
	CompletedAt time.Time `json:"completedAt"`
}

// Percent returns the supplied percentage, deriving it from score/totalScore
// when the backend omitted it. Consumers must tolerate either representation.
func (e SubmissionEntry) Percent() float64 {
	if e.Percentage != 0 {
		return e.Percentage
	}
	if e.TotalScore > 0 {
		return e.Score / e.TotalScore * 100
	}
	return 0
}

// DisplayName prefers the full name and falls back to the username.
func (e SubmissionEntry) DisplayName() string {
	if e.FullName != "" {
		return e.FullName
	}
	return e.Username
}

// QuizScore is one quiz result nested inside a group-scope row.
type QuizScore struct {
	QuizID     string  `json:"quizId"`
	Percentage float64 `json:"percentage"`
}

// LeaderboardRow is one participant's standing within a quiz or group scope.
// Quiz-scope rows carry Score/Percentage; group-scope rows carry the
// aggregate fields. Array order from the backend is the authoritative rank.
type LeaderboardRow struct {
	UserID       string      `json:"userId"`
	Username     string      `json:"username"`
	FullName     string      `json:"fullName"`
	Email        string      `json:"email"`
	Score        float64     `json:"score"`
	TotalScore   float64     `json:"totalScore"`
	Percentage   float64     `json:"percentage"`
	AverageScore float64     `json:"averageScore"`
	QuizzesTaken int         `json:"quizzesTaken"`
	QuizScores   []QuizScore `json:"quizScores"`
}

// DisplayName prefers the full name and falls back to the username.
func (r LeaderboardRow) DisplayName() string {
	if r.FullName != "" {
		return r.FullName
	}
	return r.Username
}

// Quiz is a catalog entry used for scope selection.
type Quiz struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Published bool   `json:"published"`
}

// Group is a catalog entry used for scope selection.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ScopeKind tags which leaderboard view is active.
type ScopeKind string

const (
	ScopeRecent ScopeKind = "recent"
	ScopeQuiz   ScopeKind = "quiz"
	ScopeGroup  ScopeKind = "group"
)

// Scope selects the active view. Exactly one scope is active at a time;
// ID is empty for the recent feed.
type Scope struct {
	Kind ScopeKind
	ID   string
}

// ConnState describes the push-channel connection lifecycle.
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
)

// Identity is the authenticated user presented to the push channel.
type Identity struct {
	UserID string
	Role   string
}
