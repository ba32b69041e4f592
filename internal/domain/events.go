package domain

import (
	"encoding/json"
	"time"
)

// Push-channel event names. Outbound signals are emitted by the connection
// manager; inbound events are decoded here, once, at the channel boundary.
const (
	EventAuthenticate    = "authenticate"
	EventJoinTeacherRoom = "joinTeacherRoom"
	EventJoinQuizRoom    = "joinQuizRoom"

	EventSubmissionNotification = "submissionNotification"
	EventLeaderboardUpdate      = "leaderboardUpdate"
)

// LeaderboardUpdateNewSubmission is the only update type this client acts on.
const LeaderboardUpdateNewSubmission = "newSubmission"

// SubmissionNotification is the payload of an inbound submissionNotification.
type SubmissionNotification struct {
	QuizID      string  `json:"quizId"`
	QuizTitle   string  `json:"quizTitle"`
	UserID      string  `json:"userId"`
	Username    string  `json:"username"`
	FullName    string  `json:"fullName"`
	Score       float64 `json:"score"`
	TotalScore  float64 `json:"totalScore"`
	Percentage  float64 `json:"percentage"`
	TimeSpentMs int64   `json:"timeSpent"`
	SubmittedAt string  `json:"submittedAt"`
}

// LeaderboardUpdate is the payload of an inbound leaderboardUpdate.
type LeaderboardUpdate struct {
	Type    string `json:"type"`
	QuizID  string `json:"quizId"`
	GroupID string `json:"groupId"`
}

// ParseSubmissionNotification decodes a raw payload and applies the defaults
// for fields the backend may omit: username "Student", quiz title "Quiz",
// zero time spent, completion timestamp now.
func ParseSubmissionNotification(raw json.RawMessage, now time.Time) (SubmissionEntry, error) {
	var n SubmissionNotification
	if err := json.Unmarshal(raw, &n); err != nil {
		return SubmissionEntry{}, err
	}

	entry := SubmissionEntry{
		QuizID:      n.QuizID,
		QuizTitle:   n.QuizTitle,
		UserID:      n.UserID,
		Username:    n.Username,
		FullName:    n.FullName,
		Score:       n.Score,
		TotalScore:  n.TotalScore,
		Percentage:  n.Percentage,
		TimeSpentMs: n.TimeSpentMs,
		CompletedAt: now,
	}
	if entry.Username == "" {
		entry.Username = "Student"
	}
	if entry.QuizTitle == "" {
		entry.QuizTitle = "Quiz"
	}
	if n.SubmittedAt != "" {
		if at, err := time.Parse(time.RFC3339, n.SubmittedAt); err == nil {
			entry.CompletedAt = at
		}
	}
	return entry, nil
}

// ParseLeaderboardUpdate decodes a raw leaderboardUpdate payload.
func ParseLeaderboardUpdate(raw json.RawMessage) (LeaderboardUpdate, error) {
	var u LeaderboardUpdate
	if err := json.Unmarshal(raw, &u); err != nil {
		return LeaderboardUpdate{}, err
	}
	return u, nil
}
