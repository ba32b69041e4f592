package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseSubmissionNotificationDefaults(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	entry, err := ParseSubmissionNotification(json.RawMessage(`{"quizId":"q1","userId":"u1"}`), now)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if entry.Username != "Student" {
		t.Errorf("expected default username, got %q", entry.Username)
	}
	if entry.QuizTitle != "Quiz" {
		t.Errorf("expected default title, got %q", entry.QuizTitle)
	}
	if entry.TimeSpentMs != 0 || !entry.CompletedAt.Equal(now) {
		t.Errorf("expected zero duration and now timestamp, got %d %v", entry.TimeSpentMs, entry.CompletedAt)
	}
}

func TestParseSubmissionNotificationKeepsSuppliedFields(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	raw := json.RawMessage(`{"quizId":"q1","quizTitle":"Fractions","username":"alice","timeSpent":65000,"submittedAt":"2025-06-15T11:30:00Z"}`)

	entry, err := ParseSubmissionNotification(raw, now)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if entry.Username != "alice" || entry.QuizTitle != "Fractions" || entry.TimeSpentMs != 65000 {
		t.Errorf("supplied fields overwritten: %+v", entry)
	}
	want := time.Date(2025, 6, 15, 11, 30, 0, 0, time.UTC)
	if !entry.CompletedAt.Equal(want) {
		t.Errorf("expected submittedAt honored, got %v", entry.CompletedAt)
	}
}

func TestPercentToleratesBothRepresentations(t *testing.T) {
	supplied := SubmissionEntry{Percentage: 85, Score: 1, TotalScore: 2}
	if got := supplied.Percent(); got != 85 {
		t.Errorf("expected supplied percentage kept, got %v", got)
	}

	derived := SubmissionEntry{Score: 9, TotalScore: 10}
	if got := derived.Percent(); got != 90 {
		t.Errorf("expected derived percentage 90, got %v", got)
	}

	empty := SubmissionEntry{}
	if got := empty.Percent(); got != 0 {
		t.Errorf("expected 0 for empty entry, got %v", got)
	}
}
