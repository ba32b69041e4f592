package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"leaderboard-watch/internal/domain"
)

// Client wraps the leaderboard backend's REST endpoints. All responses share
// the {success, data, message} envelope, decoded once in getJSON.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type quizBoard struct {
	Leaderboard []domain.LeaderboardRow `json:"leaderboard"`
	Quiz        domain.Quiz             `json:"quiz"`
}

type groupBoard struct {
	Leaderboard []domain.LeaderboardRow `json:"leaderboard"`
	Group       domain.Group            `json:"group"`
}

// RecentSubmissions fetches the most recent completed attempts.
func (c *Client) RecentSubmissions(ctx context.Context, limit int) ([]domain.SubmissionEntry, error) {
	var entries []domain.SubmissionEntry
	q := url.Values{"limit": []string{strconv.Itoa(limit)}}
	if err := c.getJSON(ctx, "/api/leaderboard/recent", q, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// QuizLeaderboard fetches the ranked rows and quiz metadata for one quiz.
func (c *Client) QuizLeaderboard(ctx context.Context, quizID string) ([]domain.LeaderboardRow, domain.Quiz, error) {
	var board quizBoard
	if err := c.getJSON(ctx, "/api/leaderboard/quiz/"+url.PathEscape(quizID), nil, &board); err != nil {
		return nil, domain.Quiz{}, err
	}
	return board.Leaderboard, board.Quiz, nil
}

// GroupLeaderboard fetches the ranked rows and group metadata for one group.
func (c *Client) GroupLeaderboard(ctx context.Context, groupID string) ([]domain.LeaderboardRow, domain.Group, error) {
	var board groupBoard
	if err := c.getJSON(ctx, "/api/leaderboard/group/"+url.PathEscape(groupID), nil, &board); err != nil {
		return nil, domain.Group{}, err
	}
	return board.Leaderboard, board.Group, nil
}

// Quizzes fetches the quiz catalog, filtered to published quizzes.
func (c *Client) Quizzes(ctx context.Context) ([]domain.Quiz, error) {
	var quizzes []domain.Quiz
	if err := c.getJSON(ctx, "/api/quizzes", nil, &quizzes); err != nil {
		return nil, err
	}
	published := quizzes[:0]
	for _, quiz := range quizzes {
		if quiz.Published {
			published = append(published, quiz)
		}
	}
	return published, nil
}

// Groups fetches the group catalog.
func (c *Client) Groups(ctx context.Context) ([]domain.Group, error) {
	var groups []domain.Group
	if err := c.getJSON(ctx, "/api/groups", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s: unexpected status %d", path, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if !env.Success {
		if env.Message != "" {
			return fmt.Errorf("%w: %s", domain.ErrBackendRejected, env.Message)
		}
		return domain.ErrBackendRejected
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", path, err)
	}
	return nil
}
