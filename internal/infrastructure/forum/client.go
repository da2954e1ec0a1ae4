// Package forum implements the gateway interfaces against the hosting
// forum's admin API.
package forum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"credit-ledger.backend/internal/config"
	"credit-ledger.backend/internal/domain/gateways"
	domainerrors "credit-ledger.backend/internal/domain/errors"
	"credit-ledger.backend/pkg/logger"
)

// Client talks to the forum API with an admin key. It implements
// gateways.IdentityGateway, gateways.MessageGateway and gateways.ScoreGateway.
type Client struct {
	baseURL     string
	apiKey      string
	apiUsername string
	httpClient  *http.Client
}

// NewClient creates a forum API client
func NewClient(cfg config.ForumConfig) *Client {
	return &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		apiUsername: cfg.APIUsername,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Api-Username", c.apiUsername)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domainerrors.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("forum api %s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type forumUserPayload struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	Suspended bool   `json:"suspended"`
}

func (p forumUserPayload) toUser() *gateways.ForumUser {
	return &gateways.ForumUser{
		ID:          p.ID,
		Username:    p.Username,
		DisplayName: p.Name,
		Active:      p.Active && !p.Suspended,
	}
}

// ResolveUser looks a user up by id
func (c *Client) ResolveUser(ctx context.Context, userID int64) (*gateways.ForumUser, error) {
	var payload struct {
		User forumUserPayload `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/users/"+strconv.FormatInt(userID, 10)+".json", nil, &payload.User); err != nil {
		return nil, err
	}
	return payload.User.toUser(), nil
}

// ResolveUsername looks a user up by username
func (c *Client) ResolveUsername(ctx context.Context, username string) (*gateways.ForumUser, error) {
	var payload struct {
		User forumUserPayload `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/u/"+url.PathEscape(username)+".json", nil, &payload); err != nil {
		return nil, err
	}
	return payload.User.toUser(), nil
}

// SearchUsers searches users by keyword
func (c *Client) SearchUsers(ctx context.Context, keyword string, limit int) ([]*gateways.ForumUser, error) {
	var payload []forumUserPayload
	path := fmt.Sprintf("/u/search/users.json?term=%s&limit=%d", url.QueryEscape(keyword), limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &struct {
		Users *[]forumUserPayload `json:"users"`
	}{&payload}); err != nil {
		return nil, err
	}
	users := make([]*gateways.ForumUser, 0, len(payload))
	for _, p := range payload {
		users = append(users, p.toUser())
	}
	return users, nil
}

// HasReplied reports whether the user posted a reply under the topic
func (c *Client) HasReplied(ctx context.Context, userID, topicID int64) (bool, error) {
	var payload struct {
		Replied bool `json:"replied"`
	}
	path := fmt.Sprintf("/t/%d/user-replied.json?user_id=%d", topicID, userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return false, err
	}
	return payload.Replied, nil
}

// SendPrivateMessage delivers a private notification. Callers treat failure
// as non-fatal.
func (c *Client) SendPrivateMessage(ctx context.Context, userID int64, title, body string) error {
	user, err := c.ResolveUser(ctx, userID)
	if err != nil {
		return err
	}
	req := map[string]interface{}{
		"title":            title,
		"raw":              body,
		"target_usernames": user.Username,
		"archetype":        "private_message",
	}
	return c.do(ctx, http.MethodPost, "/posts.json", req, nil)
}

// Score reads the user's leaderboard score. Query failures degrade to zero
// so one bad user never stalls the sync sweep.
func (c *Client) Score(ctx context.Context, userID int64) (int, error) {
	var payload struct {
		Score int `json:"score"`
	}
	path := fmt.Sprintf("/leaderboard/score.json?user_id=%d", userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		logger.Warn(ctx, "score query failed, treating as zero",
			zap.Int64("user_id", userID), zap.Error(err))
		return 0, nil
	}
	return payload.Score, nil
}

// interface checks
var (
	_ gateways.IdentityGateway = (*Client)(nil)
	_ gateways.MessageGateway  = (*Client)(nil)
	_ gateways.ScoreGateway    = (*Client)(nil)
)
