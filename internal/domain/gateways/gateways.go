// Package gateways declares the collaborator interfaces at the engine's
// boundary. The hosting forum implements them; the engine treats them as
// black boxes and never rolls back money on their failures.
package gateways

import "context"

// ForumUser is the identity collaborator's view of a user.
type ForumUser struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Active      bool   `json:"active"`
}

// IdentityGateway resolves forum users. The engine never authenticates
// users itself.
type IdentityGateway interface {
	ResolveUser(ctx context.Context, userID int64) (*ForumUser, error)
	ResolveUsername(ctx context.Context, username string) (*ForumUser, error)
	SearchUsers(ctx context.Context, keyword string, limit int) ([]*ForumUser, error)
	// HasReplied reports whether the user replied under the given topic,
	// used for reply-gated red envelope claims.
	HasReplied(ctx context.Context, userID, topicID int64) (bool, error)
}

// MessageGateway delivers private notifications. Fire-and-forget: a delivery
// failure must never abort a financial transaction.
type MessageGateway interface {
	SendPrivateMessage(ctx context.Context, userID int64, title, body string) error
}

// ScoreGateway reads the external reputation score used by the community
// sync job. Implementations degrade to zero on query failure.
type ScoreGateway interface {
	Score(ctx context.Context, userID int64) (int, error)
}
