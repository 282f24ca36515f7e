package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// User model related methods.
	CreateUser(ctx context.Context, create *User) (*User, error)
	ListUsers(ctx context.Context, find *FindUser) ([]*User, error)

	// ChatMessage model related methods.
	CreateChatMessage(ctx context.Context, create *ChatMessage) (*ChatMessage, error)
	ListChatMessages(ctx context.Context, find *FindChatMessage) ([]*ChatMessage, error)
	GetFirstChatMessage(ctx context.Context, creatorID int32, conversationID string) (*ChatMessage, error)
	DeleteChatMessage(ctx context.Context, delete *DeleteChatMessage) error
	DeleteConversation(ctx context.Context, delete *DeleteConversation) (int64, error)
	ListConversationSummaries(ctx context.Context, creatorID int32) ([]*ConversationSummary, error)
}
