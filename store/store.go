package store

import (
	"context"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/himigchat/himig/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) CreateUser(ctx context.Context, create *User) (*User, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	return s.driver.CreateUser(ctx, create)
}

func (s *Store) ListUsers(ctx context.Context, find *FindUser) ([]*User, error) {
	return s.driver.ListUsers(ctx, find)
}

func (s *Store) GetUser(ctx context.Context, find *FindUser) (*User, error) {
	users, err := s.driver.ListUsers(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users[0], nil
}

// CreateChatMessage appends one immutable turn. The creation timestamp is
// assigned here, server-side, so ordering within a conversation never depends
// on caller clocks. Role and alternation validation is the orchestrator's job;
// the store never fails on business-rule grounds.
func (s *Store) CreateChatMessage(ctx context.Context, create *ChatMessage) (*ChatMessage, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	return s.driver.CreateChatMessage(ctx, create)
}

func (s *Store) ListChatMessages(ctx context.Context, find *FindChatMessage) ([]*ChatMessage, error) {
	return s.driver.ListChatMessages(ctx, find)
}

func (s *Store) GetFirstChatMessage(ctx context.Context, creatorID int32, conversationID string) (*ChatMessage, error) {
	return s.driver.GetFirstChatMessage(ctx, creatorID, conversationID)
}

func (s *Store) DeleteChatMessage(ctx context.Context, delete *DeleteChatMessage) error {
	return s.driver.DeleteChatMessage(ctx, delete)
}

// DeleteConversation removes every message in the partition and returns the
// count removed. Zero is a valid result, not an error.
func (s *Store) DeleteConversation(ctx context.Context, delete *DeleteConversation) (int64, error) {
	return s.driver.DeleteConversation(ctx, delete)
}

func (s *Store) ListConversationSummaries(ctx context.Context, creatorID int32) ([]*ConversationSummary, error) {
	return s.driver.ListConversationSummaries(ctx, creatorID)
}
