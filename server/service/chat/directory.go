package chat

import (
	"context"

	"github.com/lithammer/shortuuid/v4"

	chaterr "github.com/himigchat/himig/server/internal/errors"
	"github.com/himigchat/himig/store"
)

const (
	// titleMaxRunes is where thread titles get cut for the sidebar.
	titleMaxRunes = 30
	titleEllipsis = "..."

	// fallbackTitle is used when a conversation's first message cannot be
	// found. That only happens on degenerate input, never in normal operation.
	fallbackTitle = "New Chat"
)

// Thread is the UI-ready metadata for one conversation.
type Thread struct {
	ID           string
	Title        string
	LastActivity int64
}

// Directory derives the per-user thread list from the message store.
// Conversations have no storage of their own; a thread exists exactly while
// at least one message bears its id.
type Directory struct {
	store *store.Store
	// newThreadID mints collision-resistant conversation tokens. Injectable
	// so tests can pin ids.
	newThreadID func() string
}

// NewDirectory creates a conversation directory over the given store.
func NewDirectory(s *store.Store) *Directory {
	return &Directory{
		store:       s,
		newThreadID: shortuuid.New,
	}
}

// ListThreads returns the user's conversations, most recently active first.
// Each title is the conversation's first message, truncated for display.
func (d *Directory) ListThreads(ctx context.Context, userID int32) ([]*Thread, error) {
	summaries, err := d.store.ListConversationSummaries(ctx, userID)
	if err != nil {
		return nil, chaterr.StorageError("failed to list conversations", err)
	}

	threads := make([]*Thread, 0, len(summaries))
	for _, summary := range summaries {
		title := fallbackTitle
		first, err := d.store.GetFirstChatMessage(ctx, userID, summary.ConversationID)
		if err != nil {
			return nil, chaterr.StorageError("failed to load first message", err)
		}
		if first != nil {
			title = truncateTitle(first.Content)
		}
		threads = append(threads, &Thread{
			ID:           summary.ConversationID,
			Title:        title,
			LastActivity: summary.LastTs,
		})
	}
	return threads, nil
}

// CreateThreadID mints a fresh conversation token. The thread stays invisible
// to ListThreads until its first message is persisted.
func (d *Directory) CreateThreadID() string {
	return d.newThreadID()
}

// DeleteThread removes every message of the conversation. Deleting a
// non-existent thread is a success with zero rows affected.
func (d *Directory) DeleteThread(ctx context.Context, userID int32, conversationID string) error {
	if _, err := d.store.DeleteConversation(ctx, &store.DeleteConversation{
		CreatorID:      userID,
		ConversationID: conversationID,
	}); err != nil {
		return chaterr.StorageError("failed to delete conversation", err)
	}
	return nil
}

// truncateTitle cuts content to titleMaxRunes runes and marks the cut.
// Content at or under the limit is used verbatim.
func truncateTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= titleMaxRunes {
		return content
	}
	return string(runes[:titleMaxRunes]) + titleEllipsis
}
