package chat

import (
	"context"

	"github.com/himigchat/himig/server/ai"
	chaterr "github.com/himigchat/himig/server/internal/errors"
	"github.com/himigchat/himig/store"
)

// Assembler rebuilds the provider-facing transcript from stored turns. It is
// a pure derived view: every call recomputes from the message store, so there
// is no staleness window. The full history is replayed on every turn; a
// windowing policy can be slotted in here if transcripts ever outgrow the
// provider's context.
type Assembler struct {
	store *store.Store
}

// NewAssembler creates a transcript assembler over the given store.
func NewAssembler(s *store.Store) *Assembler {
	return &Assembler{store: s}
}

// BuildHistory returns the ordered role/content pairs for one conversation,
// content and order unchanged from storage.
func (a *Assembler) BuildHistory(ctx context.Context, userID int32, conversationID string) ([]ai.Message, error) {
	messages, err := a.store.ListChatMessages(ctx, &store.FindChatMessage{
		CreatorID:      &userID,
		ConversationID: &conversationID,
	})
	if err != nil {
		return nil, chaterr.StorageError("failed to load conversation history", err)
	}

	history := make([]ai.Message, 0, len(messages))
	for _, m := range messages {
		history = append(history, ai.Message{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return history, nil
}
