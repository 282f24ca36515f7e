package store

// ChatMessageRole is the author of a single turn.
type ChatMessageRole string

const (
	ChatMessageRoleUser  ChatMessageRole = "user"
	ChatMessageRoleModel ChatMessageRole = "model"
)

// ChatMessage is one immutable turn of a conversation. A conversation has no
// row of its own: it is the set of messages sharing one (creator, conversation)
// pair, ordered by (created_ts, id).
type ChatMessage struct {
	ID             int32
	UID            string
	CreatorID      int32
	ConversationID string
	Role           ChatMessageRole
	Content        string
	CreatedTs      int64
}

type FindChatMessage struct {
	ID             *int32
	CreatorID      *int32
	ConversationID *string
}

type DeleteChatMessage struct {
	ID int32
}

// DeleteConversation removes every message of one conversation partition.
type DeleteConversation struct {
	CreatorID      int32
	ConversationID string
}

// ConversationSummary is one row per distinct conversation id owned by a user.
type ConversationSummary struct {
	ConversationID string
	FirstTs        int64
	LastTs         int64
}
