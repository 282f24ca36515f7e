package test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/himigchat/himig/store"
)

func TestCreateAndListChatMessages(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := CreateTestingUser(ctx, t, ts, "maria")

	conversationID := "conv-1"
	contents := []string{"first", "second", "third"}
	roles := []store.ChatMessageRole{
		store.ChatMessageRoleUser,
		store.ChatMessageRoleModel,
		store.ChatMessageRoleUser,
	}

	for i, content := range contents {
		created, err := ts.CreateChatMessage(ctx, &store.ChatMessage{
			CreatorID:      user.ID,
			ConversationID: conversationID,
			Role:           roles[i],
			Content:        content,
		})
		require.NoError(t, err)
		require.NotZero(t, created.ID)
		require.NotEmpty(t, created.UID)
		require.NotZero(t, created.CreatedTs)
	}

	messages, err := ts.ListChatMessages(ctx, &store.FindChatMessage{
		CreatorID:      &user.ID,
		ConversationID: &conversationID,
	})
	require.NoError(t, err)
	require.Len(t, messages, 3)
	for i, m := range messages {
		require.Equal(t, contents[i], m.Content)
		require.Equal(t, roles[i], m.Role)
	}
	// Equal timestamps must fall back to insertion order.
	for i := 1; i < len(messages); i++ {
		require.GreaterOrEqual(t, messages[i].CreatedTs, messages[i-1].CreatedTs)
		require.Greater(t, messages[i].ID, messages[i-1].ID)
	}
}

func TestListChatMessagesEmptyConversation(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := CreateTestingUser(ctx, t, ts, "empty")

	conversationID := "missing"
	messages, err := ts.ListChatMessages(ctx, &store.FindChatMessage{
		CreatorID:      &user.ID,
		ConversationID: &conversationID,
	})
	require.NoError(t, err)
	require.Empty(t, messages)
}

func TestGetFirstChatMessage(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := CreateTestingUser(ctx, t, ts, "first")

	conversationID := "conv-first"
	for _, content := range []string{"opening question", "model answer"} {
		_, err := ts.CreateChatMessage(ctx, &store.ChatMessage{
			CreatorID:      user.ID,
			ConversationID: conversationID,
			Role:           store.ChatMessageRoleUser,
			Content:        content,
		})
		require.NoError(t, err)
	}

	first, err := ts.GetFirstChatMessage(ctx, user.ID, conversationID)
	require.NoError(t, err)
	require.NotNil(t, first)
	require.Equal(t, "opening question", first.Content)

	missing, err := ts.GetFirstChatMessage(ctx, user.ID, "no-such-conversation")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestDeleteConversation(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := CreateTestingUser(ctx, t, ts, "deleter")

	conversationID := "conv-del"
	for i := 0; i < 4; i++ {
		_, err := ts.CreateChatMessage(ctx, &store.ChatMessage{
			CreatorID:      user.ID,
			ConversationID: conversationID,
			Role:           store.ChatMessageRoleUser,
			Content:        fmt.Sprintf("message %d", i),
		})
		require.NoError(t, err)
	}

	count, err := ts.DeleteConversation(ctx, &store.DeleteConversation{
		CreatorID:      user.ID,
		ConversationID: conversationID,
	})
	require.NoError(t, err)
	require.EqualValues(t, 4, count)

	// Idempotent: deleting again removes nothing and is not an error.
	count, err = ts.DeleteConversation(ctx, &store.DeleteConversation{
		CreatorID:      user.ID,
		ConversationID: conversationID,
	})
	require.NoError(t, err)
	require.EqualValues(t, 0, count)
}

func TestDeleteConversationScopedToUser(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	owner := CreateTestingUser(ctx, t, ts, "owner")
	other := CreateTestingUser(ctx, t, ts, "other")

	conversationID := "shared-id"
	_, err := ts.CreateChatMessage(ctx, &store.ChatMessage{
		CreatorID:      owner.ID,
		ConversationID: conversationID,
		Role:           store.ChatMessageRoleUser,
		Content:        "mine",
	})
	require.NoError(t, err)

	count, err := ts.DeleteConversation(ctx, &store.DeleteConversation{
		CreatorID:      other.ID,
		ConversationID: conversationID,
	})
	require.NoError(t, err)
	require.EqualValues(t, 0, count)

	messages, err := ts.ListChatMessages(ctx, &store.FindChatMessage{
		CreatorID:      &owner.ID,
		ConversationID: &conversationID,
	})
	require.NoError(t, err)
	require.Len(t, messages, 1)
}

func TestListConversationSummaries(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := CreateTestingUser(ctx, t, ts, "summaries")

	// Two conversations with controlled timestamps: the facade only assigns
	// a timestamp when none is set, so tests can pin ordering.
	for _, m := range []struct {
		conversation string
		content      string
		ts           int64
	}{
		{"conv-old", "old question", 100},
		{"conv-old", "old answer", 110},
		{"conv-new", "new question", 200},
		{"conv-new", "new answer", 210},
	} {
		_, err := ts.CreateChatMessage(ctx, &store.ChatMessage{
			CreatorID:      user.ID,
			ConversationID: m.conversation,
			Role:           store.ChatMessageRoleUser,
			Content:        m.content,
			CreatedTs:      m.ts,
		})
		require.NoError(t, err)
	}

	summaries, err := ts.ListConversationSummaries(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Most recently active first.
	require.Equal(t, "conv-new", summaries[0].ConversationID)
	require.EqualValues(t, 200, summaries[0].FirstTs)
	require.EqualValues(t, 210, summaries[0].LastTs)
	require.Equal(t, "conv-old", summaries[1].ConversationID)
	require.EqualValues(t, 100, summaries[1].FirstTs)
	require.EqualValues(t, 110, summaries[1].LastTs)
}

func TestDeleteChatMessage(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := CreateTestingUser(ctx, t, ts, "compensation")

	conversationID := "conv-comp"
	created, err := ts.CreateChatMessage(ctx, &store.ChatMessage{
		CreatorID:      user.ID,
		ConversationID: conversationID,
		Role:           store.ChatMessageRoleUser,
		Content:        "to be rolled back",
	})
	require.NoError(t, err)

	err = ts.DeleteChatMessage(ctx, &store.DeleteChatMessage{ID: created.ID})
	require.NoError(t, err)

	messages, err := ts.ListChatMessages(ctx, &store.FindChatMessage{
		CreatorID:      &user.ID,
		ConversationID: &conversationID,
	})
	require.NoError(t, err)
	require.Empty(t, messages)
}
