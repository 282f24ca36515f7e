package chat

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/himigchat/himig/server/ai"
	"github.com/himigchat/himig/store"
	storetest "github.com/himigchat/himig/store/test"
)

func TestBuildHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	user := storetest.CreateTestingUser(ctx, t, ts, "replayer")
	assembler := NewAssembler(ts)

	conversationID := "conv-replay"
	roles := []store.ChatMessageRole{store.ChatMessageRoleUser, store.ChatMessageRoleModel}
	var want []ai.Message
	for i := 0; i < 6; i++ {
		content := fmt.Sprintf("turn %d with some text", i)
		role := roles[i%2]
		_, err := ts.CreateChatMessage(ctx, &store.ChatMessage{
			CreatorID:      user.ID,
			ConversationID: conversationID,
			Role:           role,
			Content:        content,
			CreatedTs:      int64(100 + i),
		})
		require.NoError(t, err)
		want = append(want, ai.Message{Role: string(role), Content: content})
	}

	history, err := assembler.BuildHistory(ctx, user.ID, conversationID)
	require.NoError(t, err)
	require.Equal(t, want, history)
}

func TestBuildHistoryEmptyConversation(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	user := storetest.CreateTestingUser(ctx, t, ts, "blank")

	history, err := NewAssembler(ts).BuildHistory(ctx, user.ID, "never-written")
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestBuildHistoryScopedToUser(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	owner := storetest.CreateTestingUser(ctx, t, ts, "owner")
	stranger := storetest.CreateTestingUser(ctx, t, ts, "stranger")

	conversationID := "conv-private"
	_, err := ts.CreateChatMessage(ctx, &store.ChatMessage{
		CreatorID:      owner.ID,
		ConversationID: conversationID,
		Role:           store.ChatMessageRoleUser,
		Content:        "private note",
	})
	require.NoError(t, err)

	history, err := NewAssembler(ts).BuildHistory(ctx, stranger.ID, conversationID)
	require.NoError(t, err)
	require.Empty(t, history)
}
