package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/himigchat/himig/server/ai"
	chaterr "github.com/himigchat/himig/server/internal/errors"
	"github.com/himigchat/himig/store"
	storetest "github.com/himigchat/himig/store/test"
)

// fakeCompleter scripts the provider. Each call records the history it was
// handed so tests can assert on the replayed transcript.
type fakeCompleter struct {
	reply     string
	err       error
	histories [][]ai.Message
	prompts   []string
}

func (f *fakeCompleter) Complete(_ context.Context, history []ai.Message, userText string) (string, error) {
	f.histories = append(f.histories, history)
	f.prompts = append(f.prompts, userText)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestOrchestrator(t *testing.T, completer ai.Completer) (*Orchestrator, *store.Store, *store.User) {
	t.Helper()
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	user := storetest.CreateTestingUser(ctx, t, ts, "listener")
	return NewOrchestrator(ts, NewDirectory(ts), completer, nil), ts, user
}

func TestHandleTurnRejectsEmptyMessage(t *testing.T) {
	ctx := context.Background()
	completer := &fakeCompleter{reply: "unused"}
	orchestrator, ts, user := newTestOrchestrator(t, completer)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := orchestrator.HandleTurn(ctx, user.ID, "", text)
		require.Error(t, err)
		require.True(t, chaterr.IsCode(err, chaterr.ErrCodeInvalidRequest))
	}
	require.Empty(t, completer.prompts)

	summaries, err := ts.ListConversationSummaries(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, summaries)
}

func TestHandleTurnPersistsBothTurns(t *testing.T) {
	ctx := context.Background()
	completer := &fakeCompleter{reply: "Try Ben&Ben's Kathang Isip."}
	orchestrator, ts, user := newTestOrchestrator(t, completer)

	result, err := orchestrator.HandleTurn(ctx, user.ID, "", "Recommend a sad OPM song")
	require.NoError(t, err)
	require.Equal(t, completer.reply, result.Reply)
	require.NotEmpty(t, result.ConversationID)

	messages, err := ts.ListChatMessages(ctx, &store.FindChatMessage{
		CreatorID:      &user.ID,
		ConversationID: &result.ConversationID,
	})
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, store.ChatMessageRoleUser, messages[0].Role)
	require.Equal(t, "Recommend a sad OPM song", messages[0].Content)
	require.Equal(t, store.ChatMessageRoleModel, messages[1].Role)
	require.Equal(t, completer.reply, messages[1].Content)
}

func TestHandleTurnReplaysHistoryWithoutNewText(t *testing.T) {
	ctx := context.Background()
	completer := &fakeCompleter{reply: "reply"}
	orchestrator, _, user := newTestOrchestrator(t, completer)

	first, err := orchestrator.HandleTurn(ctx, user.ID, "", "first question")
	require.NoError(t, err)

	_, err = orchestrator.HandleTurn(ctx, user.ID, first.ConversationID, "second question")
	require.NoError(t, err)

	require.Len(t, completer.histories, 2)
	// The opening turn sees an empty transcript.
	require.Empty(t, completer.histories[0])
	require.Equal(t, "first question", completer.prompts[0])
	// The second turn replays the full prior exchange, new text excluded.
	require.Len(t, completer.histories[1], 2)
	require.Equal(t, ai.Message{Role: "user", Content: "first question"}, completer.histories[1][0])
	require.Equal(t, ai.Message{Role: "model", Content: "reply"}, completer.histories[1][1])
	require.Equal(t, "second question", completer.prompts[1])
}

func TestHandleTurnCompensatesOnProviderFailure(t *testing.T) {
	ctx := context.Background()
	completer := &fakeCompleter{err: chaterr.ProviderError("upstream down", nil)}
	orchestrator, ts, user := newTestOrchestrator(t, completer)

	_, err := orchestrator.HandleTurn(ctx, user.ID, "", "doomed question")
	require.Error(t, err)
	require.True(t, chaterr.IsCode(err, chaterr.ErrCodeProviderError))

	// The aborted opening turn must leave no trace: no messages, no thread.
	summaries, listErr := ts.ListConversationSummaries(ctx, user.ID)
	require.NoError(t, listErr)
	require.Empty(t, summaries)
}

func TestHandleTurnCompensationKeepsPriorTurns(t *testing.T) {
	ctx := context.Background()
	completer := &fakeCompleter{reply: "fine"}
	orchestrator, ts, user := newTestOrchestrator(t, completer)

	result, err := orchestrator.HandleTurn(ctx, user.ID, "", "good question")
	require.NoError(t, err)

	completer.err = chaterr.ProviderError("upstream down", nil)
	_, err = orchestrator.HandleTurn(ctx, user.ID, result.ConversationID, "bad question")
	require.Error(t, err)

	// Only the failed turn rolls back; the earlier exchange survives intact.
	messages, err := ts.ListChatMessages(ctx, &store.FindChatMessage{
		CreatorID:      &user.ID,
		ConversationID: &result.ConversationID,
	})
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, "good question", messages[0].Content)
	require.Equal(t, "fine", messages[1].Content)
}

func TestHandleTurnPropagatesQuotaError(t *testing.T) {
	ctx := context.Background()
	completer := &fakeCompleter{err: chaterr.QuotaExhausted("over quota", nil)}
	orchestrator, _, user := newTestOrchestrator(t, completer)

	_, err := orchestrator.HandleTurn(ctx, user.ID, "", "question")
	require.Error(t, err)
	require.True(t, chaterr.IsCode(err, chaterr.ErrCodeQuotaExhausted))
}
