package chat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/himigchat/himig/server/ai"
	chaterr "github.com/himigchat/himig/server/internal/errors"
	"github.com/himigchat/himig/server/internal/observability"
	"github.com/himigchat/himig/store"
)

// TurnResult is the outcome of one successful chat turn. The conversation id
// is echoed back so a lazily created thread can be adopted by the caller.
type TurnResult struct {
	Reply          string
	ConversationID string
}

// Orchestrator runs one chat turn end to end: validate, assemble history,
// persist the user turn, call the completion provider, persist the model
// turn. A provider failure after the user-turn write triggers a compensating
// delete so no orphaned unanswered message survives; a storage failure after
// the provider reply keeps the user turn, since the completion has already
// been consumed.
type Orchestrator struct {
	store     *store.Store
	assembler *Assembler
	directory *Directory
	completer ai.Completer
	locks     *conversationLocks
	logger    *slog.Logger
}

// NewOrchestrator creates a turn orchestrator.
func NewOrchestrator(s *store.Store, directory *Directory, completer ai.Completer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:     s,
		assembler: NewAssembler(s),
		directory: directory,
		completer: completer,
		locks:     newConversationLocks(),
		logger:    logger,
	}
}

// HandleTurn processes one user message. An empty conversation id mints a new
// thread; the thread only becomes visible once the turn fully succeeds.
func (o *Orchestrator) HandleTurn(ctx context.Context, userID int32, conversationID string, userText string) (*TurnResult, error) {
	if strings.TrimSpace(userText) == "" {
		return nil, chaterr.InvalidRequest("message is required")
	}
	if conversationID == "" {
		conversationID = o.directory.CreateThreadID()
	}

	reqCtx := observability.NewRequestContext(o.logger, userID, conversationID)

	// One turn at a time per conversation. Interleaved writes would break
	// the role alternation invariant.
	lock := o.locks.get(userID, conversationID)
	lock.Lock()
	defer lock.Unlock()

	// Read before write: the new user text is excluded from the replayed
	// history and handed to the provider separately as the fresh prompt.
	history, err := o.assembler.BuildHistory(ctx, userID, conversationID)
	if err != nil {
		reqCtx.Error("failed to build history", err)
		return nil, err
	}

	userTurn, err := o.store.CreateChatMessage(ctx, &store.ChatMessage{
		CreatorID:      userID,
		ConversationID: conversationID,
		Role:           store.ChatMessageRoleUser,
		Content:        userText,
	})
	if err != nil {
		reqCtx.Error("failed to persist user turn", err)
		return nil, chaterr.StorageError("failed to save message", err)
	}

	reply, err := o.completer.Complete(ctx, history, userText)
	if err != nil {
		// Compensate: the turn got no answer, so the question must not
		// survive either. Run the delete on a fresh context so a caller
		// disconnect cannot leave partial state behind.
		o.compensateUserTurn(userTurn.ID, reqCtx)
		reqCtx.Error("completion failed", err,
			slog.String(observability.LogFieldErrorCode, string(chaterr.GetCodeFromError(err, chaterr.ErrCodeProviderError))))
		return nil, err
	}

	if _, err := o.store.CreateChatMessage(ctx, &store.ChatMessage{
		CreatorID:      userID,
		ConversationID: conversationID,
		Role:           store.ChatMessageRoleModel,
		Content:        reply,
	}); err != nil {
		// The completion is already consumed, so the user turn stays. This
		// is the one accepted inconsistency window: an unanswered question.
		reqCtx.Error("failed to persist model turn", err)
		return nil, chaterr.StorageError("failed to save reply", err)
	}

	reqCtx.Info("turn completed",
		slog.Int(observability.LogFieldMessageLen, len(userText)),
		slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()))

	return &TurnResult{
		Reply:          reply,
		ConversationID: conversationID,
	}, nil
}

func (o *Orchestrator) compensateUserTurn(messageID int32, reqCtx *observability.RequestContext) {
	if err := o.store.DeleteChatMessage(context.Background(), &store.DeleteChatMessage{ID: messageID}); err != nil {
		// Nothing left to do but record it; the orphan is visible in the
		// transcript until the conversation is deleted.
		reqCtx.Error("failed to compensate user turn", err)
	}
}
