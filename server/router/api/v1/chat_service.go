package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	chaterr "github.com/himigchat/himig/server/internal/errors"
	"github.com/himigchat/himig/store"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

type sessionInfo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Timestamp string `json:"timestamp"`
}

type historyEntry struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

// Chat handles one turn of conversation with the model. A missing session id
// lazily creates a new thread; the id comes back in the response so the
// frontend can adopt it.
func (s *APIV1Service) Chat(c echo.Context) error {
	user := currentUser(c)

	req := &chatRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"response": "malformed request"})
	}

	if !s.chatLimiter.Allow(strconv.FormatInt(int64(user.ID), 10)) {
		return c.JSON(http.StatusTooManyRequests, map[string]any{
			"response": "You're sending messages too quickly. Please wait a moment.",
		})
	}

	result, err := s.Orchestrator.HandleTurn(c.Request().Context(), user.ID, req.SessionID, req.Message)
	if err != nil {
		return chatErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, &chatResponse{
		Response:  result.Reply,
		SessionID: result.ConversationID,
	})
}

// GetChatList returns the user's conversations, most recently active first.
func (s *APIV1Service) GetChatList(c echo.Context) error {
	user := currentUser(c)

	threads, err := s.Directory.ListThreads(c.Request().Context(), user.ID)
	if err != nil {
		return chatErrorResponse(c, err)
	}

	sessions := make([]*sessionInfo, 0, len(threads))
	for _, t := range threads {
		sessions = append(sessions, &sessionInfo{
			ID:        t.ID,
			Title:     t.Title,
			Timestamp: time.Unix(t.LastActivity, 0).UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"sessions": sessions})
}

// NewChat mints a fresh, as-yet-empty thread token.
func (s *APIV1Service) NewChat(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"session_id": s.Directory.CreateThreadID()})
}

// DeleteChat deletes a conversation. Deleting a non-existent one succeeds.
func (s *APIV1Service) DeleteChat(c echo.Context) error {
	user := currentUser(c)
	sessionID := c.Param("session_id")

	if err := s.Directory.DeleteThread(c.Request().Context(), user.ID, sessionID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "failed to delete chat",
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// LoadSession returns a conversation's full transcript in chronological order.
func (s *APIV1Service) LoadSession(c echo.Context) error {
	user := currentUser(c)
	sessionID := c.Param("session_id")

	messages, err := s.Store.ListChatMessages(c.Request().Context(), &store.FindChatMessage{
		CreatorID:      &user.ID,
		ConversationID: &sessionID,
	})
	if err != nil {
		return chatErrorResponse(c, chaterr.StorageError("failed to load session", err))
	}

	history := make([]*historyEntry, 0, len(messages))
	for _, m := range messages {
		history = append(history, &historyEntry{
			Sender:  string(m.Role),
			Content: m.Content,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"history": history})
}

// chatErrorResponse converts a service error to the JSON shape the frontend
// expects. Internal fault text never crosses the boundary.
func chatErrorResponse(c echo.Context, err error) error {
	chatErr, ok := err.(*chaterr.ChatError)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]any{"response": "something went wrong"})
	}
	return c.JSON(chatErr.HTTPStatus(), map[string]any{"response": chatErr.Message})
}
