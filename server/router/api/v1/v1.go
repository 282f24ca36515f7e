package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/himigchat/himig/internal/profile"
	"github.com/himigchat/himig/server/ai"
	"github.com/himigchat/himig/server/auth"
	"github.com/himigchat/himig/server/middleware"
	"github.com/himigchat/himig/server/service/chat"
	"github.com/himigchat/himig/store"
)

// APIV1Service wires the JSON route handlers to the chat core.
type APIV1Service struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store

	Directory    *chat.Directory
	Orchestrator *chat.Orchestrator

	// chatLimiter throttles completion-backed requests per user.
	chatLimiter *middleware.RateLimiter
}

// NewAPIV1Service creates the API service with the completion capability
// injected once at startup.
func NewAPIV1Service(secret string, profile *profile.Profile, store *store.Store, completer ai.Completer) *APIV1Service {
	directory := chat.NewDirectory(store)
	return &APIV1Service{
		Secret:       secret,
		Profile:      profile,
		Store:        store,
		Directory:    directory,
		Orchestrator: chat.NewOrchestrator(store, directory, completer, slog.Default()),
		chatLimiter:  middleware.NewRateLimiter(),
	}
}

// RegisterRoutes registers all route handlers with the given Echo instance.
// The chat surface keeps the paths the frontend has always called.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/auth/signup", s.SignUp)
	e.POST("/api/auth/login", s.SignIn)
	e.POST("/api/auth/logout", s.SignOut)

	chatGroup := e.Group("", s.authMiddleware)
	chatGroup.POST("/chat", s.Chat)
	chatGroup.GET("/get_chat_list", s.GetChatList)
	chatGroup.POST("/new_chat", s.NewChat)
	chatGroup.POST("/delete_chat/:session_id", s.DeleteChat)
	chatGroup.GET("/load_session/:session_id", s.LoadSession)
}

type userContextKeyType string

const userContextKey userContextKeyType = "himig-user"

// authMiddleware resolves the caller from the session cookie. AJAX callers
// get the JSON shape the frontend expects on a missing login.
func (s *APIV1Service) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := ""
		if cookie, err := c.Cookie(auth.AccessTokenCookieName); err == nil {
			token = cookie.Value
		}

		user, err := auth.Authenticate(c.Request().Context(), s.Store, token, s.Secret)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]any{
				"response":   "The user needs to login",
				"session_id": nil,
			})
		}

		c.Set(string(userContextKey), user)
		return next(c)
	}
}

func currentUser(c echo.Context) *store.User {
	user, _ := c.Get(string(userContextKey)).(*store.User)
	return user
}
