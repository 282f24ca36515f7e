package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/himigchat/himig/server/auth"
	"github.com/himigchat/himig/store"
)

type signUpRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Nickname  string `json:"nickname"`
	Password  string `json:"password"`
	Age       int32  `json:"age"`
	BirthDate string `json:"birth_date"`
}

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignUp registers a new user. Duplicate username or email is a conflict, not
// a server fault.
func (s *APIV1Service) SignUp(c echo.Context) error {
	ctx := c.Request().Context()

	req := &signUpRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "malformed request"})
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "username, email and password are required"})
	}

	if existing, err := s.Store.GetUser(ctx, &store.FindUser{Username: &req.Username}); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "failed to check username"})
	} else if existing != nil {
		return c.JSON(http.StatusConflict, map[string]any{"error": "username already taken"})
	}
	if existing, err := s.Store.GetUser(ctx, &store.FindUser{Email: &req.Email}); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "failed to check email"})
	} else if existing != nil {
		return c.JSON(http.StatusConflict, map[string]any{"error": "email already registered"})
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "failed to process password"})
	}

	user, err := s.Store.CreateUser(ctx, &store.User{
		Username:     req.Username,
		Email:        req.Email,
		Nickname:     req.Nickname,
		PasswordHash: passwordHash,
		Age:          req.Age,
		BirthDate:    req.BirthDate,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "failed to create user"})
	}

	return s.issueSession(c, user)
}

// SignIn authenticates a user and sets the session cookie.
func (s *APIV1Service) SignIn(c echo.Context) error {
	ctx := c.Request().Context()

	req := &signInRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "malformed request"})
	}

	user, err := s.Store.GetUser(ctx, &store.FindUser{Username: &req.Username})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "failed to load user"})
	}
	if user == nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		return c.JSON(http.StatusUnauthorized, map[string]any{"error": "incorrect username or password"})
	}

	return s.issueSession(c, user)
}

// SignOut clears the session cookie.
func (s *APIV1Service) SignOut(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     auth.AccessTokenCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func (s *APIV1Service) issueSession(c echo.Context, user *store.User) error {
	token, err := auth.GenerateAccessToken(user.Username, user.ID, s.Secret)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "failed to issue session"})
	}

	c.SetCookie(&http.Cookie{
		Name:     auth.AccessTokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(auth.AccessTokenDuration),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"username": user.Username,
		"nickname": user.Nickname,
	})
}
