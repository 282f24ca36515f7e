package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/himigchat/himig/internal/profile"
	"github.com/himigchat/himig/server/ai"
	apiv1 "github.com/himigchat/himig/server/router/api/v1"
	"github.com/himigchat/himig/store"
)

type Server struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
}

// NewServer wires the HTTP surface. The completion provider is constructed
// once here and injected into the API service.
func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true

	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.CORS())

	s := &Server{
		Secret:     profile.Secret,
		Profile:    profile,
		Store:      store,
		echoServer: echoServer,
	}

	provider, err := ai.NewProvider(ai.NewConfigFromProfile(profile))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create completion provider")
	}

	apiV1Service := apiv1.NewAPIV1Service(s.Secret, profile, store, provider)
	apiV1Service.RegisterRoutes(echoServer)

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	return s, nil
}

func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", slog.String("address", address))
	return s.echoServer.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Shutdown echo server
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	// Close database connection
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", slog.String("error", err.Error()))
	}

	slog.Info("himig stopped properly")
}
