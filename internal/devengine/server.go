// Package devengine is a small stand-in for the pixel backend. It answers the
// animal and vector database reactors from a local sqlite database so the
// client can be used without a real engine.
package devengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/SEMOSS/procode-training/internal/devengine/store"
	"github.com/SEMOSS/procode-training/internal/pixel"
)

const (
	sessionCookie = "procode_dev_session"
	ctxUser       = "user"
	ctxToken      = "token"
)

// Config configures the dev backend.
type Config struct {
	Addr string
	// Prefix is the path the API is mounted under, such as "/Monolith".
	Prefix   string
	Username string
	Password string
}

// Server is the dev backend.
type Server struct {
	echo *echo.Echo
	cfg  Config
	log  *zap.Logger

	animals   *store.AnimalRepo
	engines   *store.EngineRepo
	uploads   *store.UploadRepo
	documents *store.DocumentRepo
	reactors  map[string]reactor

	mu       sync.Mutex
	sessions map[string]pixel.User
	insights map[string]string // insight id -> session token
}

// New builds a Server on a migrated database.
func New(db *sql.DB, cfg Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		cfg:       cfg,
		log:       log,
		animals:   store.NewAnimalRepo(db),
		engines:   store.NewEngineRepo(db),
		uploads:   store.NewUploadRepo(db),
		documents: store.NewDocumentRepo(db),
		sessions:  map[string]pixel.User{},
		insights:  map[string]string{},
	}
	s.registerReactors()
	s.registerRoutes()
	return s
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on cfg.Addr until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("dev backend listening", zap.String("addr", s.cfg.Addr), zap.String("prefix", s.cfg.Prefix))
		errCh <- s.echo.Start(s.cfg.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dev backend: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown dev backend: %w", err)
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.echo.Use(s.requestLogger())
	s.echo.Use(middleware.Recover())

	api := s.echo.Group(s.cfg.Prefix + "/api")
	api.POST("/auth/login", s.handleLogin)
	api.GET("/auth/userinfo", s.handleUserInfo)
	api.GET("/auth/logout/all", s.handleLogout)
	api.POST("/engine/runPixel", s.handleRunPixel, s.requireSession)
	api.POST("/uploadFile/baseUpload", s.handleUpload, s.requireSession)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			s.log.Debug("request", fields...)
			return nil
		},
	})
}
