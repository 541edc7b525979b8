package httpserver

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bancho/internal/passwd"
	"bancho/internal/session"
	"bancho/internal/store"
)

// APIServer provides the cho_api.<domain> introspection surface (spec §5):
// GET /user-auth for third-party password verification, GET /metrics for
// Prometheus scraping, and GET /health. Grounded on the teacher's
// echo-based APIServer (api.go), running on its own port from the bancho
// poll endpoint.
type APIServer struct {
	store     store.UserStore
	verifier  passwd.Verifier
	users     *session.Registry
	apiSecret string
	echo      *echo.Echo
}

// NewAPIServer constructs the echo app and registers all routes.
func NewAPIServer(st store.UserStore, verifier passwd.Verifier, users *session.Registry, apiSecret string) *APIServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			log.Printf("[cho_api] %s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = jsonErrorHandler

	s := &APIServer{store: st, verifier: verifier, users: users, apiSecret: apiSecret, echo: e}
	s.registerRoutes()
	return s
}

func (s *APIServer) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/user-auth", s.handleUserAuth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// Run starts the Echo HTTP server on addr and blocks until ctx is
// cancelled.
func (s *APIServer) Run(ctx context.Context, addr string) {
	go func() {
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Printf("[cho_api] server error: %v", err)
		}
	}()
	<-ctx.Done()
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutCtx); err != nil {
		log.Printf("[cho_api] shutdown: %v", err)
	}
}

func (s *APIServer) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"status": "ok", "online_users": s.users.Count()})
}

type basicInfo struct {
	ID         int32  `json:"id"`
	Name       string `json:"name"`
	Privileges uint32 `json:"privileges"`
	Country    string `json:"country"`
}

// handleUserAuth implements spec §5's GET /user-auth?name=&password=&key=:
// returns {status:"ok", user:{...}} when key matches apiSecret, the name
// resolves, and password (md5) verifies against the stored bcrypt hash;
// error JSON otherwise.
func (s *APIServer) handleUserAuth(c echo.Context) error {
	if c.QueryParam("key") != s.apiSecret {
		return c.JSON(http.StatusForbidden, map[string]string{"status": "error", "error": "bad key"})
	}
	name := c.QueryParam("name")
	password := c.QueryParam("password")

	rec, found, err := s.store.FindUserByName(c.Request().Context(), name)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"status": "error", "error": "store error"})
	}
	if !found || !s.verifier.Verify(rec.BcryptHash, password) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"status": "error", "error": "invalid credentials"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"user": basicInfo{
			ID: rec.ID, Name: rec.Name, Privileges: rec.Privileges, Country: rec.Country,
		},
	})
}

// jsonErrorHandler ensures all error responses have a consistent JSON
// body: {"error": "message"}. Grounded verbatim on the teacher's own
// jsonErrorHandler in api.go, which replaces Echo's default handler for
// the same reason (it otherwise varies between text and JSON).
func jsonErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}
	if !c.Response().Committed {
		_ = c.JSON(code, map[string]string{"error": msg})
	}
}
