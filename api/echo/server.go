package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/gsdev/timetable/core"
	"github.com/gsdev/timetable/core/schedule"
	mirrorsvc "github.com/gsdev/timetable/services/mirror"
)

type (
	// Store is the slice of the repository the admin endpoints need on top of
	// the read-only schedule.Repository.
	Store interface {
		ReplaceAll(ctx context.Context, students []schedule.Student, patterns []schedule.PatternRow, meta map[string]string) error
		OverwriteAll(ctx context.Context, students []schedule.Student, patterns []schedule.PatternRow, meta map[string]string) error
		Clear(ctx context.Context) error
		ListAllStudents(ctx context.Context) ([]schedule.Student, error)
		ListAllPatterns(ctx context.Context) ([]schedule.PatternRow, error)
	}

	Mirror interface {
		Configured() bool
		Push(ctx context.Context, students []schedule.Student, patterns []schedule.PatternRow, meta map[string]string) error
		Clear(ctx context.Context) error
		Sync(ctx context.Context, store mirrorsvc.Store) (schedule.Stats, error)
	}

	ServerDeps struct {
		Conf        *core.Config
		Logger      core.Logger
		ScheduleSvc *schedule.Service
		Store       Store
		Mirror      Mirror
		Validate    *validator.Validate
		Translator  ut.Translator
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.Conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV mode
	if !s.deps.Conf.Debug {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = s.deps.Conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	registerScheduleAPI(v1, s.deps.ScheduleSvc, s.deps.Validate)

	admin := adminMiddleware(s.deps.Conf.AdminToken)
	registerAdminAPI(v1, s.deps, admin)
}

func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errs <- err
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) Errors() <-chan error {
	return s.errs
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// signalShutdown is called by the error handler when an unrecoverable error
// is caught.
func (s *Server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to GS Timetable API!")
}
