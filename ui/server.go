package ui

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"gotendency/domain/sample"
	"gotendency/internal/session"
	"gotendency/internal/tendency"
	"gotendency/internal/visual"
)

// Options configures the page server
type Options struct {
	GinMode      string
	CookieName   string
	CookieMaxAge time.Duration
	Variant      sample.Variant
}

// Server serves the page and its JSON and PNG endpoints
type Server struct {
	router     *gin.Engine
	opts       Options
	labels     sample.Labels
	sessions   *session.Manager
	reporter   *tendency.Reporter
	visualizer *visual.Visualizer
	templates  *template.Template
	about      template.HTML
	logger     log.Logger
}

// NewServer creates the page server with its routes in place
func NewServer(opts Options, sessions *session.Manager, reporter *tendency.Reporter, visualizer *visual.Visualizer, logger log.Logger) (*Server, error) {
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}
	if opts.CookieName == "" {
		opts.CookieName = "ct_session"
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	templates, err := parseTemplates(embeddedFiles)
	if err != nil {
		return nil, err
	}
	about, err := renderAbout(embeddedFiles)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:     gin.New(),
		opts:       opts,
		labels:     opts.Variant.Labels(),
		sessions:   sessions,
		reporter:   reporter,
		visualizer: visualizer,
		templates:  templates,
		about:      about,
		logger:     logger,
	}

	if err := s.setupMiddleware(); err != nil {
		return nil, err
	}
	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() error {
	s.router.Use(gin.Recovery())
	s.router.Use(requestLogger(s.logger))

	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		return err
	}
	s.router.StaticFS("/static", http.FS(staticFS))
	return nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	withSession := s.router.Group("/", s.sessionMiddleware())
	withSession.GET("/", s.handleIndex)

	api := withSession.Group("/api")
	api.POST("/params", s.handleParams)
	api.GET("/tendencies", s.handleTendencies)
	api.GET("/plot.png", s.handlePlot)
	api.GET("/state", s.handleState)
	api.POST("/session/reset", s.handleReset)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, addr string) error {
	return serve(ctx, &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}, log.With(s.logger, "listener", "app"))
}

func serve(ctx context.Context, srv *http.Server, logger log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		level.Info(logger).Log("msg", "listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	level.Info(logger).Log("msg", "shutting down", "addr", srv.Addr)
	return srv.Shutdown(shutdownCtx)
}
