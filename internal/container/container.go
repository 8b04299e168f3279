package container

import (
	"context"
	"net"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"gotendency/adapters/rng"
	"gotendency/internal/config"
	"gotendency/internal/errors"
	"gotendency/internal/logging"
	"gotendency/internal/metrics"
	"gotendency/internal/sampling"
	"gotendency/internal/session"
	"gotendency/internal/tendency"
	"gotendency/internal/visual"
	"gotendency/ports"
	"gotendency/ui"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger log.Logger

	// Infrastructure
	Registry *prometheus.Registry
	Metrics  *metrics.Collector
	RNG      ports.RNGPort

	// Sampling and reporting
	Generator  *sampling.Generator
	Injector   *sampling.Injector
	Reporter   *tendency.Reporter
	Visualizer *visual.Visualizer
	Sessions   *session.Manager

	// Web
	Server *ui.Server
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger log.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.ConfigInvalid("config cannot be nil")
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	c.initInfrastructure()
	c.initSampling()
	if err := c.initWeb(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize web server")
	}

	level.Info(logger).Log("msg", "container initialized", "variant", cfg.UI.Variant, "seeded", cfg.Sampling.Seed != 0)
	return c, nil
}

// initInfrastructure sets up metrics and the random source
func (c *Container) initInfrastructure() {
	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.Metrics = metrics.New(c.Registry)
	c.RNG = rng.NewAdapter()
}

// initSampling wires the generator, injector, reporter, visualizer and session table
func (c *Container) initSampling() {
	cfg := c.Config

	c.Generator = sampling.NewGenerator()
	c.Injector = sampling.NewInjector(cfg.Sampling.ReshuffleAlways)
	c.Reporter = tendency.NewReporter()
	c.Visualizer = visual.NewVisualizer(visual.Options{
		Width:         cfg.Render.Width,
		PanelHeight:   cfg.Render.PanelHeight,
		MaxConcurrent: cfg.Render.MaxConcurrent,
		Labels:        cfg.UI.Variant.Labels(),
	}, c.Reporter, c.Metrics, logging.Component(c.Logger, "visual"))

	c.Sessions = session.NewManager(session.ManagerConfig{
		TTL:         cfg.Session.TTL,
		MaxSessions: cfg.Session.MaxSessions,
		Seed:        cfg.Sampling.Seed,
		Defaults:    cfg.DefaultParams(),
	}, c.RNG, session.Deps{
		Generator: c.Generator,
		Injector:  c.Injector,
		Metrics:   c.Metrics,
		Logger:    logging.Component(c.Logger, "session"),
	})
}

func (c *Container) initWeb() error {
	server, err := ui.NewServer(ui.Options{
		GinMode:      c.Config.Server.GinMode,
		CookieName:   c.Config.Session.CookieName,
		CookieMaxAge: c.Config.Session.TTL,
		Variant:      c.Config.UI.Variant,
	}, c.Sessions, c.Reporter, c.Visualizer, logging.Component(c.Logger, "ui"))
	if err != nil {
		return err
	}
	c.Server = server
	return nil
}

// Run serves the page, the ops listener and the session sweep until ctx is
// cancelled or one of them fails
func (c *Container) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.Server.Serve(ctx, net.JoinHostPort("", c.Config.Server.Port))
	})
	if c.Config.Ops.Enabled {
		g.Go(func() error {
			return ui.ServeOps(ctx, net.JoinHostPort("", c.Config.Ops.Port), ui.NewOpsRouter(c.Registry), logging.Component(c.Logger, "ops"))
		})
	}
	g.Go(func() error {
		return c.Sessions.Run(ctx, c.Config.Session.SweepInterval)
	})

	return g.Wait()
}
