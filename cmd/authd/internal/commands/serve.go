package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytebard/go-auth"
	"github.com/bytebard/go-auth/adapters/redisactivity"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type ServeCmd struct {
	Listen          string        `help:"HTTP server listen address" default:":8080" env:"AUTH_LISTEN"`
	ShutdownTimeout time.Duration `help:"grace period for in flight requests" default:"10s" env:"AUTH_SHUTDOWN_TIMEOUT"`

	// Activity publishing
	RedisURL     string `help:"publish activity events to this redis URL" default:"" env:"AUTH_REDIS_URL"`
	RedisChannel string `help:"redis channel for activity events" default:"auth.activity" env:"AUTH_REDIS_CHANNEL"`

	Database DatabaseFlags `embed:"" prefix:"db-"`
	Token    TokenFlags    `embed:"" prefix:"jwt-"`
}

func (s *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	logger := globals.Logger()
	authLogger := auth.NewZerologLogger(logger)

	opts, err := s.Token.Options()
	if err != nil {
		return err
	}

	if globals.Debug {
		masked := opts
		masked.SigningKey = "***"
		masked.DefaultPassword = "***"
		logger.Debug().Msgf("auth options: %s", print.MaybePrettyJSON(masked))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	mgr, closeDB, err := s.Database.Open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = closeDB() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := auth.NewMetrics(reg)

	var sink auth.ActivitySink
	if s.RedisURL != "" {
		client, err := redisactivity.NewClient(s.RedisURL)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		sink = redisactivity.NewSink(client,
			redisactivity.WithChannel(s.RedisChannel),
			redisactivity.WithLogger(authLogger),
		)
		logger.Info().Str("channel", s.RedisChannel).Msg("publishing activity to redis")
	}

	hasher := auth.BcryptHasher{}
	principals := mgr.Principals()

	auther := auth.NewAuthenticator(principals, hasher, opts).
		WithLogger(authLogger).
		WithMetrics(metrics).
		WithActivitySink(sink)

	provisioner := auth.NewProvisioner(principals, hasher, opts).
		WithLogger(authLogger).
		WithActivitySink(sink)

	admin, created, err := provisioner.EnsureDefaultAdmin(ctx)
	if err != nil {
		return err
	}
	if created {
		logger.Warn().Int64("id", admin.ID).Str("email", admin.Email).Msg("default admin created, change its password")
	}

	policy := auth.NewAccessPolicy(mgr.Departments(), principals).WithLogger(authLogger)
	users := auth.NewUserService(principals, policy)

	ra := auth.NewRequestAuthenticator(auther.TokenService(), principals, auth.FiberErrorTranslator(auth.ErrorHandler)).
		WithLogger(authLogger).
		WithMetrics(metrics).
		WithScheme(opts.GetAuthScheme())

	app := fiber.New(fiber.Config{
		AppName:               "authd " + globals.Version,
		ErrorHandler:          auth.ErrorHandler,
		DisableStartupMessage: !globals.Debug,
	})
	app.Use(
		fiberrecover.New(),
		requestid.New(requestid.Config{Generator: uuid.NewString}),
		requestLogger(logger),
	)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return auth.Respond(c, fiber.StatusOK, fiber.Map{"version": globals.Version})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	controller := auth.NewAuthController(auther).WithLogger(authLogger)
	controller.Debug = globals.Debug
	controller.RegisterRoutes(app)

	api := app.Group("", auth.BearerMiddleware(ra, opts.GetContextKey()))
	auth.NewUserController(users, provisioner).RegisterRoutes(api)
	auth.NewDepartmentController(mgr.Departments()).RegisterRoutes(api)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("listen", s.Listen).Str("version", globals.Version).Msg("starting server")
		errCh <- app.Listen(s.Listen)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(s.ShutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func requestLogger(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		started := time.Now()
		err := c.Next()

		event := logger.Info()
		if err != nil {
			event = logger.Warn().Err(err)
		}
		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Dur("duration", time.Since(started)).
			Msg("http request")

		return err
	}
}
