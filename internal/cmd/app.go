package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charlesshaw3/SimpleServers/internal/audit"
	"github.com/charlesshaw3/SimpleServers/internal/clock"
	"github.com/charlesshaw3/SimpleServers/internal/config"
	"github.com/charlesshaw3/SimpleServers/internal/console"
	"github.com/charlesshaw3/SimpleServers/internal/database"
	"github.com/charlesshaw3/SimpleServers/internal/directory"
	"github.com/charlesshaw3/SimpleServers/internal/httphelper"
	"github.com/charlesshaw3/SimpleServers/internal/metrics"
	"github.com/charlesshaw3/SimpleServers/internal/notification"
	"github.com/charlesshaw3/SimpleServers/internal/playeradmin"
	"github.com/charlesshaw3/SimpleServers/internal/runtimelog"
	"github.com/charlesshaw3/SimpleServers/internal/servers"
	"github.com/charlesshaw3/SimpleServers/pkg/log"
	"github.com/getsentry/sentry-go"
	"golang.org/x/sync/errgroup"
)

var (
	BuildVersion = "master" //nolint:gochecknoglobals
	BuildCommit  = ""       //nolint:gochecknoglobals
	BuildDate    = ""       //nolint:gochecknoglobals
)

var ErrDatabaseDisabled = errors.New("database.dsn is not configured")

type App struct {
	config   config.Config
	database database.Database
	registry servers.Registry
	trail    audit.Trail
	builder  directory.Builder
	gateway  playeradmin.Gateway
	sentry   *sentry.Client

	logCloser func()
}

func NewApp(configFile string) (*App, error) {
	conf, errConfig := config.Read(configFile)
	if errConfig != nil {
		slog.Error("Failed to read static config", log.ErrAttr(errConfig))

		return nil, errConfig
	}

	return &App{config: conf}, nil
}

// Init builds the dependency graph. With a database DSN the registry and audit trail are backed by
// postgres, otherwise they live in memory seeded from the servers config list.
func (a *App) Init(ctx context.Context) error {
	conf := a.config

	a.setupSentry()
	a.logCloser = log.MustCreateLogger(ctx, conf.Log.File, conf.Log.Level, a.sentry != nil, BuildVersion)

	var (
		serverRepo servers.Repository
		auditRepo  audit.Repository
	)

	if conf.Database.Enabled() {
		dbConn := database.New(conf.Database.DSN, conf.Database.AutoMigrate, conf.Database.LogQueries)
		if errConnect := dbConn.Connect(ctx); errConnect != nil {
			slog.Error("Cannot initialize database", log.ErrAttr(errConnect))

			return errConnect
		}

		a.database = dbConn
		serverRepo = servers.NewPostgresRepository(dbConn)
		auditRepo = audit.NewPostgresRepository(dbConn)
	} else {
		serverRepo = servers.NewMemoryRepository(conf.StaticServers()...)
		auditRepo = audit.NewMemoryRepository()
	}

	a.registry = servers.NewRegistry(serverRepo)

	if conf.Database.Enabled() {
		for _, server := range conf.StaticServers() {
			if _, errSave := a.registry.Save(ctx, server); errSave != nil {
				slog.Error("Failed to register configured server", log.ErrAttr(errSave),
					slog.String("name", server.Name))

				return errSave
			}
		}
	}

	clk := clock.New()

	a.trail = audit.NewTrail(auditRepo, clk)
	a.builder = directory.NewBuilder(a.registry, a.trail, runtimelog.NewPatternExtractor(clk), directory.Options{
		DefaultHistoryLimit: conf.Players.DefaultHistoryLimit,
		DefaultCapacity:     conf.Players.DefaultCapacity,
		LogWindow:           conf.Players.LogWindow,
	})

	var notifier playeradmin.Notifier = notification.Null{}
	if conf.Discord.Enabled {
		bot, errBot := notification.NewDiscord(conf.Discord.Token, conf.Discord.ChannelID)
		if errBot != nil {
			slog.Error("Failed to setup discord notifications", log.ErrAttr(errBot))

			return errBot
		}

		notifier = bot
	}

	var liveConsole playeradmin.Console
	if conf.RCON.Enabled {
		liveConsole = console.NewRCON(console.Options{
			DialTimeout: conf.RCON.DialTimeout,
			ExecTimeout: conf.RCON.ExecTimeout,
			Interval:    conf.RCON.Interval,
		})
	}

	a.gateway = playeradmin.NewGateway(a.registry, a.trail, a.builder, clk, notifier, liveConsole,
		playeradmin.Options{Source: conf.General.Source})

	return nil
}

func (a *App) setupSentry() {
	dsn := a.config.Sentry.DSN
	if dsn == "" {
		if value, found := os.LookupEnv("SENTRY_DSN"); found && value != "" {
			dsn = value
		}
	}

	if dsn == "" {
		return
	}

	sentryClient, err := log.NewSentryClient(dsn, a.config.Sentry.Tracing, a.config.Sentry.SampleRate,
		BuildVersion, a.config.General.Mode.String())
	if err != nil {
		slog.Error("Failed to setup sentry client", log.ErrAttr(err))

		return
	}

	a.config.Sentry.DSN = dsn
	a.sentry = sentryClient
}

func (a *App) Serve(rootCtx context.Context) error {
	ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	conf := a.config

	router := httphelper.CreateRouter(httphelper.RouterOpts{
		HTTPLogEnabled:    conf.HTTP.HTTPLog,
		LogLevel:          conf.Log.Level,
		Mode:              conf.General.Mode.String(),
		SentryDSN:         conf.Sentry.DSN,
		Version:           BuildVersion,
		PProfEnabled:      conf.HTTP.PProf,
		PrometheusEnabled: conf.HTTP.Prometheus,
		CORSEnabled:       conf.HTTP.CORSEnabled,
		CORSOrigins:       conf.HTTP.CORSOrigins,
	})

	servers.NewServersHandler(router, a.registry)
	playeradmin.NewPlayerAdminHandler(router, a.gateway)
	metrics.NewHandler(router)

	httpServer := httphelper.NewServer(conf.HTTP.Addr(), router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		slog.Info("Starting HTTP server", slog.String("address", conf.HTTP.Addr()),
			slog.String("version", BuildVersion), slog.String("commit", BuildCommit), slog.String("date", BuildDate))

		if errServe := httpServer.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			slog.Error("HTTP server returned error", log.ErrAttr(errServe))

			return errServe
		}

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		slog.Info("Shutting down HTTP service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		if errShutdown := httpServer.Shutdown(shutdownCtx); errShutdown != nil { //nolint:contextcheck
			slog.Error("Error shutting down http service", log.ErrAttr(errShutdown))

			return errShutdown
		}

		return nil
	})

	errGroup := group.Wait()

	slog.Info("Exiting...")

	return errGroup
}

func (a *App) Close() {
	if a.database != nil {
		if errClose := a.database.Close(); errClose != nil {
			slog.Error("Failed to close database cleanly", log.ErrAttr(errClose))
		}
	}

	if a.sentry != nil {
		a.sentry.Flush(2 * time.Second)
	}

	if a.logCloser != nil {
		a.logCloser()
	}
}

// withApp runs fn against an initialized app and always cleans up afterwards.
func withApp(ctx context.Context, fn func(app *App) error) error {
	app, errApp := NewApp(cfgFile)
	if errApp != nil {
		return errApp
	}

	defer app.Close()

	if errInit := app.Init(ctx); errInit != nil {
		return errInit
	}

	return fn(app)
}
