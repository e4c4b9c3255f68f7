// main.go
//
// Records management and archival governance data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of recordsdb.
// recordsdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// recordsdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with recordsdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	swagger "github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/localnerve/recordsdb/data"
	_ "github.com/localnerve/recordsdb/docs/api" // Swagger docs
	"github.com/localnerve/recordsdb/internal/auth"
	"github.com/localnerve/recordsdb/internal/changefeed"
	"github.com/localnerve/recordsdb/internal/collection"
	"github.com/localnerve/recordsdb/internal/config"
	"github.com/localnerve/recordsdb/internal/database"
	"github.com/localnerve/recordsdb/internal/handlers"
	"github.com/localnerve/recordsdb/internal/logging"
	"github.com/localnerve/recordsdb/internal/metrics"
	"github.com/localnerve/recordsdb/internal/middleware"
	"github.com/localnerve/recordsdb/internal/notify"
	"github.com/localnerve/recordsdb/internal/services"
	"github.com/localnerve/recordsdb/internal/store"
)

// @title RecordsDB API
// @version 1.0.0
// @description Records management and archival governance data service with live collections
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/recordsdb
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

// devUser is the identity every request carries when AUTH_DISABLED is set.
var devUser = auth.User{ID: "00000000-0000-0000-0000-000000000000", Email: "dev@localhost", Roles: []string{"admin", "user"}}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "recordsdb: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, "recordsdb")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Migrate and seed with the admin credentials
	if err := migrate(ctx, cfg, logger); err != nil {
		return err
	}

	// Connect to database (app pool)
	db, err := database.Connect(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to app database: %w", err)
	}
	defer database.Close(db)

	feed, closeFeed, err := openFeed(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFeed()

	m := metrics.New(prometheus.DefaultRegisterer)
	st := store.New(db, feed, logger, m)
	services.RegisterProcedures(st)

	hub := collection.NewHub(st,
		collection.WithLogger(logger),
		collection.WithNotifier(notify.LogNotifier{Logger: logger.Named("notify")}),
		collection.WithMetrics(m),
		collection.WithCacheTTL(cfg.CacheTTL),
		collection.WithDebounce(cfg.RefetchDebounce),
		collection.WithRequireUser(true),
	)
	defer hub.Close()

	// Session validation
	var authn, admin fiber.Handler
	if cfg.AuthDisabled {
		logger.Warn("authentication disabled, every request runs as the development user",
			zap.String("user_id", devUser.ID))
		authn = middleware.DevUser(devUser)
		admin = authn
	} else {
		// Authorizer is initialized on first authenticated request
		validator := services.NewAuthorizerValidator(cfg, "", logger.Named("authorizer"))
		authn = middleware.AuthUser(validator)
		admin = middleware.AuthAdmin(validator)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: true,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(logger.Named("http")))
	app.Use(compress.New(compress.Config{
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/live")
		},
	}))

	// Prometheus metrics
	prom := fiberprometheus.New("recordsdb")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	h := &handlers.Handler{
		Hub:       hub,
		Config:    cfg,
		Logger:    logger,
		Heartbeat: cfg.LiveHeartbeat,
	}
	h.Register(app, authn, admin)

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info("gracefully shutting down")
		// Live streams end when the hub closes
		hub.Close()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func migrate(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	adminDB, err := database.ConnectAdmin(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to admin database: %w", err)
	}
	defer database.Close(adminDB)

	// Run auto-migrations
	if err := database.AutoMigrate(adminDB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	n, err := services.SeedDocumentTypes(ctx, store.New(adminDB, nil, logger, nil), data.DocumentTypes)
	if err != nil {
		return fmt.Errorf("failed to seed document types: %w", err)
	}
	logger.Info("migrations complete", zap.Int("document_types_seeded", n))
	return nil
}

// openFeed picks the change feed: an external NATS server, an embedded one,
// or the in-process feed for single-instance deployments.
func openFeed(cfg *config.Config, logger *zap.Logger) (changefeed.Feed, func(), error) {
	switch {
	case cfg.NATSURL != "":
		feed, err := changefeed.ConnectNATS(cfg.NATSURL, logger.Named("feed"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to nats: %w", err)
		}
		return feed, func() { _ = feed.Close() }, nil

	case cfg.NATSEmbedded:
		server, err := changefeed.StartEmbedded("127.0.0.1", -1)
		if err != nil {
			return nil, nil, err
		}
		feed, err := changefeed.ConnectNATS(server.ClientURL(), logger.Named("feed"))
		if err != nil {
			server.Shutdown()
			return nil, nil, fmt.Errorf("failed to connect to embedded nats: %w", err)
		}
		logger.Info("embedded nats started", zap.String("url", server.ClientURL()))
		return feed, func() {
			_ = feed.Close()
			server.Shutdown()
		}, nil

	default:
		feed := changefeed.NewLocal()
		return feed, func() { _ = feed.Close() }, nil
	}
}
