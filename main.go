package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"negotiation-backend/config"
	"negotiation-backend/controller"
	"negotiation-backend/dao"
	"negotiation-backend/db"
	"negotiation-backend/model"
	"negotiation-backend/pkg/events"
	"negotiation-backend/pkg/gemini"
	"negotiation-backend/pkg/groq"
	"negotiation-backend/pkg/idempotency"
	"negotiation-backend/pkg/metrics"
	"negotiation-backend/pkg/prose"
	"negotiation-backend/usecase"
)

func main() {
	app := &cli.App{
		Name:  "negotiation-backend",
		Usage: "price negotiation service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "apply database migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Usage: "number of migrations to apply, negative to roll back (0 applies all)"},
				},
				Action: runMigrations,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("negotiation-backend failed")
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := metrics.NewRegistry()
	deps := usecase.Deps{Metrics: reg, SessionTTL: cfg.SessionTTL}

	// 1. Store
	switch cfg.Store {
	case config.StoreMySQL:
		conn, err := db.Open(cfg.MySQLDSN())
		if err != nil {
			return err
		}
		defer conn.Close()
		log.WithField("database", cfg.MySQLDatabase).Info("connected to MySQL")
		deps.Products = dao.NewProductRepository(conn)
		deps.Negotiations = dao.NewNegotiationRepository(conn)
	case config.StoreMemory:
		store := dao.NewMemoryStore()
		store.PutProduct(demoProduct())
		log.Warn("using in-memory store, negotiations are lost on restart")
		deps.Products = store.Products()
		deps.Negotiations = store
	}

	// 2. Generation service
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return errors.Wrap(err, "create gemini client")
		}
		defer client.Close()
		deps.Generator = prose.NewGuard("gemini", client, cfg.GenerationTimeout)
	case config.ProviderGroq:
		client := groq.NewClient(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.GroqModel)
		deps.Generator = prose.NewGuard("groq", client, cfg.GenerationTimeout)
	case config.ProviderTemplate:
		log.Info("no generation service configured, replies use templates")
	}

	// 3. Optional infrastructure
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return errors.Wrap(err, "connect to redis")
		}
		deps.Idempotency = idempotency.NewStore(rdb, cfg.IdempotencyTTL)
	}
	if cfg.KafkaEnabled() {
		publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()
		deps.Publisher = publisher
	}

	uc := usecase.NewNegotiationUsecase(deps)
	go uc.RunExpirySweeper(ctx, cfg.SweepInterval)

	router := controller.NewRouter(controller.NewNegotiationController(uc), controller.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		Metrics:        reg.Handler(),
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{"port": cfg.Port, "store": cfg.Store, "provider": cfg.LLMProvider}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server error")
	case <-ctx.Done():
	}

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}
	log.Info("server exited")
	return nil
}

func runMigrations(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	conn, err := db.Open(cfg.MySQLDSN())
	if err != nil {
		return err
	}
	defer conn.Close()

	return db.Migrate(conn, cfg.MigrationsPath, c.Int("steps"))
}

func setupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// demoProduct matches the row seeded by the migrations so both stores start the same.
func demoProduct() model.Product {
	return model.Product{
		ID:            "01HZX8Q3V5N2M7K4J6P9R1T0AB",
		Name:          "Vintage Leather Armchair",
		Description:   "Hand-stitched leather armchair with a solid oak frame.",
		OriginalPrice: decimal.NewFromInt(200),
		FloorPrice:    decimal.NewFromInt(150),
		Inventory:     20,
	}
}
