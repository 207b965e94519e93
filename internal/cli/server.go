package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"millionaire-service/internal/app"
	"millionaire-service/internal/config"
	"millionaire-service/internal/infra/memory"
	pgstore "millionaire-service/internal/infra/postgres"
	redisstore "millionaire-service/internal/infra/redis"
	"millionaire-service/internal/logging"
	"millionaire-service/internal/metrics"
	transport "millionaire-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// questionLoader is satisfied by both the static and the Postgres loader.
type questionLoader interface {
	memory.QuestionLoader
	redisstore.QuestionLoader
}

type repositories interface {
	app.GameRepository
	app.UserRepository
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := logging.NewLogger("millionaire", cfg.Log.Level)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return err
		}
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var (
		loader questionLoader
		store  repositories
	)
	if pool != nil {
		loader = pgstore.NewQuestionLoader(pool)
		store = pgstore.NewStore(pool)
	} else {
		questions, err := readQuestions(cfg.Questions.File)
		if err != nil {
			return err
		}
		loader = memory.NewStaticQuestionLoader(questions)
		store = memory.NewStore()
		log.WithField("questions", len(questions)).Warn("no postgres configured, games are kept in memory")
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var bank app.QuestionBank
	opts := []app.Option{app.WithLogger(log)}
	if redisClient != nil {
		bank = redisstore.NewQuestionBank(redisClient, loader, questionTTL)
		opts = append(opts,
			app.WithLeaderboard(redisstore.NewLeaderboard(redisClient)),
			app.WithLocker(redisstore.NewLocker(redisClient,
				config.TTLDuration(cfg.Redis.LockTTL, 5*time.Second),
				config.TTLDuration(cfg.Redis.LockWait, 2*time.Second))),
		)
	} else {
		bank = memory.NewQuestionBank(loader, questionTTL)
		opts = append(opts, app.WithLeaderboard(memory.NewLeaderboard()))
	}

	var m *metrics.Metrics
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		namespace := cfg.Metrics.Namespace
		if namespace == "" {
			namespace = "millionaire"
		}
		m = metrics.New(namespace)
		metricsHandler = m.Handler()
		opts = append(opts, app.WithMetrics(m))
	}

	service := app.NewGameService(store, store, bank, opts...)
	router := transport.NewRouter(
		transport.NewRESTHandler(service, log),
		transport.NewWSHandler(service, log),
		metricsHandler,
		log,
	)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.WithField("port", finalPort).Info("starting game service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.TTLDuration(cfg.Server.ShutdownTimeout, 5*time.Second))
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
