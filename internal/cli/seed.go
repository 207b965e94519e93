package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"millionaire-service/internal/config"
	"millionaire-service/internal/domain"
	pgstore "millionaire-service/internal/infra/postgres"
	redisstore "millionaire-service/internal/infra/redis"
	"millionaire-service/internal/logging"
)

// NewSeedCmd loads a YAML question file into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load questions into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.Questions.File
			}
			questions, err := readQuestions(file)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}

			ctx := cmd.Context()
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			loader := pgstore.NewQuestionLoader(pool)
			var cache levelInvalidator
			if cfg.Redis.Addr != "" {
				client := redis.NewClient(&redis.Options{
					Addr:     cfg.Redis.Addr,
					Password: cfg.Redis.Password,
					DB:       cfg.Redis.DB,
				})
				defer client.Close()
				cache = redisstore.NewQuestionBank(client, loader, 0)
			}

			if err := seedQuestions(ctx, loader, cache, questions); err != nil {
				return err
			}
			logging.NewLogger("millionaire", cfg.Log.Level).
				WithField("count", len(questions)).Info("questions seeded")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML question file (defaults to questions.file, then the built-in bank)")
	return cmd
}

func readQuestions(file string) ([]domain.Question, error) {
	if file == "" {
		return config.SampleQuestions()
	}
	return config.LoadQuestions(file)
}

type questionSaver interface {
	SaveQuestions(ctx context.Context, questions []domain.Question) error
}

type levelInvalidator interface {
	Invalidate(ctx context.Context, level int) error
}

// seedQuestions saves questions and drops the cached copy of every level
// they touch. cache may be nil.
func seedQuestions(ctx context.Context, saver questionSaver, cache levelInvalidator, questions []domain.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("no questions to seed")
	}
	if err := saver.SaveQuestions(ctx, questions); err != nil {
		return err
	}
	if cache == nil {
		return nil
	}
	seen := make(map[int]struct{})
	for _, q := range questions {
		if _, ok := seen[q.Level]; ok {
			continue
		}
		seen[q.Level] = struct{}{}
		if err := cache.Invalidate(ctx, q.Level); err != nil {
			return fmt.Errorf("invalidate level %d: %w", q.Level, err)
		}
	}
	return nil
}
