package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"millionaire-service/internal/app"
	"millionaire-service/internal/config"
	"millionaire-service/internal/domain"
	"millionaire-service/internal/game"
	pgstore "millionaire-service/internal/infra/postgres"
	pgmigrations "millionaire-service/internal/infra/postgres/migrations"
	infraredis "millionaire-service/internal/infra/redis"
)

type stack struct {
	service *app.GameService
	store   *pgstore.Store
}

func newStack(t *testing.T, ctx context.Context) *stack {
	t.Helper()
	requireDocker(t)

	pgURL := startPostgres(t, ctx)
	redisClient := startRedis(t, ctx)

	migrateDatabase(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	t.Cleanup(pool.Close)

	questions, err := config.SampleQuestions()
	if err != nil {
		t.Fatalf("sample questions: %v", err)
	}
	loader := pgstore.NewQuestionLoader(pool)
	if err := loader.SaveQuestions(ctx, questions); err != nil {
		t.Fatalf("seed questions: %v", err)
	}

	store := pgstore.NewStore(pool)
	service := app.NewGameService(store, store,
		infraredis.NewQuestionBank(redisClient, loader, 5*time.Minute),
		app.WithLeaderboard(infraredis.NewLeaderboard(redisClient)),
		app.WithLocker(infraredis.NewLocker(redisClient, 5*time.Second, 2*time.Second)),
	)
	for _, u := range []domain.User{{ID: "u1", Name: "Alice"}, {ID: "u2", Name: "Bob"}} {
		if _, err := service.RegisterUser(ctx, u.ID, u.Name); err != nil {
			t.Fatalf("register %s: %v", u.ID, err)
		}
	}
	return &stack{service: service, store: store}
}

func TestCashOutEndToEnd(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, ctx)

	g, err := s.service.CreateGameForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if _, err := s.service.CreateGameForUser(ctx, "u1"); !errors.Is(err, domain.ErrGameInProgress) {
		t.Fatalf("expected game in progress, got %v", err)
	}

	for level := 0; level < 2; level++ {
		current, err := s.service.Game(ctx, g.ID, "u1")
		if err != nil {
			t.Fatalf("load game: %v", err)
		}
		gq, ok := current.CurrentGameQuestion()
		if !ok {
			t.Fatalf("expected question at level %d", level)
		}
		_, correct, err := s.service.SubmitAnswer(ctx, g.ID, "u1", string(gq.CorrectKey()))
		if err != nil || !correct {
			t.Fatalf("answer level %d: correct=%v err=%v", level, correct, err)
		}
	}

	finished, err := s.service.CashOut(ctx, g.ID, "u1")
	if err != nil {
		t.Fatalf("cash out: %v", err)
	}
	if finished.Status() != game.StatusMoney || finished.Prize != 200 {
		t.Fatalf("expected money status with 200, got %s %d", finished.Status(), finished.Prize)
	}

	user, err := s.service.User(ctx, "u1")
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	if user.Balance != 200 {
		t.Fatalf("expected balance 200, got %d", user.Balance)
	}

	lb, err := s.service.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Entries) != 2 || lb.Entries[0].UserID != "u1" || lb.Entries[0].Balance != 200 {
		t.Fatalf("expected alice leading with 200, got %+v", lb.Entries)
	}

	if _, err := s.service.CashOut(ctx, g.ID, "u1"); !errors.Is(err, domain.ErrGameFinished) {
		t.Fatalf("expected finished game error, got %v", err)
	}
	if _, err := s.service.CreateGameForUser(ctx, "u1"); err != nil {
		t.Fatalf("expected a new game after cash out, got %v", err)
	}
}

func TestLifelinesPersistEndToEnd(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, ctx)

	g, err := s.service.CreateGameForUser(ctx, "u2")
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if _, err := s.service.UseLifeline(ctx, g.ID, "u2", game.FiftyFifty); err != nil {
		t.Fatalf("fifty-fifty: %v", err)
	}
	if _, err := s.service.UseLifeline(ctx, g.ID, "u2", game.FiftyFifty); !errors.Is(err, domain.ErrLifelineUsed) {
		t.Fatalf("expected lifeline used, got %v", err)
	}
	if _, err := s.service.Game(ctx, g.ID, "u1"); !errors.Is(err, domain.ErrNotGameOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}

	reloaded, err := s.store.Get(ctx, g.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	gq, ok := reloaded.CurrentGameQuestion()
	if !ok {
		t.Fatalf("expected a current question")
	}
	if !reloaded.FiftyFiftyUsed || len(gq.Help.FiftyFifty) != 2 {
		t.Fatalf("expected persisted fifty-fifty, got flag=%v help=%+v", reloaded.FiftyFiftyUsed, gq.Help)
	}
	if gq.Variants()[gq.CorrectKey()] != gq.CorrectAnswer() {
		t.Fatalf("presentation map not restored: %+v", gq.Slots)
	}

	wrong := gq.Help.FiftyFifty[0]
	if wrong == gq.CorrectKey() {
		wrong = gq.Help.FiftyFifty[1]
	}
	after, correct, err := s.service.SubmitAnswer(ctx, g.ID, "u2", string(wrong))
	if err != nil || correct {
		t.Fatalf("expected wrong answer, correct=%v err=%v", correct, err)
	}
	if after.Status() != game.StatusFail || after.Prize != 0 {
		t.Fatalf("expected fail with 0, got %s %d", after.Status(), after.Prize)
	}
}

// startContainer runs req and returns host:port of the exposed port. The
// container is terminated when the test ends.
func startContainer(t *testing.T, ctx context.Context, req tc.ContainerRequest, port string) string {
	t.Helper()
	req.ExposedPorts = []string{port}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start %s: %v", req.Image, err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("%s host: %v", req.Image, err)
	}
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		t.Fatalf("%s port: %v", req.Image, err)
	}
	return fmt.Sprintf("%s:%s", host, mapped.Port())
}

func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()
	addr := startContainer(t, ctx, tc.ContainerRequest{
		Image: "postgres:15-alpine",
		Env: map[string]string{
			"POSTGRES_USER":     "millionaire",
			"POSTGRES_PASSWORD": "millionaire",
			"POSTGRES_DB":       "millionaire",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}, "5432/tcp")
	return fmt.Sprintf("postgres://millionaire:millionaire@%s/millionaire?sslmode=disable", addr)
}

func startRedis(t *testing.T, ctx context.Context) *goredis.Client {
	t.Helper()
	addr := startContainer(t, ctx, tc.ContainerRequest{
		Image:      "redis:7-alpine",
		WaitingFor: wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}, "6379/tcp")
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	return client
}

func migrateDatabase(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
