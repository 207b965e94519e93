package memory

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"millionaire-service/internal/domain"
	"millionaire-service/internal/game"
)

func newGame(t *testing.T, id, userID string) *game.Game {
	t.Helper()
	g, err := game.New(id, userID, sampleQuestions()[:15], rand.New(rand.NewSource(1)), time.Now())
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	return g
}

func TestStoreOneActiveGamePerUser(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	if _, err := store.UpsertUser(ctx, domain.User{ID: "u1", Name: "Alice"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := store.Create(ctx, newGame(t, "g1", "u1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := store.Create(ctx, newGame(t, "g2", "u1"))
	if !errors.Is(err, domain.ErrGameInProgress) {
		t.Fatalf("expected game in progress, got %v", err)
	}

	active, err := store.ActiveForUser(ctx, "u1")
	if err != nil || active.ID != "g1" {
		t.Fatalf("expected g1 active, got %v %v", active, err)
	}
}

func TestStoreFinishCreditsBalanceOnce(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_, _ = store.UpsertUser(ctx, domain.User{ID: "u1", Name: "Alice", Balance: 50})

	g := newGame(t, "g1", "u1")
	if err := store.Create(ctx, g); err != nil {
		t.Fatalf("create: %v", err)
	}
	g.CurrentLevel = 2
	if err := g.CashOut(); err != nil {
		t.Fatalf("cash out: %v", err)
	}

	user, err := store.Finish(ctx, g)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if user.Balance != 250 {
		t.Fatalf("expected balance 250, got %d", user.Balance)
	}

	if _, err := store.Finish(ctx, g); !errors.Is(err, domain.ErrGameFinished) {
		t.Fatalf("expected second finish rejected, got %v", err)
	}
	if err := store.Update(ctx, g); !errors.Is(err, domain.ErrGameFinished) {
		t.Fatalf("expected update of finished game rejected, got %v", err)
	}
	stored, _ := store.GetUser(ctx, "u1")
	if stored.Balance != 250 {
		t.Fatalf("balance credited twice: %d", stored.Balance)
	}

	if _, err := store.ActiveForUser(ctx, "u1"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected no active game, got %v", err)
	}
	if err := store.Create(ctx, newGame(t, "g2", "u1")); err != nil {
		t.Fatalf("create after finish: %v", err)
	}
}

func TestStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_, _ = store.UpsertUser(ctx, domain.User{ID: "u1", Name: "Alice"})
	g := newGame(t, "g1", "u1")
	_ = store.Create(ctx, g)

	loaded, _ := store.Get(ctx, "g1")
	loaded.CurrentLevel = 9

	again, _ := store.Get(ctx, "g1")
	if again.CurrentLevel != 0 {
		t.Fatalf("store shares state with callers")
	}
}

func TestStoreUpsertKeepsBalance(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_, _ = store.UpsertUser(ctx, domain.User{ID: "u1", Name: "Alice", Balance: 300})

	user, err := store.UpsertUser(ctx, domain.User{ID: "u1", Name: "Alicia"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if user.Name != "Alicia" || user.Balance != 300 {
		t.Fatalf("unexpected user %+v", user)
	}
	if _, err := store.GetUser(ctx, "nobody"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}

func TestStoreListByUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_, _ = store.UpsertUser(ctx, domain.User{ID: "u1", Name: "Alice"})

	older := newGame(t, "g1", "u1")
	older.StartedAt = time.Now().Add(-time.Hour)
	_ = store.Create(ctx, older)
	older.CurrentLevel = 1
	_ = older.CashOut()
	_, _ = store.Finish(ctx, older)
	_ = store.Create(ctx, newGame(t, "g2", "u1"))

	games, err := store.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(games) != 2 || games[0].ID != "g2" || games[1].ID != "g1" {
		t.Fatalf("unexpected order: %v", games)
	}
}
