package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"millionaire-service/internal/domain"
)

func TestLeaderboardRanksBalances(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	board := NewLeaderboard(newClient(mr))
	for _, u := range []domain.User{
		{ID: "u1", Name: "Alice", Balance: 200},
		{ID: "u2", Name: "Bob", Balance: 4000},
		{ID: "u3", Name: "Carol", Balance: 0},
	} {
		if err := board.Record(ctx, u); err != nil {
			t.Fatalf("record %s: %v", u.ID, err)
		}
	}
	// a later credit moves Alice to the top
	if err := board.Record(ctx, domain.User{ID: "u1", Name: "Alice", Balance: 32200}); err != nil {
		t.Fatalf("record: %v", err)
	}

	top, err := board.Top(ctx, 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	if top[0].UserID != "u1" || top[0].Name != "Alice" || top[0].Balance != 32200 {
		t.Fatalf("unexpected leader %+v", top[0])
	}
	if top[1].UserID != "u2" || top[1].Balance != 4000 {
		t.Fatalf("unexpected runner-up %+v", top[1])
	}
}

func TestLeaderboardEmpty(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	top, err := NewLeaderboard(newClient(mr)).Top(context.Background(), 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 0 {
		t.Fatalf("expected empty leaderboard, got %+v", top)
	}
}
