package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"millionaire-service/internal/domain"
)

const (
	balancesKey = "leaderboard:balances"
	namesKey    = "leaderboard:names"
)

// Leaderboard ranks balances in a sorted set shared by every instance.
type Leaderboard struct {
	client *redis.Client
}

func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client}
}

func (l *Leaderboard) Record(ctx context.Context, user domain.User) error {
	pipe := l.client.TxPipeline()
	pipe.ZAdd(ctx, balancesKey, redis.Z{Score: float64(user.Balance), Member: user.ID})
	pipe.HSet(ctx, namesKey, user.ID, user.Name)
	_, err := pipe.Exec(ctx)
	return err
}

func (l *Leaderboard) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	ranked, err := l.client.ZRevRangeWithScores(ctx, balancesKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return []domain.LeaderboardEntry{}, nil
	}

	ids := make([]string, 0, len(ranked))
	for _, z := range ranked {
		ids = append(ids, z.Member.(string))
	}
	names, err := l.client.HMGet(ctx, namesKey, ids...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LeaderboardEntry, 0, len(ranked))
	for i, z := range ranked {
		name, _ := names[i].(string)
		entries = append(entries, domain.LeaderboardEntry{
			UserID:  ids[i],
			Name:    name,
			Balance: int(z.Score),
		})
	}
	return entries, nil
}
