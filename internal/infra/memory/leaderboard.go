package memory

import (
	"context"
	"sort"
	"sync"

	"millionaire-service/internal/domain"
)

// Leaderboard keeps balances in process memory.
type Leaderboard struct {
	mu      sync.RWMutex
	entries map[string]domain.LeaderboardEntry
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{entries: make(map[string]domain.LeaderboardEntry)}
}

func (l *Leaderboard) Record(_ context.Context, user domain.User) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[user.ID] = domain.LeaderboardEntry{
		UserID:  user.ID,
		Name:    user.Name,
		Balance: user.Balance,
	}
	return nil
}

func (l *Leaderboard) Top(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	l.mu.RLock()
	entries := make([]domain.LeaderboardEntry, 0, len(l.entries))
	for _, entry := range l.entries {
		entries = append(entries, entry)
	}
	l.mu.RUnlock()

	// richest first, then by name
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Balance != entries[j].Balance {
			return entries[i].Balance > entries[j].Balance
		}
		return entries[i].Name < entries[j].Name
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
