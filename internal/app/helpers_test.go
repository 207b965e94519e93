package app

import "millionaire-service/internal/domain"

func domainLeaderboard(balance int) domain.Leaderboard {
	return domain.Leaderboard{Entries: []domain.LeaderboardEntry{{UserID: "u1", Balance: balance}}}
}
