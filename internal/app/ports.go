package app

import (
	"context"

	"millionaire-service/internal/domain"
	"millionaire-service/internal/game"
)

// QuestionBank supplies candidate questions for one level.
type QuestionBank interface {
	QuestionsForLevel(ctx context.Context, level int) ([]domain.Question, error)
}

// GameRepository abstracts how games are stored (in-memory, Postgres, etc).
type GameRepository interface {
	// Create stores a new game. It fails with domain.ErrGameInProgress when
	// the user already owns an unfinished game.
	Create(ctx context.Context, g *game.Game) error
	// Get returns domain.ErrGameNotFound for unknown ids.
	Get(ctx context.Context, gameID string) (*game.Game, error)
	// ActiveForUser returns the unfinished game of a user or domain.ErrGameNotFound.
	ActiveForUser(ctx context.Context, userID string) (*game.Game, error)
	// ListByUser returns a user's games, newest first.
	ListByUser(ctx context.Context, userID string) ([]*game.Game, error)
	// Update persists progress of a running game.
	Update(ctx context.Context, g *game.Game) error
	// Finish persists a terminal game and credits its prize to the owner's
	// balance in one atomic step, returning the updated owner.
	Finish(ctx context.Context, g *game.Game) (domain.User, error)
}

// UserRepository stores players and their balances.
type UserRepository interface {
	UpsertUser(ctx context.Context, user domain.User) (domain.User, error)
	GetUser(ctx context.Context, userID string) (domain.User, error)
}

// Leaderboard ranks users by balance.
type Leaderboard interface {
	Record(ctx context.Context, user domain.User) error
	Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// Locker serializes requests touching the same key.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
