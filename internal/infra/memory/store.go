package memory

import (
	"context"
	"sort"
	"sync"

	"millionaire-service/internal/domain"
	"millionaire-service/internal/game"
)

// Store is an in-memory implementation of app.GameRepository and
// app.UserRepository. Games are kept as deep copies so callers never share
// state with the store.
type Store struct {
	mu    sync.RWMutex
	users map[string]domain.User
	games map[string]*game.Game
}

func NewStore() *Store {
	return &Store{
		users: make(map[string]domain.User),
		games: make(map[string]*game.Game),
	}
}

func (s *Store) UpsertUser(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.users[user.ID]; ok {
		existing.Name = user.Name
		s.users[user.ID] = existing
		return existing, nil
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) GetUser(_ context.Context, userID string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) Create(_ context.Context, g *game.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[g.UserID]; !ok {
		return domain.ErrUserNotFound
	}
	if s.activeLocked(g.UserID) != nil {
		return domain.ErrGameInProgress
	}
	s.games[g.ID] = g.Clone()
	return nil
}

func (s *Store) Get(_ context.Context, gameID string) (*game.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[gameID]
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return g.Clone(), nil
}

func (s *Store) ActiveForUser(_ context.Context, userID string) (*game.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if g := s.activeLocked(userID); g != nil {
		return g.Clone(), nil
	}
	return nil, domain.ErrGameNotFound
}

func (s *Store) ListByUser(_ context.Context, userID string) ([]*game.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	games := make([]*game.Game, 0)
	for _, g := range s.games {
		if g.UserID == userID {
			games = append(games, g.Clone())
		}
	}
	sort.Slice(games, func(i, j int) bool {
		if !games[i].StartedAt.Equal(games[j].StartedAt) {
			return games[i].StartedAt.After(games[j].StartedAt)
		}
		return games[i].ID > games[j].ID
	})
	return games, nil
}

func (s *Store) Update(_ context.Context, g *game.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.runningLocked(g.ID); err != nil {
		return err
	}
	s.games[g.ID] = g.Clone()
	return nil
}

func (s *Store) Finish(_ context.Context, g *game.Game) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.runningLocked(g.ID); err != nil {
		return domain.User{}, err
	}
	user, ok := s.users[g.UserID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	user.Balance += g.Prize
	s.users[user.ID] = user
	s.games[g.ID] = g.Clone()
	return user, nil
}

// runningLocked guards against writing over a game that already ended,
// which would credit its prize twice.
func (s *Store) runningLocked(gameID string) (*game.Game, error) {
	stored, ok := s.games[gameID]
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	if stored.Finished() {
		return nil, domain.ErrGameFinished
	}
	return stored, nil
}

func (s *Store) activeLocked(userID string) *game.Game {
	for _, g := range s.games {
		if g.UserID == userID && !g.Finished() {
			return g
		}
	}
	return nil
}
