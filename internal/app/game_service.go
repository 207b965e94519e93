package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"millionaire-service/internal/domain"
	"millionaire-service/internal/game"
	"millionaire-service/internal/logging"
	"millionaire-service/internal/metrics"
)

// DefaultLeaderboardSize is used when callers ask for a non-positive limit.
const DefaultLeaderboardSize = 10

// ActiveGameError reports the unfinished game blocking a new one.
type ActiveGameError struct {
	GameID string
}

func (e *ActiveGameError) Error() string {
	return fmt.Sprintf("%s: %s", domain.ErrGameInProgress, e.GameID)
}

func (e *ActiveGameError) Unwrap() error {
	return domain.ErrGameInProgress
}

// GameService contains the game use cases.
type GameService struct {
	games   GameRepository
	users   UserRepository
	bank    QuestionBank
	board   Leaderboard
	locks   Locker
	feed    *Feed
	metrics *metrics.Metrics
	log     logrus.FieldLogger
	rnd     *lockedRand
	clock   func() time.Time
	newID   func() string
}

// Option customizes a GameService.
type Option func(*GameService)

// WithLeaderboard ranks users in board instead of nowhere.
func WithLeaderboard(board Leaderboard) Option {
	return func(s *GameService) { s.board = board }
}

// WithLocker replaces the in-process per-game locks.
func WithLocker(locks Locker) Option {
	return func(s *GameService) { s.locks = locks }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *GameService) { s.metrics = m }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *GameService) { s.log = log }
}

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *GameService) { s.clock = now }
}

// WithRandSource makes question draws and shuffles reproducible.
func WithRandSource(src rand.Source) Option {
	return func(s *GameService) { s.rnd = &lockedRand{r: rand.New(src)} }
}

// WithIDGenerator overrides uuid game ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *GameService) { s.newID = newID }
}

func NewGameService(games GameRepository, users UserRepository, bank QuestionBank, opts ...Option) *GameService {
	s := &GameService{
		games: games,
		users: users,
		bank:  bank,
		board: noLeaderboard{},
		locks: NewLocalLocker(),
		feed:  newFeed(),
		log:   logging.Discard(),
		rnd:   &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))},
		clock: time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterUser creates a player or renames an existing one.
func (s *GameService) RegisterUser(ctx context.Context, userID, name string) (domain.User, error) {
	user, err := s.users.UpsertUser(ctx, domain.User{ID: userID, Name: name, CreatedAt: s.clock()})
	if err != nil {
		return domain.User{}, err
	}
	s.recordBalance(ctx, userID)
	return user, nil
}

// User returns a player with the current balance.
func (s *GameService) User(ctx context.Context, userID string) (domain.User, error) {
	return s.users.GetUser(ctx, userID)
}

// CreateGameForUser starts a new game. A user with an unfinished game gets
// an *ActiveGameError unless that game already ran out of time, in which
// case it is closed as a timeout first.
func (s *GameService) CreateGameForUser(ctx context.Context, userID string) (*game.Game, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	unlock, err := s.locks.Lock(ctx, "user:"+userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	active, err := s.games.ActiveForUser(ctx, userID)
	switch {
	case err == nil:
		active.SetClock(s.clock)
		if !active.ExpireIfTimedOut() {
			return nil, &ActiveGameError{GameID: active.ID}
		}
		if err := s.finish(ctx, active); err != nil {
			return nil, err
		}
	case !errors.Is(err, domain.ErrGameNotFound):
		return nil, err
	}

	questions, err := s.drawQuestions(ctx)
	if err != nil {
		return nil, err
	}
	g, err := game.New(s.newID(), userID, questions, s.rnd, s.clock())
	if err != nil {
		return nil, err
	}
	g.SetClock(s.clock)
	if err := s.games.Create(ctx, g); err != nil {
		return nil, err
	}

	s.metrics.GameStarted()
	s.log.WithFields(logrus.Fields{"game_id": g.ID, "user_id": userID}).Info("game started")
	return g, nil
}

// Game loads a game on behalf of its owner.
func (s *GameService) Game(ctx context.Context, gameID, userID string) (*game.Game, error) {
	g, err := s.games.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.UserID != userID {
		return nil, domain.ErrNotGameOwner
	}
	g.SetClock(s.clock)
	return g, nil
}

// Games lists a user's games, newest first.
func (s *GameService) Games(ctx context.Context, userID string) ([]*game.Game, error) {
	return s.games.ListByUser(ctx, userID)
}

// SubmitAnswer judges a letter for the current question. Wrong answers and
// timeouts are reported through the game state, not as errors.
func (s *GameService) SubmitAnswer(ctx context.Context, gameID, userID, letter string) (*game.Game, bool, error) {
	var correct bool
	g, err := s.mutate(ctx, gameID, userID, func(g *game.Game) error {
		correct = g.SubmitAnswer(letter)
		return nil
	})
	if err != nil {
		return g, false, err
	}
	s.metrics.AnswerSubmitted(correct)
	return g, correct, nil
}

// CashOut ends the game and credits the prize of the last level passed.
func (s *GameService) CashOut(ctx context.Context, gameID, userID string) (*game.Game, error) {
	return s.mutate(ctx, gameID, userID, func(g *game.Game) error {
		return g.CashOut()
	})
}

// UseLifeline applies a lifeline to the current question.
func (s *GameService) UseLifeline(ctx context.Context, gameID, userID string, l game.Lifeline) (*game.Game, error) {
	g, err := s.mutate(ctx, gameID, userID, func(g *game.Game) error {
		return g.UseLifeline(l, s.rnd)
	})
	if err == nil {
		s.metrics.LifelineUsed(string(l))
	}
	return g, err
}

// Leaderboard returns the richest players.
func (s *GameService) Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	entries, err := s.board.Top(ctx, limit)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: s.clock()}, nil
}

// Subscribe returns a channel receiving the leaderboard after every finished
// game. The caller must invoke the returned cancel function to avoid leaks.
func (s *GameService) Subscribe(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	lb, err := s.Leaderboard(ctx, DefaultLeaderboardSize)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.feed.subscribe(lb)
	return ch, cancel, nil
}

// mutate runs op on a locked, freshly loaded game and persists the result.
// A game that became terminal is persisted even when op returns an error.
func (s *GameService) mutate(ctx context.Context, gameID, userID string, op func(*game.Game) error) (*game.Game, error) {
	unlock, err := s.locks.Lock(ctx, "game:"+gameID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	g, err := s.Game(ctx, gameID, userID)
	if err != nil {
		return nil, err
	}
	if g.Finished() {
		return g, domain.ErrGameFinished
	}

	opErr := op(g)
	if g.Finished() {
		if err := s.finish(ctx, g); err != nil {
			return nil, err
		}
		return g, opErr
	}
	if opErr != nil {
		return g, opErr
	}
	if err := s.games.Update(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *GameService) finish(ctx context.Context, g *game.Game) error {
	user, err := s.games.Finish(ctx, g)
	if err != nil {
		return err
	}

	status := g.Status()
	s.metrics.GameFinished(string(status), g.Prize)
	s.log.WithFields(logrus.Fields{
		"game_id": g.ID,
		"user_id": g.UserID,
		"status":  status,
		"level":   g.CurrentLevel,
		"prize":   g.Prize,
	}).Info("game finished")

	if !s.recordBalance(ctx, user.ID) {
		return nil
	}
	if s.feed.size() > 0 {
		lb, err := s.Leaderboard(ctx, DefaultLeaderboardSize)
		if err != nil {
			s.log.WithError(err).Warn("leaderboard snapshot failed")
			return nil
		}
		s.feed.publish(lb)
	}
	return nil
}

// recordBalance copies the user's stored balance to the leaderboard. Writers
// hold a per-user board lock and re-read the user inside it, so a stale
// balance never overwrites a newer one.
func (s *GameService) recordBalance(ctx context.Context, userID string) bool {
	log := s.log.WithField("user_id", userID)
	unlock, err := s.locks.Lock(ctx, "board:"+userID)
	if err != nil {
		log.WithError(err).Warn("leaderboard lock failed")
		return false
	}
	defer unlock()

	user, err := s.users.GetUser(ctx, userID)
	if err == nil {
		err = s.board.Record(ctx, user)
	}
	if err != nil {
		log.WithError(err).Warn("leaderboard update failed")
		return false
	}
	return true
}

// drawQuestions picks one random question per level.
func (s *GameService) drawQuestions(ctx context.Context) ([]domain.Question, error) {
	questions := make([]domain.Question, 0, game.QuestionCount)
	for level := 0; level < game.QuestionCount; level++ {
		candidates, err := s.bank.QuestionsForLevel(ctx, level)
		if err != nil {
			return nil, fmt.Errorf("load level %d: %w", level, err)
		}
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w: level %d is empty", domain.ErrInsufficientQuestions, level)
		}
		questions = append(questions, candidates[s.rnd.Intn(len(candidates))])
	}
	return questions, nil
}

// lockedRand makes a *rand.Rand safe for concurrent requests.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func (l *lockedRand) Perm(n int) []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Perm(n)
}

type noLeaderboard struct{}

func (noLeaderboard) Record(context.Context, domain.User) error { return nil }

func (noLeaderboard) Top(context.Context, int) ([]domain.LeaderboardEntry, error) {
	return nil, nil
}
