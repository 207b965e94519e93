package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"millionaire-service/internal/domain"
	"millionaire-service/internal/game"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Store persists users and games. Terminal game writes and the matching
// balance credit share one transaction.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

func (s *Store) UpsertUser(ctx context.Context, user domain.User) (domain.User, error) {
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	var out domain.User
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, balance, created_at`,
		user.ID, user.Name, createdAt,
	).Scan(&out.ID, &out.Name, &out.Balance, &out.CreatedAt)
	if err != nil {
		return domain.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return out, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (domain.User, error) {
	var user domain.User
	err := s.pool.QueryRow(ctx, `SELECT id, name, balance, created_at FROM users WHERE id = $1`, userID).
		Scan(&user.ID, &user.Name, &user.Balance, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *Store) Create(ctx context.Context, g *game.Game) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var activeID string
	err = tx.QueryRow(ctx, `SELECT id FROM games WHERE user_id = $1 AND finished_at IS NULL FOR UPDATE`, g.UserID).Scan(&activeID)
	switch {
	case err == nil:
		return domain.ErrGameInProgress
	case !errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("check active game: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO games (id, user_id, current_level, is_failed, prize, started_at, finished_at,
			fifty_fifty_used, audience_help_used, friend_call_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		g.ID, g.UserID, g.CurrentLevel, g.IsFailed, g.Prize, g.StartedAt, g.FinishedAt,
		g.FiftyFiftyUsed, g.AudienceHelpUsed, g.FriendCallUsed)
	if err != nil {
		return translateError(err)
	}

	batch := &pgx.Batch{}
	for _, gq := range g.Questions {
		help, err := json.Marshal(gq.Help)
		if err != nil {
			return fmt.Errorf("encode help: %w", err)
		}
		batch.Queue(`
			INSERT INTO game_questions (game_id, level, question_id, a, b, c, d, help_hash)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			g.ID, gq.Level, gq.Question.ID, gq.Slots[0], gq.Slots[1], gq.Slots[2], gq.Slots[3], string(help))
	}
	if err := execBatch(ctx, tx, batch); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Get(ctx context.Context, gameID string) (*game.Game, error) {
	return loadGame(ctx, s.pool, gameID)
}

func (s *Store) ActiveForUser(ctx context.Context, userID string) (*game.Game, error) {
	var gameID string
	err := s.pool.QueryRow(ctx, `SELECT id FROM games WHERE user_id = $1 AND finished_at IS NULL`, userID).Scan(&gameID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("active game: %w", err)
	}
	return loadGame(ctx, s.pool, gameID)
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]*game.Game, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM games WHERE user_id = $1 ORDER BY started_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan game id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}

	games := make([]*game.Game, 0, len(ids))
	for _, id := range ids {
		g, err := loadGame(ctx, s.pool, id)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, nil
}

func (s *Store) Update(ctx context.Context, g *game.Game) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := writeGame(ctx, tx, g); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Finish(ctx context.Context, g *game.Game) (domain.User, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := writeGame(ctx, tx, g); err != nil {
		return domain.User{}, err
	}

	var user domain.User
	err = tx.QueryRow(ctx, `
		UPDATE users SET balance = balance + $2 WHERE id = $1
		RETURNING id, name, balance, created_at`, g.UserID, g.Prize,
	).Scan(&user.ID, &user.Name, &user.Balance, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("credit balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.User{}, fmt.Errorf("commit: %w", err)
	}
	return user, nil
}

// writeGame updates a game that is still unfinished in the database along
// with the hint state of its questions.
func writeGame(ctx context.Context, tx pgx.Tx, g *game.Game) error {
	tag, err := tx.Exec(ctx, `
		UPDATE games SET current_level = $2, is_failed = $3, prize = $4, finished_at = $5,
			fifty_fifty_used = $6, audience_help_used = $7, friend_call_used = $8
		WHERE id = $1 AND finished_at IS NULL`,
		g.ID, g.CurrentLevel, g.IsFailed, g.Prize, g.FinishedAt,
		g.FiftyFiftyUsed, g.AudienceHelpUsed, g.FriendCallUsed)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM games WHERE id = $1)`, g.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check game: %w", err)
		}
		if !exists {
			return domain.ErrGameNotFound
		}
		return domain.ErrGameFinished
	}

	batch := &pgx.Batch{}
	for _, gq := range g.Questions {
		if gq.Help.Empty() {
			continue
		}
		help, err := json.Marshal(gq.Help)
		if err != nil {
			return fmt.Errorf("encode help: %w", err)
		}
		batch.Queue(`UPDATE game_questions SET help_hash = $3 WHERE game_id = $1 AND level = $2`, g.ID, gq.Level, string(help))
	}
	return execBatch(ctx, tx, batch)
}

func loadGame(ctx context.Context, q querier, gameID string) (*game.Game, error) {
	g := &game.Game{ID: gameID}
	err := q.QueryRow(ctx, `
		SELECT user_id, current_level, is_failed, prize, started_at, finished_at,
			fifty_fifty_used, audience_help_used, friend_call_used
		FROM games WHERE id = $1`, gameID,
	).Scan(&g.UserID, &g.CurrentLevel, &g.IsFailed, &g.Prize, &g.StartedAt, &g.FinishedAt,
		&g.FiftyFiftyUsed, &g.AudienceHelpUsed, &g.FriendCallUsed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT gq.level, gq.a, gq.b, gq.c, gq.d, gq.help_hash,
			qs.id, qs.text, qs.level, qs.answer1, qs.answer2, qs.answer3, qs.answer4
		FROM game_questions gq
		JOIN questions qs ON qs.id = gq.question_id
		WHERE gq.game_id = $1
		ORDER BY gq.level`, gameID)
	if err != nil {
		return nil, fmt.Errorf("load game questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		gq := &game.GameQuestion{}
		var help []byte
		qs := &gq.Question
		if err := rows.Scan(&gq.Level, &gq.Slots[0], &gq.Slots[1], &gq.Slots[2], &gq.Slots[3], &help,
			&qs.ID, &qs.Text, &qs.Level, &qs.Answers[0], &qs.Answers[1], &qs.Answers[2], &qs.Answers[3]); err != nil {
			return nil, fmt.Errorf("scan game question: %w", err)
		}
		if err := json.Unmarshal(help, &gq.Help); err != nil {
			return nil, fmt.Errorf("decode help: %w", err)
		}
		g.Questions = append(g.Questions, gq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load game questions: %w", err)
	}
	return g, nil
}

func execBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return translateError(err)
		}
	}
	return results.Close()
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == uniqueViolation && pgErr.ConstraintName == "games_one_active_per_user":
			return domain.ErrGameInProgress
		case pgErr.Code == foreignKeyViolation && pgErr.ConstraintName == "games_user_id_fkey":
			return domain.ErrUserNotFound
		}
	}
	return fmt.Errorf("postgres: %w", err)
}
