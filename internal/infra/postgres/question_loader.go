package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"millionaire-service/internal/domain"
)

// QuestionLoader reads the question bank from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadLevel(ctx context.Context, level int) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, text, level, answer1, answer2, answer3, answer4
		FROM questions WHERE level = $1 ORDER BY id`, level)
	if err != nil {
		return nil, fmt.Errorf("load level %d: %w", level, err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Level, &q.Answers[0], &q.Answers[1], &q.Answers[2], &q.Answers[3]); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load level %d: %w", level, err)
	}
	return questions, nil
}

// SaveQuestions upserts questions by id in one batch.
func (l *QuestionLoader) SaveQuestions(ctx context.Context, questions []domain.Question) error {
	batch := &pgx.Batch{}
	for _, q := range questions {
		batch.Queue(`
			INSERT INTO questions (id, text, level, answer1, answer2, answer3, answer4)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				text = EXCLUDED.text, level = EXCLUDED.level,
				answer1 = EXCLUDED.answer1, answer2 = EXCLUDED.answer2,
				answer3 = EXCLUDED.answer3, answer4 = EXCLUDED.answer4`,
			q.ID, q.Text, q.Level, q.Answers[0], q.Answers[1], q.Answers[2], q.Answers[3])
	}

	results := l.pool.SendBatch(ctx, batch)
	defer results.Close()
	for _, q := range questions {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("save question %s: %w", q.ID, err)
		}
	}
	return nil
}
