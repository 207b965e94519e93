package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"millionaire-service/internal/domain"
	"millionaire-service/internal/infra/memory"
	redisstore "millionaire-service/internal/infra/redis"
)

type recordingSaver struct {
	saved []domain.Question
}

func (s *recordingSaver) SaveQuestions(_ context.Context, questions []domain.Question) error {
	s.saved = append(s.saved, questions...)
	return nil
}

func TestSeedBuiltInQuestions(t *testing.T) {
	questions, err := readQuestions("")
	if err != nil {
		t.Fatalf("read built-in questions: %v", err)
	}
	saver := &recordingSaver{}
	if err := seedQuestions(context.Background(), saver, nil, questions); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(saver.saved) != len(questions) {
		t.Fatalf("expected %d saved questions, got %d", len(questions), len(saver.saved))
	}
}

func TestSeedFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	body := "- {id: x1, level: 0, text: Two plus two?, answers: [\"4\", \"3\", \"5\", \"22\"]}\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	questions, err := readQuestions(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if len(questions) != 1 || questions[0].Answers[0] != "4" {
		t.Fatalf("unexpected questions: %+v", questions)
	}
}

func TestSeedRejectsEmptySet(t *testing.T) {
	if err := seedQuestions(context.Background(), &recordingSaver{}, nil, nil); err == nil {
		t.Fatalf("expected error for empty question set")
	}
}

func TestSeedInvalidatesCachedLevels(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	old := []domain.Question{{ID: "old", Level: 2, Text: "Old?", Answers: [4]string{"a", "b", "c", "d"}}}
	bank := redisstore.NewQuestionBank(client, memory.NewStaticQuestionLoader(old), time.Minute)
	if _, err := bank.QuestionsForLevel(ctx, 2); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	if !mr.Exists("questions:level:2") {
		t.Fatalf("expected level 2 cached")
	}

	fresh := []domain.Question{
		{ID: "new-1", Level: 2, Text: "New?", Answers: [4]string{"a", "b", "c", "d"}},
		{ID: "new-2", Level: 2, Text: "Newer?", Answers: [4]string{"a", "b", "c", "d"}},
	}
	if err := seedQuestions(ctx, &recordingSaver{}, bank, fresh); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if mr.Exists("questions:level:2") {
		t.Fatalf("expected level 2 cache dropped after seeding")
	}
}
