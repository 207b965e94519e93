package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"millionaire-service/internal/domain"
	"millionaire-service/internal/game"
)

//go:embed questions.yaml
var sampleQuestions []byte

// SampleQuestions returns the built-in question bank.
func SampleQuestions() ([]domain.Question, error) {
	return ParseQuestions(sampleQuestions)
}

// LoadQuestions reads a YAML list of questions from path.
func LoadQuestions(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseQuestions(data)
}

// ParseQuestions decodes and checks a YAML list of questions.
func ParseQuestions(data []byte) ([]domain.Question, error) {
	var questions []domain.Question
	if err := yaml.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}
	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		if q.ID == "" {
			return nil, fmt.Errorf("question %d: missing id", i)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("question %s: duplicate id", q.ID)
		}
		seen[q.ID] = struct{}{}
		if strings.TrimSpace(q.Text) == "" {
			return nil, fmt.Errorf("question %s: missing text", q.ID)
		}
		if q.Level < 0 || q.Level > game.MaxLevel {
			return nil, fmt.Errorf("question %s: level %d out of range", q.ID, q.Level)
		}
		for j, answer := range q.Answers {
			if strings.TrimSpace(answer) == "" {
				return nil, fmt.Errorf("question %s: answer %d is empty", q.ID, j+1)
			}
		}
	}
	return questions, nil
}
