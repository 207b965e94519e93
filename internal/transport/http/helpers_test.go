package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"millionaire-service/internal/app"
	"millionaire-service/internal/domain"
	"millionaire-service/internal/game"
	"millionaire-service/internal/infra/memory"
	"millionaire-service/internal/logging"
	"millionaire-service/internal/metrics"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	bank := memory.NewQuestionBank(memory.NewStaticQuestionLoader(ladderQuestions()), time.Minute)
	ids := 0
	service := app.NewGameService(store, store, bank,
		app.WithLeaderboard(memory.NewLeaderboard()),
		app.WithRandSource(rand.NewSource(7)),
		app.WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("game-%d", ids)
		}),
	)
	for _, u := range []domain.User{{ID: "u1", Name: "Alice"}, {ID: "u2", Name: "Bob"}} {
		if _, err := service.RegisterUser(context.Background(), u.ID, u.Name); err != nil {
			t.Fatalf("register %s: %v", u.ID, err)
		}
	}

	log := logging.Discard()
	router := NewRouter(NewRESTHandler(service, log), NewWSHandler(service, log), metrics.New("test").Handler(), log)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

// ladderQuestions has one question per level; "right" is always correct.
func ladderQuestions() []domain.Question {
	questions := make([]domain.Question, 0, game.QuestionCount)
	for level := 0; level < game.QuestionCount; level++ {
		questions = append(questions, domain.Question{
			ID:      fmt.Sprintf("q%d", level),
			Text:    fmt.Sprintf("Question %d", level),
			Level:   level,
			Answers: [domain.AnswerCount]string{"right", "wrong a", "wrong b", "wrong c"},
		})
	}
	return questions
}

func rightKey(t *testing.T, view GameView) game.Key {
	t.Helper()
	if view.Question == nil {
		t.Fatalf("game %s has no current question", view.ID)
	}
	for key, text := range view.Question.Variants {
		if text == "right" {
			return key
		}
	}
	t.Fatalf("no correct variant in %+v", view.Question.Variants)
	return ""
}

func wrongKey(t *testing.T, view GameView) game.Key {
	t.Helper()
	for key, text := range view.Question.Variants {
		if text != "right" {
			return key
		}
	}
	t.Fatalf("no wrong variant in %+v", view.Question.Variants)
	return ""
}

func doJSON(t *testing.T, server *httptest.Server, method, path, userID string, body any, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(UserHeader, userID)
	}
	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func createGame(t *testing.T, server *httptest.Server, userID string) GameView {
	t.Helper()
	var view GameView
	if status := doJSON(t, server, http.MethodPost, "/games", userID, nil, &view); status != http.StatusCreated {
		t.Fatalf("expected 201 creating game, got %d", status)
	}
	return view
}
