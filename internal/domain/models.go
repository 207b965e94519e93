package domain

import "time"

// AnswerCount is the number of answer options every question carries.
const AnswerCount = 4

// Question is a trivia item from the question bank. Answers[0] is the
// correct answer; the game shuffles the order before showing it.
type Question struct {
	ID      string              `json:"id" yaml:"id"`
	Text    string              `json:"text" yaml:"text"`
	Level   int                 `json:"level" yaml:"level"`
	Answers [AnswerCount]string `json:"answers" yaml:"answers"`
}

// User owns games and accumulates the prizes they end with.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Balance   int       `json:"balance"`
	CreatedAt time.Time `json:"createdAt"`
}

// LeaderboardEntry is a snapshot-friendly view of a player.
type LeaderboardEntry struct {
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	Balance int    `json:"balance"`
}

// Leaderboard captures players ordered by balance.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
