package http

import (
	"time"

	"millionaire-service/internal/game"
)

// GameView is the client-facing projection of a game. The correct key is
// revealed only once the game is over.
type GameView struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	Status       game.Status     `json:"status"`
	CurrentLevel int             `json:"currentLevel"`
	Prize        int             `json:"prize"`
	SafePrize    int             `json:"safePrize"`
	CashOutPrize int             `json:"cashOutPrize"`
	StartedAt    time.Time       `json:"startedAt"`
	FinishedAt   *time.Time      `json:"finishedAt,omitempty"`
	Deadline     time.Time       `json:"deadline"`
	Lifelines    map[string]bool `json:"lifelines"`
	Question     *QuestionView   `json:"question,omitempty"`
	LastQuestion *QuestionView   `json:"lastQuestion,omitempty"`
	// AnsweredQuestion is the last question answered correctly.
	AnsweredQuestion *QuestionView `json:"answeredQuestion,omitempty"`
}

// QuestionView shows one question with its shuffled variants and hints.
type QuestionView struct {
	Level      int                 `json:"level"`
	Text       string              `json:"text"`
	Prize      int                 `json:"prize"`
	Variants   map[game.Key]string `json:"variants"`
	KeysInPlay []game.Key          `json:"keysInPlay"`
	Help       game.HelpState      `json:"help"`
	CorrectKey game.Key            `json:"correctKey,omitempty"`
}

func newGameView(g *game.Game) GameView {
	view := GameView{
		ID:           g.ID,
		UserID:       g.UserID,
		Status:       g.Status(),
		CurrentLevel: g.CurrentLevel,
		Prize:        g.Prize,
		SafePrize:    game.FireproofPrize(g.PreviousLevel()),
		StartedAt:    g.StartedAt,
		FinishedAt:   g.FinishedAt,
		Deadline:     g.StartedAt.Add(game.TimeLimit),
		Lifelines:    make(map[string]bool, len(game.Lifelines)),
	}
	if !g.Finished() {
		view.CashOutPrize = game.CashOutPrize(g.CurrentLevel)
	}
	for _, l := range game.Lifelines {
		view.Lifelines[string(l)] = g.LifelineUsed(l)
	}

	if gq, ok := g.PreviousGameQuestion(); ok {
		qv := newQuestionView(gq, true)
		view.AnsweredQuestion = &qv
	}
	if gq, ok := g.CurrentGameQuestion(); ok {
		qv := newQuestionView(gq, false)
		view.Question = &qv
	} else if g.Finished() {
		// the question the game ended on: failed or unanswered
		if gq, ok := g.QuestionAt(g.CurrentLevel); ok {
			qv := newQuestionView(gq, true)
			view.LastQuestion = &qv
		}
	}
	return view
}

func newQuestionView(gq *game.GameQuestion, reveal bool) QuestionView {
	qv := QuestionView{
		Level:      gq.Level,
		Text:       gq.Text(),
		Prize:      game.PrizeAt(gq.Level),
		Variants:   gq.Variants(),
		KeysInPlay: gq.KeysInPlay(),
		Help:       gq.Help,
	}
	if reveal {
		qv.CorrectKey = gq.CorrectKey()
	}
	return qv
}
