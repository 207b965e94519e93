// Package game implements the money-ladder rules: question shuffling,
// lifelines, prize computation and the game state machine.
package game

import (
	"fmt"
	"sort"
	"time"

	"millionaire-service/internal/domain"
)

const (
	// QuestionCount is the number of questions on the ladder.
	QuestionCount = 15
	// MaxLevel is the index of the last question.
	MaxLevel = QuestionCount - 1
	// TimeLimit bounds how long a game may run.
	TimeLimit = 35 * time.Minute
)

// Status is derived from a game's fields on every read.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusFail       Status = "fail"
	StatusTimeout    Status = "timeout"
	StatusMoney      Status = "money"
)

// Game is one run up the ladder by one user. Callers serialize access per
// game; Game itself holds no lock.
type Game struct {
	ID               string
	UserID           string
	Questions        []*GameQuestion
	CurrentLevel     int
	IsFailed         bool
	Prize            int
	StartedAt        time.Time
	FinishedAt       *time.Time
	FiftyFiftyUsed   bool
	AudienceHelpUsed bool
	FriendCallUsed   bool

	clock func() time.Time
}

// New builds a game from one question per level. The answers of every
// question are shuffled independently with rnd.
func New(id, userID string, questions []domain.Question, rnd Rand, startedAt time.Time) (*Game, error) {
	if len(questions) != QuestionCount {
		return nil, fmt.Errorf("%w: got %d questions, need %d", domain.ErrInsufficientQuestions, len(questions), QuestionCount)
	}
	ordered := append([]domain.Question(nil), questions...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Level < ordered[j].Level })

	g := &Game{
		ID:        id,
		UserID:    userID,
		Questions: make([]*GameQuestion, 0, QuestionCount),
		StartedAt: startedAt,
	}
	for level, q := range ordered {
		if q.Level != level {
			return nil, fmt.Errorf("%w: no question for level %d", domain.ErrInsufficientQuestions, level)
		}
		g.Questions = append(g.Questions, NewGameQuestion(q, rnd))
	}
	return g, nil
}

// SetClock replaces the time source, mainly for tests.
func (g *Game) SetClock(now func() time.Time) {
	g.clock = now
}

func (g *Game) now() time.Time {
	if g.clock != nil {
		return g.clock()
	}
	return time.Now()
}

// Finished reports whether the game reached a terminal state.
func (g *Game) Finished() bool {
	return g.FinishedAt != nil
}

// Status derives the game state from its fields.
func (g *Game) Status() Status {
	switch {
	case !g.Finished():
		return StatusInProgress
	case !g.IsFailed && g.CurrentLevel > MaxLevel:
		return StatusWon
	case g.IsFailed && g.FinishedAt.Sub(g.StartedAt) > TimeLimit:
		return StatusTimeout
	case g.IsFailed:
		return StatusFail
	default:
		return StatusMoney
	}
}

// QuestionAt returns the game question for a level.
func (g *Game) QuestionAt(level int) (*GameQuestion, bool) {
	if level < 0 || level >= len(g.Questions) {
		return nil, false
	}
	return g.Questions[level], true
}

// CurrentGameQuestion returns the question to answer next. A finished game
// has none.
func (g *Game) CurrentGameQuestion() (*GameQuestion, bool) {
	if g.Finished() {
		return nil, false
	}
	return g.QuestionAt(g.CurrentLevel)
}

// PreviousGameQuestion returns the last question answered correctly.
func (g *Game) PreviousGameQuestion() (*GameQuestion, bool) {
	return g.QuestionAt(g.PreviousLevel())
}

// PreviousLevel is the last level answered correctly, -1 before any.
func (g *Game) PreviousLevel() int {
	return g.CurrentLevel - 1
}

// TimedOut reports whether an unfinished game ran past the time limit.
func (g *Game) TimedOut() bool {
	return !g.Finished() && g.now().Sub(g.StartedAt) > TimeLimit
}

// ExpireIfTimedOut finishes an overdue game as a timeout with the fireproof
// prize. It reports whether the game was expired by this call.
func (g *Game) ExpireIfTimedOut() bool {
	if !g.TimedOut() {
		return false
	}
	g.finish(FireproofPrize(g.PreviousLevel()), true)
	return true
}

// SubmitAnswer judges a letter for the current question. It returns true
// only for a correct answer on a running game.
func (g *Game) SubmitAnswer(key string) bool {
	if g.Finished() || g.ExpireIfTimedOut() {
		return false
	}
	gq, ok := g.CurrentGameQuestion()
	if !ok {
		return false
	}
	if gq.AnswerCorrect(key) {
		g.CurrentLevel++
		if g.CurrentLevel > MaxLevel {
			g.finish(TopPrize(), false)
		}
		return true
	}
	g.finish(FireproofPrize(g.PreviousLevel()), true)
	return false
}

// CashOut ends the game keeping the prize of the last level passed.
func (g *Game) CashOut() error {
	if g.Finished() {
		return domain.ErrGameFinished
	}
	if g.ExpireIfTimedOut() {
		return domain.ErrTimeLimitExceeded
	}
	if g.CurrentLevel == 0 {
		return domain.ErrNothingToCashOut
	}
	g.finish(CashOutPrize(g.CurrentLevel), false)
	return nil
}

// UseLifeline applies l to the current question and marks it spent.
func (g *Game) UseLifeline(l Lifeline, rnd Rand) error {
	if g.Finished() {
		return domain.ErrGameFinished
	}
	flag, err := g.lifelineFlag(l)
	if err != nil {
		return err
	}
	if *flag {
		return domain.ErrLifelineUsed
	}
	gq, ok := g.CurrentGameQuestion()
	if !ok {
		return domain.ErrGameFinished
	}
	if err := gq.Apply(l, rnd); err != nil {
		return err
	}
	*flag = true
	return nil
}

// LifelineUsed reports whether l was spent in this game.
func (g *Game) LifelineUsed(l Lifeline) bool {
	flag, err := g.lifelineFlag(l)
	return err == nil && *flag
}

func (g *Game) lifelineFlag(l Lifeline) (*bool, error) {
	switch l {
	case FiftyFifty:
		return &g.FiftyFiftyUsed, nil
	case AudienceHelp:
		return &g.AudienceHelpUsed, nil
	case FriendCall:
		return &g.FriendCallUsed, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownLifeline, l)
}

func (g *Game) finish(prize int, failed bool) {
	finishedAt := g.now()
	g.FinishedAt = &finishedAt
	g.Prize = prize
	g.IsFailed = failed
}

// Clone returns a deep copy that shares no mutable state with g.
func (g *Game) Clone() *Game {
	cp := *g
	cp.Questions = make([]*GameQuestion, len(g.Questions))
	for i, gq := range g.Questions {
		cp.Questions[i] = gq.clone()
	}
	if g.FinishedAt != nil {
		finishedAt := *g.FinishedAt
		cp.FinishedAt = &finishedAt
	}
	return &cp
}
