package game

import (
	"strings"

	"millionaire-service/internal/domain"
)

// Key is the letter an answer option is presented under.
type Key string

const (
	KeyA Key = "a"
	KeyB Key = "b"
	KeyC Key = "c"
	KeyD Key = "d"
)

// Keys lists presentation keys in display order.
var Keys = [domain.AnswerCount]Key{KeyA, KeyB, KeyC, KeyD}

// correctSlot is the canonical position of the right answer in the bank.
const correctSlot = 1

// Rand is the randomness source games draw from. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Perm(n int) []int
}

// ParseKey normalizes a submitted letter. Unknown input yields false.
func ParseKey(raw string) (Key, bool) {
	key := Key(strings.ToLower(strings.TrimSpace(raw)))
	for _, k := range Keys {
		if k == key {
			return key, true
		}
	}
	return "", false
}

// GameQuestion binds a bank question to one level of a game. Slots[i] holds
// the canonical answer slot (1..4) shown under Keys[i]; it is drawn once and
// never reshuffled.
type GameQuestion struct {
	Question domain.Question         `json:"question"`
	Level    int                     `json:"level"`
	Slots    [domain.AnswerCount]int `json:"slots"`
	Help     HelpState               `json:"help"`
}

// NewGameQuestion shuffles the answers of q under the presentation keys.
func NewGameQuestion(q domain.Question, rnd Rand) *GameQuestion {
	gq := &GameQuestion{Question: q, Level: q.Level}
	for i, p := range rnd.Perm(domain.AnswerCount) {
		gq.Slots[i] = p + 1
	}
	return gq
}

// Text is the question prompt.
func (gq *GameQuestion) Text() string {
	return gq.Question.Text
}

// Variants maps every presentation key to the answer text shown under it.
func (gq *GameQuestion) Variants() map[Key]string {
	variants := make(map[Key]string, len(Keys))
	for i, key := range Keys {
		variants[key] = gq.answerForSlot(gq.Slots[i])
	}
	return variants
}

// CorrectKey returns the presentation key holding the right answer.
func (gq *GameQuestion) CorrectKey() Key {
	for i, slot := range gq.Slots {
		if slot == correctSlot {
			return Keys[i]
		}
	}
	return ""
}

// CorrectAnswer returns the text of the right answer.
func (gq *GameQuestion) CorrectAnswer() string {
	return gq.answerForSlot(correctSlot)
}

// AnswerCorrect reports whether the submitted letter is the correct key.
func (gq *GameQuestion) AnswerCorrect(raw string) bool {
	key, ok := ParseKey(raw)
	return ok && key == gq.CorrectKey()
}

func (gq *GameQuestion) answerForSlot(slot int) string {
	if slot < 1 || slot > domain.AnswerCount {
		return ""
	}
	return gq.Question.Answers[slot-1]
}

func (gq *GameQuestion) clone() *GameQuestion {
	cp := *gq
	cp.Help = gq.Help.Clone()
	return &cp
}
