package game

// Prizes maps a level index to the amount won for answering it.
var Prizes = [QuestionCount]int{
	100, 200, 300, 500, 1000,
	2000, 4000, 8000, 16000, 32000,
	64000, 125000, 250000, 500000, 1000000,
}

// FireproofLevels are the checkpoints whose prize survives a later failure.
var FireproofLevels = []int{4, 9, 14}

// PrizeAt returns the prize for a level index, or 0 outside the ladder.
func PrizeAt(level int) int {
	if level < 0 || level > MaxLevel {
		return 0
	}
	return Prizes[level]
}

// TopPrize is the prize for answering the last question.
func TopPrize() int {
	return Prizes[MaxLevel]
}

// FireproofPrize returns the guaranteed prize once answeredLevel was passed:
// the highest checkpoint at or below it, or 0 when none was reached.
func FireproofPrize(answeredLevel int) int {
	prize := 0
	for _, lvl := range FireproofLevels {
		if lvl <= answeredLevel {
			prize = PrizeAt(lvl)
		}
	}
	return prize
}

// CashOutPrize returns what a player walking away at currentLevel takes home,
// the prize of the last level already passed.
func CashOutPrize(currentLevel int) int {
	return PrizeAt(currentLevel - 1)
}
