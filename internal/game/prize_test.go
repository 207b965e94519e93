package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrizesStrictlyIncrease(t *testing.T) {
	for level := 1; level < QuestionCount; level++ {
		assert.Greater(t, Prizes[level], Prizes[level-1], "level %d", level)
	}
	assert.Equal(t, 1000000, TopPrize())
}

func TestPrizeAt(t *testing.T) {
	assert.Equal(t, 100, PrizeAt(0))
	assert.Equal(t, 1000, PrizeAt(4))
	assert.Equal(t, 0, PrizeAt(-1))
	assert.Equal(t, 0, PrizeAt(QuestionCount))
}

func TestFireproofPrize(t *testing.T) {
	cases := []struct {
		answered int
		want     int
	}{
		{answered: -1, want: 0},
		{answered: 0, want: 0},
		{answered: 3, want: 0},
		{answered: 4, want: 1000},
		{answered: 8, want: 1000},
		{answered: 9, want: 32000},
		{answered: 13, want: 32000},
		{answered: 14, want: 1000000},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FireproofPrize(tc.answered), "answered level %d", tc.answered)
	}
}

func TestCashOutPrize(t *testing.T) {
	assert.Equal(t, 0, CashOutPrize(0))
	assert.Equal(t, 100, CashOutPrize(1))
	assert.Equal(t, 200, CashOutPrize(2))
	assert.Equal(t, 500000, CashOutPrize(14))
}
