package domain

import "errors"

var (
	// ErrUserNotFound is returned when a user id is unknown.
	ErrUserNotFound = errors.New("user not found")
	// ErrGameNotFound is returned when a game id is unknown.
	ErrGameNotFound = errors.New("game not found")
	// ErrNotGameOwner is returned when a user acts on someone else's game.
	ErrNotGameOwner = errors.New("game belongs to another user")
	// ErrGameInProgress is returned when a user starts a game while another is unfinished.
	ErrGameInProgress = errors.New("game already in progress")
	// ErrInsufficientQuestions indicates the question bank cannot fill every level.
	ErrInsufficientQuestions = errors.New("insufficient question bank")
	// ErrGameFinished is returned for any mutation of a finished game.
	ErrGameFinished = errors.New("game already finished")
	// ErrTimeLimitExceeded is returned when the action came after the time limit.
	ErrTimeLimitExceeded = errors.New("game time limit exceeded")
	// ErrNothingToCashOut is returned when cashing out before the first correct answer.
	ErrNothingToCashOut = errors.New("no answered questions to cash out")
	// ErrLifelineUsed is returned when a lifeline is requested a second time.
	ErrLifelineUsed = errors.New("lifeline already used")
	// ErrUnknownLifeline is returned for lifeline names outside the known set.
	ErrUnknownLifeline = errors.New("unknown lifeline")
	// ErrLockNotAcquired indicates another request holds the game.
	ErrLockNotAcquired = errors.New("game is busy")
)
