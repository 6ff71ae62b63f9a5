package game

import "errors"

var (
	// ErrEmptyPool is returned by Draw once all 75 numbers have been called.
	// The round cannot continue until it is reset.
	ErrEmptyPool = errors.New("draw pool is empty")
	// ErrNotPlaying is returned when a number is requested while the round
	// is not running.
	ErrNotPlaying = errors.New("round is not playing")
	// ErrInvalidState is returned when a claim arrives outside a live round.
	ErrInvalidState = errors.New("invalid session state")
	// ErrIllegalTransition is returned for lifecycle moves the state machine
	// does not allow.
	ErrIllegalTransition = errors.New("illegal session transition")
	// ErrNotConfigured is returned by Start before stake, players and
	// pattern have been set.
	ErrNotConfigured = errors.New("session is not configured")
	// ErrInvalidSettings is returned by Configure for a non-positive stake or
	// player count.
	ErrInvalidSettings = errors.New("invalid session settings")

	ErrInvalidCard     = errors.New("invalid card")
	ErrCardNotFound    = errors.New("card not found")
	ErrDuplicateCard   = errors.New("card already exists")
	ErrPatternNotFound = errors.New("pattern not found")
	ErrInvalidPattern  = errors.New("invalid pattern")

	ErrNotAWinner = errors.New("card does not satisfy the pattern")
	ErrAlreadyWon = errors.New("round already has a verified winner")
	// ErrCardLocked is returned when a card that already made a false claim
	// in this round claims again and the session locks false claimants.
	ErrCardLocked = errors.New("card is locked for this round")
)
