package uno

import "errors"

var (
	ErrGameStarted      = errors.New("game already started")
	ErrNotStarted       = errors.New("game not started")
	ErrGameOver         = errors.New("game is over")
	ErrGameFull         = errors.New("game is full")
	ErrNotEnoughPlayers = errors.New("at least 2 players are required")
	ErrDuplicatePlayer  = errors.New("player already in game")
	ErrPlayerNotFound   = errors.New("player not in game")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrInvalidCardIndex = errors.New("no card at that index")
	ErrIllegalCard      = errors.New("card cannot be played on the current discard")
	ErrInvalidColor     = errors.New("invalid color")
	ErrDrawPileEmpty    = errors.New("no cards left to draw")
	ErrCannotCallUno    = errors.New("uno can only be called with exactly one card in hand")
	ErrNoUnoPenalty     = errors.New("player is not open to a missed-uno penalty")
	ErrNoChallenge      = errors.New("no wild draw four to challenge")
	ErrCannotSelfTarget = errors.New("cannot target yourself")
)
