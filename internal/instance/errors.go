package instance

import "github.com/gomoku/backend/internal/game"

func precondition(msg string) *game.Error {
	return &game.Error{Kind: game.KindPrecondition, Msg: msg}
}

func validation(msg string) *game.Error {
	return &game.Error{Kind: game.KindValidation, Msg: msg}
}

var (
	ErrNotInGame        = precondition("you are not a player in this game")
	ErrNotStarted       = precondition("the round has not started yet")
	ErrNotYourTurn      = precondition("it is not your turn")
	ErrSwapPending      = precondition("a swap decision is pending")
	ErrNoSwapPending    = precondition("there is no swap decision to make")
	ErrRoundInProgress  = precondition("the game mode cannot change while a round is in progress")
	ErrRoundNotFinished = precondition("a rematch can only be requested after the round has finished")
	ErrGameNotFound     = precondition("the requested game does not exist")
	ErrNoOpenGame       = precondition("the player is not in any game")

	ErrWrongColour = validation("you can only place stones of your own colour")
)
