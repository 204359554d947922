package game

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures reported by the game model.
type ErrorKind string

const (
	// KindValidation covers bad input: coordinates, colours, names, decisions.
	KindValidation ErrorKind = "validation"
	// KindPrecondition covers calls made in the wrong lifecycle state.
	KindPrecondition ErrorKind = "precondition"
)

// Error is the error type returned for user-caused failures. Invariant
// violations are not reported this way; they panic.
type Error struct {
	Kind ErrorKind
	Msg  string
	// Err is the sentinel this error refines, if any.
	Err error
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func validationErr(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// refine adds detail to a sentinel while keeping errors.Is working on it.
func refine(base *Error, format string, args ...interface{}) *Error {
	return &Error{Kind: base.Kind, Msg: base.Msg + ": " + fmt.Sprintf(format, args...), Err: base}
}

func preconditionErr(format string, args ...interface{}) *Error {
	return &Error{Kind: KindPrecondition, Msg: fmt.Sprintf(format, args...)}
}

var (
	ErrOutOfBounds         = validationErr("position is outside the playing board")
	ErrInvalidColour       = validationErr("stone colour must be colourA or colourB")
	ErrOccupied            = validationErr("position is already taken")
	ErrUnknownRuleset      = validationErr("unknown opening ruleset")
	ErrInvalidSwapDecision = validationErr("swap decision must be do_swap, do_not_swap or defer_swap")
	ErrSwapDecisionMissing = validationErr("a swap decision is required before play can continue")

	ErrAlreadyStarted   = preconditionErr("could not start game, as the game was already started")
	ErrGameStarted      = preconditionErr("could not join game, because the requested game is already started")
	ErrGameFinished     = preconditionErr("could not join game, because the requested game is already finished")
	ErrGameFull         = preconditionErr("could not join game, because the max number of players is already reached")
	ErrAlreadyJoined    = preconditionErr("could not join game, because this player is already subscribed to this game")
	ErrPlayerNotFound   = preconditionErr("the requested player was not found in that game")
	ErrNotEnoughPlayers = preconditionErr("you need %d players to start the game", MaxPlayers)
	ErrRulesetNotChosen = preconditionErr("an opening ruleset needs to be chosen before the game can start")
)

// IsValidation reports whether err carries a validation failure.
func IsValidation(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindValidation
}

// IsPrecondition reports whether err carries a precondition failure.
func IsPrecondition(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindPrecondition
}

// DecodeError is returned when a serialized snapshot lacks a required field.
type DecodeError struct {
	Object string
	Field  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to deserialize %s: required field %q is missing", e.Object, e.Field)
}
