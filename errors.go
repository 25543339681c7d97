package uno

import "github.com/pkg/errors"

// Every command failure wraps exactly one of these. Callers use errors.Is.
var (
	ErrIllegalMove   = errors.New("illegal move")
	ErrInvalidState  = errors.New("invalid state")
	ErrDeckExhausted = errors.New("deck exhausted")
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
	ErrCorruptSave   = errors.New("corrupt save")
)

// ErrGameOver is returned by every command except NewGame once the game has ended.
var ErrGameOver = errors.Wrap(ErrInvalidState, "game is over")

func illegalMove(format string, args ...interface{}) error {
	return errors.Wrapf(ErrIllegalMove, format, args...)
}

func invalidState(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidState, format, args...)
}

func corruptSave(format string, args ...interface{}) error {
	return errors.Wrapf(ErrCorruptSave, format, args...)
}
