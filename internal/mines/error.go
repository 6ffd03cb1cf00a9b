package mines

import "errors"

var (
	ErrTooManyMines  = errors.New("too many mines for the board")
	ErrBoardTooLarge = errors.New("board too large")
)

type AssertionError struct {
	message string
}

// [AssertionError] implements [error]
func (e AssertionError) Error() string {
	return e.message
}
