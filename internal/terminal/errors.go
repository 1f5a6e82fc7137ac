package terminal

import "errors"

var (
	ErrTerminalDeactivated = errors.New("terminal has been deactivated, please log in again")
	ErrTooManyTerminals    = errors.New("terminal limit reached")
)
