package session

import "errors"

var (
	ErrConnect           = errors.New("session: connect failed")
	ErrConnectTimeout    = errors.New("session: connect timed out")
	ErrTransportLoss     = errors.New("session: transport lost")
	ErrStalled           = errors.New("session: stalled on binary window")
	ErrDied              = errors.New("session: tracked entity died")
	ErrInvalidTransition = errors.New("session: invalid state transition")
	ErrEmailRequired     = errors.New("session: email required")
)
