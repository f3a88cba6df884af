package engine

import "errors"

var (
	ErrOutOfBounds         = errors.New("location out of bounds")
	ErrInvalidLineGeometry = errors.New("only straight lines are supported")
	ErrInvalidStart        = errors.New("invalid start position")
	ErrBatteryEmpty        = errors.New("battery empty")
	ErrNotOnCharger        = errors.New("not on a charger")

	ErrSetupClosed      = errors.New("setup already finished")
	ErrGameOver         = errors.New("game is over")
	ErrWrongPhase       = errors.New("command not allowed in current phase")
	ErrUnknownDirection = errors.New("unknown direction")
)
