package apperror

import "errors"

var (
	ErrRoomFull          = errors.New("room is full")
	ErrGameNotInProgress = errors.New("game is not in progress")
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrOutOfRange        = errors.New("cell index is out of range")
	ErrCellOccupied      = errors.New("cell is already occupied")
	ErrUnknownIdentity   = errors.New("identity holds no role")
	ErrUnknownAction     = errors.New("unknown action")
	ErrMalformedPayload  = errors.New("malformed payload")
)
