package game

import "errors"

var (
	ErrOutOfBounds  = errors.New("coordinates out of bounds")
	ErrLightSquare  = errors.New("pieces only occupy dark squares")
	ErrOccupied     = errors.New("square is occupied")
	ErrNoPiece      = errors.New("piece is not on the board")
	ErrUnknownColor = errors.New("unknown color")
)
