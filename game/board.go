package game

import (
	"fmt"
	"strings"
)

const (
	Size          = 8
	PiecesPerSide = 12
)

// Position is a square on the board, row 0 at the top (WHITE's back rank).
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) InBounds() bool {
	return p.Row >= 0 && p.Row < Size && p.Col >= 0 && p.Col < Size
}

// IsDark reports whether the square is playable.
func (p Position) IsDark() bool {
	return (p.Row+p.Col)%2 == 1
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Piece is stored by value inside a Cell, so copying a Board never aliases pieces.
type Piece struct {
	Color Color `json:"color"`
	Row   int   `json:"row"`
	Col   int   `json:"col"`
	King  bool  `json:"king"`
}

func (p Piece) Position() Position {
	return Position{Row: p.Row, Col: p.Col}
}

func (p Piece) String() string {
	kind := "man"
	if p.King {
		kind = "king"
	}
	return fmt.Sprintf("%s %s at %s", p.Color, kind, p.Position())
}

// Cell is either empty or occupied by exactly one piece.
type Cell struct {
	piece    Piece
	occupied bool
}

func Occupied(p Piece) Cell {
	return Cell{piece: p, occupied: true}
}

func (c Cell) Piece() (Piece, bool) {
	return c.piece, c.occupied
}

func (c Cell) IsEmpty() bool {
	return !c.occupied
}

// Board owns the grid and the per-color live and king counts.
type Board struct {
	cells      [Size][Size]Cell
	redLeft    int
	whiteLeft  int
	redKings   int
	whiteKings int
}

// EmptyBoard returns a board with no pieces, for setting up custom positions.
func EmptyBoard() *Board {
	return &Board{}
}

// NewBoard returns the starting layout: WHITE on rows 0-2, RED on rows 5-7.
func NewBoard() *Board {
	b := EmptyBoard()
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			pos := Position{Row: row, Col: col}
			if !pos.IsDark() {
				continue
			}
			switch {
			case row < 3:
				b.put(Piece{Color: White, Row: row, Col: col})
			case row > 4:
				b.put(Piece{Color: Red, Row: row, Col: col})
			}
		}
	}
	return b
}

// Place puts a piece on an empty dark square and updates the counts.
func (b *Board) Place(p Piece) error {
	if p.Color != Red && p.Color != White {
		return fmt.Errorf("cannot place piece at %s: %w", p.Position(), ErrUnknownColor)
	}
	if err := checkSquare(p.Position()); err != nil {
		return fmt.Errorf("cannot place piece: %w", err)
	}
	if !b.cells[p.Row][p.Col].IsEmpty() {
		return fmt.Errorf("cannot place piece at %s: %w", p.Position(), ErrOccupied)
	}
	b.put(p)
	return nil
}

func (b *Board) put(p Piece) {
	b.cells[p.Row][p.Col] = Occupied(p)
	b.adjust(p.Color, 1, p.King)
}

func (b *Board) adjust(c Color, delta int, king bool) {
	switch c {
	case Red:
		b.redLeft += delta
		if king {
			b.redKings += delta
		}
	case White:
		b.whiteLeft += delta
		if king {
			b.whiteKings += delta
		}
	}
}

func checkSquare(pos Position) error {
	if !pos.InBounds() {
		return fmt.Errorf("%s: %w", pos, ErrOutOfBounds)
	}
	if !pos.IsDark() {
		return fmt.Errorf("%s: %w", pos, ErrLightSquare)
	}
	return nil
}

// PieceAt returns the piece on a square. Squares outside the board read as empty.
func (b *Board) PieceAt(row, col int) (Piece, bool) {
	if !(Position{Row: row, Col: col}).InBounds() {
		return Piece{}, false
	}
	return b.cells[row][col].Piece()
}

// Cell returns the raw cell; out-of-range squares read as empty.
func (b *Board) Cell(row, col int) Cell {
	if !(Position{Row: row, Col: col}).InBounds() {
		return Cell{}
	}
	return b.cells[row][col]
}

// Move relocates p to (row, col) and promotes it when it first reaches its
// promotion row. The returned piece reflects the new position and king flag.
func (b *Board) Move(p Piece, row, col int) (Piece, error) {
	to := Position{Row: row, Col: col}
	if err := checkSquare(to); err != nil {
		return p, fmt.Errorf("cannot move %s: %w", p, err)
	}
	current, ok := b.PieceAt(p.Row, p.Col)
	if !ok || current.Color != p.Color {
		return p, fmt.Errorf("cannot move %s: %w", p, ErrNoPiece)
	}
	if !b.cells[row][col].IsEmpty() {
		return p, fmt.Errorf("cannot move %s to %s: %w", p, to, ErrOccupied)
	}

	b.cells[current.Row][current.Col], b.cells[row][col] = b.cells[row][col], b.cells[current.Row][current.Col]
	current.Row, current.Col = row, col
	if row == current.Color.PromotionRow() && !current.King {
		current.King = true
		if current.Color == Red {
			b.redKings++
		} else {
			b.whiteKings++
		}
	}
	b.cells[row][col] = Occupied(current)
	return current, nil
}

// Remove takes captured pieces off the board.
func (b *Board) Remove(pieces []Piece) error {
	for _, p := range pieces {
		if err := checkSquare(p.Position()); err != nil {
			return fmt.Errorf("cannot remove piece: %w", err)
		}
		current, ok := b.cells[p.Row][p.Col].Piece()
		if !ok || current.Color != p.Color {
			return fmt.Errorf("cannot remove %s: %w", p, ErrNoPiece)
		}
		b.cells[p.Row][p.Col] = Cell{}
		b.adjust(current.Color, -1, current.King)
	}
	return nil
}

// Copy returns a deep copy. Cells hold pieces by value, so a struct copy suffices.
func (b *Board) Copy() *Board {
	cp := *b
	return &cp
}

// Pieces returns the pieces of one color in row-major order.
func (b *Board) Pieces(c Color) []Piece {
	pieces := make([]Piece, 0, b.Count(c))
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if p, ok := b.cells[row][col].Piece(); ok && p.Color == c {
				pieces = append(pieces, p)
			}
		}
	}
	return pieces
}

// Count is the number of live pieces of a color.
func (b *Board) Count(c Color) int {
	switch c {
	case Red:
		return b.redLeft
	case White:
		return b.whiteLeft
	default:
		return 0
	}
}

// Kings is the number of kings of a color.
func (b *Board) Kings(c Color) int {
	switch c {
	case Red:
		return b.redKings
	case White:
		return b.whiteKings
	default:
		return 0
	}
}

// String draws the board: r/w for men, R/W for kings, '.' for empty dark squares.
func (b *Board) String() string {
	var sb strings.Builder
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			p, ok := b.cells[row][col].Piece()
			switch {
			case ok:
				sb.WriteByte(pieceGlyph(p))
			case (Position{Row: row, Col: col}).IsDark():
				sb.WriteByte('.')
			default:
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func pieceGlyph(p Piece) byte {
	glyph := byte('r')
	if p.Color == White {
		glyph = 'w'
	}
	if p.King {
		glyph -= 'a' - 'A'
	}
	return glyph
}
