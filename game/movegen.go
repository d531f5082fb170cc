package game

import (
	"checkers/utils"
	"fmt"

	"golang.org/x/exp/slices"
)

// Move is one candidate destination for a piece and the pieces captured on the way.
type Move struct {
	From     Position   `json:"from"`
	To       Position   `json:"to"`
	Path     []Position `json:"path"`     // Landing squares in jump order; the last one is To
	Captured []Piece    `json:"captured"` // In jump order; empty for a simple move
}

func (m Move) IsCapture() bool {
	return len(m.Captured) > 0
}

// MoveSet holds at most one move per destination, in generation order.
type MoveSet []Move

// Lookup returns the move ending on to.
func (ms MoveSet) Lookup(to Position) (Move, bool) {
	i := utils.FindIndex(ms.Destinations(), to)
	if i < 0 {
		return Move{}, false
	}
	return ms[i], true
}

func (ms MoveSet) Destinations() []Position {
	dests := make([]Position, len(ms))
	for i, m := range ms {
		dests[i] = m.To
	}
	return dests
}

type direction struct {
	dRow, dCol int
}

func (p Position) step(d direction) Position {
	return Position{Row: p.Row + d.dRow, Col: p.Col + d.dCol}
}

// directions lists the diagonals a piece may travel: forward for men, all four for kings.
func directions(p Piece) []direction {
	f := p.Color.Forward()
	dirs := []direction{{f, -1}, {f, 1}}
	if p.King {
		dirs = append(dirs, direction{-f, -1}, direction{-f, 1})
	}
	return dirs
}

type generator struct {
	board *Board
	piece Piece
	dirs  []direction
	moves MoveSet
}

// ValidMoves returns every simple move and every capture chain available to p.
// Captures are optional and shorter chains are kept alongside longer ones.
func ValidMoves(b *Board, p Piece) MoveSet {
	g := &generator{
		board: b,
		piece: p,
		dirs:  directions(p),
	}
	for _, d := range g.dirs {
		g.scan(p.Position(), d, nil, nil)
	}
	return g.moves
}

// scan walks one diagonal from from. A chain keeps the vertical direction of the
// jump that started it and continues on both diagonals of that direction.
// captured and path belong to the caller and are never modified here;
// extensions are built on fresh copies.
func (g *generator) scan(from Position, d direction, captured []Piece, path []Position) {
	next := from.step(d)
	if !next.InBounds() {
		return
	}

	target, occupied := g.board.PieceAt(next.Row, next.Col)
	if !occupied {
		if len(captured) == 0 {
			g.add(Move{From: g.piece.Position(), To: next, Path: []Position{next}})
		}
		return
	}
	if target.Color == g.piece.Color || containsPiece(captured, target) {
		return
	}

	landing := next.step(d)
	if !landing.InBounds() {
		return
	}
	if _, blocked := g.board.PieceAt(landing.Row, landing.Col); blocked {
		return
	}

	chain := append(slices.Clone(captured), target)
	route := append(slices.Clone(path), landing)
	g.add(Move{From: g.piece.Position(), To: landing, Path: route, Captured: chain})

	g.scan(landing, direction{d.dRow, -1}, chain, route)
	g.scan(landing, direction{d.dRow, 1}, chain, route)
}

// add registers m, keeping the longer chain when a destination is reached twice.
func (g *generator) add(m Move) {
	for i, existing := range g.moves {
		if existing.To == m.To {
			if len(m.Captured) > len(existing.Captured) {
				g.moves[i] = m
			}
			return
		}
	}
	g.moves = append(g.moves, m)
}

func containsPiece(pieces []Piece, p Piece) bool {
	return slices.ContainsFunc(pieces, func(q Piece) bool {
		return q.Row == p.Row && q.Col == p.Col
	})
}

// AllMoves returns the moves of every piece of c, pieces in row-major order.
func AllMoves(b *Board, c Color) []Move {
	var moves []Move
	for _, p := range b.Pieces(c) {
		moves = append(moves, ValidMoves(b, p)...)
	}
	return moves
}

// HasMoves reports whether any piece of c can move.
func HasMoves(b *Board, c Color) bool {
	for _, p := range b.Pieces(c) {
		if len(ValidMoves(b, p)) > 0 {
			return true
		}
	}
	return false
}

// Apply executes m on b: the moving piece travels to m.To and captures are removed.
func Apply(b *Board, m Move) (Piece, error) {
	p, ok := b.PieceAt(m.From.Row, m.From.Col)
	if !ok {
		return Piece{}, fmt.Errorf("cannot apply move from %s: %w", m.From, ErrNoPiece)
	}
	moved, err := b.Move(p, m.To.Row, m.To.Col)
	if err != nil {
		return p, err
	}
	if err := b.Remove(m.Captured); err != nil {
		return moved, err
	}
	return moved, nil
}
