package game

import "math"

const (
	kingWeight       = 0.5
	advanceWeight    = 0.05
	centerWeight     = 0.02
	maxCenterReward  = 7.0
	boardCenterIndex = 3.5
)

// Evaluate scores the board from RED's point of view: positive favours RED,
// negative favours WHITE. Material dominates; advancement toward the promotion
// row and proximity to the center break ties.
func (b *Board) Evaluate() float64 {
	material := float64(b.redLeft - b.whiteLeft)
	kings := float64(b.redKings-b.whiteKings) * kingWeight

	positional := 0.0
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			p, ok := b.cells[row][col].Piece()
			if !ok {
				continue
			}
			score := positionalScore(p)
			if p.Color == Red {
				positional += score
			} else {
				positional -= score
			}
		}
	}

	return material + kings + positional
}

// positionalScore is the unsigned bonus a piece earns for its square.
func positionalScore(p Piece) float64 {
	advanced := p.Row
	if p.Color == Red {
		advanced = Size - 1 - p.Row
	}
	centerDistance := math.Abs(float64(p.Col)-boardCenterIndex) + math.Abs(float64(p.Row)-boardCenterIndex)
	return float64(advanced)*advanceWeight + (maxCenterReward-centerDistance)*centerWeight
}

// EvaluateFor returns the evaluation sign-adjusted so that c is maximized.
func (b *Board) EvaluateFor(c Color) float64 {
	if c == White {
		return -b.Evaluate()
	}
	return b.Evaluate()
}
