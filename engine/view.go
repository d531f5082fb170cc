package engine

import (
	"checkers/game"
)

// Estimate is the display form of a Monte Carlo result.
type Estimate struct {
	Red   float64 `json:"red"`
	White float64 `json:"white"`
	Draw  float64 `json:"draw"`
	Total int     `json:"total"`
}

// View is everything a display needs to draw the game.
type View struct {
	Pieces       []game.Piece    `json:"pieces"`
	Turn         game.Color      `json:"turn"`
	Mode         string          `json:"mode"`
	Selected     *game.Position  `json:"selected,omitempty"`
	Destinations []game.Position `json:"destinations"`
	GameOver     bool            `json:"game_over"`
	Winner       string          `json:"winner,omitempty"`
	Estimate     Estimate        `json:"estimate"`
	CanUndo      bool            `json:"can_undo"`
	CanRedo      bool            `json:"can_redo"`
}

func (e *Engine) View() View {
	v := View{
		Pieces:       append(e.board.Pieces(game.Red), e.board.Pieces(game.White)...),
		Turn:         e.turn,
		Mode:         e.mode.String(),
		Destinations: []game.Position{},
		GameOver:     e.status == GameOver,
		Winner:       e.WinnerLabel(),
		CanUndo:      e.CanUndo(),
		CanRedo:      e.CanRedo(),
	}
	if e.hasSelected {
		pos := e.selected.Position()
		v.Selected = &pos
		v.Destinations = e.moves.Destinations()
	}
	if e.estimator != nil {
		r := e.estimator.Result()
		v.Estimate.Red, v.Estimate.White, v.Estimate.Draw = r.Percentages()
		v.Estimate.Total = r.Total
	}
	return v
}
