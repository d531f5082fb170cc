package searcher

import (
	"errors"
	"fmt"
	"strings"

	"checkers/meta"
)

var ErrUnknownDifficulty = errors.New("unknown difficulty")

// Difficulty is an AI strength tier; each maps to a fixed search depth.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

func (d Difficulty) Depth() int {
	switch d {
	case Easy:
		return meta.EASY_DEPTH
	case Hard:
		return meta.HARD_DEPTH
	default:
		return meta.MEDIUM_DEPTH
	}
}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return fmt.Sprintf("difficulty(%d)", int(d))
	}
}

func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	default:
		return Medium, fmt.Errorf("cannot parse %q: %w", s, ErrUnknownDifficulty)
	}
}
