package game

import (
	"fmt"
	"strings"
)

// Color identifies a side. NoColor doubles as "no winner" and "draw".
type Color int

const (
	NoColor Color = iota
	Red
	White
)

// Opponent returns the other side. NoColor has no opponent.
func (c Color) Opponent() Color {
	switch c {
	case Red:
		return White
	case White:
		return Red
	default:
		return NoColor
	}
}

// Forward is the row step a man of this color advances by.
// RED starts at the bottom (rows 5-7) and moves toward row 0.
func (c Color) Forward() int {
	if c == Red {
		return -1
	}
	return 1
}

// PromotionRow is the far back rank for this color.
func (c Color) PromotionRow() int {
	if c == Red {
		return 0
	}
	return Size - 1
}

func (c Color) String() string {
	switch c {
	case Red:
		return "RED"
	case White:
		return "WHITE"
	default:
		return "NONE"
	}
}

// ParseColor accepts the labels produced by String, case-insensitively.
func ParseColor(s string) (Color, error) {
	switch strings.ToUpper(s) {
	case "RED":
		return Red, nil
	case "WHITE":
		return White, nil
	default:
		return NoColor, fmt.Errorf("cannot parse color %q: %w", s, ErrUnknownColor)
	}
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	if len(text) == 0 || strings.ToUpper(string(text)) == "NONE" {
		*c = NoColor
		return nil
	}
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
