package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"checkers/engine"
	"checkers/game"
	"checkers/meta"
	"checkers/searcher"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Mode       string `yaml:"mode"`
	Difficulty string `yaml:"difficulty"`
	AIColor    string `yaml:"ai_color"`
	BatchSize  int    `yaml:"batch_size"`
	DrawCap    int    `yaml:"draw_cap"`
	Listen     string `yaml:"listen"`
	LogLevel   string `yaml:"log_level"`

	Stats      Stats      `yaml:"stats"`
	Experiment Experiment `yaml:"experiment"`
}

// Stats configures where finished game outcomes go. An empty URL keeps them local.
type Stats struct {
	URL     string        `yaml:"url"`
	User    string        `yaml:"user"`
	Timeout time.Duration `yaml:"timeout"`
}

type Experiment struct {
	Games            int    `yaml:"games"`
	Concurrency      int    `yaml:"concurrency"`
	OpeningPlies     int    `yaml:"opening_plies"`
	EstimatePlayouts int    `yaml:"estimate_playouts"` // 0 skips the opening estimate
	MaxTurns         int    `yaml:"max_turns"`
	Seed             uint64 `yaml:"seed"`
	OutputDir        string `yaml:"output_dir"`
}

// Game is the typed form of the game settings.
type Game struct {
	Mode       engine.Mode
	Difficulty searcher.Difficulty
	AIColor    game.Color
	BatchSize  int
	DrawCap    int
}

func Default() Config {
	return Config{
		Mode:       engine.HumanVsAI.String(),
		Difficulty: searcher.Medium.String(),
		AIColor:    game.White.String(),
		BatchSize:  meta.BATCH_SIZE,
		DrawCap:    meta.DRAW_CAP,
		Listen:     meta.LISTEN_ADDR,
		LogLevel:   zerolog.InfoLevel.String(),
		Stats: Stats{
			Timeout: 5 * time.Second,
		},
		Experiment: Experiment{
			Games:            10,
			Concurrency:      4,
			OpeningPlies:     4,
			EstimatePlayouts: 100,
			MaxTurns:         meta.MAX_TURNS,
			Seed:             1,
			OutputDir:        "results",
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("cannot read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("cannot parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := c.Game(); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w: %v", ErrInvalid, err)
	}
	if c.Listen == "" {
		return fmt.Errorf("listen: %w: empty address", ErrInvalid)
	}
	if c.Experiment.Games <= 0 {
		return fmt.Errorf("experiment.games: %w: must be positive", ErrInvalid)
	}
	if c.Experiment.Concurrency <= 0 {
		return fmt.Errorf("experiment.concurrency: %w: must be positive", ErrInvalid)
	}
	if c.Experiment.OpeningPlies < 0 {
		return fmt.Errorf("experiment.opening_plies: %w: must not be negative", ErrInvalid)
	}
	if c.Experiment.EstimatePlayouts < 0 {
		return fmt.Errorf("experiment.estimate_playouts: %w: must not be negative", ErrInvalid)
	}
	if c.Experiment.MaxTurns <= 0 {
		return fmt.Errorf("experiment.max_turns: %w: must be positive", ErrInvalid)
	}
	return nil
}

// Game parses the game settings.
func (c Config) Game() (Game, error) {
	mode, err := engine.ParseMode(c.Mode)
	if err != nil {
		return Game{}, fmt.Errorf("mode: %w: %v", ErrInvalid, err)
	}
	difficulty, err := searcher.ParseDifficulty(c.Difficulty)
	if err != nil {
		return Game{}, fmt.Errorf("difficulty: %w: %v", ErrInvalid, err)
	}
	color, err := game.ParseColor(c.AIColor)
	if err != nil {
		return Game{}, fmt.Errorf("ai_color: %w: %v", ErrInvalid, err)
	}
	if c.BatchSize <= 0 {
		return Game{}, fmt.Errorf("batch_size: %w: must be positive", ErrInvalid)
	}
	if c.DrawCap <= 0 {
		return Game{}, fmt.Errorf("draw_cap: %w: must be positive", ErrInvalid)
	}
	return Game{
		Mode:       mode,
		Difficulty: difficulty,
		AIColor:    color,
		BatchSize:  c.BatchSize,
		DrawCap:    c.DrawCap,
	}, nil
}

func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
