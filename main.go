package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkers/communication"
	"checkers/config"
	"checkers/engine"
	"checkers/experiments"
	"checkers/game"
	"checkers/gamemaster"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	user := flag.String("user", "", "Player name sent with game outcomes")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] serve|experiment|watch\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	zerolog.SetGlobalLevel(cfg.Level())
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command := flag.Arg(0); command {
	case "", "serve":
		err = serve(ctx, cfg, *user)
	case "experiment":
		err = experiment(ctx, cfg)
	case "watch":
		err = watch(cfg)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("checkers stopped")
	}
}

func reporter(cfg config.Config, user string) engine.Reporter {
	if user == "" {
		user = cfg.Stats.User
	}
	if cfg.Stats.URL == "" {
		return communication.NewLogReporter(user)
	}
	return communication.NewHTTPReporter(cfg.Stats.URL, user, cfg.Stats.Timeout)
}

func serve(ctx context.Context, cfg config.Config, user string) error {
	settings, err := cfg.Game()
	if err != nil {
		return err
	}
	server := gamemaster.NewServer(settings, reporter(cfg, user))

	errs := make(chan error, 1)
	go func() {
		errs <- server.Listen(cfg.Listen)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		return server.Shutdown()
	}
}

func experiment(ctx context.Context, cfg config.Config) error {
	summary, err := experiments.RunDifficulty(ctx, experiments.OptionsFrom(cfg.Experiment))
	if err != nil {
		return err
	}
	log.Info().Msgf("%d games, %d moves, wins per agent: %v", len(summary.Games), summary.Moves, summary.Wins)
	return nil
}

// watch plays one ai_vs_ai game at the configured difficulty and prints the
// final board.
func watch(cfg config.Config) error {
	settings, err := cfg.Game()
	if err != nil {
		return err
	}
	e, err := engine.New(
		engine.WithMode(engine.AIVsAI),
		engine.WithAI(game.Red, settings.Difficulty),
		engine.WithAI(game.White, settings.Difficulty),
		engine.WithMaxTurns(cfg.Experiment.MaxTurns),
	)
	if err != nil {
		return err
	}
	winner, gameMetric, _ := e.Run()
	fmt.Println(e.Board())
	log.Info().Msgf("winner: %s after %d moves in %s", winner, gameMetric.TotalMoves, gameMetric.Duration)
	return nil
}
