package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Garsondee/Tank-Arena/internal/config"
	"github.com/Garsondee/Tank-Arena/internal/control"
	"github.com/Garsondee/Tank-Arena/internal/game"
	"github.com/Garsondee/Tank-Arena/internal/level"
	"github.com/Garsondee/Tank-Arena/internal/logging"
	"github.com/Garsondee/Tank-Arena/internal/viewer"
)

func main() {
	var configDir, modeName, levelPath string
	flag.StringVar(&configDir, "config", ".", "directory holding "+config.FileName)
	flag.StringVar(&modeName, "mode", "", "override the configured mode: 1p, 2p or demo")
	flag.StringVar(&levelPath, "level", "", "override the configured level file")
	flag.Parse()

	settings, err := config.Load(configDir)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	log, closer, err := logging.Setup(settings.LogLevel, settings.LogsDir, os.Stdout)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	if modeName != "" {
		if settings.Mode, err = game.ParseMode(modeName); err != nil {
			log.Fatal().Err(err).Msg("bad -mode")
		}
	}
	if levelPath != "" {
		settings.Level = levelPath
	}

	lvl, err := level.LoadOrDefault(settings.Level)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load level")
	}
	match, err := game.NewMatch(settings.GameConfig(), lvl.Field(),
		game.WithLogger(log),
		game.WithSimLog(game.NewSimLog(false)),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build match")
	}
	defer match.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	eg, ctx := errgroup.WithContext(ctx)

	if settings.Control.Enabled {
		srv, err := control.NewServer(match, lvl, settings.Control.StatePushInterval, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build control server")
		}
		eg.Go(func() error {
			return srv.ListenAndServe(ctx, settings.Control.Addr)
		})
	}

	g := viewer.New(ctx, match, lvl, viewer.WithLogger(log))
	w, h := g.WindowSize()
	ebiten.SetWindowTitle("Tank Arena - " + lvl.Name)
	ebiten.SetWindowSize(w, h)
	ebiten.SetTPS(settings.TickRate)

	log.Info().Str("level", lvl.Name).Str("mode", string(settings.Mode)).Int("tps", settings.TickRate).Msg("starting")
	runErr := ebiten.RunGame(g)
	stop()

	if err := eg.Wait(); err != nil {
		log.Error().Err(err).Msg("control server failed")
	}
	if runErr != nil && !errors.Is(runErr, ebiten.Termination) {
		log.Fatal().Err(runErr).Msg("game exited")
	}
}
