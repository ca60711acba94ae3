// Package main provides the worldcheck binary: it loads a world content tree
// the same way the game engine does and reports what loaded, making broken
// area and room files visible before a deploy.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/lanternmud/lantern/internal/config"
	"github.com/lanternmud/lantern/internal/game/world"
	"github.com/lanternmud/lantern/internal/observability"
	"github.com/lanternmud/lantern/internal/scripting"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	areasDir := flag.String("areas", "", "areas directory override; empty = use config")
	verbose := flag.Bool("verbose", false, "log every area and room as it loads")
	dump := flag.Bool("dump", false, "print a locale-resolved snapshot of every loaded room")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	var logger *zap.Logger
	if *verbose {
		logger = observability.NewVerbose()
	} else {
		logger, err = observability.NewLogger(cfg.Logging)
		if err != nil {
			log.Fatalf("initializing logger: %v", err)
		}
	}
	defer logger.Sync()

	root := cfg.Content.AreasDir
	if *areasDir != "" {
		root = *areasDir
	}

	attacher := scripting.NewAttacher(logger, cfg.Scripts.InstructionLimit)
	defer attacher.Close()

	loader := world.NewLoader(world.LoaderConfig{
		Root:         root,
		ManifestName: cfg.Content.ManifestName,
		L10nDir:      cfg.Scripts.L10nDir,
		ScriptDir:    cfg.Scripts.BehaviorDir,
	}, attacher, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	idx, err := loader.Load(ctx, nil)
	if err != nil {
		logger.Fatal("loading world", zap.Error(err))
	}

	logger.Info("world loaded",
		zap.Int("areas", idx.AreaCount()),
		zap.Int("rooms", idx.RoomCount()),
		zap.Duration("elapsed", time.Since(start)),
	)

	if *dump {
		enc := yaml.NewEncoder(os.Stdout)
		for _, room := range idx.AllRooms() {
			view := room.Flatten(cfg.Locale.Default)
			if err := enc.Encode(view); err != nil {
				logger.Fatal("encoding room snapshot",
					zap.String("location", string(room.Location())),
					zap.Error(err),
				)
			}
		}
		if err := enc.Close(); err != nil {
			logger.Fatal("flushing snapshot output", zap.Error(err))
		}
	}
}
