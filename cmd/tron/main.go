package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/tron/game"
	"github.com/brensch/tron/logging"
	"github.com/brensch/tron/session"
	"github.com/brensch/tron/store"
	"github.com/brensch/tron/tui"
)

func main() {
	width := flag.Int("width", getEnvIntOrDefault("TRON_WIDTH", 0), "Arena width (0 follows the terminal)")
	height := flag.Int("height", getEnvIntOrDefault("TRON_HEIGHT", 0), "Arena height (0 follows the terminal)")
	tick := flag.Duration("tick", getEnvDurationOrDefault("TRON_TICK", session.DefaultTickDelay), "Delay between ticks")
	seed := flag.Int64("seed", int64(getEnvIntOrDefault("TRON_SEED", 0)), "AI random seed (0 uses the clock)")
	logFile := flag.String("log-file", getEnvOrDefault("TRON_LOG_FILE", ""), "Write logs to this file (empty discards them)")
	logLevel := flag.String("log-level", getEnvOrDefault("TRON_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	recordDir := flag.String("record-dir", getEnvOrDefault("TRON_RECORD_DIR", ""), "Write finished rounds as parquet under this directory")
	flag.Parse()

	arena, err := fixedArena(*width, *height)
	if err != nil {
		log.Fatalf("Invalid arena: %v", err)
	}

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	// The terminal belongs to the board, so logs only ever go to a file.
	logger, closeLog, err := logging.Open(*logFile, level, false)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}

	opts := tui.Options{
		Arena:     arena,
		TickDelay: *tick,
		Seed:      *seed,
		Logger:    logger,
	}

	var rounds *store.RoundWriter
	if *recordDir != "" {
		rounds, err = store.NewRoundWriter(*recordDir)
		if err != nil {
			_ = closeLog()
			log.Fatalf("Failed to create round writer: %v", err)
		}
		opts.Recorder = rounds
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting", "arena", fmt.Sprintf("%dx%d", *width, *height), "tick", tick.String(), "record_dir", *recordDir)
	start := time.Now()

	p := tea.NewProgram(tui.New(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if m, ok := final.(tui.Model); ok {
		m.Stop()
	}
	if err != nil {
		logger.Error("program exited", "err", err)
	}

	if rounds != nil {
		path, n, ferr := rounds.Finalize()
		switch {
		case ferr != nil:
			logger.Error("finalize rounds", "err", ferr)
		case n > 0:
			fmt.Printf("wrote %d rounds to %s\n", n, path)
		}
	}
	logger.Info("exiting", "uptime", time.Since(start).Round(time.Second))
	if cerr := closeLog(); cerr != nil {
		fmt.Fprintf(os.Stderr, "close log: %v\n", cerr)
	}

	if err != nil && ctx.Err() == nil {
		log.Fatalf("tron: %v", err)
	}
}

// fixedArena turns the size flags into an arena. Both zero means follow the
// terminal window.
func fixedArena(width, height int) (game.Arena, error) {
	if (width == 0) != (height == 0) {
		return game.Arena{}, fmt.Errorf("set both width and height, or neither (got %dx%d)", width, height)
	}
	if width == 0 {
		return game.Arena{}, nil
	}
	if width < session.MinArenaSide || height < session.MinArenaSide {
		return game.Arena{}, fmt.Errorf("%w: %dx%d, want at least %dx%d", session.ErrArena, width, height, session.MinArenaSide, session.MinArenaSide)
	}
	return game.Arena{Width: width, Height: height}, nil
}
