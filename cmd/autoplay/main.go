package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/brensch/tron/ai"
	"github.com/brensch/tron/game"
	"github.com/brensch/tron/logging"
	"github.com/brensch/tron/selfplay"
	"github.com/brensch/tron/store"
)

func main() {
	matches := flag.Int("matches", getEnvIntOrDefault("TRON_MATCHES", 20), "Number of matches to play")
	rounds := flag.Int("rounds", getEnvIntOrDefault("TRON_ROUNDS", 10), "Rounds per match")
	levels := flag.String("levels", getEnvOrDefault("TRON_LEVELS", "harder,expert"), "Comma separated AI levels, one per player (names or 0-6)")
	width := flag.Int("width", getEnvIntOrDefault("TRON_WIDTH", 60), "Arena width")
	height := flag.Int("height", getEnvIntOrDefault("TRON_HEIGHT", 30), "Arena height")
	parallel := flag.Int("parallel", getEnvIntOrDefault("TRON_PARALLEL", runtime.NumCPU()), "Matches to run at once")
	seed := flag.Int64("seed", int64(getEnvIntOrDefault("TRON_SEED", 0)), "Seed for the first match (0 uses the clock)")
	outDir := flag.String("out-dir", getEnvOrDefault("TRON_OUT_DIR", ""), "Write every round as parquet under this directory")
	oneShot := flag.Bool("one-shot", getEnvBoolOrDefault("TRON_ONE_SHOT", false), "Buffer rounds in memory and write a single parquet file at the end instead of streaming")
	logLevel := flag.String("log-level", getEnvOrDefault("TRON_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	pretty := flag.Bool("pretty", getEnvBoolOrDefault("TRON_LOG_PRETTY", false), "Indent JSON log records")
	flag.Parse()

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger := logging.New(os.Stderr, level, *pretty)

	lv, err := parseLevels(*levels)
	if err != nil {
		log.Fatalf("Invalid levels: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := selfplay.MatchConfig{
		Arena:  game.Arena{Width: *width, Height: *height},
		Levels: lv,
		Rounds: *rounds,
		Seed:   *seed,
		Logger: logger,
	}

	var (
		writer *store.RoundWriter
		buffer *store.RoundBuffer
	)
	switch {
	case *outDir == "":
	case *oneShot:
		buffer = &store.RoundBuffer{}
		cfg.Recorder = buffer
	default:
		writer, err = store.NewRoundWriter(*outDir)
		if err != nil {
			log.Fatalf("Failed to create round writer: %v", err)
		}
		cfg.Recorder = writer
	}

	logger.Info("starting self-play",
		"matches", *matches,
		"rounds", *rounds,
		"levels", *levels,
		"arena", fmt.Sprintf("%dx%d", *width, *height),
		"parallel", *parallel,
	)
	start := time.Now()

	results, runErr := selfplay.RunMatches(ctx, cfg, *matches, *parallel)

	if writer != nil {
		path, n, err := writer.Finalize()
		if err != nil {
			logger.Error("finalize rounds", "err", err)
		} else if n > 0 {
			logger.Info("rounds written", "path", path, "rows", n)
		}
	}
	if buffer != nil {
		if rows := buffer.Rows(); len(rows) > 0 {
			path, err := store.WriteRoundsParquet(*outDir, "selfplay", rows)
			if err != nil {
				logger.Error("write rounds", "err", err)
			} else {
				logger.Info("rounds written", "path", path, "rows", len(rows))
			}
		}
	}

	if runErr != nil {
		log.Fatalf("Self-play stopped: %v", runErr)
	}

	sum := selfplay.Summarize(results)
	elapsed := time.Since(start)
	logger.Info("self-play complete",
		"matches", sum.Matches,
		"rounds", sum.Rounds,
		"ticks", sum.Ticks,
		"elapsed", elapsed.Round(time.Millisecond),
	)

	fmt.Printf("%-4s %-14s %8s %6s\n", "slot", "level", "points", "wins")
	for i, l := range lv {
		fmt.Printf("%-4d %-14s %8d %6d\n", i, l, sum.Scores[i], sum.Wins[i])
	}
	fmt.Printf("ties: %d  rounds: %d  ticks/s: %.0f\n", sum.Ties, sum.Rounds, float64(sum.Ticks)/elapsed.Seconds())
}

func parseLevels(s string) ([]ai.Level, error) {
	var out []ai.Level
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		l, err := ai.ParseLevel(part)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if len(out) < 2 || len(out) > game.MaxPlayers {
		return nil, fmt.Errorf("need 2-%d levels, got %d", game.MaxPlayers, len(out))
	}
	return out, nil
}
