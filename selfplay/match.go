// Package selfplay runs computer-only matches without a terminal, for
// comparing AI levels and producing round data.
package selfplay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/brensch/tron/ai"
	"github.com/brensch/tron/game"
	"github.com/brensch/tron/session"
)

var ErrRounds = errors.New("rounds must be positive")

// MatchConfig describes one match. Every level gets its own slot in order.
type MatchConfig struct {
	Arena  game.Arena
	Levels []ai.Level
	Rounds int
	// Seed for the first match; later matches offset it. Zero uses the clock.
	Seed     int64
	Logger   *slog.Logger
	Recorder session.Recorder
}

// MatchResult is the outcome of one match.
type MatchResult struct {
	Match     int
	SessionID string
	Levels    []ai.Level
	Scores    []int
	Crashes   []int // rounds in which each slot crashed
	Rounds    int
	Ticks     int
}

// Winner is the slot with the strictly highest score, or -1 on a tie.
func (r MatchResult) Winner() int {
	best, winner := -1, -1
	for i, s := range r.Scores {
		switch {
		case s > best:
			best, winner = s, i
		case s == best:
			winner = -1
		}
	}
	return winner
}

func (c MatchConfig) session(seed int64) (session.Config, error) {
	if c.Rounds <= 0 {
		return session.Config{}, fmt.Errorf("%w: %d", ErrRounds, c.Rounds)
	}
	cfg := session.DefaultConfig(c.Arena)
	for _, l := range c.Levels {
		cfg.Slots = append(cfg.Slots, session.SlotConfig{Kind: session.Computer, Level: l})
	}
	cfg.TickDelay = 0
	cfg.Seed = seed
	cfg.Logger = c.Logger
	cfg.Recorder = c.Recorder
	return cfg, cfg.Validate()
}

// PlayMatch ticks a fresh session as fast as possible until cfg.Rounds
// rounds have ended or ctx is cancelled.
func PlayMatch(ctx context.Context, id int, cfg MatchConfig) (MatchResult, error) {
	seed := cfg.Seed
	if seed != 0 {
		seed += int64(id) * 1000003
	}
	scfg, err := cfg.session(seed)
	if err != nil {
		return MatchResult{}, fmt.Errorf("match %d: %w", id, err)
	}
	s, err := session.New(scfg)
	if err != nil {
		return MatchResult{}, fmt.Errorf("match %d: %w", id, err)
	}

	res := MatchResult{
		Match:     id,
		SessionID: s.ID,
		Levels:    append([]ai.Level(nil), cfg.Levels...),
		Crashes:   make([]int, len(cfg.Levels)),
	}
	for res.Rounds < cfg.Rounds {
		if err := ctx.Err(); err != nil {
			s.End()
			return res, err
		}
		tick := s.Tick(nil)
		res.Ticks++
		if len(tick.Crashed) == 0 {
			continue
		}
		res.Rounds++
		for _, slot := range tick.Crashed {
			res.Crashes[slot]++
		}
	}
	s.End()
	res.Scores = s.Scores()
	return res, nil
}

// RunMatches plays n matches with at most parallel running at once. Results
// are in match order. The first failing match cancels the rest.
func RunMatches(ctx context.Context, cfg MatchConfig, n, parallel int) ([]MatchResult, error) {
	if parallel <= 0 {
		parallel = 1
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	results := make([]MatchResult, n)
	var mu sync.Mutex
	done := 0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			res, err := PlayMatch(ctx, i, cfg)
			if err != nil {
				return err
			}
			results[i] = res

			mu.Lock()
			done++
			finished := done
			mu.Unlock()

			log.Info("match finished",
				"match", i,
				"done", finished,
				"of", n,
				"scores", res.Scores,
				"ticks", res.Ticks,
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summary totals a set of results per slot.
type Summary struct {
	Matches int
	Rounds  int
	Ticks   int
	Scores  []int
	Wins    []int
	Ties    int
}

func Summarize(results []MatchResult) Summary {
	var sum Summary
	for _, r := range results {
		if sum.Scores == nil {
			sum.Scores = make([]int, len(r.Scores))
			sum.Wins = make([]int, len(r.Scores))
		}
		sum.Matches++
		sum.Rounds += r.Rounds
		sum.Ticks += r.Ticks
		for i, s := range r.Scores {
			if i < len(sum.Scores) {
				sum.Scores[i] += s
			}
		}
		if w := r.Winner(); w >= 0 && w < len(sum.Wins) {
			sum.Wins[w]++
		} else {
			sum.Ties++
		}
	}
	return sum
}
