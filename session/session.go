// Package session owns a running game: it translates input, asks the AI for
// its moves, advances the rules one tick at a time and handles round resets,
// pause and quit.
package session

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/brensch/tron/ai"
	"github.com/brensch/tron/game"
	"github.com/brensch/tron/rules"
)

// RoundEnd describes one finished round.
type RoundEnd struct {
	SessionID string
	Arena     game.Arena
	Levels    []int // AI level per slot, -1 for humans
	Round     int
	Ticks     int
	Crashed   []int
	Scores    []int
	EndedAt   time.Time
}

// Recorder receives every finished round.
type Recorder interface {
	RecordRound(RoundEnd) error
}

// TickResult summarizes one call to Tick.
type TickResult struct {
	Round   int
	Tick    int
	Crashed []int
}

// Snapshot is a deep copy of the session for displays and tests.
type Snapshot struct {
	SessionID string
	Phase     Phase
	State     *game.State
	Slots     []SlotConfig
	LastCrash []int
}

// Session is one configured game between 2-4 players. It is not safe for
// concurrent use; the run loop owns it.
type Session struct {
	ID string

	cfg       Config
	state     *game.State
	rng       *rand.Rand
	phase     Phase
	lastCrash []int
	log       *slog.Logger
}

// New validates cfg and deals the first round.
func New(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configure session: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Session{
		ID:    uuid.NewString(),
		cfg:   cfg,
		state: game.NewState(cfg.Arena, len(cfg.Slots)),
		rng:   rand.New(rand.NewSource(seed)),
		phase: Playing,
	}
	s.log = logger.With("session", s.ID)
	s.log.Info("session started",
		"players", len(cfg.Slots),
		"width", cfg.Arena.Width,
		"height", cfg.Arena.Height,
		"seed", seed,
	)
	return s, nil
}

// Phase is the current lifecycle phase.
func (s *Session) Phase() Phase {
	return s.phase
}

func (s *Session) setPhase(to Phase) {
	next, err := s.phase.Transition(to)
	if err != nil {
		s.log.Warn("ignored phase change", "err", err)
		return
	}
	s.phase = next
}

// Scores returns every player's score in slot order.
func (s *Session) Scores() []int {
	out := make([]int, len(s.state.Players))
	for i, p := range s.state.Players {
		out[i] = p.Score
	}
	return out
}

func (s *Session) levels() []int {
	out := make([]int, len(s.cfg.Slots))
	for i, slot := range s.cfg.Slots {
		out[i] = -1
		if slot.Kind == Computer {
			out[i] = int(slot.Level)
		}
	}
	return out
}

// Snapshot copies the live state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		SessionID: s.ID,
		Phase:     s.phase,
		State:     s.state.Clone(),
		Slots:     append([]SlotConfig(nil), s.cfg.Slots...),
		LastCrash: append([]int(nil), s.lastCrash...),
	}
}

// Steer applies the direction requests carried by keys. For each player the
// first request that changes the heading wins; later requests for that
// player in the same batch are dropped. Reversals and requests for the
// current heading are ignored and do not use up the player's turn.
func (s *Session) Steer(keys []string) {
	accepted := make([]bool, len(s.state.Players))
	for _, key := range keys {
		for i, slot := range s.cfg.Slots {
			if slot.Kind != Human || accepted[i] {
				continue
			}
			d, ok := slot.Keys.Lookup(key)
			if !ok || d == s.state.Players[i].Velocity {
				continue
			}
			accepted[i] = s.state.Players[i].Steer(d)
		}
	}
}

// think asks every computer slot for a heading. All decisions see the same
// pre-tick state and are applied together.
func (s *Session) think() {
	choices := make([]game.Direction, len(s.cfg.Slots))
	for i, slot := range s.cfg.Slots {
		if slot.Kind == Computer {
			choices[i] = ai.Decide(s.state, i, slot.Level, s.rng)
		}
	}
	for i, slot := range s.cfg.Slots {
		if slot.Kind == Computer {
			s.state.Players[i].Steer(choices[i])
		}
	}
}

// Tick runs one simulation step: human input, AI decisions, movement and
// collision. A crash scores the round and resets the board before Tick
// returns. Outside the Playing phase Tick changes nothing.
func (s *Session) Tick(keys []string) TickResult {
	if s.phase != Playing {
		return TickResult{Round: s.state.Round, Tick: s.state.Tick}
	}
	s.Steer(keys)
	s.think()

	out := rules.AdvanceTick(s.state)
	res := TickResult{Round: s.state.Round, Tick: s.state.Tick, Crashed: out.Crashed}
	if !out.Crash() {
		return res
	}

	s.setPhase(RoundReset)
	rules.AwardPoints(s.state, out.Crashed)
	end := RoundEnd{
		SessionID: s.ID,
		Arena:     s.state.Arena,
		Levels:    s.levels(),
		Round:     s.state.Round,
		Ticks:     s.state.Tick,
		Crashed:   out.Crashed,
		Scores:    s.Scores(),
		EndedAt:   time.Now(),
	}
	s.log.Info("round over",
		"round", end.Round,
		"ticks", end.Ticks,
		"crashed", end.Crashed,
		"first_crash", out.First(),
		"scores", end.Scores,
	)
	if s.cfg.Recorder != nil {
		if err := s.cfg.Recorder.RecordRound(end); err != nil {
			s.log.Error("record round", "round", end.Round, "err", err)
		}
	}

	s.lastCrash = out.Crashed
	rules.ResetRound(s.state)
	s.setPhase(Playing)
	return res
}
