package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/brensch/tron/ai"
	"github.com/brensch/tron/game"
)

var (
	wasd = KeyMap{Up: "w", Down: "s", Left: "a", Right: "d"}
	ijkl = KeyMap{Up: "i", Down: "k", Left: "j", Right: "l"}
)

func hotSeat(t *testing.T) *Session {
	t.Helper()
	cfg := HotSeat(game.Arena{Width: 20, Height: 10}, []KeyMap{wasd, ijkl})
	cfg.TickDelay = 0
	cfg.PausePoll = 0
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestConfig_Validate(t *testing.T) {
	arena := game.Arena{Width: 20, Height: 10}
	cases := []struct {
		name string
		edit func(c *Config)
		want error
	}{
		{"ok versus ai", func(c *Config) {}, nil},
		{"one player", func(c *Config) { c.Slots = c.Slots[:1] }, ErrPlayerCount},
		{"five players", func(c *Config) {
			for i := 0; i < 3; i++ {
				c.Slots = append(c.Slots, SlotConfig{Kind: Computer})
			}
		}, ErrPlayerCount},
		{"small arena", func(c *Config) { c.Arena = game.Arena{Width: 6, Height: 20} }, ErrArena},
		{"missing key", func(c *Config) { c.Slots[0].Keys.Left = "" }, ErrKeyMap},
		{"repeated key", func(c *Config) { c.Slots[0].Keys.Left = "up" }, ErrKeyMap},
		{"key shared between players", func(c *Config) {
			c.Slots[1] = SlotConfig{Kind: Human, Keys: KeyMap{Up: "up", Down: "k", Left: "j", Right: "l"}}
		}, ErrKeyMap},
		{"key steals pause", func(c *Config) { c.Slots[0].Keys.Up = DefaultPauseKey }, ErrKeyMap},
		{"key steals quit", func(c *Config) { c.Slots[0].Keys.Up = "esc" }, ErrKeyMap},
		{"bad level", func(c *Config) { c.Slots[1].Level = ai.Level(7) }, ErrLevel},
		{"negative delay", func(c *Config) { c.TickDelay = -1 }, ErrTiming},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := VersusAI(arena, ai.LevelMedium)
			tc.edit(&cfg)
			err := cfg.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("Validate=%v want %v", err, tc.want)
			}
			if _, err := New(cfg); !errors.Is(err, tc.want) {
				t.Fatalf("New=%v want %v", err, tc.want)
			}
		})
	}
}

// Scenario D: of several requests in one tick, the first accepted one wins.
func TestTick_FirstAcceptedRequestWins(t *testing.T) {
	s := hotSeat(t)
	s.Tick([]string{"w", "s", "a"})
	if got := s.state.Players[0].Velocity; got != game.Up {
		t.Fatalf("velocity=%s want=up", got)
	}
	if got, want := s.state.Players[0].Position, (game.Point{X: 5, Y: 4}); got != want {
		t.Fatalf("position=%v want=%v", got, want)
	}

	// Reversal (s) is refused and does not use up the player's turn.
	s.Tick([]string{"s", "d", "a"})
	if got := s.state.Players[0].Velocity; got != game.Right {
		t.Fatalf("velocity=%s want=right", got)
	}
}

func TestTick_CurrentHeadingDoesNotUseTurn(t *testing.T) {
	s := hotSeat(t)
	// Player 0 already heads right; "d" changes nothing so "w" still counts.
	s.Tick([]string{"d", "w"})
	if got := s.state.Players[0].Velocity; got != game.Up {
		t.Fatalf("velocity=%s want=up", got)
	}

	// Once a real change is accepted, later requests in the batch are dropped.
	s.Tick([]string{"w", "a", "d"})
	if got := s.state.Players[0].Velocity; got != game.Left {
		t.Fatalf("velocity=%s want=left", got)
	}
}

func TestTick_OppositeRequestIgnored(t *testing.T) {
	s := hotSeat(t)
	s.Tick([]string{"a", "l"})
	if got := s.state.Players[0].Velocity; got != game.Right {
		t.Fatalf("p0 velocity=%s want=right", got)
	}
	if got := s.state.Players[1].Velocity; got != game.Left {
		t.Fatalf("p1 velocity=%s want=left", got)
	}
}

func TestTick_KeysOnlySteerTheirOwner(t *testing.T) {
	s := hotSeat(t)
	s.Tick([]string{"i"})
	if s.state.Players[0].Velocity != game.Right || s.state.Players[1].Velocity != game.Up {
		t.Fatalf("velocities=%s,%s want right,up", s.state.Players[0].Velocity, s.state.Players[1].Velocity)
	}
}

type roundLog struct {
	rounds []RoundEnd
}

func (r *roundLog) RecordRound(e RoundEnd) error {
	r.rounds = append(r.rounds, e)
	return nil
}

func TestTick_CrashScoresAndResets(t *testing.T) {
	rec := &roundLog{}
	cfg := HotSeat(game.Arena{Width: 20, Height: 10}, []KeyMap{wasd, ijkl})
	cfg.TickDelay = 0
	cfg.Recorder = rec
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Player 0 turns up from (5,5) and meets the wall on the fifth tick.
	var res TickResult
	keys := []string{"w"}
	for i := 0; i < 5; i++ {
		res = s.Tick(keys)
		keys = nil
		if i < 4 && len(res.Crashed) > 0 {
			t.Fatalf("tick %d crashed early: %v", i+1, res.Crashed)
		}
	}

	if len(res.Crashed) != 1 || res.Crashed[0] != 0 {
		t.Fatalf("crashed=%v want=[0]", res.Crashed)
	}
	if got := s.Scores(); got[0] != 0 || got[1] != 1 {
		t.Fatalf("scores=%v want=[0 1]", got)
	}

	snap := s.Snapshot()
	if snap.State.Round != 1 || snap.State.Tick != 0 {
		t.Fatalf("round=%d tick=%d want 1/0", snap.State.Round, snap.State.Tick)
	}
	if snap.Phase != Playing {
		t.Fatalf("phase=%s want=playing", snap.Phase)
	}
	for i, p := range snap.State.Players {
		if p.Trail.Size() != 0 {
			t.Fatalf("player %d trail=%d want empty", i, p.Trail.Size())
		}
		st := game.StartFor(snap.State.Arena, i)
		if p.Position != st.Position || p.Velocity != st.Velocity {
			t.Fatalf("player %d at %v/%s want %v/%s", i, p.Position, p.Velocity, st.Position, st.Velocity)
		}
	}
	if len(snap.LastCrash) != 1 || snap.LastCrash[0] != 0 {
		t.Fatalf("last crash=%v want=[0]", snap.LastCrash)
	}

	if len(rec.rounds) != 1 {
		t.Fatalf("recorded %d rounds want=1", len(rec.rounds))
	}
	end := rec.rounds[0]
	if end.SessionID != s.ID || end.Round != 0 || end.Ticks != 5 || end.Scores[1] != 1 {
		t.Fatalf("round end=%+v", end)
	}
	if end.Arena != cfg.Arena || len(end.Levels) != 2 || end.Levels[0] != -1 || end.Levels[1] != -1 {
		t.Fatalf("round end arena=%+v levels=%v", end.Arena, end.Levels)
	}
}

func TestTick_ComputerSlotSteersItself(t *testing.T) {
	cfg := VersusAI(game.Arena{Width: 30, Height: 12}, ai.LevelHarder)
	cfg.TickDelay = 0
	cfg.Seed = 1
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Put a wall of trail right in front of the computer.
	s.state.Players[0].Trail.Put(game.Point{X: 21, Y: 6})

	res := s.Tick(nil)
	if len(res.Crashed) != 0 {
		t.Fatalf("computer drove into a trail: %v", res.Crashed)
	}
	if v := s.state.Players[1].Velocity; v != game.Up && v != game.Down {
		t.Fatalf("computer velocity=%s want up or down", v)
	}
	if s.Scores()[0] != 0 {
		t.Fatalf("scores=%v", s.Scores())
	}
}

func TestTick_NoopAfterEnd(t *testing.T) {
	s := hotSeat(t)
	s.Tick(nil)
	s.End()
	before := s.Snapshot()
	s.Tick([]string{"w"})
	after := s.Snapshot()
	if after.State.Tick != before.State.Tick || after.State.Players[0].Position != before.State.Players[0].Position {
		t.Fatalf("state changed after end")
	}
	if after.Phase != SessionEnd {
		t.Fatalf("phase=%s want=session-end", after.Phase)
	}
}

func TestSnapshot_IsDetached(t *testing.T) {
	s := hotSeat(t)
	s.Tick(nil)
	snap := s.Snapshot()
	snap.State.Players[0].Trail.Put(game.Point{X: 1, Y: 1})
	snap.State.Players[0].Score = 99
	if s.state.Players[0].Trail.Has(game.Point{X: 1, Y: 1}) || s.state.Players[0].Score != 0 {
		t.Fatalf("snapshot aliases live state")
	}
}

func TestPhase_Transitions(t *testing.T) {
	path := []Phase{DifficultySelect, Playing, Paused, Playing, RoundReset, Playing, SessionEnd, MenuSelect, KeyConfig, KeyConfig, Playing}
	p := MenuSelect
	for _, next := range path {
		var err error
		p, err = p.Transition(next)
		if err != nil {
			t.Fatalf("Transition: %v", err)
		}
	}
	if _, err := Paused.Transition(RoundReset); !errors.Is(err, ErrBadTransition) {
		t.Fatalf("paused -> round-reset err=%v", err)
	}
	if _, err := MenuSelect.Transition(Playing); !errors.Is(err, ErrBadTransition) {
		t.Fatalf("menu -> playing err=%v", err)
	}
}

// scriptedInput replays one batch of keys per Poll and then quits.
type scriptedInput struct {
	polls [][]string
	calls int
}

func (in *scriptedInput) Poll() []string {
	in.calls++
	if len(in.polls) == 0 {
		return []string{"ctrl+c"}
	}
	p := in.polls[0]
	in.polls = in.polls[1:]
	return p
}

type frames struct {
	shots []Snapshot
}

func (f *frames) Show(s Snapshot) {
	f.shots = append(f.shots, s)
}

func TestRun_PauseStopsTicksUntilResumed(t *testing.T) {
	s := hotSeat(t)
	in := &scriptedInput{polls: [][]string{
		nil,
		nil,
		{DefaultPauseKey},
		{"w"}, // ignored while paused
		nil,
		{DefaultPauseKey},
		nil,
		{"ctrl+c"},
	}}
	out := &frames{}

	if err := s.Run(context.Background(), in, out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := s.state.Tick; got != 4 {
		t.Fatalf("ticks=%d want=4", got)
	}
	if got := s.state.Players[0].Velocity; got != game.Right {
		t.Fatalf("key pressed during pause steered: %s", got)
	}
	var paused int
	for _, shot := range out.shots {
		if shot.Phase == Paused {
			paused++
			if shot.State.Tick != 2 {
				t.Fatalf("paused frame at tick %d want=2", shot.State.Tick)
			}
		}
	}
	if paused != 1 {
		t.Fatalf("paused frames=%d want=1", paused)
	}
	if last := out.shots[len(out.shots)-1]; last.Phase != SessionEnd {
		t.Fatalf("last frame phase=%s want=session-end", last.Phase)
	}
	if in.calls != 8 {
		t.Fatalf("polls=%d want=8", in.calls)
	}
}

func TestRun_QuitWhilePaused(t *testing.T) {
	s := hotSeat(t)
	in := &scriptedInput{polls: [][]string{{DefaultPauseKey}, nil, {"esc"}}}
	if err := s.Run(context.Background(), in, &frames{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.state.Tick != 0 {
		t.Fatalf("ticks=%d want=0", s.state.Tick)
	}
	if s.Phase() != SessionEnd {
		t.Fatalf("phase=%s want=session-end", s.Phase())
	}
}

func TestRun_CancelledContext(t *testing.T) {
	s := hotSeat(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx, &scriptedInput{}, DisplayFunc(func(Snapshot) {}))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run=%v want context.Canceled", err)
	}
	if s.Phase() != SessionEnd {
		t.Fatalf("phase=%s want=session-end", s.Phase())
	}
}

func TestRun_RoundsContinueAfterCrash(t *testing.T) {
	cfg := VersusAI(game.Arena{Width: 12, Height: 10}, ai.LevelHarder)
	cfg.TickDelay = 0
	cfg.Seed = 5
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// The human never steers and runs into the computer's trail.
	polls := make([][]string, 40)
	in := &scriptedInput{polls: polls}
	if err := s.Run(context.Background(), in, &frames{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.state.Round == 0 {
		t.Fatalf("no round ended in 40 ticks")
	}
	total := 0
	for _, sc := range s.Scores() {
		total += sc
	}
	if total == 0 {
		t.Fatalf("no points awarded over %d rounds", s.state.Round)
	}
}

func TestTick_LogsFirstCrash(t *testing.T) {
	var buf bytes.Buffer
	cfg := HotSeat(game.Arena{Width: 20, Height: 10}, []KeyMap{wasd, ijkl})
	cfg.TickDelay = 0
	cfg.Logger = slog.New(slog.NewJSONHandler(&buf, nil))
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Player 1 turns down from (15,5) and reaches the bottom wall on tick 4.
	keys := []string{"k"}
	for i := 0; i < 4; i++ {
		s.Tick(keys)
		keys = nil
	}

	var found bool
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var rec map[string]any
		if err := json.Unmarshal(line, &rec); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		if rec["msg"] != "round over" {
			continue
		}
		found = true
		if rec["first_crash"].(float64) != 1 {
			t.Fatalf("first_crash=%v want=1", rec["first_crash"])
		}
	}
	if !found {
		t.Fatalf("no round over record in:\n%s", buf.String())
	}
}
