package session

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brensch/tron/ai"
	"github.com/brensch/tron/game"
)

const (
	DefaultTickDelay = 80 * time.Millisecond
	DefaultPausePoll = 50 * time.Millisecond
	DefaultPauseKey  = " "

	// MinArenaSide keeps the four canonical slots on distinct interior cells.
	MinArenaSide = 8
)

var (
	ErrPlayerCount = errors.New("invalid player count")
	ErrKeyMap      = errors.New("invalid key mapping")
	ErrLevel       = errors.New("invalid ai level")
	ErrArena       = errors.New("arena too small")
	ErrTiming      = errors.New("invalid timing")
)

// DefaultQuitKeys end the session.
var DefaultQuitKeys = []string{"ctrl+c", "esc"}

// Kind says who drives a slot.
type Kind int

const (
	Human Kind = iota
	Computer
)

func (k Kind) String() string {
	if k == Computer {
		return "ai"
	}
	return "human"
}

// KeyMap binds key names (as the terminal reports them) to headings.
type KeyMap struct {
	Up    string
	Down  string
	Left  string
	Right string
}

// ArrowKeys is the default binding for the human in a game against the AI.
var ArrowKeys = KeyMap{Up: "up", Down: "down", Left: "left", Right: "right"}

func (k KeyMap) keys() [4]string {
	return [4]string{k.Up, k.Down, k.Left, k.Right}
}

// Complete reports whether all four headings have a distinct key.
func (k KeyMap) Complete() bool {
	seen := map[string]bool{}
	for _, key := range k.keys() {
		if key == "" || seen[key] {
			return false
		}
		seen[key] = true
	}
	return true
}

// Lookup translates a key into the heading it requests.
func (k KeyMap) Lookup(key string) (game.Direction, bool) {
	switch key {
	case "":
		return 0, false
	case k.Up:
		return game.Up, true
	case k.Down:
		return game.Down, true
	case k.Left:
		return game.Left, true
	case k.Right:
		return game.Right, true
	}
	return 0, false
}

// SlotConfig configures one player.
type SlotConfig struct {
	Kind  Kind
	Keys  KeyMap   // Human only
	Level ai.Level // Computer only
}

// Config is fixed for the lifetime of a session.
type Config struct {
	Arena     game.Arena
	Slots     []SlotConfig
	PauseKey  string
	QuitKeys  []string
	TickDelay time.Duration
	PausePoll time.Duration
	// Seed feeds the AI's random source. Zero picks one from the clock.
	Seed     int64
	Logger   *slog.Logger
	Recorder Recorder
}

// DefaultConfig is a session with the standard timings and keys
// but no players.
func DefaultConfig(arena game.Arena) Config {
	return Config{
		Arena:     arena,
		PauseKey:  DefaultPauseKey,
		QuitKeys:  DefaultQuitKeys,
		TickDelay: DefaultTickDelay,
		PausePoll: DefaultPausePoll,
	}
}

// VersusAI is player one on the arrow keys against a computer opponent.
func VersusAI(arena game.Arena, level ai.Level) Config {
	cfg := DefaultConfig(arena)
	cfg.Slots = []SlotConfig{
		{Kind: Human, Keys: ArrowKeys},
		{Kind: Computer, Level: level},
	}
	return cfg
}

// HotSeat is one human per key map sharing the keyboard.
func HotSeat(arena game.Arena, keys []KeyMap) Config {
	cfg := DefaultConfig(arena)
	for _, k := range keys {
		cfg.Slots = append(cfg.Slots, SlotConfig{Kind: Human, Keys: k})
	}
	return cfg
}

// Validate refuses configurations a round cannot start with.
func (c Config) Validate() error {
	if n := len(c.Slots); n < 2 || n > game.MaxPlayers {
		return fmt.Errorf("%w: %d players, want 2-%d", ErrPlayerCount, n, game.MaxPlayers)
	}
	if c.Arena.Width < MinArenaSide || c.Arena.Height < MinArenaSide {
		return fmt.Errorf("%w: %dx%d, want at least %dx%d", ErrArena, c.Arena.Width, c.Arena.Height, MinArenaSide, MinArenaSide)
	}
	if c.TickDelay < 0 || c.PausePoll < 0 {
		return fmt.Errorf("%w: tick delay %s, pause poll %s", ErrTiming, c.TickDelay, c.PausePoll)
	}

	reserved := map[string]string{}
	if c.PauseKey != "" {
		reserved[c.PauseKey] = "pause"
	}
	for _, k := range c.QuitKeys {
		reserved[k] = "quit"
	}

	for i, slot := range c.Slots {
		switch slot.Kind {
		case Human:
			if !slot.Keys.Complete() {
				return fmt.Errorf("%w: player %d needs four distinct keys", ErrKeyMap, i+1)
			}
			for _, k := range slot.Keys.keys() {
				if owner, taken := reserved[k]; taken {
					return fmt.Errorf("%w: player %d key %q already bound to %s", ErrKeyMap, i+1, k, owner)
				}
				reserved[k] = fmt.Sprintf("player %d", i+1)
			}
		case Computer:
			if !slot.Level.Valid() {
				return fmt.Errorf("%w: player %d level %d", ErrLevel, i+1, slot.Level)
			}
		default:
			return fmt.Errorf("%w: player %d has unknown kind %d", ErrPlayerCount, i+1, slot.Kind)
		}
	}
	return nil
}
