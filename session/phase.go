package session

import (
	"errors"
	"fmt"
)

// ErrBadTransition is returned for a phase change the state machine forbids.
var ErrBadTransition = errors.New("bad phase transition")

// Phase is where a session is in its lifecycle, from the bootstrap menus
// through play to the end of the session.
type Phase int

const (
	MenuSelect Phase = iota
	KeyConfig
	DifficultySelect
	Playing
	Paused
	RoundReset
	SessionEnd
)

var phaseNames = [...]string{
	MenuSelect:       "menu",
	KeyConfig:        "key-config",
	DifficultySelect: "difficulty",
	Playing:          "playing",
	Paused:           "paused",
	RoundReset:       "round-reset",
	SessionEnd:       "session-end",
}

func (p Phase) String() string {
	if p < MenuSelect || p > SessionEnd {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

var transitions = map[Phase][]Phase{
	MenuSelect:       {KeyConfig, DifficultySelect, SessionEnd},
	KeyConfig:        {KeyConfig, Playing, MenuSelect},
	DifficultySelect: {Playing, MenuSelect},
	Playing:          {Paused, RoundReset, SessionEnd},
	Paused:           {Playing, SessionEnd},
	RoundReset:       {Playing, SessionEnd},
	SessionEnd:       {MenuSelect},
}

// CanTransition reports whether the machine allows p -> to.
func (p Phase) CanTransition(to Phase) bool {
	for _, next := range transitions[p] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns to, or an error wrapping ErrBadTransition.
func (p Phase) Transition(to Phase) (Phase, error) {
	if !p.CanTransition(to) {
		return p, fmt.Errorf("%w: %s -> %s", ErrBadTransition, p, to)
	}
	return to, nil
}
