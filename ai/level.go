package ai

import (
	"fmt"
	"strconv"
	"strings"
)

// Level selects one of the seven opponent strategies.
type Level int

const (
	LevelTrivial Level = iota
	LevelEasy
	LevelMedium
	LevelHard
	LevelHarder
	LevelYouWillDie
	LevelExpert
)

// Levels lists every level from weakest to strongest.
var Levels = []Level{
	LevelTrivial,
	LevelEasy,
	LevelMedium,
	LevelHard,
	LevelHarder,
	LevelYouWillDie,
	LevelExpert,
}

var levelNames = [...]string{
	LevelTrivial:    "dumb as fuck",
	LevelEasy:       "easy",
	LevelMedium:     "medium",
	LevelHard:       "hard",
	LevelHarder:     "harder",
	LevelYouWillDie: "you will die",
	LevelExpert:     "expert",
}

// Valid reports whether l names a known strategy.
func (l Level) Valid() bool {
	return l >= LevelTrivial && l <= LevelExpert
}

func (l Level) String() string {
	if !l.Valid() {
		return "level(" + strconv.Itoa(int(l)) + ")"
	}
	return levelNames[l]
}

// ParseLevel accepts either a level number (0-6) or its display name.
func ParseLevel(s string) (Level, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if n, err := strconv.Atoi(s); err == nil {
		l := Level(n)
		if !l.Valid() {
			return 0, fmt.Errorf("level %d out of range 0-%d", n, LevelExpert)
		}
		return l, nil
	}
	for _, l := range Levels {
		if levelNames[l] == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown level %q", s)
}
