// Package ai chooses headings for computer-controlled players.
//
// Every level is a Strategy: a function from a read-only Situation to one of
// the four directions. Randomness comes from an injected Rand so that games
// can be replayed in tests with a fixed seed.
package ai

import (
	"github.com/brensch/tron/game"
	"github.com/brensch/tron/rules"
)

// Rand is the subset of *rand.Rand the strategies draw from.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Situation is everything a strategy may look at for one decision.
type Situation struct {
	State    *game.State
	Self     int
	Opponent int // -1 when playing alone
	Safe     []game.Direction
}

// Strategy picks a heading. Implementations must not mutate the state.
type Strategy interface {
	Choose(sit *Situation, rng Rand) game.Direction
}

// strategyFunc adapts a plain function to Strategy.
type strategyFunc func(sit *Situation, rng Rand) game.Direction

func (f strategyFunc) Choose(sit *Situation, rng Rand) game.Direction {
	return f(sit, rng)
}

var strategies = [...]Strategy{
	LevelTrivial:    strategyFunc(chooseTrivial),
	LevelEasy:       strategyFunc(chooseEasy),
	LevelMedium:     strategyFunc(chooseMedium),
	LevelHard:       strategyFunc(chooseHard),
	LevelHarder:     strategyFunc(chooseHarder),
	LevelYouWillDie: youWillDie{Weights: DefaultYouWillDieWeights},
	LevelExpert:     expert{Weights: DefaultExpertWeights},
}

// Strategy returns the implementation behind l, or nil for an unknown level.
func (l Level) Strategy() Strategy {
	if !l.Valid() {
		return nil
	}
	return strategies[l]
}

// NewSituation builds the decision input for the player in slot.
func NewSituation(state *game.State, slot int) *Situation {
	return &Situation{
		State:    state,
		Self:     slot,
		Opponent: NearestOpponent(state, slot),
		Safe:     rules.SafeMoves(state, slot),
	}
}

// Me is the deciding player.
func (s *Situation) Me() *game.Player {
	return &s.State.Players[s.Self]
}

// Them is the tracked opponent, or nil.
func (s *Situation) Them() *game.Player {
	if s.Opponent < 0 || s.Opponent >= len(s.State.Players) {
		return nil
	}
	return &s.State.Players[s.Opponent]
}

// Current is the heading the player already has.
func (s *Situation) Current() game.Direction {
	return s.Me().Velocity
}

func (s *Situation) isSafe(d game.Direction) bool {
	for _, m := range s.Safe {
		if m == d {
			return true
		}
	}
	return false
}

// Choose returns the heading the given level picks. With no safe move, or
// an unknown level, the player keeps its current heading.
func Choose(sit *Situation, level Level, rng Rand) game.Direction {
	strat := level.Strategy()
	if len(sit.Safe) == 0 || strat == nil {
		return sit.Current()
	}
	return strat.Choose(sit, rng)
}

// Decide is NewSituation followed by Choose.
func Decide(state *game.State, slot int, level Level, rng Rand) game.Direction {
	return Choose(NewSituation(state, slot), level, rng)
}

// NearestOpponent returns the slot of the closest other player by Manhattan
// distance between heads, lowest slot on ties, or -1 if there is none.
func NearestOpponent(state *game.State, slot int) int {
	best, bestDist := -1, 0
	me := state.Players[slot].Position
	for i := range state.Players {
		if i == slot {
			continue
		}
		d := me.Manhattan(state.Players[i].Position)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
