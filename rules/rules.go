// Package rules implements the per-tick state transition: movement, collision
// detection, scoring and round reset.
package rules

import (
	"github.com/brensch/tron/game"
)

// Outcome is the result of advancing one tick.
type Outcome struct {
	// Crashed lists every slot that crashed this tick, ascending.
	Crashed []int
}

// Crash reports whether the tick ended the round.
func (o Outcome) Crash() bool {
	return len(o.Crashed) > 0
}

// First is the lowest crashed slot, or -1 if nobody crashed. This is the
// player a scan in slot order would report first.
func (o Outcome) First() int {
	if len(o.Crashed) == 0 {
		return -1
	}
	return o.Crashed[0]
}

// Has reports whether slot crashed.
func (o Outcome) Has(slot int) bool {
	for _, c := range o.Crashed {
		if c == slot {
			return true
		}
	}
	return false
}

// IsSafe reports whether p is an interior cell no trail occupies.
func IsSafe(state *game.State, p game.Point) bool {
	if state.Arena.OutOfBounds(p) {
		return false
	}
	return !state.Trails().Has(p)
}

// SafeMoves returns the headings, in canonical order, that the player in
// slot can take without colliding on the next tick. Reversal is never
// offered since Steer refuses it.
func SafeMoves(state *game.State, slot int) []game.Direction {
	p := &state.Players[slot]
	moves := make([]game.Direction, 0, 3)
	for _, d := range game.Directions {
		if d == p.Velocity.Opposite() {
			continue
		}
		if IsSafe(state, p.Position.Add(d)) {
			moves = append(moves, d)
		}
	}
	return moves
}

// AdvanceTick moves every head one step and checks for collisions.
//
// All players move simultaneously. Collisions are evaluated against the
// trails as they stood before this tick, so a head's new cell is not yet
// part of any trail. Two heads landing on the same cell crash together.
// When nobody crashes each new head cell is appended to its own trail;
// when anybody crashes trails are left untouched so the caller can score
// and reset the round.
func AdvanceTick(state *game.State) Outcome {
	for i := range state.Players {
		p := &state.Players[i]
		p.Position = p.Next()
	}
	state.Tick++

	var out Outcome
	trails := state.Trails()
	for i := range state.Players {
		head := state.Players[i].Position
		switch {
		case state.Arena.OutOfBounds(head):
			out.Crashed = append(out.Crashed, i)
		case trails.Has(head):
			out.Crashed = append(out.Crashed, i)
		case headOn(state, i):
			out.Crashed = append(out.Crashed, i)
		}
	}

	if out.Crash() {
		return out
	}

	for i := range state.Players {
		p := &state.Players[i]
		p.Trail.Put(p.Position)
	}
	return out
}

// headOn reports whether another player's head shares slot's cell.
func headOn(state *game.State, slot int) bool {
	head := state.Players[slot].Position
	for j := range state.Players {
		if j != slot && state.Players[j].Position == head {
			return true
		}
	}
	return false
}

// AwardPoints gives one point to every player that did not crash.
func AwardPoints(state *game.State, crashed []int) {
	out := Outcome{Crashed: crashed}
	for i := range state.Players {
		if !out.Has(i) {
			state.Players[i].Score++
		}
	}
}

// ResetRound puts every player back on its canonical slot with an empty
// trail. Scores carry over.
func ResetRound(state *game.State) {
	state.Players = game.NewPlayers(state.Arena, len(state.Players), state.Players)
	state.Round++
	state.Tick = 0
}
