package ai

import (
	"math"

	"github.com/brensch/tron/game"
	"github.com/brensch/tron/space"
)

const (
	// harderCastDepth is how far LevelHarder looks down each lane.
	harderCastDepth = 5
	// threatRange is how many cells ahead of the opponent count as its line
	// of fire.
	threatRange = 3
)

func pick(moves []game.Direction, rng Rand) game.Direction {
	return moves[rng.Intn(len(moves))]
}

// chooseTrivial flips a coin between any heading and a safe one.
func chooseTrivial(sit *Situation, rng Rand) game.Direction {
	if rng.Float64() < 0.5 {
		return pick(game.Directions[:], rng)
	}
	return pick(sit.Safe, rng)
}

func chooseEasy(sit *Situation, rng Rand) game.Direction {
	return pick(sit.Safe, rng)
}

func chooseMedium(sit *Situation, rng Rand) game.Direction {
	cur := sit.Current()
	if sit.isSafe(cur) && rng.Float64() < 0.7 {
		return cur
	}
	return pick(sit.Safe, rng)
}

// chooseHard keeps its heading whenever it is safe. The 85% keep roll and
// the straight-line fallback behind it both settle on the same move, so no
// roll is drawn.
func chooseHard(sit *Situation, rng Rand) game.Direction {
	cur := sit.Current()
	if sit.isSafe(cur) {
		return cur
	}
	return pick(sit.Safe, rng)
}

// chooseHarder takes the lane with the longest clear run; the first lane in
// safe order wins ties.
func chooseHarder(sit *Situation, _ Rand) game.Direction {
	best, bestRun := sit.Safe[0], -1
	for _, d := range sit.Safe {
		run := space.LinearCast(sit.State, sit.Self, d, harderCastDepth)
		if run > bestRun {
			best, bestRun = d, run
		}
	}
	return best
}

// minScore returns the safe move with the lowest score; the first one in
// safe order wins ties.
func minScore(sit *Situation, score func(d game.Direction) float64) game.Direction {
	best, bestScore := sit.Safe[0], math.Inf(1)
	for _, d := range sit.Safe {
		if s := score(d); s < bestScore {
			best, bestScore = d, s
		}
	}
	return best
}

// YouWillDieWeights tunes LevelYouWillDie.
type YouWillDieWeights struct {
	Space         float64
	SpaceDepth    int
	Opponent      float64
	Center        float64
	ThreatPenalty float64
}

var DefaultYouWillDieWeights = YouWillDieWeights{
	Space:         1.0,
	SpaceDepth:    15,
	Opponent:      0.3,
	Center:        0.2,
	ThreatPenalty: 5,
}

// youWillDie balances room to move against staying close to the opponent
// and the centre, and refuses to drive straight down an opponent's lane.
type youWillDie struct {
	Weights YouWillDieWeights
}

func (s youWillDie) Choose(sit *Situation, _ Rand) game.Direction {
	return minScore(sit, func(d game.Direction) float64 { return s.score(sit, d) })
}

func (s youWillDie) score(sit *Situation, d game.Direction) float64 {
	w := s.Weights
	me := sit.Me()
	next := me.Position.Add(d)
	room := space.FloodFill(next, sit.State.Arena, sit.State.Trails(), w.SpaceDepth)

	score := -float64(room)*w.Space + float64(next.Manhattan(sit.State.Arena.Center()))*w.Center
	if them := sit.Them(); them != nil {
		score += float64(next.Manhattan(them.Position)) * w.Opponent
		if facing(them, me.Position, threatRange) && d == them.Velocity.Opposite() {
			score += w.ThreatPenalty
		}
	}
	return score
}

// facing reports whether target lies within n cells straight ahead of p.
func facing(p *game.Player, target game.Point, n int) bool {
	pos := p.Position
	for i := 0; i < n; i++ {
		pos = pos.Add(p.Velocity)
		if pos == target {
			return true
		}
	}
	return false
}

// ExpertWeights tunes LevelExpert.
type ExpertWeights struct {
	Space      float64
	SpaceDepth int
	Opponent   float64
	Center     float64
	Turn       float64
	Toward     float64
}

var DefaultExpertWeights = ExpertWeights{
	Space:      2,
	SpaceDepth: 20,
	Opponent:   0.4,
	Center:     0.3,
	Turn:       1.2,
	Toward:     1.5,
}

// expert chases the opponent while keeping reachable area high and
// avoiding needless turns.
type expert struct {
	Weights ExpertWeights
}

func (s expert) Choose(sit *Situation, _ Rand) game.Direction {
	return minScore(sit, func(d game.Direction) float64 { return s.score(sit, d) })
}

func (s expert) score(sit *Situation, d game.Direction) float64 {
	w := s.Weights
	me := sit.Me()
	next := me.Position.Add(d)
	room := space.FloodFill(next, sit.State.Arena, sit.State.Trails(), w.SpaceDepth)

	score := -float64(room)*w.Space + float64(next.Manhattan(sit.State.Arena.Center()))*w.Center
	if d != me.Velocity {
		score += w.Turn
	}
	if them := sit.Them(); them != nil {
		score += float64(next.Manhattan(them.Position)) * w.Opponent
		if towards(d, me.Position, them.Position) {
			score -= w.Toward
		}
	}
	return score
}

// towards reports whether d points the same way as the vector from -> to on
// both axes.
func towards(d game.Direction, from, to game.Point) bool {
	dx, dy := d.Delta()
	return dx == sign(to.X-from.X) && dy == sign(to.Y-from.Y)
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
