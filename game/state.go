// Package game defines the core state types for the light-trail arena.
//
// These types are the minimal state needed for rules evaluation, the AI
// heuristics and rendering. The state is designed to be cheaply clonable so
// that displays and recorders can hold snapshots without aliasing the live
// round.
package game

import (
	"github.com/zyedidia/generic/mapset"
)

// Point is a grid coordinate.
// Coordinates follow terminal conventions: (0,0) is top-left and y grows down.
type Point struct {
	X int
	Y int
}

// Add returns p moved one step in direction d.
func (p Point) Add(d Direction) Point {
	dx, dy := d.Delta()
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Manhattan returns the taxicab distance between p and q.
func (p Point) Manhattan(q Point) int {
	return abs(p.X-q.X) + abs(p.Y-q.Y)
}

// Arena is the bounded playing field. The outermost ring of cells is wall.
type Arena struct {
	Width  int
	Height int
}

// OutOfBounds reports whether p is a wall cell or lies outside the arena.
func (a Arena) OutOfBounds(p Point) bool {
	return p.X <= 0 || p.X >= a.Width-1 || p.Y <= 0 || p.Y >= a.Height-1
}

// Interior is the number of non-wall cells.
func (a Arena) Interior() int {
	if a.Width < 2 || a.Height < 2 {
		return 0
	}
	return (a.Width - 2) * (a.Height - 2)
}

// Center is the middle cell of the arena.
func (a Arena) Center() Point {
	return Point{X: a.Width / 2, Y: a.Height / 2}
}

// Trail is the set of cells a player's head has occupied this round.
type Trail = mapset.Set[Point]

// Player is one light cycle. Slot is the stable identity used for colours,
// key bindings and the AI's self-vs-other checks.
type Player struct {
	Position Point
	Velocity Direction
	Trail    Trail
	Score    int
	Slot     int
}

// Steer changes the velocity unless d would reverse the player onto its own
// trail. It reports whether the change was accepted.
func (p *Player) Steer(d Direction) bool {
	if !d.Valid() || d == p.Velocity.Opposite() {
		return false
	}
	p.Velocity = d
	return true
}

// Next is the cell the head will occupy after one more tick.
func (p *Player) Next() Point {
	return p.Position.Add(p.Velocity)
}

// State is the complete session state. It is owned by a single controller
// and passed by pointer into the rules, space and ai packages for the
// duration of one tick.
type State struct {
	Arena   Arena
	Players []Player
	Round   int
	Tick    int
}

// Trails returns a read-only view over the union of every player's trail.
func (s *State) Trails() Occupancy {
	return Occupancy(s.Players)
}

// Occupancy answers membership queries against all trails without building
// a merged set.
type Occupancy []Player

// Has reports whether any player's trail contains p.
func (o Occupancy) Has(p Point) bool {
	for i := range o {
		if o[i].Trail.Has(p) {
			return true
		}
	}
	return false
}

// Clone performs a deep copy of the state, including trail sets.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}

	out := &State{
		Arena: s.Arena,
		Round: s.Round,
		Tick:  s.Tick,
	}

	if len(s.Players) > 0 {
		out.Players = make([]Player, len(s.Players))
		for i := range s.Players {
			out.Players[i] = s.Players[i]
			out.Players[i].Trail = cloneTrail(s.Players[i].Trail)
		}
	}

	return out
}

func cloneTrail(t Trail) Trail {
	out := mapset.New[Point]()
	t.Each(func(p Point) {
		out.Put(p)
	})
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
