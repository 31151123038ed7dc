// Package space measures how much room a player has to manoeuvre. Both
// estimators are read-only and never mutate the state they inspect.
package space

import (
	"github.com/zyedidia/generic/mapset"
	"github.com/zyedidia/generic/queue"

	"github.com/brensch/tron/game"
)

// Obstacles is any set of impassable cells. game.Occupancy (the union of
// all trails) and mapset.Set[game.Point] both satisfy it.
type Obstacles interface {
	Has(p game.Point) bool
}

// LinearCast counts free cells in a straight line from the player's head,
// starting one step out. It stops at the first wall or trail cell and never
// returns more than maxDepth.
func LinearCast(state *game.State, slot int, dir game.Direction, maxDepth int) int {
	trails := state.Trails()
	pos := state.Players[slot].Position
	count := 0
	for i := 0; i < maxDepth; i++ {
		pos = pos.Add(dir)
		if state.Arena.OutOfBounds(pos) || trails.Has(pos) {
			break
		}
		count++
	}
	return count
}

type frontier struct {
	p     game.Point
	depth int
}

// FloodFill counts the distinct cells reachable from start by orthogonal
// steps without crossing a wall or an obstacle, exploring no further than
// maxDepth steps. A blocked start yields zero.
func FloodFill(start game.Point, arena game.Arena, obstacles Obstacles, maxDepth int) int {
	return Explore(start, arena, obstacles, maxDepth).Size()
}

// Explore runs the bounded breadth-first search behind FloodFill and
// returns the visited set. Each cell is enqueued at most once.
func Explore(start game.Point, arena game.Arena, obstacles Obstacles, maxDepth int) mapset.Set[game.Point] {
	visited := mapset.New[game.Point]()
	if arena.OutOfBounds(start) || obstacles.Has(start) || maxDepth < 0 {
		return visited
	}

	q := queue.New[frontier]()
	q.Enqueue(frontier{p: start})
	visited.Put(start)

	for !q.Empty() {
		cur := q.Dequeue()
		if cur.depth >= maxDepth {
			continue
		}
		for _, d := range game.Directions {
			next := cur.p.Add(d)
			if visited.Has(next) || arena.OutOfBounds(next) || obstacles.Has(next) {
				continue
			}
			visited.Put(next)
			q.Enqueue(frontier{p: next, depth: cur.depth + 1})
		}
	}
	return visited
}
