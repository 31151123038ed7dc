package game

import (
	"github.com/zyedidia/generic/mapset"
)

// MaxPlayers is the number of canonical starting slots.
const MaxPlayers = 4

// Start is a canonical spawn cell and heading.
type Start struct {
	Position Point
	Velocity Direction
}

// StartFor returns the spawn for slot (0..3) in arena a. Slots alternate
// left/right then top/bottom so that opposing players face each other.
func StartFor(a Arena, slot int) Start {
	w, h := a.Width, a.Height
	switch slot % MaxPlayers {
	case 0:
		return Start{Position: Point{X: w / 4, Y: h / 2}, Velocity: Right}
	case 1:
		return Start{Position: Point{X: 3 * w / 4, Y: h / 2}, Velocity: Left}
	case 2:
		return Start{Position: Point{X: w / 2, Y: h / 4}, Velocity: Down}
	default:
		return Start{Position: Point{X: w / 2, Y: 3 * h / 4}, Velocity: Up}
	}
}

// NewPlayers builds n players at their canonical slots with empty trails.
// When prev is non-nil each player keeps the score of the same slot in prev.
func NewPlayers(a Arena, n int, prev []Player) []Player {
	players := make([]Player, n)
	for i := 0; i < n; i++ {
		st := StartFor(a, i)
		score := 0
		if i < len(prev) {
			score = prev[i].Score
		}
		players[i] = Player{
			Position: st.Position,
			Velocity: st.Velocity,
			Trail:    mapset.New[Point](),
			Score:    score,
			Slot:     i,
		}
	}
	return players
}

// NewState creates round zero of a session with n players.
func NewState(a Arena, n int) *State {
	return &State{
		Arena:   a,
		Players: NewPlayers(a, n, nil),
	}
}
