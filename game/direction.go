package game

// Direction is one of the four unit headings. The zero value is Up, so a
// Direction can never encode a stationary or diagonal velocity.
type Direction int

const (
	Up Direction = iota
	Down
	Right
	Left
)

// Directions lists every heading in canonical iteration order.
var Directions = [4]Direction{Up, Down, Right, Left}

var deltas = [4][2]int{
	Up:    {0, -1},
	Down:  {0, 1},
	Right: {1, 0},
	Left:  {-1, 0},
}

// Delta returns the unit vector for d.
func (d Direction) Delta() (dx, dy int) {
	v := deltas[d]
	return v[0], v[1]
}

// Opposite returns the heading pointing the other way.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Right:
		return Left
	default:
		return Right
	}
}

// Valid reports whether d is one of the four headings.
func (d Direction) Valid() bool {
	return d >= Up && d <= Left
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Right:
		return "right"
	case Left:
		return "left"
	default:
		return "invalid"
	}
}
