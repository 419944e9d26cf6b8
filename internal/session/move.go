package session

// Vec is a move delta.
type Vec struct {
	X, Y int
}

// NextMove rotates the previous delta. The zero Vec yields (1, 0).
func NextMove(prev Vec) Vec {
	switch prev.X {
	case -1:
		return Vec{X: 0, Y: 1}
	case 1:
		return Vec{X: 0, Y: -1}
	default:
		if prev.Y == 1 {
			return Vec{X: -1, Y: 0}
		}
		return Vec{X: 1, Y: 0}
	}
}
