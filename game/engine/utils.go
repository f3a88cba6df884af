package engine

// WrapDistance is the Manhattan distance on the torus, ignoring walls
func WrapDistance(from, to Position) int {
	return axisDistance(from.Row, to.Row, Rows) + axisDistance(from.Col, to.Col, Cols)
}

func axisDistance(a, b, size int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if size-d < d {
		return size - d
	}
	return d
}

// FindNearestCharger finds the closest charger and returns its position and distance
func FindNearestCharger(b *Board, from Position) (Position, int, bool) {
	minDistance := -1
	var nearest Position
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if b.tiles[r][c].Base != Charger {
				continue
			}
			pos := Position{Row: r, Col: c}
			if d := WrapDistance(from, pos); minDistance == -1 || d < minDistance {
				minDistance = d
				nearest = pos
			}
		}
	}
	return nearest, minDistance, minDistance >= 0
}

// AnalyzeBatteryRisk assesses battery danger based on the distance to the nearest charger
func AnalyzeBatteryRisk(b *Board, p Player) string {
	if p.Battery <= 0 {
		return "CRITICAL: Battery empty!"
	}

	_, distance, found := FindNearestCharger(b, p.Position)
	if !found {
		return "WARNING: No chargers available!"
	}

	switch {
	case p.Battery <= distance:
		return "DANGER: Insufficient battery to reach nearest charger!"
	case p.Battery <= distance+2:
		return "CAUTION: Low battery, prioritize charging"
	case p.Battery <= MaxBattery/3:
		return "LOW: Consider charging soon"
	}
	return "SAFE: Battery sufficient"
}

// Distances returns the number of moves from `from` to every tile the robot can
// reach, following wrap-around and stopping at walls. A wall start reaches nothing.
func Distances(b *Board, from Position) map[Position]int {
	dist := make(map[Position]int)
	if !b.CanMoveTo(from) {
		return dist
	}

	dist[from] = 0
	queue := []Position{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, d := range Directions {
			next := Next(current, d)
			if _, seen := dist[next]; seen || !b.CanMoveTo(next) {
				continue
			}
			dist[next] = dist[current] + 1
			queue = append(queue, next)
		}
	}
	return dist
}
