// food.go implements food placement.

package game

// placeFood moves the food to a uniformly chosen free cell. It returns false
// when the snake covers the whole board.
//
// Food stays a member of the free set: the cell only leaves it when the head
// lands there, which keeps free ∪ body equal to the board at all times.
func (g *Game) placeFood() bool {
	c, err := g.free.Pick(g.rng)
	if err != nil {
		return false
	}
	g.food = c
	return true
}
