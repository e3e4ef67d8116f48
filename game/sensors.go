package game

// Ray indexes the eight sensor directions, clockwise from Left.
type Ray uint8

const (
	RayLeft Ray = iota
	RayUpLeft
	RayUp
	RayUpRight
	RayRight
	RayDownRight
	RayDown
	RayDownLeft
	NumRays
)

var rayNames = [NumRays]string{"left", "up_left", "up", "up_right", "right", "down_right", "down", "down_left"}

func (r Ray) String() string {
	if r < NumRays {
		return rayNames[r]
	}
	return "ray?"
}

// raySteps composes each ray from orthogonal unit steps. A diagonal ray
// advances one step along each of its two components per iteration, vertical
// component first.
var raySteps = [NumRays][]Direction{
	RayLeft:      {Left},
	RayUpLeft:    {Up, Left},
	RayUp:        {Up},
	RayUpRight:   {Up, Right},
	RayRight:     {Right},
	RayDownRight: {Down, Right},
	RayDown:      {Down},
	RayDownLeft:  {Down, Left},
}

// Rays holds one normalised distance per Ray.
type Rays [NumRays]float64

// FeatureCount is the length of Observation.Features.
const FeatureCount = 3 * int(NumRays)

// Observation bundles the three sensor vectors.
type Observation struct {
	Wall Rays `json:"wall"`
	Body Rays `json:"body"`
	Food Rays `json:"food"`
}

// Features flattens the observation into wall, body then food rays.
func (o Observation) Features() []float32 {
	out := make([]float32, 0, FeatureCount)
	for _, rs := range [...]*Rays{&o.Wall, &o.Body, &o.Food} {
		for _, v := range rs {
			out = append(out, float32(v))
		}
	}
	return out
}

// Observe computes all three sensor vectors for the current state.
func (g *Game) Observe() Observation {
	return Observation{
		Wall: g.WallDistance(),
		Body: g.BodyDistance(),
		Food: g.FoodDistance(),
	}
}

// WallDistance returns the distance from the head to the board edge along each
// ray, divided by the board size. Diagonals take the nearer of their two axis
// distances. Every value is in [0, 1).
func (g *Game) WallDistance() Rays {
	h := g.Head()
	n := g.size
	left, up := h.X, h.Y
	right, down := n-1-h.X, n-1-h.Y

	var out Rays
	out[RayLeft] = g.norm(left)
	out[RayUpLeft] = g.norm(min(up, left))
	out[RayUp] = g.norm(up)
	out[RayUpRight] = g.norm(min(up, right))
	out[RayRight] = g.norm(right)
	out[RayDownRight] = g.norm(min(down, right))
	out[RayDown] = g.norm(down)
	out[RayDownLeft] = g.norm(min(down, left))
	return out
}

// BodyDistance walks each ray from the head and returns step/size for the
// first step that lands on the snake. A ray that leaves the board, or runs
// size steps, without touching the body reads 1.
func (g *Game) BodyDistance() Rays {
	var out Rays
	for r := Ray(0); r < NumRays; r++ {
		out[r] = g.bodyRay(r)
	}
	return out
}

func (g *Game) bodyRay(r Ray) float64 {
	p := g.Head()
	for step := 1; step <= g.size; step++ {
		for _, d := range raySteps[r] {
			p = p.Step(d)
		}
		if !p.InBounds(g.size) {
			return 1
		}
		if !g.free.Contains(p) {
			return g.norm(step)
		}
	}
	return 1
}

// FoodDistance reports food only when it lies exactly on one of the eight
// rays from the head. That ray holds the axis distance divided by the board
// size; every other slot, and every slot for food off the rays, is 1.
func (g *Game) FoodDistance() Rays {
	out := Rays{1, 1, 1, 1, 1, 1, 1, 1}
	h := g.Head()
	dx, dy := g.food.X-h.X, g.food.Y-h.Y

	switch {
	case dx == 0 && dy == 0:
	case dy == 0 && dx < 0:
		out[RayLeft] = g.norm(-dx)
	case dy == 0:
		out[RayRight] = g.norm(dx)
	case dx == 0 && dy < 0:
		out[RayUp] = g.norm(-dy)
	case dx == 0:
		out[RayDown] = g.norm(dy)
	case abs(dx) == abs(dy):
		var r Ray
		switch {
		case dx < 0 && dy < 0:
			r = RayUpLeft
		case dx > 0 && dy < 0:
			r = RayUpRight
		case dx > 0:
			r = RayDownRight
		default:
			r = RayDownLeft
		}
		out[r] = g.norm(abs(dx))
	}
	return out
}

func (g *Game) norm(cells int) float64 {
	return float64(cells) / float64(g.size)
}
