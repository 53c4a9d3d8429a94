package layout

import (
	"math"

	"github.com/FedericoTs/LinkedinAnalytics/domain/network"
)

// Point is a position on the layout plane
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// body is one node record. id, radius and charge are structural and set
// once by NewArena; the simulation writes only position, velocity and pin.
type body struct {
	id     string
	radius float64
	charge float64

	x, y   float64
	vx, vy float64
	pinned bool
	px, py float64
}

type link struct {
	source, target int
	distance       float64
	strength       float64
	bias           float64
}

// Arena holds the node records of one layout indexed by id
type Arena struct {
	bodies []body
	index  map[string]int
	links  []link
	rng    lcg
}

const (
	initialRadius = 10.0
	// golden angle used by the phyllotaxis seeding
	initialAngle = math.Pi * (3 - 2.2360679774997896)
)

// NewArena builds node records for model using presentation values.
// Positions are seeded on a phyllotaxis spiral so identical inputs start
// from identical positions.
func NewArena(model network.GraphModel, p network.Presentation) *Arena {
	a := &Arena{
		bodies: make([]body, len(model.Nodes)),
		index:  make(map[string]int, len(model.Nodes)),
		rng:    lcg{state: 1},
	}

	for i, n := range model.Nodes {
		np, ok := p.Nodes[n.ID]
		if !ok {
			np = network.NodePresentation{Radius: n.Size, Charge: network.BaseCharge}
		}
		r := initialRadius * math.Sqrt(0.5+float64(i))
		angle := float64(i) * initialAngle
		a.bodies[i] = body{
			id:     n.ID,
			radius: np.Radius,
			charge: np.Charge,
			x:      r * math.Cos(angle),
			y:      r * math.Sin(angle),
		}
		a.index[n.ID] = i
	}

	distance := p.LinkDistance
	if distance <= 0 {
		distance = network.BaseLinkDistance
	}

	degree := make([]int, len(a.bodies))
	maxWeight := 0.0
	for _, e := range model.Edges {
		if _, ok := a.index[e.Source]; !ok {
			continue
		}
		if _, ok := a.index[e.Target]; !ok {
			continue
		}
		degree[a.index[e.Source]]++
		degree[a.index[e.Target]]++
		maxWeight = math.Max(maxWeight, e.Weight)
	}

	for _, e := range model.Edges {
		si, ok := a.index[e.Source]
		if !ok {
			continue
		}
		ti, ok := a.index[e.Target]
		if !ok {
			continue
		}
		strength := 1 / float64(min(degree[si], degree[ti]))
		if maxWeight > 0 {
			strength *= 0.5 + 0.5*e.Weight/maxWeight
		}
		a.links = append(a.links, link{
			source:   si,
			target:   ti,
			distance: distance,
			strength: strength,
			bias:     float64(degree[si]) / float64(degree[si]+degree[ti]),
		})
	}

	return a
}

// Len returns the number of nodes
func (a *Arena) Len() int {
	return len(a.bodies)
}

// Position returns the position of id
func (a *Arena) Position(id string) (Point, bool) {
	i, ok := a.index[id]
	if !ok {
		return Point{}, false
	}
	return Point{X: a.bodies[i].x, Y: a.bodies[i].y}, true
}

// Positions returns a snapshot of every node position
func (a *Arena) Positions() map[string]Point {
	out := make(map[string]Point, len(a.bodies))
	for i := range a.bodies {
		out[a.bodies[i].id] = Point{X: a.bodies[i].x, Y: a.bodies[i].y}
	}
	return out
}

func (a *Arena) pin(id string, x, y float64) bool {
	i, ok := a.index[id]
	if !ok {
		return false
	}
	b := &a.bodies[i]
	b.pinned, b.px, b.py = true, x, y
	b.x, b.y, b.vx, b.vy = x, y, 0, 0
	return true
}

func (a *Arena) release(id string) bool {
	i, ok := a.index[id]
	if !ok {
		return false
	}
	a.bodies[i].pinned = false
	return true
}

// jiggle returns a tiny deterministic offset used to separate coincident
// nodes.
func (a *Arena) jiggle() float64 {
	return (a.rng.next() - 0.5) * 1e-6
}

// lcg is a linear congruential generator with the parameters of Numerical
// Recipes. Determinism matters more than quality here.
type lcg struct {
	state uint32
}

func (l *lcg) next() float64 {
	l.state = 1664525*l.state + 1013904223
	return float64(l.state) / 4294967296
}
