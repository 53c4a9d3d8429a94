package network

const (
	// BaseCharge is the many-body strength at 100% zoom. Negative repels.
	BaseCharge = -120.0
	// BaseLinkDistance is the spring rest length at 100% zoom.
	BaseLinkDistance = 100.0
)

// NodePresentation holds the zoom-derived visual values of one node
type NodePresentation struct {
	Radius float64 `json:"radius"`
	Charge float64 `json:"charge"`
}

// Presentation is the zoom-scaled view of a model. It is derived from the
// model and never written back into it.
type Presentation struct {
	Zoom         Zoom                        `json:"zoom"`
	LinkDistance float64                     `json:"link_distance"`
	Nodes        map[string]NodePresentation `json:"nodes"`
}

// Scale computes presentation radius and charge for every node
func Scale(model GraphModel, zoom Zoom) Presentation {
	zoom = ClampZoom(int(zoom))
	factor := zoom.Factor()

	p := Presentation{
		Zoom:         zoom,
		LinkDistance: BaseLinkDistance * factor,
		Nodes:        make(map[string]NodePresentation, len(model.Nodes)),
	}
	for _, n := range model.Nodes {
		p.Nodes[n.ID] = NodePresentation{
			Radius: n.Size * factor,
			Charge: BaseCharge * factor,
		}
	}
	return p
}
