package network

// MockNetwork returns the deterministic dataset served when no data source
// can answer. Each call returns a fresh copy.
func MockNetwork() RawNetwork {
	return RawNetwork{
		Nodes: []RawNode{
			{ID: "you", Label: "You", Group: "central", Size: 25},
			{ID: "c1", Label: "Sarah Johnson", Group: "first", Size: 15},
			{ID: "c2", Label: "Michael Chen", Group: "first", Size: 15},
			{ID: "c3", Label: "Aisha Patel", Group: "first", Size: 20},
			{ID: "c4", Label: "David Kim", Group: "first", Size: 12},
			{ID: "c5", Label: "Emma Wilson", Group: "second", Size: 10},
			{ID: "c6", Label: "James Taylor", Group: "second", Size: 10},
			{ID: "c7", Label: "Olivia Martinez", Group: "second", Size: 10},
			{ID: "c8", Label: "Robert Johnson", Group: "second", Size: 10},
			{ID: "c9", Label: "Sophia Lee", Group: "third", Size: 8},
			{ID: "c10", Label: "William Brown", Group: "third", Size: 8},
		},
		Edges: []RawEdge{
			{Source: "you", Target: "c1", Weight: 5},
			{Source: "you", Target: "c2", Weight: 3},
			{Source: "you", Target: "c3", Weight: 8},
			{Source: "you", Target: "c4", Weight: 2},
			{Source: "c1", Target: "c5", Weight: 2},
			{Source: "c1", Target: "c6", Weight: 2},
			{Source: "c2", Target: "c7", Weight: 2},
			{Source: "c3", Target: "c8", Weight: 2},
			{Source: "c4", Target: "c9", Weight: 2},
			{Source: "c4", Target: "c10", Weight: 2},
		},
	}
}
