package network

import "strings"

const (
	defaultNodeSize   = 10
	defaultEdgeWeight = 1
)

// Normalize turns a raw fetch result into a GraphModel. Nodes without an id
// are skipped, the first occurrence of a duplicate id wins, and edges whose
// endpoints are not both present are dropped.
func Normalize(raw RawNetwork) GraphModel {
	model := GraphModel{
		Nodes: make([]Node, 0, len(raw.Nodes)),
		Edges: make([]Edge, 0, len(raw.Edges)),
	}

	seen := make(map[string]struct{}, len(raw.Nodes))
	for _, rn := range raw.Nodes {
		id := strings.TrimSpace(rn.ID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		label := rn.Label
		if label == "" {
			label = id
		}
		size := rn.Size
		if size <= 0 {
			size = defaultNodeSize
		}
		model.Nodes = append(model.Nodes, Node{ID: id, Label: label, Group: ParseGroup(rn.Group), Size: size})
	}

	edges := make(map[[2]string]struct{}, len(raw.Edges))
	for _, re := range raw.Edges {
		src, dst := strings.TrimSpace(re.Source), strings.TrimSpace(re.Target)
		if _, ok := seen[src]; !ok {
			continue
		}
		if _, ok := seen[dst]; !ok || src == dst {
			continue
		}
		key := [2]string{src, dst}
		if _, dup := edges[key]; dup {
			continue
		}
		edges[key] = struct{}{}

		weight := re.Weight
		if weight <= 0 {
			weight = defaultEdgeWeight
		}
		model.Edges = append(model.Edges, Edge{Source: src, Target: dst, Weight: weight})
	}

	return model
}

// ApplyFilter keeps the central node plus nodes of the filtered group and
// drops every edge that loses an endpoint. The input is not modified.
func ApplyFilter(model GraphModel, filter Filter) GraphModel {
	if filter == FilterAll || filter == "" {
		return model.Clone()
	}

	kept := make(map[string]struct{}, len(model.Nodes))
	out := GraphModel{Nodes: []Node{}, Edges: []Edge{}}
	for _, n := range model.Nodes {
		if n.Group == GroupCentral || string(n.Group) == string(filter) {
			kept[n.ID] = struct{}{}
			out.Nodes = append(out.Nodes, n)
		}
	}

	for _, e := range model.Edges {
		_, src := kept[e.Source]
		_, dst := kept[e.Target]
		if src && dst {
			out.Edges = append(out.Edges, e)
		}
	}

	return out
}
