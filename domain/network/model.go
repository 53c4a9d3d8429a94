package network

import (
	"fmt"
	"strings"
)

// Group is a node's relationship distance from the central user
type Group string

const (
	GroupCentral Group = "central"
	GroupFirst   Group = "first"
	GroupSecond  Group = "second"
	GroupThird   Group = "third"
	GroupUnknown Group = "unknown"
)

// ParseGroup maps a raw group label to a Group. Unrecognized labels become
// GroupUnknown, which no degree filter selects, so those nodes show under
// the "all" filter only.
func ParseGroup(s string) Group {
	switch Group(strings.ToLower(strings.TrimSpace(s))) {
	case GroupCentral:
		return GroupCentral
	case GroupFirst:
		return GroupFirst
	case GroupSecond:
		return GroupSecond
	case GroupThird:
		return GroupThird
	default:
		return GroupUnknown
	}
}

// Filter selects which degree of connections is shown
type Filter string

const (
	FilterAll    Filter = "all"
	FilterFirst  Filter = "first"
	FilterSecond Filter = "second"
	FilterThird  Filter = "third"
)

// ParseFilter validates a filter selector. The empty string means all.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FilterAll:
		return FilterAll, nil
	case FilterFirst, FilterSecond, FilterThird:
		return f, nil
	default:
		return "", fmt.Errorf("invalid filter %q: must be one of all, first, second, third", s)
	}
}

// Zoom is a percentage applied to presentation sizes
type Zoom int

const (
	MinZoom     Zoom = 50
	MaxZoom     Zoom = 150
	DefaultZoom Zoom = 100
)

// ClampZoom bounds a requested zoom percentage to [MinZoom, MaxZoom]
func ClampZoom(percent int) Zoom {
	switch {
	case Zoom(percent) < MinZoom:
		return MinZoom
	case Zoom(percent) > MaxZoom:
		return MaxZoom
	default:
		return Zoom(percent)
	}
}

// Factor returns the zoom as a multiplier
func (z Zoom) Factor() float64 {
	return float64(z) / 100
}

// Node is a person in the network
type Node struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Group Group   `json:"group"`
	Size  float64 `json:"size"`
}

// Edge connects two nodes of the same model
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// GraphModel is the renderable network. Every edge endpoint is a node id of
// the same model and node ids are unique.
type GraphModel struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node looks a node up by id
func (m GraphModel) Node(id string) (Node, bool) {
	for _, n := range m.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// NodeIDs returns the node ids in model order
func (m GraphModel) NodeIDs() []string {
	ids := make([]string, len(m.Nodes))
	for i, n := range m.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Central returns the central node if the model has one
func (m GraphModel) Central() (Node, bool) {
	for _, n := range m.Nodes {
		if n.Group == GroupCentral {
			return n, true
		}
	}
	return Node{}, false
}

// Clone returns a deep copy
func (m GraphModel) Clone() GraphModel {
	return GraphModel{
		Nodes: append([]Node(nil), m.Nodes...),
		Edges: append([]Edge(nil), m.Edges...),
	}
}

// RawNode is a node as returned by a data source, before validation
type RawNode struct {
	ID    string  `json:"id" dynamodbav:"id"`
	Label string  `json:"label" dynamodbav:"label"`
	Group string  `json:"group" dynamodbav:"group"`
	Size  float64 `json:"size" dynamodbav:"size"`
}

// RawEdge is an edge as returned by a data source, possibly dangling
type RawEdge struct {
	Source string  `json:"source" dynamodbav:"source"`
	Target string  `json:"target" dynamodbav:"target"`
	Weight float64 `json:"value" dynamodbav:"value"`
}

// RawNetwork is the unvalidated result of a fetch
type RawNetwork struct {
	Nodes []RawNode `json:"nodes"`
	Edges []RawEdge `json:"links"`
}

// Empty reports whether the fetch returned no nodes
func (r RawNetwork) Empty() bool {
	return len(r.Nodes) == 0
}
