// Package graph builds the ephemeral directed rate graph the cycle finder
// searches. The graph is rebuilt from a rate-store snapshot on every tick and
// never mutated in place.
package graph

import (
	"math"
	"sort"

	"carousel/internal/model"
)

// Edge is one directed conversion between two currencies. Weight is -ln(Rate),
// so the multiplicative product of rates along a path becomes an additive sum
// of weights and a profitable loop shows up as a negative-weight cycle.
type Edge struct {
	From   string
	To     string
	Rate   float64
	Weight float64
}

// Graph is a directed weighted graph of currencies.
type Graph struct {
	nodes map[string]struct{}
	edges map[string]map[string]Edge // from -> to -> edge
}

// Build converts a rate-store snapshot into a graph, using only the
// whitelisted pairs. Each priced pair contributes two directed edges: forward
// at the quoted rate and inverse at its reciprocal. Pairs with a missing or
// non-positive rate are skipped.
func Build(snapshot map[string]float64, pairs []model.Pair) *Graph {
	g := &Graph{
		nodes: make(map[string]struct{}),
		edges: make(map[string]map[string]Edge),
	}
	for _, p := range pairs {
		rate, ok := snapshot[p.Canon()]
		if !ok || rate <= 0 {
			continue
		}
		g.addEdge(p.Base, p.Quote, rate)
		g.addEdge(p.Quote, p.Base, 1/rate)
	}
	return g
}

func (g *Graph) addEdge(from, to string, rate float64) {
	g.nodes[from] = struct{}{}
	g.nodes[to] = struct{}{}
	if g.edges[from] == nil {
		g.edges[from] = make(map[string]Edge)
	}
	g.edges[from][to] = Edge{From: from, To: to, Rate: rate, Weight: -math.Log(rate)}
}

// Edge returns the directed edge from -> to, if present.
func (g *Graph) Edge(from, to string) (Edge, bool) {
	e, ok := g.edges[from][to]
	return e, ok
}

// Neighbors returns the destinations reachable from a currency, in sorted
// order so cycle enumeration is deterministic across ticks.
func (g *Graph) Neighbors(from string) []string {
	out := make([]string, 0, len(g.edges[from]))
	for to := range g.edges[from] {
		out = append(out, to)
	}
	sort.Strings(out)
	return out
}

// HasNode reports whether the currency appears in the graph.
func (g *Graph) HasNode(c string) bool {
	_, ok := g.nodes[c]
	return ok
}

// NumNodes returns the number of currencies in the graph.
func (g *Graph) NumNodes() int {
	return len(g.nodes)
}
