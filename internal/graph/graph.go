// Package graph implements the attributed undirected knowledge graph:
// GraphML persistence, bounded traversal, and aggregate statistics.
package graph

import "sort"

// UnknownType labels nodes and edges whose type attribute is missing.
const UnknownType = "unknown"

// Node is a graph node with its attributes.
type Node struct {
	ID          string
	EntityType  string
	Name        string
	Description string
}

// Edge is an undirected edge with its attributes. Source/Target reflect the
// orientation the edge was written with; traversal ignores it.
type Edge struct {
	Source       string
	Target       string
	RelationType string
	Description  string
}

// edgeKey is the canonical identity of an undirected edge.
type edgeKey struct {
	a, b string
}

func keyFor(u, v string) edgeKey {
	if u > v {
		u, v = v, u
	}
	return edgeKey{a: u, b: v}
}

// Graph is an attributed undirected graph. Node iteration follows insertion
// order; neighbor iteration is sorted by node ID. Both are deterministic.
type Graph struct {
	nodes map[string]*Node
	order []string
	adj   map[string]map[string]bool
	edges map[edgeKey]*Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		adj:   make(map[string]map[string]bool),
		edges: make(map[edgeKey]*Edge),
	}
}

// UpsertNode inserts or updates a node. Non-empty attribute values on the
// incoming node overwrite stored ones; empty values leave them in place.
func (g *Graph) UpsertNode(n Node) {
	existing, ok := g.nodes[n.ID]
	if !ok {
		node := n
		g.nodes[n.ID] = &node
		g.order = append(g.order, n.ID)
		g.adj[n.ID] = make(map[string]bool)
		return
	}
	if n.EntityType != "" {
		existing.EntityType = n.EntityType
	}
	if n.Name != "" {
		existing.Name = n.Name
	}
	if n.Description != "" {
		existing.Description = n.Description
	}
}

// UpsertEdge inserts or updates an undirected edge, creating missing
// endpoint nodes. Non-empty attribute values overwrite stored ones.
func (g *Graph) UpsertEdge(source, target string, e Edge) {
	if !g.HasNode(source) {
		g.UpsertNode(Node{ID: source})
	}
	if !g.HasNode(target) {
		g.UpsertNode(Node{ID: target})
	}

	key := keyFor(source, target)
	existing, ok := g.edges[key]
	if !ok {
		edge := e
		edge.Source = source
		edge.Target = target
		g.edges[key] = &edge
		g.adj[source][target] = true
		g.adj[target][source] = true
		return
	}
	if e.RelationType != "" {
		existing.RelationType = e.RelationType
	}
	if e.Description != "" {
		existing.Description = e.Description
	}
}

// HasNode reports whether a node with the given ID exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, *g.nodes[id])
	}
	return nodes
}

// Edges returns all edges, each once, ordered by canonical endpoint pair.
func (g *Graph) Edges() []Edge {
	keys := make([]edgeKey, 0, len(g.edges))
	for k := range g.edges {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})

	edges := make([]Edge, 0, len(keys))
	for _, k := range keys {
		edges = append(edges, *g.edges[k])
	}
	return edges
}

// Neighbors returns the IDs adjacent to a node, sorted.
func (g *Graph) Neighbors(id string) []string {
	adj, ok := g.adj[id]
	if !ok {
		return nil
	}
	neighbors := make([]string, 0, len(adj))
	for n := range adj {
		neighbors = append(neighbors, n)
	}
	sort.Strings(neighbors)
	return neighbors
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}
