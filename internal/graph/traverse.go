package graph

import "strings"

// expandableTypes are the node categories eligible for keyword expansion.
var expandableTypes = map[string]bool{
	"Concept": true,
	"Method":  true,
	"Task":    true,
}

type frontierItem struct {
	id    string
	depth int
}

// ExpandKeywords walks outward from seed nodes and collects the names of
// expandable-type nodes within maxHops. Seed matching is case-insensitive
// against node IDs, first match in insertion order. The traversal halts as
// soon as maxResults names are collected. Traversal order is deterministic:
// seeds in argument order, neighbors in sorted-ID order, results in
// discovery order. Seeds without a matching node contribute nothing.
func ExpandKeywords(g *Graph, seeds []string, maxHops, maxResults int) []string {
	visited := make(map[string]bool)
	seen := make(map[string]bool)
	var results []string
	var queue []frontierItem

	for _, seed := range seeds {
		seedLower := strings.ToLower(seed)
		for _, id := range g.order {
			if strings.ToLower(id) == seedLower {
				if !visited[id] {
					visited[id] = true
					queue = append(queue, frontierItem{id: id, depth: 0})
				}
				break
			}
		}
	}

	for len(queue) > 0 && len(results) < maxResults {
		item := queue[0]
		queue = queue[1:]

		node := g.nodes[item.id]
		if expandableTypes[node.EntityType] {
			name := node.Name
			if name == "" {
				name = node.ID
			}
			if !seen[name] {
				seen[name] = true
				results = append(results, name)
			}
		}

		if item.depth < maxHops {
			for _, neighbor := range g.Neighbors(item.id) {
				if !visited[neighbor] {
					visited[neighbor] = true
					queue = append(queue, frontierItem{id: neighbor, depth: item.depth + 1})
				}
			}
		}
	}

	return results
}

// Subgraph returns the induced subgraph of all nodes within maxHops of
// center, inclusive. All edges between collected nodes are preserved.
// An absent center yields an empty graph.
func Subgraph(g *Graph, center string, maxHops int) *Graph {
	if !g.HasNode(center) {
		return New()
	}

	collected := make(map[string]bool)
	visited := map[string]bool{center: true}
	queue := []frontierItem{{id: center, depth: 0}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		collected[item.id] = true

		if item.depth < maxHops {
			for _, neighbor := range g.Neighbors(item.id) {
				if !visited[neighbor] {
					visited[neighbor] = true
					queue = append(queue, frontierItem{id: neighbor, depth: item.depth + 1})
				}
			}
		}
	}

	sub := New()
	for _, id := range g.order {
		if collected[id] {
			sub.UpsertNode(*g.nodes[id])
		}
	}
	for _, e := range g.Edges() {
		if collected[e.Source] && collected[e.Target] {
			sub.UpsertEdge(e.Source, e.Target, e)
		}
	}
	return sub
}

// Stats aggregates graph-level counts and type histograms.
type Stats struct {
	NodeCount     int            `json:"node_count"`
	EdgeCount     int            `json:"edge_count"`
	NodeTypes     map[string]int `json:"node_types"`
	RelationTypes map[string]int `json:"relation_types"`
}

// GetStats computes node/edge counts and entity_type / relation_type
// histograms. A missing type attribute counts as "unknown". An empty graph
// yields zero counts and empty histograms.
func GetStats(g *Graph) Stats {
	stats := Stats{
		NodeTypes:     make(map[string]int),
		RelationTypes: make(map[string]int),
	}
	if g.NodeCount() == 0 {
		return stats
	}

	stats.NodeCount = g.NodeCount()
	stats.EdgeCount = g.EdgeCount()

	for _, n := range g.Nodes() {
		et := n.EntityType
		if et == "" {
			et = UnknownType
		}
		stats.NodeTypes[et]++
	}
	for _, e := range g.Edges() {
		rt := e.RelationType
		if rt == "" {
			rt = UnknownType
		}
		stats.RelationTypes[rt]++
	}
	return stats
}
