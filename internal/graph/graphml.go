package graph

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// GraphML attribute keys used by this package. Other keys in a loaded file
// are ignored.
const (
	attrEntityType   = "entity_type"
	attrName         = "name"
	attrDescription  = "description"
	attrRelationType = "relation_type"
)

type graphmlDoc struct {
	XMLName xml.Name     `xml:"graphml"`
	Xmlns   string       `xml:"xmlns,attr"`
	Keys    []graphmlKey `xml:"key"`
	Graph   graphmlGraph `xml:"graph"`
}

type graphmlKey struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
	AttrType string `xml:"attr.type,attr"`
}

type graphmlGraph struct {
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphmlNode `xml:"node"`
	Edges       []graphmlEdge `xml:"edge"`
}

type graphmlNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphmlData `xml:"data"`
}

type graphmlEdge struct {
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphmlData `xml:"data"`
}

type graphmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// LoadGraphML reads an attributed graph from a GraphML file.
// An absent file yields an empty graph, not an error.
func LoadGraphML(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("reading graph file: %w", err)
	}

	var doc graphmlDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing graphml: %w", err)
	}

	// Map key ids to attribute names, per declaration.
	keyNames := make(map[string]string, len(doc.Keys))
	for _, k := range doc.Keys {
		keyNames[k.ID] = k.AttrName
	}

	g := New()
	for _, n := range doc.Graph.Nodes {
		node := Node{ID: n.ID}
		for _, d := range n.Data {
			switch keyNames[d.Key] {
			case attrEntityType:
				node.EntityType = d.Value
			case attrName:
				node.Name = d.Value
			case attrDescription:
				node.Description = d.Value
			}
		}
		g.UpsertNode(node)
	}

	for _, e := range doc.Graph.Edges {
		edge := Edge{}
		for _, d := range e.Data {
			switch keyNames[d.Key] {
			case attrRelationType:
				edge.RelationType = d.Value
			case attrDescription:
				edge.Description = d.Value
			}
		}
		g.UpsertEdge(e.Source, e.Target, edge)
	}

	return g, nil
}

// SaveGraphML writes the graph to a GraphML file, creating parent
// directories as needed.
func SaveGraphML(g *Graph, path string) error {
	doc := graphmlDoc{
		Xmlns: "http://graphml.graphdrawing.org/xmlns",
		Keys: []graphmlKey{
			{ID: "d0", For: "node", AttrName: attrEntityType, AttrType: "string"},
			{ID: "d1", For: "node", AttrName: attrName, AttrType: "string"},
			{ID: "d2", For: "node", AttrName: attrDescription, AttrType: "string"},
			{ID: "d3", For: "edge", AttrName: attrRelationType, AttrType: "string"},
			{ID: "d4", For: "edge", AttrName: attrDescription, AttrType: "string"},
		},
		Graph: graphmlGraph{EdgeDefault: "undirected"},
	}

	for _, n := range g.Nodes() {
		gn := graphmlNode{ID: n.ID}
		if n.EntityType != "" {
			gn.Data = append(gn.Data, graphmlData{Key: "d0", Value: n.EntityType})
		}
		if n.Name != "" {
			gn.Data = append(gn.Data, graphmlData{Key: "d1", Value: n.Name})
		}
		if n.Description != "" {
			gn.Data = append(gn.Data, graphmlData{Key: "d2", Value: n.Description})
		}
		doc.Graph.Nodes = append(doc.Graph.Nodes, gn)
	}

	for _, e := range g.Edges() {
		ge := graphmlEdge{Source: e.Source, Target: e.Target}
		if e.RelationType != "" {
			ge.Data = append(ge.Data, graphmlData{Key: "d3", Value: e.RelationType})
		}
		if e.Description != "" {
			ge.Data = append(ge.Data, graphmlData{Key: "d4", Value: e.Description})
		}
		doc.Graph.Edges = append(doc.Graph.Edges, ge)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding graphml: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating graph directory: %w", err)
	}

	content := xml.Header + string(out) + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing graph file: %w", err)
	}
	return nil
}

// FindGraphFile scans a directory for GraphML files and returns the first
// match in sorted name order. Returns false if the directory does not exist
// or holds no graph file.
func FindGraphFile(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	var matches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".graphml") {
			matches = append(matches, entry.Name())
		}
	}
	if len(matches) == 0 {
		return "", false
	}

	sort.Strings(matches)
	return filepath.Join(dir, matches[0]), true
}
