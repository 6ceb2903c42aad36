package kg

import (
	"context"
	"fmt"
	"strings"

	"github.com/litgraph/litgraph/internal/graph"
	"github.com/litgraph/litgraph/internal/llm"
	"github.com/litgraph/litgraph/internal/schema"
)

const (
	recordEntity   = "entity"
	recordRelation = "relationship"
)

// entityRecord is one parsed ("entity"|NAME|TYPE|DESCRIPTION) line.
type entityRecord struct {
	Name        string
	EntityType  string
	Description string
}

// relationRecord is one parsed ("relationship"|SOURCE|TARGET|TYPE|DESCRIPTION)
// line.
type relationRecord struct {
	Source       string
	Target       string
	RelationType string
	Description  string
}

// Result summarizes one extraction pass.
type Result struct {
	Entities  int `json:"entities"`
	Relations int `json:"relations"`
}

// Extractor prompts the model to extract entities and relations from an
// analysis text and writes them through a GraphStore. Relation types the
// schema does not admit are degraded, never dropped.
type Extractor struct {
	completer  llm.Completer
	registry   *schema.Registry
	store      GraphStore
	promptsDir string
}

// NewExtractor creates an extraction engine. The store is typically a
// NormalizingStore so alias variants of the same entity converge.
func NewExtractor(completer llm.Completer, registry *schema.Registry, store GraphStore, promptsDir string) *Extractor {
	return &Extractor{
		completer:  completer,
		registry:   registry,
		store:      store,
		promptsDir: promptsDir,
	}
}

// Extract runs the extraction prompt over text and upserts the parsed
// entities and relations. Unparseable output lines are skipped.
func (e *Extractor) Extract(ctx context.Context, text string) (Result, error) {
	system, user, err := llm.LoadPrompt(e.promptsDir, "entity_extraction", map[string]any{
		"entity_types":   strings.Join(e.registry.NodeTypes(), ", "),
		"relation_types": strings.Join(e.registry.RelationTypes(), ", "),
		"text":           text,
	})
	if err != nil {
		return Result{}, err
	}

	output, err := e.completer.Complete(ctx, system, user, llm.TierBest)
	if err != nil {
		return Result{}, fmt.Errorf("extraction completion: %w", err)
	}

	entities, relations := parseRecords(output)
	return e.apply(entities, relations)
}

// apply writes parsed records to the store. Entities go first so relation
// degradation can consult their declared types.
func (e *Extractor) apply(entities []entityRecord, relations []relationRecord) (Result, error) {
	var res Result

	// Entity types keyed by canonical name, for relation validation below.
	typeOf := make(map[string]string, len(entities))

	for _, ent := range entities {
		err := e.store.UpsertNode(ent.Name, graph.Node{
			EntityType:  ent.EntityType,
			Name:        ent.Name,
			Description: ent.Description,
		})
		if err != nil {
			return res, fmt.Errorf("upserting entity %q: %w", ent.Name, err)
		}
		typeOf[e.registry.NormalizeEntity(ent.Name)] = ent.EntityType
		res.Entities++
	}

	for _, rel := range relations {
		fromType := typeOf[e.registry.NormalizeEntity(rel.Source)]
		toType := typeOf[e.registry.NormalizeEntity(rel.Target)]
		relType := e.registry.NormalizeRelationType(fromType, rel.RelationType, toType)

		err := e.store.UpsertEdge(rel.Source, rel.Target, graph.Edge{
			RelationType: relType,
			Description:  rel.Description,
		})
		if err != nil {
			return res, fmt.Errorf("upserting relation %q -> %q: %w", rel.Source, rel.Target, err)
		}
		res.Relations++
	}

	return res, nil
}

// parseRecords scans model output for delimited records, one per line:
//
//	("entity"|NAME|TYPE|DESCRIPTION)
//	("relationship"|SOURCE|TARGET|TYPE|DESCRIPTION)
//
// Anything else, including completion markers and prose, is ignored.
func parseRecords(output string) ([]entityRecord, []relationRecord) {
	var entities []entityRecord
	var relations []relationRecord

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "(") || !strings.HasSuffix(line, ")") {
			continue
		}

		fields := strings.Split(line[1:len(line)-1], "|")
		for i, f := range fields {
			fields[i] = strings.Trim(strings.TrimSpace(f), `"`)
		}

		switch strings.ToLower(fields[0]) {
		case recordEntity:
			if len(fields) < 4 || fields[1] == "" {
				continue
			}
			entities = append(entities, entityRecord{
				Name:        fields[1],
				EntityType:  fields[2],
				Description: fields[3],
			})
		case recordRelation:
			if len(fields) < 5 || fields[1] == "" || fields[2] == "" {
				continue
			}
			relations = append(relations, relationRecord{
				Source:       fields[1],
				Target:       fields[2],
				RelationType: fields[3],
				Description:  fields[4],
			})
		}
	}

	return entities, relations
}
