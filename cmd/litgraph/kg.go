package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/litgraph/litgraph/internal/analysis"
	"github.com/litgraph/litgraph/internal/config"
	"github.com/litgraph/litgraph/internal/graph"
	"github.com/litgraph/litgraph/internal/kg"
	"github.com/litgraph/litgraph/internal/schema"
)

var (
	kgUpdatePaperIDs []string
	kgExpandKeywords []string
	kgExpandMaxHops  int
	kgExpandMax      int
	kgSubgraphHops   int
)

func init() {
	kgUpdateCmd.Flags().StringArrayVarP(&kgUpdatePaperIDs, "paper-ids", "p", nil, "Specific paper IDs")

	kgExpandCmd.Flags().StringArrayVarP(&kgExpandKeywords, "keywords", "k", nil, "Seed keywords (repeatable)")
	kgExpandCmd.Flags().IntVar(&kgExpandMaxHops, "max-hops", 2, "Maximum BFS depth")
	kgExpandCmd.Flags().IntVar(&kgExpandMax, "max-results", 20, "Maximum number of results")
	kgExpandCmd.MarkFlagRequired("keywords")

	kgSubgraphCmd.Flags().IntVar(&kgSubgraphHops, "max-hops", 2, "Maximum distance from center")

	kgCmd.AddCommand(kgUpdateCmd, kgExpandCmd, kgStatsCmd, kgSubgraphCmd)
	rootCmd.AddCommand(kgCmd)
}

var kgCmd = &cobra.Command{
	Use:   "kg",
	Short: "Knowledge graph operations",
}

var kgUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Extract entities from analyses into the knowledge graph",
	Long: `Run entity/relation extraction over analysis reports and merge the
results into the GraphML knowledge graph. Entity aliases are normalized
against the schema; relations the schema does not admit are degraded to
related_to rather than dropped.`,
	RunE: runKGUpdate,
}

var kgExpandCmd = &cobra.Command{
	Use:   "expand",
	Short: "Expand keywords using the knowledge graph",
	RunE:  runKGExpand,
}

var kgStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge graph statistics",
	RunE:  runKGStats,
}

var kgSubgraphCmd = &cobra.Command{
	Use:   "subgraph <node>",
	Short: "Show the neighborhood of a node",
	Args:  cobra.ExactArgs(1),
	RunE:  runKGSubgraph,
}

// graphFilePath is the canonical graph location for writes; reads fall back
// to the first *.graphml in the directory.
func graphFilePath(settings *config.Settings) string {
	if path, ok := graph.FindGraphFile(settings.KGDir()); ok {
		return path
	}
	return filepath.Join(settings.KGDir(), "graph.graphml")
}

// mustLoadGraph loads the knowledge graph, exits on parse errors. An absent
// file yields an empty graph.
func mustLoadGraph(settings *config.Settings) *graph.Graph {
	g, err := graph.LoadGraphML(graphFilePath(settings))
	if err != nil {
		exitWithError(ExitDataError, "loading graph: %v", err)
	}
	return g
}

var analysisBackupPattern = regexp.MustCompile(`\.v\d+\.md$`)

// listAnalysisFiles returns current (non-backup) analysis reports, sorted.
// With ids, only reports for those papers are returned.
func listAnalysisFiles(analysisDir string, ids []string) ([]string, error) {
	entries, err := os.ReadDir(analysisDir)
	if err != nil {
		return nil, err
	}

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[analysis.SafeID(id)+".md"] = true
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".md") || analysisBackupPattern.MatchString(name) {
			continue
		}
		if len(ids) > 0 && !want[name] {
			continue
		}
		files = append(files, filepath.Join(analysisDir, name))
	}
	sort.Strings(files)
	return files, nil
}

// KGUpdateResult is the response for the kg update command.
type KGUpdateResult struct {
	Inserted  int    `json:"inserted"`
	Entities  int    `json:"entities"`
	Relations int    `json:"relations"`
	Graph     string `json:"graph"`
}

func runKGUpdate(cmd *cobra.Command, args []string) error {
	settings := mustLoadSettings()

	files, err := listAnalysisFiles(settings.AnalysisDir(), kgUpdatePaperIDs)
	if err != nil {
		exitWithError(ExitConfigError, "no analysis directory; run 'litgraph analyze' first")
	}
	if len(files) == 0 {
		if humanOutput {
			outputHuman("No analyses to insert into the knowledge graph.\n")
		} else {
			outputJSON(KGUpdateResult{Graph: graphFilePath(settings)})
		}
		return nil
	}

	registry, err := schema.Load(settings.SchemaPath())
	if err != nil {
		exitWithError(ExitConfigError, "loading schema: %v", err)
	}

	g := mustLoadGraph(settings)
	store := kg.NewNormalizingStore(kg.NewGraphBacked(g), registry)
	extractor := kg.NewExtractor(mustNewCompleter(settings), registry, store, settings.PromptsDir())

	result := KGUpdateResult{Graph: graphFilePath(settings)}
	ctx := context.Background()
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: reading %s: %v\n", path, err)
			continue
		}

		res, err := extractor.Extract(ctx, string(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: extraction failed for %s: %v\n", filepath.Base(path), err)
			continue
		}
		result.Inserted++
		result.Entities += res.Entities
		result.Relations += res.Relations
	}

	if err := graph.SaveGraphML(g, result.Graph); err != nil {
		exitWithError(ExitDataError, "saving graph: %v", err)
	}

	if humanOutput {
		outputHuman("Inserted %d analyses: %d entities, %d relations\nGraph: %s\n",
			result.Inserted, result.Entities, result.Relations, result.Graph)
	} else {
		outputJSON(result)
	}
	return nil
}

// KGExpandResult is the response for the kg expand command.
type KGExpandResult struct {
	Seeds    []string `json:"seeds"`
	Expanded []string `json:"expanded"`
}

func runKGExpand(cmd *cobra.Command, args []string) error {
	settings := mustLoadSettings()
	g := mustLoadGraph(settings)

	expanded := graph.ExpandKeywords(g, kgExpandKeywords, kgExpandMaxHops, kgExpandMax)

	if humanOutput {
		outputHuman("Expanded keywords (%d):\n", len(expanded))
		for _, kw := range expanded {
			outputHuman("  - %s\n", kw)
		}
	} else {
		outputJSON(KGExpandResult{Seeds: kgExpandKeywords, Expanded: expanded})
	}
	return nil
}

func runKGStats(cmd *cobra.Command, args []string) error {
	settings := mustLoadSettings()
	g := mustLoadGraph(settings)

	stats := graph.GetStats(g)

	if humanOutput {
		outputHuman("Nodes: %d\nEdges: %d\n", stats.NodeCount, stats.EdgeCount)
		outputHuman("Node types:\n")
		printHistogram(stats.NodeTypes)
		outputHuman("Relation types:\n")
		printHistogram(stats.RelationTypes)
	} else {
		outputJSON(stats)
	}
	return nil
}

func printHistogram(counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		outputHuman("  %s: %d\n", k, counts[k])
	}
}

// KGSubgraphResult is the response for the kg subgraph command.
type KGSubgraphResult struct {
	Center string       `json:"center"`
	Nodes  []graph.Node `json:"nodes"`
	Edges  []graph.Edge `json:"edges"`
}

func runKGSubgraph(cmd *cobra.Command, args []string) error {
	settings := mustLoadSettings()
	g := mustLoadGraph(settings)

	sub := graph.Subgraph(g, args[0], kgSubgraphHops)

	if humanOutput {
		outputHuman("Subgraph of %q: %d nodes, %d edges\n", args[0], sub.NodeCount(), sub.EdgeCount())
		for _, e := range sub.Edges() {
			outputHuman("  %s -[%s]- %s\n", e.Source, e.RelationType, e.Target)
		}
	} else {
		outputJSON(KGSubgraphResult{Center: args[0], Nodes: sub.Nodes(), Edges: sub.Edges()})
	}
	return nil
}
