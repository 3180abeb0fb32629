package graphkeeper

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soundprediction/go-graphkeeper/pkg/analyze"
)

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Scan the graph for structural anomalies",
}

var findIsolatedNodesCmd = &cobra.Command{
	Use:   "isolated-nodes",
	Short: "List nodes with no connections",
	Long: `Fetch a fresh snapshot of the graph and list every node that no edge
references as source or target. A self-loop counts as a reference, so a node
whose only edge points at itself is not isolated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := runScan()
		if err != nil {
			return err
		}

		fmt.Printf("\nFound %d isolated nodes (nodes with no connections):\n", len(report.IsolatedNodes))
		if len(report.IsolatedNodes) == 0 {
			fmt.Println("No isolated nodes found in the graph.")
			return nil
		}
		for i, n := range report.IsolatedNodes {
			fmt.Printf("%d. UUID: %s, Labels: %s, Name: %s\n",
				i+1, n.UUID, strings.Join(n.Labels, ","), n.Name)
		}
		return nil
	},
}

var findDanglingEdgesCmd = &cobra.Command{
	Use:     "dangling-edges",
	Aliases: []string{"isolated-edges"},
	Short:   "List edges referencing missing nodes",
	Long: `Fetch a fresh snapshot of the graph and list every edge whose source or
target UUID does not resolve to a node in the snapshot. Edges with one or
both endpoints missing are reported alike.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := runScan()
		if err != nil {
			return err
		}

		fmt.Printf("\nFound %d dangling edges (edges with missing source/target nodes):\n", len(report.DanglingEdges))
		if len(report.DanglingEdges) == 0 {
			fmt.Println("No dangling edges found in the graph.")
			return nil
		}
		for i, e := range report.DanglingEdges {
			fmt.Printf("%d. UUID: %s, Fact: %s\n", i+1, e.UUID, e.Fact)
			fmt.Printf("   Source: %s (Exists: %t)\n", e.SourceUUID, report.HasNode(e.SourceUUID))
			fmt.Printf("   Target: %s (Exists: %t)\n", e.TargetUUID, report.HasNode(e.TargetUUID))
		}
		return nil
	},
}

// runScan builds the client, fetches a fresh snapshot, and classifies it.
func runScan() (*analyze.Report, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg)

	client, closer, err := buildClient(cfg, log)
	if err != nil {
		return nil, err
	}
	defer closer()

	snap, err := client.Snapshot(cmdContext(), cfg.Graph.ID)
	if err != nil {
		return nil, &opError{err: err}
	}
	return analyze.Analyze(snap), nil
}

func init() {
	rootCmd.AddCommand(findCmd)
	findCmd.AddCommand(findIsolatedNodesCmd)
	findCmd.AddCommand(findDanglingEdgesCmd)
}
