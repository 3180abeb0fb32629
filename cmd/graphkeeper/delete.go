package graphkeeper

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/soundprediction/go-graphkeeper/pkg/analyze"
	"github.com/soundprediction/go-graphkeeper/pkg/executor"
	"github.com/soundprediction/go-graphkeeper/pkg/journal"
)

var deleteUUID string

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete nodes or edges with a confirmation gate",
	Long: `Delete graph items through a guarded, non-destructive-by-default workflow:
candidates are previewed, confirmation is required unless --no-confirm is
set, and every run ends with an explicit COMPLETED, PARTIAL or ABORTED
outcome. Already-deleted items count as success; nothing is ever rolled
back.`,
}

var deleteNodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Delete a single node by UUID",
	RunE: func(cmd *cobra.Command, args []string) error {
		if deleteUUID == "" {
			return &usageError{err: fmt.Errorf("--uuid is required for delete node")}
		}
		return runBatch("delete_node", executor.KindNode, func(*analyze.Report) []executor.Candidate {
			return []executor.Candidate{{UUID: deleteUUID, Label: deleteUUID}}
		}, false)
	},
}

var deleteEdgeCmd = &cobra.Command{
	Use:   "edge",
	Short: "Delete a single edge by UUID",
	RunE: func(cmd *cobra.Command, args []string) error {
		if deleteUUID == "" {
			return &usageError{err: fmt.Errorf("--uuid is required for delete edge")}
		}
		return runBatch("delete_edge", executor.KindEdge, func(*analyze.Report) []executor.Candidate {
			return []executor.Candidate{{UUID: deleteUUID, Label: deleteUUID}}
		}, false)
	},
}

var deleteIsolatedNodesCmd = &cobra.Command{
	Use:   "isolated-nodes",
	Short: "Delete all nodes with no connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch("delete_isolated_nodes", executor.KindNode, func(report *analyze.Report) []executor.Candidate {
			candidates := make([]executor.Candidate, 0, len(report.IsolatedNodes))
			for _, n := range report.IsolatedNodes {
				candidates = append(candidates, executor.Candidate{UUID: n.UUID, Label: n.Label()})
			}
			return candidates
		}, true)
	},
}

var deleteDanglingEdgesCmd = &cobra.Command{
	Use:     "dangling-edges",
	Aliases: []string{"isolated-edges"},
	Short:   "Delete all edges referencing missing nodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch("delete_dangling_edges", executor.KindEdge, func(report *analyze.Report) []executor.Candidate {
			candidates := make([]executor.Candidate, 0, len(report.DanglingEdges))
			for _, e := range report.DanglingEdges {
				candidates = append(candidates, executor.Candidate{UUID: e.UUID, Label: e.Label()})
			}
			return candidates
		}, true)
	},
}

// runBatch drives one guarded deletion batch. needsScan selects whether the
// candidate set comes from a fresh anomaly scan or an explicit UUID.
func runBatch(action string, kind executor.Kind, pick func(*analyze.Report) []executor.Candidate, needsScan bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	client, closer, err := buildClient(cfg, log)
	if err != nil {
		return err
	}
	defer closer()

	ctx := cmdContext()

	var report *analyze.Report
	if needsScan {
		snap, err := client.Snapshot(ctx, cfg.Graph.ID)
		if err != nil {
			return &opError{err: err}
		}
		report = analyze.Analyze(snap)
	}
	candidates := pick(report)

	confirmer := executor.Confirmer(&executor.TerminalConfirmer{In: os.Stdin, Out: os.Stdout})
	if noConfirm {
		confirmer = executor.AutoConfirm{}
	}

	exec := executor.New(client, confirmer, log)
	summary, runErr := exec.Run(ctx, cfg.Graph.ID, kind, candidates, noConfirm)

	recordBatch(cfg.Journal.Path, action, cfg.Graph.ID, summary, log)
	printSummary(summary)

	switch {
	case summary.State == executor.StateAborted && runErr != nil:
		return &opError{err: runErr}
	case summary.State == executor.StateAborted:
		return declinedError
	case runErr != nil:
		return &opError{err: runErr}
	case summary.State == executor.StatePartial:
		return &opError{err: fmt.Errorf("batch finished PARTIAL: %d of %d deletions failed or were skipped",
			summary.Requested-len(summary.Succeeded), summary.Requested)}
	default:
		return nil
	}
}

// recordBatch appends the outcome to the audit journal. Journal failures are
// logged, not fatal; the deletion already happened.
func recordBatch(path, action, graphID string, summary *executor.Summary, log *slog.Logger) {
	if summary == nil || summary.Requested == 0 {
		return
	}
	j, err := journal.Open(path)
	if err != nil {
		log.Warn("failed to open audit journal", "path", path, "error", err)
		return
	}
	defer j.Close()

	if err := j.Append(journal.Record{
		Action:  action,
		GraphID: graphID,
		Summary: *summary,
	}); err != nil {
		log.Warn("failed to append audit record", "error", err)
	}
}

func printSummary(summary *executor.Summary) {
	if summary == nil {
		return
	}
	fmt.Printf("\nOutcome: %s\n", summary.State)
	fmt.Printf("Requested: %d, Deleted: %d, Failed: %d\n",
		summary.Requested, len(summary.Succeeded), len(summary.Failed))
	for _, f := range summary.Failed {
		fmt.Printf("  failed %s: %s\n", f.UUID, f.Reason)
	}
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.PersistentFlags().BoolVar(&noConfirm, "no-confirm", false, "Skip the confirmation gate")
	deleteNodeCmd.Flags().StringVar(&deleteUUID, "uuid", "", "UUID of the node to delete")
	deleteEdgeCmd.Flags().StringVar(&deleteUUID, "uuid", "", "UUID of the edge to delete")

	deleteCmd.AddCommand(deleteNodeCmd)
	deleteCmd.AddCommand(deleteEdgeCmd)
	deleteCmd.AddCommand(deleteIsolatedNodesCmd)
	deleteCmd.AddCommand(deleteDanglingEdgesCmd)
}
