package graphkeeper

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soundprediction/go-graphkeeper/pkg/export"
)

var (
	exportOutput      string
	exportFormat      string
	exportKeepPartial bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a full graph snapshot for backup or audit",
	Long: `Fetch a full snapshot of the graph and write it to a file. JSON exports
are written atomically (temp file then rename), so a failed export never
leaves a partially written file at the target path. If the fetch fails
mid-read the export reports how much was collected and fails; pass
--keep-partial to write the truncated snapshot anyway.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportOutput == "" {
			return &usageError{err: fmt.Errorf("--output is required for export")}
		}

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

		exporter := export.New(client, log)
		ctx := cmdContext()

		switch exportFormat {
		case "json", "":
			err = exporter.ToJSON(ctx, cfg.Graph.ID, exportOutput, exportKeepPartial)
		case "duckdb":
			err = exporter.ToDuckDB(ctx, cfg.Graph.ID, exportOutput, exportKeepPartial)
		default:
			return &usageError{err: fmt.Errorf("unknown export format %q (json, duckdb)", exportFormat)}
		}
		if err != nil {
			return &opError{err: err}
		}

		fmt.Printf("Exported graph %s to %s\n", cfg.Graph.ID, exportOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Export file path")
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Export format (json, duckdb)")
	exportCmd.Flags().BoolVar(&exportKeepPartial, "keep-partial", false, "Keep a truncated export when the fetch fails mid-read")
}
