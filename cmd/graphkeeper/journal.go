package graphkeeper

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soundprediction/go-graphkeeper/pkg/journal"
)

var journalLimit int

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "List recent audited deletion batches",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return &opError{err: err}
		}
		defer j.Close()

		records, err := j.Recent(journalLimit)
		if err != nil {
			return &opError{err: err}
		}

		if len(records) == 0 {
			fmt.Println("No audited batches recorded.")
			return nil
		}
		for _, rec := range records {
			fmt.Printf("%s  %-22s graph=%s state=%s requested=%d deleted=%d failed=%d\n",
				rec.At.Format("2006-01-02 15:04:05"), rec.Action, rec.GraphID,
				rec.Summary.State, rec.Summary.Requested,
				len(rec.Summary.Succeeded), len(rec.Summary.Failed))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.Flags().IntVar(&journalLimit, "limit", 20, "Maximum number of records to list")
}
