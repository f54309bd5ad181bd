package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"aslquant/pkg/logging"
	"aslquant/pkg/pipeline"
)

var (
	outputDir    string
	participants string
)

// processCmd runs the batch over a dataset
var processCmd = &cobra.Command{
	Use:   "process <dataset-root>",
	Short: "Process every perfusion acquisition in a dataset",
	Long: `Process walks the dataset tree, runs the decision pipeline for every
perfusion acquisition, invokes the quantification engine for runs with a
complete request, and writes the batch summary table. Individual runs that
cannot be processed are recorded with their reason; only missing external
tools abort the batch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return err
		}
		if outputDir != "" {
			cfg.Output.Dir = outputDir
		}
		if participants != "" {
			cfg.Output.Participants = participants
		}

		log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

		p := pipeline.New(cfg, log)
		summary, err := p.Run(c.Context(), args[0])
		if err != nil {
			log.Error("batch aborted", "err", err)
			return err
		}

		if cfg.Output.RenderTable {
			summary.Render(os.Stdout)
		}
		return nil
	},
}

func init() {
	processCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default from config)")
	processCmd.Flags().StringVar(&participants, "participants", "", "participants table to merge into the summary")
	rootCmd.AddCommand(processCmd)
}
