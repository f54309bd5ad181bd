package cmd

import (
	"github.com/spf13/cobra"

	"aslquant/pkg/logging"
	"aslquant/pkg/tools"
)

// convertCmd runs the external format converter on a raw acquisition
// directory, producing NIfTI volumes the pipeline can process.
var convertCmd = &cobra.Command{
	Use:   "convert <dicom-dir> <output-dir>",
	Short: "Convert a raw DICOM directory to NIfTI",
	Args:  cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

		runner := tools.NewRunner(tools.Config{Converter: cfg.Tools.Converter}, log)
		if err := runner.Convert(c.Context(), args[0], args[1]); err != nil {
			log.Error("conversion failed", "err", err)
			return err
		}
		log.Info("conversion completed", "output", args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
