package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"aslquant/pkg/config"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "aslquant",
	Short: "Perfusion-MRI quantification pipeline",
	Long: `aslquant walks a dataset of perfusion-MRI (ASL) acquisitions, resolves
their incomplete metadata, classifies control/label volumes, derives
calibration images where none were acquired, and drives the external
quantification engine, aggregating its reports into a summary table.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initEnv)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "aslquant.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error (default from config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console or json (default from config)")
}

// initEnv binds environment variable overrides for the external tools.
func initEnv() {
	viper.SetEnvPrefix("aslquant")
	viper.AutomaticEnv()
	viper.BindEnv("converter", "ASLQUANT_CONVERTER")
	viper.BindEnv("validator", "ASLQUANT_VALIDATOR")
	viper.BindEnv("quantifier", "ASLQUANT_QUANTIFIER")
}

// loadConfig loads the YAML configuration and applies flag and environment
// overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	if v := viper.GetString("converter"); v != "" {
		cfg.Tools.Converter = v
	}
	if v := viper.GetString("validator"); v != "" {
		cfg.Tools.Validator = v
	}
	if v := viper.GetString("quantifier"); v != "" {
		cfg.Tools.Quantifier = v
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}
