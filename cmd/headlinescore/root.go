package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/headlinescore/internal/batch"
	"github.com/crimson-sun/headlinescore/internal/config"
	"github.com/crimson-sun/headlinescore/internal/engine"
	"github.com/crimson-sun/headlinescore/internal/logging"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var errUsage = errors.New("usage: headlinescore <input_file.txt> <source_name>")

var (
	configPath        string
	outputDirOverride string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "headlinescore <input_file.txt> <source_name>",
	Short: "Score news headlines as Optimistic, Pessimistic, or Neutral",
	Long: `Reads one headline per line from <input_file.txt>, classifies them in a
single batch, and writes "label,headline" lines to
headline_scores_<source_name>_<YYYY>_<MM>_<DD>.txt.

Use "headlinescore serve" to run the HTTP API and "headlinescore client" for
the interactive client.`,
	Version:           Version,
	Args:              batchArgs,
	PersistentPreRunE: setup,
	RunE:              runBatch,
	SilenceErrors:     true,
	SilenceUsage:      true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"YAML config file (overrides HEADLINES_CONFIG_PATH)")
	rootCmd.Flags().StringVar(&outputDirOverride, "output-dir", "",
		"Directory for the results file (overrides output.dir)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(clientCmd)
}

func batchArgs(_ *cobra.Command, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	return nil
}

// setup loads configuration and installs the logger for every command.
func setup(_ *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	logging.Init(cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))
	slog.Debug("configuration loaded", "config", configPath)
	return nil
}

// runBatch checks the input before loading any model, so bad input fails
// fast.
func runBatch(cmd *cobra.Command, args []string) error {
	inputPath, source := args[0], args[1]

	headlines, err := batch.ReadHeadlines(inputPath)
	if err != nil {
		return err
	}
	if err := batch.ValidateSource(source); err != nil {
		return err
	}

	bundle, err := engine.LoadBundle(cmd.Context(), bundleConfig(cfg))
	if err != nil {
		return err
	}
	defer bundle.Close()

	dir := cfg.Output.Dir
	if outputDirOverride != "" {
		dir = outputDirOverride
	}
	runner := &batch.Runner{
		Classifier: engine.New(bundle, engine.WithMaxBatch(len(headlines))),
		Dir:        dir,
	}
	path, err := runner.Run(cmd.Context(), headlines, source)
	if err != nil {
		return fmt.Errorf("scoring %s: %w", inputPath, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Predictions written to %s\n", path)
	return nil
}

func bundleConfig(c *config.Config) engine.BundleConfig {
	return engine.BundleConfig{
		LocalModelDir:   c.Model.LocalDir,
		ModelName:       c.Model.Name,
		CacheDir:        c.Model.CacheDir,
		HubURL:          c.Model.HubURL,
		HubToken:        c.Model.HubToken,
		RuntimeLibrary:  c.Model.RuntimeLibrary,
		ClassifierPath:  c.Model.ClassifierPath,
		IntraOpThreads:  c.Model.IntraOpThreads,
		MaxSeqLen:       c.Model.MaxSeqLen,
		DownloadTimeout: c.Model.DownloadTimeout.Std(),
	}
}
