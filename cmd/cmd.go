// Package cmd implements the sentinel command line.
package cmd

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/logger"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/service/bootstrap"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/service/config"
)

var (
	envFile   string
	logLevel  string
	promptDir string
	output    string
	timeout   time.Duration

	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "sentinel",
	Short:         "Plan deployments and diagnose runtime errors with a large-context reasoning engine",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(envFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.LogLevel = logLevel
		}
		if promptDir != "" {
			loaded.PromptDir = promptDir
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		if output != "yaml" && output != "json" {
			return errors.Newf(errors.CodeInvalidParameter, "cli", "unsupported output format %q (yaml, json)", output)
		}
		cfg = loaded
		logger.Init(logger.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})
		log = logger.Component("cli")
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Get().Error().Err(err).Str("code", string(errors.CodeOf(err))).Msg("Command failed")
		if isLLMError(err) {
			printLLMHelp(os.Stderr)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load before reading SENTINEL_* variables")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&promptDir, "prompt-dir", "", "Directory of prompt templates that replace the built-in ones")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "yaml", "Output format: yaml or json")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 10*time.Minute, "Timeout for the whole operation")

	rootCmd.AddCommand(analyzeCmd, mapCmd, contextCmd, diagnoseCmd, scaffoldCmd, testCmd, historyCmd, promptsCmd)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func newRuntime(ctx context.Context) (*bootstrap.Runtime, error) {
	return bootstrap.NewBootstrapper(logger.Get(), cfg, nil).NewRuntime(ctx)
}

// printOutput renders v in the selected format.
func printOutput(w io.Writer, v any) error {
	var data []byte
	var err error
	switch output {
	case "json":
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	default:
		data, err = yaml.Marshal(v)
	}
	if err != nil {
		return errors.New(errors.CodeInternalError, "cli", "failed to encode output", err)
	}
	_, err = w.Write(data)
	return err
}
