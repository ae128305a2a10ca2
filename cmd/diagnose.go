package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/ai"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/sentinel"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/infrastructure/persistence/history"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/logger"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/service/bootstrap"
)

var (
	errorMessage string
	traceFile    string
	affectedFile string
	affectedLine int
	statuses     []string
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <path>",
	Short: "Propose a fix for a runtime error in a local repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		report := sentinel.ErrorReport{
			ErrorMessage: errorMessage,
			AffectedFile: affectedFile,
			AffectedLine: affectedLine,
		}
		if traceFile != "" {
			data, err := os.ReadFile(traceFile)
			if err != nil {
				return errors.New(errors.CodeIoError, "cli", "read stack trace", err)
			}
			report.StackTrace = string(data)
		}

		rt, err := newRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		if _, err := rt.Pipeline.Ingest(ctx, args[0]); err != nil {
			return err
		}
		prog := newProgress(cmd.ErrOrStderr())
		prog.Begin("Diagnosing " + report.ErrorType())
		fix, warnings, err := rt.Pipeline.Diagnose(ctx, report)
		prog.Done("Diagnosis finished")
		if err != nil {
			return err
		}
		for _, w := range warnings {
			log.Debug().Str("field", w.Field).Str("reason", w.Reason).Msg("Diagnosis field defaulted")
		}
		return printOutput(cmd.OutOrStdout(), fix)
	},
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the reasoning engine connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		b := bootstrap.NewBootstrapper(logger.Get(), cfg, nil)
		client, err := b.NewClient(ctx)
		if err != nil {
			return err
		}
		return ai.TestConnection(ctx, client, log)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List fix proposals and thought signatures kept in the history store",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := bootstrap.NewBootstrapper(logger.Get(), cfg, nil).OpenHistory()
		if err != nil {
			return err
		}
		if store == nil {
			return errors.New(errors.CodeConfigurationInvalid, "cli", "no history store configured; set SENTINEL_STORE_PATH", nil)
		}
		defer store.Close()
		return printHistory(cmd.Context(), cmd, store)
	},
}

func printHistory(ctx context.Context, cmd *cobra.Command, store *history.BoltStore) error {
	var filters []history.Filter
	if len(statuses) > 0 {
		fs := make([]sentinel.FixStatus, len(statuses))
		for i, s := range statuses {
			fs[i] = sentinel.FixStatus(s)
		}
		filters = append(filters, history.WithStatus(fs...))
	}

	proposals, err := store.ListProposals(ctx, filters...)
	if err != nil {
		return err
	}
	sigs, err := store.ListSignatures(ctx)
	if err != nil {
		return err
	}
	return printOutput(cmd.OutOrStdout(), struct {
		Proposals  []sentinel.FixProposal      `json:"proposals"`
		Signatures []sentinel.ThoughtSignature `json:"signatures"`
	}{proposals, sigs})
}

func init() {
	diagnoseCmd.Flags().StringVarP(&errorMessage, "message", "m", "", "Error message, e.g. \"KeyError: 'DATABASE_URL'\"")
	diagnoseCmd.Flags().StringVar(&traceFile, "trace-file", "", "File containing the stack trace")
	diagnoseCmd.Flags().StringVarP(&affectedFile, "file", "f", "", "File where the error was raised")
	diagnoseCmd.Flags().IntVarP(&affectedLine, "line", "l", 0, "Line where the error was raised")
	_ = diagnoseCmd.MarkFlagRequired("message")

	historyCmd.Flags().StringSliceVar(&statuses, "status", nil, "Only list proposals in these states")
}
