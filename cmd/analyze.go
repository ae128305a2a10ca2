package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/sentinel"
)

var (
	guidelinesFile string
	writeDir       string
	keepCheckout   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <repo-url|path>",
	Short: "Generate a repository map and deployment plan",
	Long: `The analyze command clones (or reads) a repository, sends its full context to the
reasoning engine and prints the resulting repository map and deployment plan.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		guidelines := ""
		if guidelinesFile != "" {
			data, err := os.ReadFile(guidelinesFile)
			if err != nil {
				return errors.New(errors.CodeIoError, "cli", "read guidelines file", err)
			}
			guidelines = string(data)
		}

		rt, err := newRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		prog := newProgress(cmd.ErrOrStderr())
		prog.Begin("Analyzing " + args[0])
		analysis, err := rt.Pipeline.Analyze(ctx, args[0], guidelines)
		prog.Done("Analysis finished")
		if err != nil {
			return err
		}
		if !keepCheckout {
			if err := rt.Pipeline.Cleanup(); err != nil {
				log.Warn().Err(err).Msg("Failed to remove checkout")
			}
		}

		if writeDir != "" {
			if err := writeArtifacts(writeDir, analysis.Plan); err != nil {
				return err
			}
			log.Info().Str("dir", writeDir).Msg("Wrote Dockerfile and main.tf")
		}
		return printOutput(cmd.OutOrStdout(), analysis)
	},
}

func writeArtifacts(dir string, plan *sentinel.DeploymentPlan) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.New(errors.CodeIoError, "cli", "create output directory", err)
	}
	files := map[string]string{
		"Dockerfile": plan.Dockerfile.FullContent,
		"main.tf":    plan.Terraform.FullContent,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return errors.New(errors.CodeIoError, "cli", "write "+name, err)
		}
	}
	return nil
}

func init() {
	analyzeCmd.Flags().StringVarP(&guidelinesFile, "guidelines", "g", "", "Deployment guidelines file (overrides the repository's own)")
	analyzeCmd.Flags().StringVarP(&writeDir, "write", "w", "", "Write the generated Dockerfile and main.tf into this directory")
	analyzeCmd.Flags().BoolVar(&keepCheckout, "keep", false, "Keep the cloned checkout in the workspace")
}
