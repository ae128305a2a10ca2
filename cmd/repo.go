package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/core/ingest"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/docker"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/sentinel"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/logger"
)

var scaffoldOut string

var mapCmd = &cobra.Command{
	Use:   "map <path>",
	Short: "Print the locally computed repository map",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ing, err := ingest.NewLocalIngestor(logger.Get(), args[0])
		if err != nil {
			return err
		}
		m, err := ing.BuildRepoMap()
		if err != nil {
			return err
		}
		secrets, err := ing.SecretInventory()
		if err != nil {
			return err
		}
		return printOutput(cmd.OutOrStdout(), struct {
			RepoMap    *sentinel.RepoMap            `json:"repo_map"`
			Secrets    []sentinel.SecretRequirement `json:"secrets"`
			Guidelines sentinel.UserGuidelines      `json:"guidelines"`
		}{m, secrets, guidelinesOf(ing, log)})
	},
}

var contextCmd = &cobra.Command{
	Use:   "context <path>",
	Short: "Print the concatenated context sent to the reasoning engine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ing, err := ingest.NewLocalIngestor(logger.Get(), args[0])
		if err != nil {
			return err
		}
		full, err := ing.FullContext()
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), full)
		return err
	},
}

var scaffoldCmd = &cobra.Command{
	Use:   "scaffold <path>",
	Short: "Write a baseline Dockerfile from the draft template for the detected language",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ing, err := ingest.NewLocalIngestor(logger.Get(), args[0])
		if err != nil {
			return err
		}
		m, err := ing.BuildRepoMap()
		if err != nil {
			return err
		}
		out := scaffoldOut
		if out == "" {
			out = ing.RepoPath()
		}
		name, err := docker.NewScaffolder(logger.Get()).Scaffold(m, out)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Generated Dockerfile in %s from %s\n", out, name)
		return err
	},
}

func guidelinesOf(ing *ingest.Ingestor, log zerolog.Logger) sentinel.UserGuidelines {
	ug, _, err := ingest.ParseGuidelines(ing.ReadGuidelines())
	if err != nil {
		log.Warn().Err(err).Msg("Ignoring malformed guidelines front-matter")
	}
	return ug
}

func init() {
	scaffoldCmd.Flags().StringVar(&scaffoldOut, "out", "", "Output directory (defaults to the repository)")
}
