package cmd

import (
	"github.com/spf13/cobra"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/logger"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/service/bootstrap"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List the prompt templates in use and where each was loaded from",
	Long: `List the prompt templates in use. Templates in SENTINEL_PROMPT_DIR replace
the built-in template with the same id.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := bootstrap.NewBootstrapper(logger.Get(), cfg, nil).PromptManager()
		if err != nil {
			return err
		}
		return printOutput(cmd.OutOrStdout(), manager.ListTemplates())
	},
}
