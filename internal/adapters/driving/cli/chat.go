package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sift-labs/tableqa/internal/adapters/driving/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive question-answering session",
	Long: `Start an interactive terminal session for asking questions about
your ingested documents. Each question runs the full hybrid retrieval:
semantic search over narrative text plus exact table lookups.

Controls:
  Enter - Ask the current question
  Esc   - Quit`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if queryService == nil {
			return fmt.Errorf("query service not configured")
		}
		return tui.Run(cmd.Context(), queryService)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
