package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sift-labs/tableqa/internal/core/domain"
	"github.com/sift-labs/tableqa/internal/core/ports/driving"
)

var (
	askFile    string
	askDebug   bool
	askNoCache bool
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the ingested documents",
	Long: `Answers a question using semantic search over narrative text combined
with exact lookups in the tables of the most relevant document.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askFile, "file", "f", "", "restrict table lookups to one source filename")
	askCmd.Flags().BoolVar(&askDebug, "debug", false, "print the full rendered prompt")
	askCmd.Flags().BoolVar(&askNoCache, "no-cache", false, "bypass the query cache")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	answer, err := queryService.Ask(commandContext(cmd), args[0], driving.AskOptions{
		FileFilter:  askFile,
		Debug:       askDebug,
		BypassCache: askNoCache,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if askDebug && answer.Prompt != "" {
		cmd.Println("--- PROMPT ---")
		cmd.Println(answer.Prompt)
		cmd.Println("--- END PROMPT ---")
		cmd.Println()
	}

	cmd.Println(answer.Text)
	printSources(cmd, answer.Sources)

	if answer.Cached {
		cmd.Println("\n(cached)")
	} else {
		cmd.Printf("\n(took %s)\n", answer.Took.Round(time.Millisecond))
	}
	return nil
}

func printSources(cmd *cobra.Command, sources []domain.Source) {
	if len(sources) == 0 {
		return
	}
	cmd.Println("\nSources:")
	for i, source := range sources {
		cmd.Printf("  [%d] %s %s: %s\n", i+1, source.Type, source.Filename, source.Snippet)
	}
}
