package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage ingested documents",
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete [filename]",
	Short: "Delete one document's tables and vectors",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsDelete,
}

var documentsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored table and vector",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsClear,
}

func init() {
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	documentsCmd.AddCommand(documentsClearCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	names, err := ingestService.ListDocuments(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("list documents failed: %w", err)
	}

	if len(names) == 0 {
		cmd.Println("No documents ingested.")
		return nil
	}
	for _, name := range names {
		cmd.Println(name)
	}
	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if err := ingestService.DeleteDocument(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	cmd.Printf("Deleted %s.\n", args[0])
	return nil
}

func runDocumentsClear(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if err := ingestService.ClearAll(commandContext(cmd)); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}
	cmd.Println("Cleared all documents.")
	return nil
}
