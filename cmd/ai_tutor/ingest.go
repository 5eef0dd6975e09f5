package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var ingestName string

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Index a PDF, text or markdown file",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "source name (defaults to the file name)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, _, _, err := startApp(ctx, nil)
	if err != nil {
		return err
	}

	res := a.IngestFile(ctx, args[0], ingestName)
	if !res.Success {
		return errors.New(res.Error)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %s: %d pages, %d chunks (document %s)\n", args[0], res.PageCount, res.ChunkCount, res.DocumentID)
	return nil
}
