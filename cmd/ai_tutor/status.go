package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show available tools and the loaded document",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, _, _, err := startApp(context.Background(), nil)
	if err != nil {
		return err
	}

	out := struct {
		Status   any `json:"status"`
		Document any `json:"document,omitempty"`
	}{Status: a.Status()}
	if doc, ok := a.CurrentDocument(); ok {
		out.Document = doc
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
