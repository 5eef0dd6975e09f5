package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	askSession    string
	askDocument   bool
	askNoDocument bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askSession, "session", "cli", "session ID for conversation history")
	askCmd.Flags().BoolVar(&askDocument, "document", false, "force document context")
	askCmd.Flags().BoolVar(&askNoDocument, "no-document", false, "never use document context")
	askCmd.MarkFlagsMutuallyExclusive("document", "no-document")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, _, _, err := startApp(ctx, nil)
	if err != nil {
		return err
	}

	var useDocument *bool
	switch {
	case askDocument:
		useDocument = &askDocument
	case askNoDocument:
		no := false
		useDocument = &no
	}

	reply := a.Chat(ctx, strings.Join(args, " "), askSession, useDocument)
	fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", reply.Source, reply.Output)
	return nil
}
