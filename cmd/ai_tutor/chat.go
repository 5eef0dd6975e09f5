package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var chatSession string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive console session",
	Long: `Reads one line at a time from stdin. A path to an existing file is
ingested; anything else is sent to the tutor.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSession, "session", "console", "session ID for conversation history")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, _, _, err := startApp(ctx, nil)
	if err != nil {
		return err
	}
	return a.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), chatSession)
}
