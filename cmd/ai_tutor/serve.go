package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ai_tutor/internal/metrics"
	"ai_tutor/internal/server"
)

var (
	servePort int
	servePDF  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (PORT)")
	serveCmd.Flags().StringVar(&servePDF, "pdf", "", "document ingested at startup when the index is empty (PDF_PATH)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if servePort > 0 {
		setenv("PORT", strconv.Itoa(servePort))
	}
	setenv("PDF_PATH", servePDF)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)
	a, cfg, log, err := startApp(ctx, m)
	if err != nil {
		return err
	}

	srv := server.New(a, server.Config{
		Addr:          cfg.Addr(),
		UploadDir:     cfg.UploadDir,
		MaxUploadSize: cfg.MaxUploadSize,
	}, log, m)

	log.LogServerStart(cfg.Addr(), cfg.DataDir)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.LogServerShutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
