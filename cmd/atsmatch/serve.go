package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/p-shah256/atsmatch/internal/api"
	"github.com/p-shah256/atsmatch/internal/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var servePort int

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from PORT or config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePort > 0 {
		cfg.Port = servePort
	}
	if err := cfg.Validate(config.ModeServe); err != nil {
		return err
	}

	svcs, err := newServices(cfg)
	if err != nil {
		return err
	}
	defer svcs.Close()

	server := api.NewServer(cfg.Port, svcs.analyzer,
		api.WithRateLimit(cfg.API.RateLimitRPS, cfg.API.RateLimitBurst),
		api.WithImprover(svcs.improver),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-cmd.Context().Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
