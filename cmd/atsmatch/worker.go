package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/p-shah256/atsmatch/internal/config"
	"github.com/p-shah256/atsmatch/internal/resume"
	"github.com/p-shah256/atsmatch/internal/storage"
	"github.com/p-shah256/atsmatch/internal/worker"
)

//nolint:gochecknoglobals // Cobra boilerplate
var workerCount int

//nolint:gochecknoglobals // Cobra boilerplate
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume analysis jobs from RabbitMQ",
	Long: `Consume analysis jobs from the analysis_requests queue and publish each
outcome to the analysis_results topic exchange under analysis.<job id>.

Jobs that reference a resume_key are downloaded from S3 compatible storage
configured with the S3_* variables.`,
	RunE: runWorker,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.Flags().IntVar(&workerCount, "workers", 0, "Number of consumers (default from WORKER_COUNT or config)")
}

func runWorker(cmd *cobra.Command, args []string) error {
	if workerCount > 0 {
		cfg.Queue.Workers = workerCount
	}
	if err := cfg.Validate(config.ModeWorker); err != nil {
		return err
	}

	svcs, err := newServices(cfg)
	if err != nil {
		return err
	}
	defer svcs.Close()

	var store storage.ObjectStore
	if cfg.HasStorage() {
		s3Store, err := storage.NewS3Store(cmd.Context(), cfg.Storage, resume.MaxFileSize)
		if err != nil {
			return err
		}
		store = s3Store
	} else {
		slog.Warn("object storage not configured, jobs must carry resume_text")
	}

	pool := worker.NewPool(cfg.Queue, worker.NewProcessor(svcs.analyzer, store))
	slog.Info("Starting worker pool", "workers", cfg.Queue.Workers, "queue", cfg.Queue.Queue)
	return pool.Run(cmd.Context(), cfg.Queue.Workers)
}
