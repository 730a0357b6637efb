package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/p-shah256/atsmatch/internal/resume"
	"github.com/p-shah256/atsmatch/internal/worker"
	"github.com/p-shah256/atsmatch/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var (
	submitJob       string
	submitResume    string
	submitResumeKey string
	submitMime      string
)

//nolint:gochecknoglobals // Cobra boilerplate
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Queue an analysis job for the worker",
	Long: `Queue an analysis job on RabbitMQ. The resume is either read from a local
file and sent inline, or referenced by its object storage key.

Example:
  atsmatch submit --job jd.txt --resume cv.pdf
  atsmatch submit --job jd.txt --resume-key uploads/jane.pdf --resume-mime application/pdf`,
	RunE: runSubmit,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().StringVar(&submitJob, "job", "", "Job description file (text or html)")
	submitCmd.Flags().StringVar(&submitResume, "resume", "", "Local resume file, sent as text")
	submitCmd.Flags().StringVar(&submitResumeKey, "resume-key", "", "Object storage key of an uploaded resume")
	submitCmd.Flags().StringVar(&submitMime, "resume-mime", "", "Content type of the stored resume")
	submitCmd.MarkFlagRequired("job")
	submitCmd.MarkFlagsMutuallyExclusive("resume", "resume-key")
	submitCmd.MarkFlagsOneRequired("resume", "resume-key")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	if cfg.Queue.URL == "" {
		return fmt.Errorf("missing required configuration: RABBITMQ_URL")
	}

	jd, err := readJobDescription(submitJob)
	if err != nil {
		return err
	}

	job := types.AnalysisJob{
		ID:             uuid.NewString(),
		JobDescription: jd,
		ResumeKey:      submitResumeKey,
		ResumeMime:     submitMime,
	}
	if submitResume != "" {
		data, err := os.ReadFile(submitResume)
		if err != nil {
			return fmt.Errorf("failed to read resume: %w", err)
		}
		parsed, err := resume.Parse(filepath.Base(submitResume), "", data)
		if err != nil {
			return fmt.Errorf("failed to parse resume: %w", err)
		}
		job.ResumeText = parsed.Content
	}

	if err := worker.Submit(cmd.Context(), cfg.Queue, job); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "queued job %s, outcome routing key %s\n", job.ID, worker.RoutingKey(job.ID))
	return nil
}
