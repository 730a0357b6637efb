package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/p-shah256/atsmatch/internal/analyzer"
	"github.com/p-shah256/atsmatch/internal/config"
	"github.com/p-shah256/atsmatch/internal/llm"
	"github.com/p-shah256/atsmatch/internal/transformation"
	"github.com/p-shah256/atsmatch/pkg/logger"
)

//nolint:gochecknoglobals // Cobra boilerplate
var (
	configPath string
	cfg        *config.Config
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "atsmatch",
	Short: "Score resumes against job descriptions",
	Long: `atsmatch extracts keywords from a job description, checks which of them a
resume contains, scores the match and asks an LLM for five improvement
suggestions.

It runs as an HTTP API (serve), a RabbitMQ consumer (worker), a Discord bot
(bot) or as one-off local commands (analyze, improve, submit).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logger.Setup(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cmd.ErrOrStderr()})
		return nil
	},
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
}

// services share one LLM provider.
type services struct {
	analyzer *analyzer.Service
	improver *transformation.Service
	provider llm.Provider
}

func (s *services) Close() {
	llm.Close(s.provider)
}

// newServices builds the analysis and improvement services. A missing API key
// is not fatal: suggestions then fall back to the fixed list and improvement
// is unavailable.
func newServices(c *config.Config) (*services, error) {
	provider, err := llm.New(c.LLM)
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		slog.Warn("no LLM API key configured, suggestions will use the fallback list", "provider", c.LLM.Provider)
		provider = nil
	case err != nil:
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	default:
		slog.Info("LLM provider ready", "provider", c.LLM.Provider)
	}

	return &services{
		analyzer: analyzer.New(provider, analyzer.WithTimeout(c.LLM.Timeout)),
		improver: transformation.New(provider),
		provider: provider,
	}, nil
}
