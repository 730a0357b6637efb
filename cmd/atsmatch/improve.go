package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/p-shah256/atsmatch/internal/resume"
	"github.com/p-shah256/atsmatch/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var (
	improveResume      string
	improveJob         string
	improveSuggestions string
	improveOut         string
)

//nolint:gochecknoglobals // Cobra boilerplate
var improveCmd = &cobra.Command{
	Use:   "improve",
	Short: "Rewrite a resume with improvement suggestions applied",
	Long: `Rewrite a resume so that it applies a list of suggestions. Suggestions come
from a file (one per line) or, when only --job is given, from analyzing the
resume against that job description first. Requires a configured LLM provider.

Example:
  atsmatch improve --resume cv.pdf --job posting.html --out improved.md
  atsmatch improve --resume cv.md --suggestions todo.txt`,
	RunE: runImprove,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(improveCmd)
	improveCmd.Flags().StringVar(&improveResume, "resume", "", "Resume file (pdf, docx, txt, md or yaml)")
	improveCmd.Flags().StringVar(&improveJob, "job", "", "Job description file (text or html)")
	improveCmd.Flags().StringVar(&improveSuggestions, "suggestions", "", "File with one suggestion per line")
	improveCmd.Flags().StringVar(&improveOut, "out", "", "Write the rewritten resume here instead of stdout")
	improveCmd.MarkFlagRequired("resume")
	improveCmd.MarkFlagsOneRequired("job", "suggestions")
}

func runImprove(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(improveResume)
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}
	parsed, err := resume.Parse(filepath.Base(improveResume), "", data)
	if err != nil {
		return fmt.Errorf("failed to parse resume: %w", err)
	}

	var jd string
	if improveJob != "" {
		if jd, err = readJobDescription(improveJob); err != nil {
			return err
		}
	}

	svcs, err := newServices(cfg)
	if err != nil {
		return err
	}
	defer svcs.Close()

	var items []string
	if improveSuggestions != "" {
		if items, err = readSuggestions(improveSuggestions); err != nil {
			return err
		}
	} else {
		result, err := svcs.analyzer.Analyze(cmd.Context(), types.AnalysisRequest{
			JobDescription: jd,
			ResumeText:     parsed.Content,
		})
		if err != nil {
			return err
		}
		items = result.Suggestions
	}

	improved, err := svcs.improver.Improve(cmd.Context(), types.ImproveRequest{
		ResumeText:     parsed.Content,
		JobDescription: jd,
		Suggestions:    items,
	})
	if err != nil {
		return err
	}

	if improveOut == "" {
		_, err = io.WriteString(cmd.OutOrStdout(), improved.ImprovedResume+"\n")
		return err
	}
	return os.WriteFile(improveOut, []byte(improved.ImprovedResume+"\n"), 0o644)
}

// readSuggestions reads one suggestion per non-blank line. A leading "1." style
// number is dropped.
func readSuggestions(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suggestions: %w", err)
	}

	var items []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if n := strings.IndexByte(line, '.'); n > 0 && strings.Trim(line[:n], "0123456789") == "" &&
			strings.HasPrefix(line[n+1:], " ") {
			line = strings.TrimSpace(line[n+1:])
		}
		if line != "" {
			items = append(items, line)
		}
	}
	if len(items) == 0 {
		return nil, errors.New("suggestions file is empty")
	}
	return items, nil
}
