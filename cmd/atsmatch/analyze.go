package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/p-shah256/atsmatch/internal/cleaner"
	"github.com/p-shah256/atsmatch/internal/resume"
	"github.com/p-shah256/atsmatch/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var (
	jobFile    string
	resumeFile string
	jsonOutput bool
)

//nolint:gochecknoglobals // Cobra boilerplate
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a resume against a job description",
	Long: `Analyze a local resume file against a job description file and print the
score, keyword lists and suggestions.

Example:
  atsmatch analyze --job posting.html --resume Jane_CV.pdf
  atsmatch analyze --job jd.txt --resume cv.yaml --json`,
	RunE: runAnalyze,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&jobFile, "job", "", "Job description file (text or html)")
	analyzeCmd.Flags().StringVar(&resumeFile, "resume", "", "Resume file (pdf, docx, txt, md or yaml)")
	analyzeCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	analyzeCmd.MarkFlagRequired("job")
	analyzeCmd.MarkFlagRequired("resume")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	jd, err := readJobDescription(jobFile)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(resumeFile)
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}
	parsed, err := resume.Parse(filepath.Base(resumeFile), "", data)
	if err != nil {
		return fmt.Errorf("failed to parse resume: %w", err)
	}

	svcs, err := newServices(cfg)
	if err != nil {
		return err
	}
	defer svcs.Close()

	result, err := svcs.analyzer.Analyze(cmd.Context(), types.AnalysisRequest{
		JobDescription: jd,
		ResumeText:     parsed.Content,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printReport(cmd.OutOrStdout(), result)
	return nil
}

func readJobDescription(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read job description: %w", err)
	}

	text := string(data)
	c := cleaner.NewCleaner()
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".html" || ext == ".htm" || c.LooksLikeHTML(text) {
		text = c.CleanHTML(text)
	}
	return text, nil
}

func printReport(w io.Writer, r *types.AnalysisResult) {
	fmt.Fprintf(w, "Score:    %d%% (%s)\n", r.Score, r.Level)
	fmt.Fprintf(w, "Keywords: %s\n", strings.Join(r.ExtractedKeywords, ", "))
	fmt.Fprintf(w, "Matched:  %s\n", strings.Join(r.MatchedKeywords, ", "))
	fmt.Fprintf(w, "Missing:  %s\n", strings.Join(r.MissingKeywords, ", "))
	fmt.Fprintf(w, "\nSuggestions (%s):\n", r.SuggestionsSource)
	for i, s := range r.Suggestions {
		fmt.Fprintf(w, "  %d. %s\n", i+1, s)
	}
}
