package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/p-shah256/atsmatch/internal/keywords"
	"github.com/p-shah256/atsmatch/internal/llm"
	"github.com/p-shah256/atsmatch/internal/suggestions"
	"github.com/p-shah256/atsmatch/pkg/logger"
	"github.com/p-shah256/atsmatch/pkg/types"
)

const (
	// MinJobDescriptionLength is the shortest trimmed job description, in runes, worth analyzing.
	MinJobDescriptionLength = 100
	DefaultTimeout          = 30 * time.Second
)

var ErrJobDescriptionTooShort = fmt.Errorf("job description must be at least %d characters", MinJobDescriptionLength)

// Service scores a resume against a job description and asks an LLM for
// improvement suggestions. A nil provider always yields the fallback list.
type Service struct {
	provider llm.Provider
	timeout  time.Duration
}

type Option func(*Service)

// WithTimeout bounds the suggestion call. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func New(provider llm.Provider, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateJobDescription rejects descriptions too short to analyze.
func ValidateJobDescription(jd string) error {
	if utf8.RuneCountInString(strings.TrimSpace(jd)) < MinJobDescriptionLength {
		return ErrJobDescriptionTooShort
	}
	return nil
}

// Analyze never fails because of the LLM: provider errors, timeouts and
// unparseable replies all produce the fallback suggestions.
func (s *Service) Analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisResult, error) {
	log := slog.With(
		"component", "analyzer",
		"operation", "analyze",
		"request_id", logger.GetRequestID(ctx),
	)

	if err := ValidateJobDescription(req.JobDescription); err != nil {
		return nil, err
	}

	start := time.Now()
	core := keywords.Analyze(req.JobDescription, req.ResumeText)
	log.Debug("keyword analysis done",
		"keywords", len(core.Keywords),
		"matched", len(core.Matched),
		"score", core.Score)

	// Numbered lines are scanned across the whole reply, fenced or not.
	raw := s.generate(ctx, log, req, core.Missing)
	list, fromLLM := suggestions.Parse(raw)

	source := types.SourceFallback
	if fromLLM {
		source = types.SourceLLM
	}

	log.Info("analysis completed",
		"score", core.Score,
		"suggestions_source", source,
		"duration_ms", time.Since(start).Milliseconds())

	return &types.AnalysisResult{
		Score:             core.Score,
		Level:             Level(core.Score),
		ExtractedKeywords: core.Keywords,
		MatchedKeywords:   core.Matched,
		MissingKeywords:   core.Missing,
		Suggestions:       list,
		SuggestionsSource: source,
	}, nil
}

// generate returns the raw LLM reply, or "" when there is none.
func (s *Service) generate(ctx context.Context, log *slog.Logger, req types.AnalysisRequest, missing []string) string {
	if s.provider == nil {
		log.Debug("no LLM provider configured, using fallback suggestions")
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	prompt := suggestions.BuildPrompt(req.ResumeText, req.JobDescription, missing)
	raw, err := s.provider.Generate(ctx, suggestions.SystemPrompt, prompt)
	if err != nil {
		level := slog.LevelError
		if errors.Is(err, context.Canceled) {
			level = slog.LevelWarn
		}
		log.Log(ctx, level, "suggestion generation failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return ""
	}

	log.Debug("received LLM response",
		"response_length", len(raw),
		"duration_ms", time.Since(start).Milliseconds())
	return raw
}

// Level buckets a score for display.
func Level(score int) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	default:
		return "Needs Work"
	}
}
