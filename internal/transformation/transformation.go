package transformation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/p-shah256/atsmatch/internal/cleaner"
	"github.com/p-shah256/atsmatch/internal/llm"
	"github.com/p-shah256/atsmatch/pkg/logger"
	"github.com/p-shah256/atsmatch/pkg/types"
)

// DefaultTimeout is longer than the analysis timeout: the reply is a whole resume.
const DefaultTimeout = 60 * time.Second

const systemPrompt = "You are a resume optimization expert who helps tailor resumes to specific job descriptions."

var (
	ErrNoProvider    = errors.New("resume improvement needs a configured LLM provider")
	ErrEmptyResume   = errors.New("resume_text is required")
	ErrNoSuggestions = errors.New("at least one suggestion is required")
)

// Service rewrites a resume so that it applies a list of suggestions.
// Unlike analysis there is no fallback: without an LLM reply there is nothing to return.
type Service struct {
	provider llm.Provider
	timeout  time.Duration
	clean    *cleaner.Cleaner
}

type Option func(*Service)

// WithTimeout bounds the rewrite call. Non-positive values keep the default.
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
		clean:    cleaner.NewCleaner(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Improve returns the rewritten resume as plain text. A reply wrapped in a
// code fence is unwrapped.
func (s *Service) Improve(ctx context.Context, req types.ImproveRequest) (*types.ImproveResponse, error) {
	log := slog.With(
		"component", "transformation",
		"operation", "improve",
		"request_id", logger.GetRequestID(ctx),
	)

	if strings.TrimSpace(req.ResumeText) == "" {
		return nil, ErrEmptyResume
	}
	items := nonEmpty(req.Suggestions)
	if len(items) == 0 {
		return nil, ErrNoSuggestions
	}
	if s.provider == nil {
		return nil, ErrNoProvider
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.provider.Generate(ctx, systemPrompt, BuildPrompt(req.ResumeText, req.JobDescription, items))
	if err != nil {
		log.Error("resume improvement failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("resume improvement failed: %w", err)
	}

	improved := s.clean.CleanLlmResponse(raw)
	if improved == "" {
		return nil, fmt.Errorf("resume improvement failed: %w", llm.ErrEmptyResponse)
	}

	log.Info("resume improved",
		"suggestions", len(items),
		"original_length", len(req.ResumeText),
		"improved_length", len(improved),
		"duration_ms", time.Since(start).Milliseconds())

	return &types.ImproveResponse{ImprovedResume: improved}, nil
}

// BuildPrompt asks for the resume rewritten with every suggestion applied.
// The job description section is only included when one is given.
func BuildPrompt(resumeText, jobDescription string, items []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Here is my resume:\n%s\n\n", strings.TrimSpace(resumeText))
	fmt.Fprintf(&sb, "Here are suggestions for improvement:\n%s\n\n", strings.Join(items, "\n"))
	if jd := strings.TrimSpace(jobDescription); jd != "" {
		fmt.Fprintf(&sb, "Job description:\n%s\n\n", jd)
	}
	sb.WriteString("Please rewrite my resume to incorporate these suggestions and optimize it for the job description. " +
		"Return only the rewritten resume as plain text.")
	return sb.String()
}

func nonEmpty(list []string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
