package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/p-shah256/atsmatch/internal/resume"
	"github.com/p-shah256/atsmatch/internal/storage"
	"github.com/p-shah256/atsmatch/pkg/logger"
	"github.com/p-shah256/atsmatch/pkg/types"
)

// Analyzer runs a full resume analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisResult, error)
}

// Processor turns one queued job into an outcome. It never returns an error:
// every failure is reported in the outcome.
type Processor struct {
	svc           Analyzer
	store         storage.ObjectStore
	fetchAttempts int
	fetchWait     time.Duration
	now           func() time.Time
}

type ProcessorOption func(*Processor)

// WithFetchRetry sets how often a resume download is attempted and the base wait between tries.
func WithFetchRetry(attempts int, wait time.Duration) ProcessorOption {
	return func(p *Processor) {
		if attempts > 0 {
			p.fetchAttempts = attempts
		}
		p.fetchWait = wait
	}
}

// NewProcessor builds a processor. store may be nil when jobs always carry resume text.
func NewProcessor(svc Analyzer, store storage.ObjectStore, opts ...ProcessorOption) *Processor {
	p := &Processor{
		svc:           svc,
		store:         store,
		fetchAttempts: 3,
		fetchWait:     500 * time.Millisecond,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) Process(ctx context.Context, body []byte) types.AnalysisOutcome {
	var job types.AnalysisJob
	if err := json.Unmarshal(body, &job); err != nil {
		return p.failed("", fmt.Errorf("invalid message: %w", err))
	}

	ctx = logger.WithRequestID(ctx, job.ID)
	log := slog.With("component", "worker", "operation", "process", "job_id", job.ID)

	if err := validate(job); err != nil {
		return p.failed(job.ID, err)
	}

	resumeText := job.ResumeText
	if job.ResumeKey != "" {
		text, err := p.fetchResume(ctx, job)
		if err != nil {
			log.Error("resume fetch failed", "resume_key", job.ResumeKey, "error", err)
			return p.failed(job.ID, err)
		}
		resumeText = text
	}

	start := time.Now()
	result, err := p.svc.Analyze(ctx, types.AnalysisRequest{
		JobDescription: job.JobDescription,
		ResumeText:     resumeText,
	})
	if err != nil {
		return p.failed(job.ID, err)
	}

	log.Info("job processed", "score", result.Score, "duration_ms", time.Since(start).Milliseconds())
	return types.AnalysisOutcome{
		ID:        job.ID,
		Status:    types.StatusCompleted,
		Result:    result,
		Timestamp: p.now(),
	}
}

func validate(job types.AnalysisJob) error {
	switch {
	case job.ID == "":
		return errors.New("invalid message: id is required")
	case strings.TrimSpace(job.JobDescription) == "":
		return errors.New("invalid message: job_description is required")
	case job.ResumeKey == "" && strings.TrimSpace(job.ResumeText) == "":
		return errors.New("invalid message: resume_text or resume_key is required")
	}
	return nil
}

func (p *Processor) fetchResume(ctx context.Context, job types.AnalysisJob) (string, error) {
	if p.store == nil {
		return "", storage.ErrNotConfigured
	}

	data, err := retry(ctx, p.fetchAttempts, p.fetchWait, func() ([]byte, error) {
		return p.store.Get(ctx, job.ResumeKey)
	})
	if err != nil {
		return "", fmt.Errorf("file download error: %w", err)
	}

	parsed, err := resume.Parse(job.ResumeKey, job.ResumeMime, data)
	if err != nil {
		return "", fmt.Errorf("text extraction error: %w", err)
	}
	return parsed.Content, nil
}

func (p *Processor) failed(id string, err error) types.AnalysisOutcome {
	return types.AnalysisOutcome{
		ID:        id,
		Status:    types.StatusFailed,
		Error:     err.Error(),
		Timestamp: p.now(),
	}
}

// retry calls fn up to attempts times, waiting a linearly growing interval
// between tries.
func retry[T any](ctx context.Context, attempts int, wait time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for i := 0; i < attempts; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if i == attempts-1 {
			break
		}
		select {
		case <-time.After(wait * time.Duration(i+1)):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
