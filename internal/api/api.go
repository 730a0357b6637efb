package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/p-shah256/atsmatch/internal/analyzer"
	"github.com/p-shah256/atsmatch/internal/keywords"
	"github.com/p-shah256/atsmatch/internal/resume"
	"github.com/p-shah256/atsmatch/internal/transformation"
	"github.com/p-shah256/atsmatch/pkg/errors"
	"github.com/p-shah256/atsmatch/pkg/logger"
	"github.com/p-shah256/atsmatch/pkg/types"
)

// maxBodySize leaves room for form fields next to a maximum size resume.
const maxBodySize = resume.MaxFileSize + 1<<20

// Analyzer runs a full resume analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisResult, error)
}

// Improver rewrites a resume with suggestions applied.
type Improver interface {
	Improve(ctx context.Context, req types.ImproveRequest) (*types.ImproveResponse, error)
}

type Server struct {
	port       int
	svc        Analyzer
	improver   Improver
	limiter    *rate.Limiter
	mux        *http.ServeMux
	httpServer *http.Server
}

type ServerOption func(*Server)

// WithRateLimit caps the API at rps requests per second with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) ServerOption {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithImprover enables POST /api/improve. Without it the route answers 503.
func WithImprover(imp Improver) ServerOption {
	return func(s *Server) {
		s.improver = imp
	}
}

func NewServer(port int, svc Analyzer, opts ...ServerOption) *Server {
	s := &Server{
		port: port,
		svc:  svc,
		mux:  http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.route("/api/analyze", s.handleAnalyze, http.MethodPost)
	s.route("/api/keywords", s.handleKeywords, http.MethodPost)
	s.route("/api/match", s.handleMatch, http.MethodPost)
	s.route("/api/resume/parse", s.handleParseResume, http.MethodPost)
	s.route("/api/improve", s.handleImprove, http.MethodPost)
	s.mux.HandleFunc("/healthz", RequestID(Recover(MethodChecker(http.MethodGet)(s.handleHealth))))

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		// Analyses wait on the LLM for up to its timeout.
		WriteTimeout: 60 * time.Second,
	}
	return s
}

func (s *Server) route(path string, h http.HandlerFunc, methods ...string) {
	s.mux.HandleFunc(path, RequestID(Recover(Logger(enableCORS(RateLimit(s.limiter)(MethodChecker(methods...)(h)))))))
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start() error {
	slog.Info("Starting API server", "port", s.port)
	if err := s.httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GetRequestID(r.Context())

	var req types.AnalysisRequest
	if isMultipart(r) {
		jd, parsed, apiErr := s.readAnalyzeForm(w, r)
		if apiErr != nil {
			RespondWithError(w, apiErr.WithRequestID(requestID))
			return
		}
		req.JobDescription = jd
		req.ResumeText = parsed
	} else {
		if apiErr := decodeJSON(w, r, &req); apiErr != nil {
			RespondWithError(w, apiErr.WithRequestID(requestID))
			return
		}
	}

	if strings.TrimSpace(req.JobDescription) == "" {
		RespondWithError(w, errors.ErrBadRequest("job_description is required").WithRequestID(requestID))
		return
	}
	result, err := s.svc.Analyze(r.Context(), req)
	if err != nil {
		if stderrors.Is(err, analyzer.ErrJobDescriptionTooShort) {
			RespondWithError(w, errors.ErrBadRequest(err.Error()).WithRequestID(requestID))
			return
		}
		slog.Error("analysis failed", "error", err, "request_id", requestID)
		RespondWithError(w, errors.As(err).WithRequestID(requestID))
		return
	}

	RespondWithJSON(w, http.StatusOK, result)
}

// readAnalyzeForm returns the job description and resume text from a
// multipart request. A resume file wins over a resume_text field.
func (s *Server) readAnalyzeForm(w http.ResponseWriter, r *http.Request) (string, string, *errors.ApiError) {
	if apiErr := parseMultipart(w, r); apiErr != nil {
		return "", "", apiErr
	}
	jd := r.FormValue("job_description")

	file, header, err := r.FormFile("resume")
	if stderrors.Is(err, http.ErrMissingFile) {
		return jd, r.FormValue("resume_text"), nil
	}
	if err != nil {
		return "", "", errors.ErrBadRequest("failed to read resume upload")
	}
	defer file.Close()

	parsed, apiErr := parseUpload(file, header)
	if apiErr != nil {
		return "", "", apiErr
	}
	return jd, parsed.Content, nil
}

func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GetRequestID(r.Context())

	var req types.KeywordsRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		RespondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		RespondWithError(w, errors.ErrBadRequest("job_description is required").WithRequestID(requestID))
		return
	}

	RespondWithJSON(w, http.StatusOK, types.KeywordsResponse{
		Keywords: keywords.ExtractKeywords(req.JobDescription),
	})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GetRequestID(r.Context())

	var req types.MatchRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		RespondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	if len(req.Keywords) > keywords.MaxKeywords {
		RespondWithError(w, errors.ErrBadRequest(
			fmt.Sprintf("at most %d keywords are accepted", keywords.MaxKeywords)).WithRequestID(requestID))
		return
	}

	kw := keywords.Normalize(req.Keywords)
	matched, missing := keywords.MatchKeywords(kw, req.ResumeText)

	RespondWithJSON(w, http.StatusOK, types.MatchResponse{
		Matched: matched,
		Missing: missing,
		Score:   keywords.ComputeScore(len(matched), len(kw)),
	})
}

func (s *Server) handleImprove(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GetRequestID(r.Context())

	if s.improver == nil {
		RespondWithError(w, errors.ErrServiceUnavailable("resume improvement is not enabled").WithRequestID(requestID))
		return
	}

	var req types.ImproveRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		RespondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	resp, err := s.improver.Improve(r.Context(), req)
	switch {
	case err == nil:
		RespondWithJSON(w, http.StatusOK, resp)
	case stderrors.Is(err, transformation.ErrEmptyResume), stderrors.Is(err, transformation.ErrNoSuggestions):
		RespondWithError(w, errors.ErrBadRequest(err.Error()).WithRequestID(requestID))
	case stderrors.Is(err, transformation.ErrNoProvider):
		RespondWithError(w, errors.ErrServiceUnavailable(err.Error()).WithRequestID(requestID))
	default:
		slog.Error("resume improvement failed", "error", err, "request_id", requestID)
		RespondWithError(w, errors.ErrBadGateway("the LLM provider did not return a rewritten resume").WithRequestID(requestID))
	}
}

func (s *Server) handleParseResume(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GetRequestID(r.Context())

	if apiErr := parseMultipart(w, r); apiErr != nil {
		RespondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	file, header, err := r.FormFile("resume")
	if err != nil {
		RespondWithError(w, errors.ErrBadRequest("resume file is required").WithRequestID(requestID))
		return
	}
	defer file.Close()

	parsed, apiErr := parseUpload(file, header)
	if apiErr != nil {
		RespondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	RespondWithJSON(w, http.StatusOK, parsed)
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func parseMultipart(w http.ResponseWriter, r *http.Request) *errors.ApiError {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := r.ParseMultipartForm(maxBodySize); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.ErrPayloadTooLarge(resume.ErrFileTooLarge.Error())
		}
		return errors.ErrBadRequest("invalid multipart form")
	}
	return nil
}

func parseUpload(file multipart.File, header *multipart.FileHeader) (*types.ParsedFile, *errors.ApiError) {
	if header.Size > resume.MaxFileSize {
		return nil, errors.ErrPayloadTooLarge(resume.ErrFileTooLarge.Error())
	}
	data, err := io.ReadAll(io.LimitReader(file, resume.MaxFileSize+1))
	if err != nil {
		return nil, errors.ErrBadRequest("failed to read resume upload")
	}

	parsed, err := resume.Parse(header.Filename, header.Header.Get("Content-Type"), data)
	switch {
	case err == nil:
		return parsed, nil
	case stderrors.Is(err, resume.ErrFileTooLarge):
		return nil, errors.ErrPayloadTooLarge(err.Error())
	case stderrors.Is(err, resume.ErrUnsupportedType):
		return nil, errors.ErrUnsupportedMedia("only PDF, DOCX, TXT, MD and YAML resumes are supported")
	default:
		return nil, errors.ErrUnprocessable(err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) *errors.ApiError {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.ErrPayloadTooLarge("request body too large")
		}
		return errors.ErrBadRequest("Invalid request body")
	}
	return nil
}
