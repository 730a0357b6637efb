package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/p-shah256/atsmatch/internal/analyzer"
	"github.com/p-shah256/atsmatch/internal/transformation"
	"github.com/p-shah256/atsmatch/pkg/errors"
	"github.com/p-shah256/atsmatch/pkg/types"
)

type mockImprover struct {
	mock.Mock
}

func (m *mockImprover) Improve(ctx context.Context, req types.ImproveRequest) (*types.ImproveResponse, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*types.ImproveResponse)
	return res, args.Error(1)
}

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) Analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*types.AnalysisResult)
	return res, args.Error(1)
}

var longJD = strings.Repeat("Senior Go engineer with Kubernetes and PostgreSQL. ", 4)

func sampleResult() *types.AnalysisResult {
	return &types.AnalysisResult{
		Score:             50,
		Level:             "Needs Work",
		ExtractedKeywords: []string{"kubernetes", "postgresql"},
		MatchedKeywords:   []string{"kubernetes"},
		MissingKeywords:   []string{"postgresql"},
		Suggestions:       []string{"a", "b", "c", "d", "e"},
		SuggestionsSource: types.SourceLLM,
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errors.ApiError {
	t.Helper()
	var apiErr errors.ApiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	return apiErr
}

func TestAnalyzeJSON(t *testing.T) {
	svc := new(mockAnalyzer)
	svc.On("Analyze", mock.Anything, types.AnalysisRequest{JobDescription: longJD, ResumeText: "Kubernetes admin"}).
		Return(sampleResult(), nil)
	srv := NewServer(0, svc)

	body, _ := json.Marshal(types.AnalysisRequest{JobDescription: longJD, ResumeText: "Kubernetes admin"})
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	var got types.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, *sampleResult(), got)
	svc.AssertExpectations(t)
}

func TestAnalyzeMultipart(t *testing.T) {
	svc := new(mockAnalyzer)
	svc.On("Analyze", mock.Anything, types.AnalysisRequest{
		JobDescription: longJD,
		ResumeText:     "Jane Doe\nKubernetes admin",
	}).Return(sampleResult(), nil)
	srv := NewServer(0, svc)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("job_description", longJD))
	fw, err := mw.CreateFormFile("resume", "jane.txt")
	require.NoError(t, err)
	fw.Write([]byte("Jane Doe\n\n  Kubernetes admin  \n"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestAnalyzeEmptyResume(t *testing.T) {
	result := &types.AnalysisResult{
		Score:             0,
		Level:             "Needs Work",
		ExtractedKeywords: []string{"kubernetes"},
		MatchedKeywords:   []string{},
		MissingKeywords:   []string{"kubernetes"},
		Suggestions:       []string{"a", "b", "c", "d", "e"},
		SuggestionsSource: types.SourceFallback,
	}
	svc := new(mockAnalyzer)
	svc.On("Analyze", mock.Anything, types.AnalysisRequest{JobDescription: longJD}).Return(result, nil)
	srv := NewServer(0, svc)

	body, _ := json.Marshal(types.AnalysisRequest{JobDescription: longJD})
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got types.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 0, got.Score)
	assert.Equal(t, got.ExtractedKeywords, got.MissingKeywords)
	svc.AssertExpectations(t)
}

func TestAnalyzeValidation(t *testing.T) {
	shortErr := new(mockAnalyzer)
	shortErr.On("Analyze", mock.Anything, mock.Anything).Return(nil, analyzer.ErrJobDescriptionTooShort)

	tests := []struct {
		name   string
		svc    *mockAnalyzer
		method string
		body   string
		want   int
	}{
		{"bad json", new(mockAnalyzer), http.MethodPost, "{", http.StatusBadRequest},
		{"missing jd", new(mockAnalyzer), http.MethodPost, `{"resume_text": "x"}`, http.StatusBadRequest},
		{"short jd", shortErr, http.MethodPost, `{"job_description": "short", "resume_text": "x"}`, http.StatusBadRequest},
		{"wrong method", new(mockAnalyzer), http.MethodGet, "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(0, tt.svc)
			req := httptest.NewRequest(tt.method, "/api/analyze", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			apiErr := decodeError(t, rec)
			assert.Equal(t, tt.want, apiErr.Code)
			assert.Equal(t, rec.Header().Get("X-Request-ID"), apiErr.RequestID)
		})
	}
}

func TestAnalyzeUnexpectedError(t *testing.T) {
	svc := new(mockAnalyzer)
	svc.On("Analyze", mock.Anything, mock.Anything).Return(nil, assert.AnError)
	srv := NewServer(0, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze",
		strings.NewReader(`{"job_description": "jd", "resume_text": "cv"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestKeywords(t *testing.T) {
	srv := NewServer(0, new(mockAnalyzer))

	req := httptest.NewRequest(http.MethodPost, "/api/keywords",
		strings.NewReader(`{"job_description": "JavaScript React Node.js TypeScript. We need JavaScript and React experience."}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got types.KeywordsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []string{"javascript", "react", "node", "typescript", "need", "experience"}, got.Keywords)
}

func TestMatch(t *testing.T) {
	srv := NewServer(0, new(mockAnalyzer))

	req := httptest.NewRequest(http.MethodPost, "/api/match",
		strings.NewReader(`{"keywords": ["Go", "kubernetes", "go", "terraform"], "resume_text": "Go and Kubernetes on GCP"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got types.MatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []string{"go", "kubernetes"}, got.Matched)
	assert.Equal(t, []string{"terraform"}, got.Missing)
	assert.Equal(t, 67, got.Score)
}

func TestMatchTooManyKeywords(t *testing.T) {
	srv := NewServer(0, new(mockAnalyzer))
	kw, _ := json.Marshal(map[string]any{"keywords": strings.Split(strings.Repeat("k,", 21), ",")[:21]})

	req := httptest.NewRequest(http.MethodPost, "/api/match", bytes.NewReader(kw))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseResume(t *testing.T) {
	srv := NewServer(0, new(mockAnalyzer))

	upload := func(filename, contentType string, data []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("resume", filename)
		require.NoError(t, err)
		fw.Write(data)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/resume/parse", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec
	}

	rec := upload("cv.md", "", []byte("# Jane\n\nGo developer"))
	require.Equal(t, http.StatusOK, rec.Code)
	var parsed types.ParsedFile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	assert.Equal(t, types.ParsedFile{FileName: "cv.md", FileType: "text/markdown", Content: "# Jane\nGo developer"}, parsed)

	assert.Equal(t, http.StatusUnsupportedMediaType, upload("cv.png", "", []byte{1, 2, 3}).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, upload("cv.txt", "", []byte("   ")).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, upload("cv.pdf", "", []byte("not a pdf")).Code)

	rec = upload("cv.yaml", "", []byte("cv: &a\n  - Jane\n  - *a\n"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	assert.Equal(t, "Jane", parsed.Content)

	var bomb strings.Builder
	bomb.WriteString("l0: &l0 [x, x, x, x, x, x, x, x, x, x]\n")
	for i := 1; i < 9; i++ {
		fmt.Fprintf(&bomb, "l%d: &l%d [%s]\n", i, i, strings.TrimSuffix(strings.Repeat(fmt.Sprintf("*l%d, ", i-1), 10), ", "))
	}
	assert.Equal(t, http.StatusUnprocessableEntity, upload("bomb.yaml", "", []byte(bomb.String())).Code)
}

func TestParseResumeMissingFile(t *testing.T) {
	srv := NewServer(0, new(mockAnalyzer))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("other", "x")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/resume/parse", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	srv := NewServer(0, new(mockAnalyzer))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestImprove(t *testing.T) {
	in := types.ImproveRequest{ResumeText: "Jane Doe", Suggestions: []string{"Add Kafka"}}
	imp := new(mockImprover)
	imp.On("Improve", mock.Anything, in).Return(&types.ImproveResponse{ImprovedResume: "Jane Doe, Kafka"}, nil)
	srv := NewServer(0, new(mockAnalyzer), WithImprover(imp))

	body, _ := json.Marshal(in)
	req := httptest.NewRequest(http.MethodPost, "/api/improve", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"improved_resume": "Jane Doe, Kafka"}`, rec.Body.String())
	imp.AssertExpectations(t)
}

func TestImproveErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"empty resume", transformation.ErrEmptyResume, http.StatusBadRequest},
		{"no suggestions", transformation.ErrNoSuggestions, http.StatusBadRequest},
		{"no provider", transformation.ErrNoProvider, http.StatusServiceUnavailable},
		{"provider failure", assert.AnError, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp := new(mockImprover)
			imp.On("Improve", mock.Anything, mock.Anything).Return(nil, tt.err)
			srv := NewServer(0, new(mockAnalyzer), WithImprover(imp))

			req := httptest.NewRequest(http.MethodPost, "/api/improve", strings.NewReader(`{"resume_text": "cv"}`))
			rec := httptest.NewRecorder()

			srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.want, decodeError(t, rec).Code)
		})
	}

	t.Run("not enabled", func(t *testing.T) {
		srv := NewServer(0, new(mockAnalyzer))
		req := httptest.NewRequest(http.MethodPost, "/api/improve", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()

		srv.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
