package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/p-shah256/atsmatch/internal/storage"
	"github.com/p-shah256/atsmatch/pkg/types"
)

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) Analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*types.AnalysisResult)
	return res, args.Error(1)
}

type fakeStore struct {
	objects  map[string][]byte
	failures int
	calls    int
}

func (f *fakeStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection reset")
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return data, nil
}

var fixedNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func newTestProcessor(svc Analyzer, store storage.ObjectStore) *Processor {
	p := NewProcessor(svc, store, WithFetchRetry(3, time.Millisecond))
	p.now = func() time.Time { return fixedNow }
	return p
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestProcessInlineResume(t *testing.T) {
	result := &types.AnalysisResult{Score: 75, Level: "Good", SuggestionsSource: types.SourceFallback}
	svc := new(mockAnalyzer)
	svc.On("Analyze", mock.Anything, types.AnalysisRequest{JobDescription: "jd", ResumeText: "cv"}).Return(result, nil)

	out := newTestProcessor(svc, nil).Process(context.Background(),
		mustJSON(t, types.AnalysisJob{ID: "job-1", JobDescription: "jd", ResumeText: "cv"}))

	assert.Equal(t, types.AnalysisOutcome{
		ID:        "job-1",
		Status:    types.StatusCompleted,
		Result:    result,
		Timestamp: fixedNow,
	}, out)
	svc.AssertExpectations(t)
}

func TestProcessStoredResume(t *testing.T) {
	svc := new(mockAnalyzer)
	svc.On("Analyze", mock.Anything, types.AnalysisRequest{JobDescription: "jd", ResumeText: "Jane Doe\nGo developer"}).
		Return(&types.AnalysisResult{Score: 40}, nil)
	store := &fakeStore{
		objects:  map[string][]byte{"uploads/abc": []byte("Jane Doe\n\nGo developer\n")},
		failures: 2,
	}

	out := newTestProcessor(svc, store).Process(context.Background(), mustJSON(t, types.AnalysisJob{
		ID:             "job-2",
		JobDescription: "jd",
		ResumeKey:      "uploads/abc",
		ResumeMime:     "text/plain",
	}))

	assert.Equal(t, types.StatusCompleted, out.Status, out.Error)
	assert.Equal(t, 3, store.calls)
	svc.AssertExpectations(t)
}

func TestProcessFailures(t *testing.T) {
	tests := []struct {
		name    string
		body    []byte
		store   storage.ObjectStore
		wantID  string
		wantErr string
	}{
		{"malformed json", []byte("{not json"), nil, "", "invalid message"},
		{"missing id", []byte(`{"job_description": "jd", "resume_text": "cv"}`), nil, "", "id is required"},
		{"missing jd", []byte(`{"id": "j", "resume_text": "cv"}`), nil, "j", "job_description is required"},
		{"missing resume", []byte(`{"id": "j", "job_description": "jd"}`), nil, "j", "resume_text or resume_key"},
		{"no store", []byte(`{"id": "j", "job_description": "jd", "resume_key": "k"}`), nil, "j", storage.ErrNotConfigured.Error()},
		{"download keeps failing", []byte(`{"id": "j", "job_description": "jd", "resume_key": "k"}`),
			&fakeStore{failures: 10}, "j", "after 3 attempts"},
		{"unsupported file", []byte(`{"id": "j", "job_description": "jd", "resume_key": "k.png", "resume_mime": "image/png"}`),
			&fakeStore{objects: map[string][]byte{"k.png": {1, 2}}}, "j", "text extraction error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockAnalyzer)
			out := newTestProcessor(svc, tt.store).Process(context.Background(), tt.body)

			assert.Equal(t, types.StatusFailed, out.Status)
			assert.Equal(t, tt.wantID, out.ID)
			assert.Contains(t, out.Error, tt.wantErr)
			assert.Nil(t, out.Result)
			svc.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
		})
	}
}

func TestProcessAnalyzerError(t *testing.T) {
	svc := new(mockAnalyzer)
	svc.On("Analyze", mock.Anything, mock.Anything).Return(nil, errors.New("job description must be at least 100 characters"))

	out := newTestProcessor(svc, nil).Process(context.Background(),
		mustJSON(t, types.AnalysisJob{ID: "job-3", JobDescription: "short", ResumeText: "cv"}))

	assert.Equal(t, types.StatusFailed, out.Status)
	assert.Equal(t, "job-3", out.ID)
	assert.Contains(t, out.Error, "100 characters")
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := retry(ctx, 5, time.Hour, func() (int, error) {
		calls++
		cancel()
		return 0, errors.New("fail")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
