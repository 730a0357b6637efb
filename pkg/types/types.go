package types

import "time"

// =============== Analysis TYPES ===============
type AnalysisRequest struct {
	JobDescription string `json:"job_description"`
	ResumeText     string `json:"resume_text"`
}

type AnalysisResult struct {
	Score             int      `json:"score"`
	Level             string   `json:"level"`
	ExtractedKeywords []string `json:"extracted_keywords"`
	MatchedKeywords   []string `json:"matched_keywords"`
	MissingKeywords   []string `json:"missing_keywords"`
	Suggestions       []string `json:"suggestions"`
	SuggestionsSource string   `json:"suggestions_source"`
}

const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// =============== Keyword endpoint TYPES ===============
type KeywordsRequest struct {
	JobDescription string `json:"job_description"`
}

type KeywordsResponse struct {
	Keywords []string `json:"keywords"`
}

type MatchRequest struct {
	Keywords   []string `json:"keywords"`
	ResumeText string   `json:"resume_text"`
}

type MatchResponse struct {
	Matched []string `json:"matched_keywords"`
	Missing []string `json:"missing_keywords"`
	Score   int      `json:"score"`
}

// =============== Improve endpoint TYPES ===============
type ImproveRequest struct {
	ResumeText     string   `json:"resume_text"`
	JobDescription string   `json:"job_description,omitempty"`
	Suggestions    []string `json:"suggestions"`
}

type ImproveResponse struct {
	ImprovedResume string `json:"improved_resume"`
}

// =============== Resume TYPES ===============
type ParsedFile struct {
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
	Content  string `json:"content"`
}

// =============== Queue TYPES ===============
type AnalysisJob struct {
	ID             string `json:"id"`
	JobDescription string `json:"job_description"`
	ResumeText     string `json:"resume_text,omitempty"`
	ResumeKey      string `json:"resume_key,omitempty"`
	ResumeMime     string `json:"resume_mime,omitempty"`
}

type JobStatus string

const (
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

type AnalysisOutcome struct {
	ID        string          `json:"id"`
	Status    JobStatus       `json:"status"`
	Error     string          `json:"error,omitempty"`
	Result    *AnalysisResult `json:"result,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
