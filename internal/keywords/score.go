package keywords

// ComputeScore returns round(100 * matched / total) rounded half up.
// A total of zero scores 0 rather than dividing by zero.
func ComputeScore(matchedCount, totalCount int) int {
	if totalCount <= 0 {
		return 0
	}
	matchedCount = clamp(matchedCount, 0, totalCount)

	// floor(100m/t + 1/2) without floating point error.
	score := (200*matchedCount + totalCount) / (2 * totalCount)
	return clamp(score, 0, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Result is the deterministic part of an analysis.
type Result struct {
	Keywords []string `json:"extracted_keywords"`
	Matched  []string `json:"matched_keywords"`
	Missing  []string `json:"missing_keywords"`
	Score    int      `json:"score"`
}

// Analyze extracts keywords from the job description, matches them against the
// resume and scores the overlap.
func Analyze(jobDescription, resumeText string) Result {
	extracted := ExtractKeywords(jobDescription)
	matched, missing := MatchKeywords(extracted, resumeText)
	return Result{
		Keywords: extracted,
		Matched:  matched,
		Missing:  missing,
		Score:    ComputeScore(len(matched), len(extracted)),
	}
}
