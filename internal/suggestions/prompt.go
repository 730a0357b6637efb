package suggestions

import (
	"fmt"
	"strings"
)

// ExcerptLimit bounds how much of the resume and job description is sent to the LLM.
const ExcerptLimit = 2000

const SystemPrompt = "You are an expert ATS resume optimization assistant. Provide specific, actionable advice."

const promptTemplate = `Analyze this resume against the job description and provide 5 specific, actionable suggestions to improve ATS compatibility and job match.

Resume: %s

Job Description: %s

Missing Keywords: %s

Provide exactly 5 suggestions in this format:
1. [Specific actionable suggestion]
2. [Specific actionable suggestion]
3. [Specific actionable suggestion]
4. [Specific actionable suggestion]
5. [Specific actionable suggestion]

Focus on:
- Adding relevant missing keywords naturally
- Improving quantifiable achievements
- Optimizing section headers and formatting
- Enhancing skill descriptions
- Strengthening professional summary`

// BuildPrompt renders the suggestion request for an LLM provider.
func BuildPrompt(resumeText, jobDescription string, missing []string) string {
	return fmt.Sprintf(promptTemplate,
		Truncate(resumeText, ExcerptLimit),
		Truncate(jobDescription, ExcerptLimit),
		strings.Join(missing, ", "),
	)
}

// Truncate cuts s to at most limit runes.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
