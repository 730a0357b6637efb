package keywords

import "strings"

// MatchKeywords splits keywords into those contained in the resume text and
// those that are not. Containment is a case-insensitive substring check, so
// "java" matches "JavaScript". Both slices keep the input order.
func MatchKeywords(keywords []string, resumeText string) (matched, missing []string) {
	matched = []string{}
	missing = []string{}

	resume := strings.ToLower(resumeText)
	for _, kw := range keywords {
		if strings.Contains(resume, strings.ToLower(kw)) {
			matched = append(matched, kw)
		} else {
			missing = append(missing, kw)
		}
	}
	return matched, missing
}
