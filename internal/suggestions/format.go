package suggestions

import (
	"regexp"
	"strings"
)

// Count is the number of suggestions every analysis returns.
const Count = 5

var fallback = [Count]string{
	"Add more technical skills related to the job requirements",
	"Include quantifiable achievements and metrics in your experience",
	"Optimize your professional summary with industry keywords",
	"Add relevant certifications or training programs",
	"Use more action verbs in your experience descriptions",
}

var numberedLine = regexp.MustCompile(`^\d+\.\s*`)

// Fallback returns a fresh copy of the fixed suggestion list.
func Fallback() []string {
	list := fallback
	return list[:]
}

// Parse extracts numbered suggestions ("1. ...") from a free-text LLM reply.
// It returns the first Count of them and true, or the fallback list and false
// when fewer than Count could be parsed. Parsed and fallback entries are never
// mixed.
func Parse(raw string) ([]string, bool) {
	var parsed []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		marker := numberedLine.FindString(line)
		if marker == "" {
			continue
		}
		if s := strings.TrimSpace(line[len(marker):]); s != "" {
			parsed = append(parsed, s)
		}
	}

	if len(parsed) < Count {
		return Fallback(), false
	}
	return parsed[:Count:Count], true
}

// Format is Parse without the flag. An empty reply yields the fallback list.
func Format(raw string) []string {
	list, _ := Parse(raw)
	return list
}
