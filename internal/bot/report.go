package bot

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/p-shah256/atsmatch/internal/suggestions"
	"github.com/p-shah256/atsmatch/pkg/types"
)

// Discord rejects messages longer than this.
const maxMessageLength = 2000

// FormatReport renders an analysis as a Discord message.
func FormatReport(r *types.AnalysisResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**ATS Match Score: %d%% (%s)**\n", r.Score, r.Level)
	fmt.Fprintf(&sb, "Matched (%d): %s\n", len(r.MatchedKeywords), keywordList(r.MatchedKeywords))
	fmt.Fprintf(&sb, "Missing (%d): %s\n", len(r.MissingKeywords), keywordList(r.MissingKeywords))
	sb.WriteString("\n**Suggestions**\n")
	for i, s := range r.Suggestions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, s)
	}
	if r.SuggestionsSource == types.SourceFallback {
		sb.WriteString("_General suggestions shown, tailored ones were unavailable._\n")
	}

	out := strings.TrimRight(sb.String(), "\n")
	if utf8.RuneCountInString(out) > maxMessageLength {
		out = suggestions.Truncate(out, maxMessageLength-3) + "..."
	}
	return out
}

func keywordList(kw []string) string {
	if len(kw) == 0 {
		return "none"
	}
	return "`" + strings.Join(kw, "`, `") + "`"
}
