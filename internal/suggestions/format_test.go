package suggestions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   []string
		wantOK bool
	}{
		{
			name: "exactly five",
			raw: `Here are my suggestions:
1. Add Kubernetes to your skills section
2. Quantify the impact of the payments migration
3. Rename "Work" to "Professional Experience"
4. Mention Terraform in the infrastructure bullet
5. Lead the summary with backend experience`,
			want: []string{
				"Add Kubernetes to your skills section",
				"Quantify the impact of the payments migration",
				`Rename "Work" to "Professional Experience"`,
				"Mention Terraform in the infrastructure bullet",
				"Lead the summary with backend experience",
			},
			wantOK: true,
		},
		{
			name:   "six lines keeps first five in order",
			raw:    "1. one\n2. two\n3. three\n4. four\n5. five\n6. six",
			want:   []string{"one", "two", "three", "four", "five"},
			wantOK: true,
		},
		{
			name:   "only three lines falls back",
			raw:    "1. one\n2. two\n3. three",
			want:   Fallback(),
			wantOK: false,
		},
		{
			name:   "empty response falls back",
			raw:    "",
			want:   Fallback(),
			wantOK: false,
		},
		{
			name:   "unnumbered prose falls back",
			raw:    "- add skills\n- add metrics\n- add summary\n- add certs\n- add verbs",
			want:   Fallback(),
			wantOK: false,
		},
		{
			name:   "indented lines and crlf",
			raw:    "  1.   one  \r\n\r\n\t2.two\r\n 3. three\r\n4. four\r\n10. ten\r\n",
			want:   []string{"one", "two", "three", "four", "ten"},
			wantOK: true,
		},
		{
			name:   "empty items are dropped before counting",
			raw:    "1.\n2.   \n3. three\n4. four\n5. five\n6. six",
			want:   Fallback(),
			wantOK: false,
		},
		{
			name:   "numbered lines between prose",
			raw:    "Intro\n1. a\nnote\n2. b\n3. c\n\n4. d\nMore text 5. not a marker\n5. e",
			want:   []string{"a", "b", "c", "d", "e"},
			wantOK: true,
		},
		{
			name:   "bullet markers are not numbers",
			raw:    "a. one\n1) two\n#3. three\n4. four\n5. five",
			want:   Fallback(),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatAlwaysFive(t *testing.T) {
	inputs := []string{
		"",
		"garbage",
		"1. a",
		"1. a\n2. b\n3. c\n4. d\n5. e\n6. f\n7. g",
		strings.Repeat("1. same\n", 40),
	}
	for _, in := range inputs {
		got := Format(in)
		require.Len(t, got, Count)
		for _, s := range got {
			assert.NotEmpty(t, strings.TrimSpace(s))
		}
	}
}

func TestFallbackIsACopy(t *testing.T) {
	list := Fallback()
	list[0] = "mutated"
	assert.Equal(t, "Add more technical skills related to the job requirements", Fallback()[0])
}

func TestParseResultDoesNotAliasExtraEntries(t *testing.T) {
	got, ok := Parse("1. a\n2. b\n3. c\n4. d\n5. e\n6. f")
	require.True(t, ok)
	assert.Equal(t, Count, cap(got))
}
