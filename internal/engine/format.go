package engine

import (
	"fmt"
	"strings"
)

// FormatTranscript renders chunk records as speaker-attributed plain text,
// one line per question or answer, questions prefixed with their timestamp.
// This is the form the analysis and rewrite prompts consume.
func FormatTranscript(chunks []ChunkRecord) string {
	var b strings.Builder
	for _, c := range chunks {
		if c.TextQuestion != "" {
			fmt.Fprintf(&b, "[%s] %s: %s\n", FormatTimestamp(c.Start), c.RoleQuestion, c.TextQuestion)
		}
		if c.TextAnswer != "" {
			fmt.Fprintf(&b, "%s: %s\n", c.RoleAnswer, c.TextAnswer)
		}
	}
	return b.String()
}

// FormatTimestamp renders seconds as HH:MM:SS.
func FormatTimestamp(seconds float64) string {
	s := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}
