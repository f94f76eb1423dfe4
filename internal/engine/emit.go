package engine

import (
	"fmt"
	"strings"
)

// Emit serializes tagged chunks into the flat records handed to the
// embedding and indexing collaborator. IDs derive from the chunk's position
// in the sequence, so re-processing the same interview produces the same IDs
// and an upsert keyed on them stays idempotent.
func Emit(interviewID string, tagged []TaggedChunk) []ChunkRecord {
	records := make([]ChunkRecord, 0, len(tagged))
	for i, c := range tagged {
		rec := ChunkRecord{
			ID:                fmt.Sprintf("%s-chunk-%04d", interviewID, i),
			Start:             c.Start,
			End:               c.End,
			Topic:             c.Topic,
			QuestionType:      c.QuestionType,
			EstimatedDuration: c.EstimatedDuration,
		}
		if c.Question != nil {
			rec.RoleQuestion = c.Question.Speaker
			rec.TextQuestion = c.Question.Text
		}
		if len(c.Answers) > 0 {
			rec.RoleAnswer = c.Answers[0].Speaker
			rec.TextAnswer = joinAnswerText(c.Answers)
		}
		records = append(records, rec)
	}
	return records
}

func joinAnswerText(answers []Turn) string {
	parts := make([]string, 0, len(answers))
	for _, a := range answers {
		if t := strings.TrimSpace(a.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
