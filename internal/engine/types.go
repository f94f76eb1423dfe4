// Package engine structures a raw interview transcript into retrievable
// Q&A chunks. It aligns speech-to-text segments with diarization intervals,
// coalesces fragments into speaker turns, groups turns into question/answer
// units, tags each unit with topic metadata and emits flat chunk records for
// the indexing layer. The whole pipeline is pure, in-memory and stateless
// between invocations.
package engine

// Speaker roles. Diarization engines emit arbitrary cluster ids; ResolveRoles
// maps them onto this closed set before the pipeline runs.
const (
	RoleInterviewer = "INTERVIEWER"
	RoleCandidate   = "CANDIDATE"
	RoleUnknown     = "UNKNOWN"
)

// TextSegment is a timestamped piece of recognized speech, as produced by
// the transcription collaborator. Segments carry no speaker information.
type TextSegment struct {
	Start float64 `json:"start"` // seconds
	End   float64 `json:"end"`   // seconds
	Text  string  `json:"text"`
}

// Duration returns the segment's span in seconds, never negative.
func (s TextSegment) Duration() float64 {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// SpeakerInterval is a speaker-labeled time interval from the diarization
// collaborator. Intervals for distinct speakers may overlap (simultaneous
// speech); intervals for the same speaker must not.
type SpeakerInterval struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// LabeledSegment is a TextSegment with a resolved speaker. Confidence is the
// fraction of the segment's span covered by the dominant speaker interval,
// in [0,1]; 0 means the label fell back to RoleUnknown.
type LabeledSegment struct {
	TextSegment
	Speaker    string  `json:"speaker"`
	Confidence float64 `json:"confidence"`
}

// Turn is a maximal contiguous span of speech attributed to one speaker
// after merging recognizer fragmentation.
type Turn struct {
	Speaker      string  `json:"speaker"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Text         string  `json:"text"`
	SegmentCount int     `json:"segment_count"`
}

// QAUnit groups one interviewer question turn with the contiguous candidate
// turns that answer it. Question is nil for the synthetic leading unit that
// captures small talk before the first substantive question. Answers may be
// empty (an unanswered or interrupted question) — such units are retained,
// never dropped.
type QAUnit struct {
	Question *Turn   `json:"question,omitempty"`
	Answers  []Turn  `json:"answers"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
}

// Topic classifies what a Q&A unit is about.
type Topic string

const (
	TopicTechnical    Topic = "technical"
	TopicBehavioral   Topic = "behavioral"
	TopicIntroduction Topic = "introduction"
	TopicOther        Topic = "other"
)

// Question type labels derived from the surface syntax of the question turn.
// A small closed set, not free text.
const (
	QuestionTellMeAbout = "tell_me_about"
	QuestionWhy         = "why"
	QuestionHow         = "how"
	QuestionWhat        = "what"
	QuestionExperience  = "experience"
	QuestionFollowup    = "followup"
	QuestionGeneral     = "general"
)

// TaggedChunk is a QAUnit with its classification metadata. Produced once
// per interview and immutable thereafter.
type TaggedChunk struct {
	QAUnit
	Topic             Topic   `json:"topic"`
	QuestionType      string  `json:"question_type"`
	EstimatedDuration float64 `json:"estimated_duration"`
}

// ChunkRecord is the flat, self-contained record handed to the embedding and
// indexing collaborator. ID is derived from the chunk's position in the
// final sequence, so re-processing the same interview is idempotent when the
// ID is used as an upsert key.
type ChunkRecord struct {
	ID                string  `json:"id"`
	RoleQuestion      string  `json:"role_question"`
	TextQuestion      string  `json:"text_question"`
	RoleAnswer        string  `json:"role_answer"`
	TextAnswer        string  `json:"text_answer"`
	Start             float64 `json:"start"`
	End               float64 `json:"end"`
	Topic             Topic   `json:"topic"`
	QuestionType      string  `json:"question_type"`
	EstimatedDuration float64 `json:"estimated_duration"`
}
