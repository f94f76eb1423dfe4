package engine

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TagRules holds the lexical rule sets used to classify Q&A units. The
// defaults cover common interview vocabulary; deployments tune them through
// a YAML rules file.
type TagRules struct {
	TechnicalKeywords  []string `yaml:"technical_keywords"`
	BehavioralKeywords []string `yaml:"behavioral_keywords"`
	GreetingKeywords   []string `yaml:"greeting_keywords"`

	// IntroductionWindow is how far into the interview, in seconds, a
	// greeting-flavored unit still counts as the introduction.
	IntroductionWindow float64 `yaml:"introduction_window_seconds"`
}

// DefaultTagRules returns the built-in classification vocabulary.
func DefaultTagRules() TagRules {
	return TagRules{
		TechnicalKeywords: []string{
			"system", "algorithm", "code", "coding", "database", "api",
			"architecture", "design", "latency", "scal", "deploy",
			"debug", "test", "complexity", "data structure", "query",
			"server", "cache", "migration", "performance", "bug",
		},
		BehavioralKeywords: []string{
			"team", "conflict", "situation", "challenge", "disagree",
			"deadline", "mistake", "failure", "feedback", "mentor",
			"leadership", "stakeholder", "prioritize", "pressure",
			"colleague", "collaborat",
		},
		GreetingKeywords: []string{
			"hello", "hi ", "nice to meet", "thanks for joining",
			"how are you", "introduce yourself", "welcome",
			"about yourself",
		},
		IntroductionWindow: 60,
	}
}

// LoadTagRules reads a YAML rules file. Missing fields fall back to the
// defaults so a partial override file stays valid.
func LoadTagRules(path string) (TagRules, error) {
	rules := DefaultTagRules()
	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("read tag rules: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return rules, fmt.Errorf("parse tag rules %s: %w", path, err)
	}
	return rules, nil
}

// Tag classifies one Q&A unit. index is the unit's position in the final
// sequence (the first unit is index 0). Tag is a pure function: the same
// unit always yields the same metadata, and every unit receives exactly one
// topic and one question type, defaulting to TopicOther and
// QuestionGeneral.
func Tag(unit QAUnit, index int, rules TagRules) TaggedChunk {
	return TaggedChunk{
		QAUnit:            unit,
		Topic:             classifyTopic(unit, index, rules),
		QuestionType:      classifyQuestion(unit.Question),
		EstimatedDuration: unit.End - unit.Start,
	}
}

func classifyTopic(unit QAUnit, index int, rules TagRules) Topic {
	text := strings.ToLower(unitText(unit))

	// Position heuristic first: the synthetic leading unit is the
	// introduction by construction, and early greeting-flavored units
	// count too.
	if index == 0 && unit.Question == nil {
		return TopicIntroduction
	}
	if unit.Start < rules.IntroductionWindow && containsAny(text, rules.GreetingKeywords) {
		return TopicIntroduction
	}

	tech := countHits(text, rules.TechnicalKeywords)
	beh := countHits(text, rules.BehavioralKeywords)
	switch {
	case tech == 0 && beh == 0:
		return TopicOther
	case tech >= beh:
		// Ties resolve to technical: technical vocabulary is the more
		// specific signal.
		return TopicTechnical
	default:
		return TopicBehavioral
	}
}

// classifyQuestion derives a question-type label from the surface syntax of
// the question turn. The checks run in a fixed order so classification is
// deterministic.
func classifyQuestion(q *Turn) string {
	if q == nil {
		return QuestionGeneral
	}
	text := strings.ToLower(strings.TrimSpace(q.Text))
	if text == "" {
		return QuestionGeneral
	}

	switch {
	case strings.Contains(text, "tell me about") ||
		strings.Contains(text, "walk me through") ||
		strings.Contains(text, "describe a"):
		return QuestionTellMeAbout
	case strings.Contains(text, "experience with") ||
		strings.Contains(text, "have you worked") ||
		strings.Contains(text, "have you used"):
		return QuestionExperience
	case strings.HasPrefix(text, "why") || strings.Contains(text, " why "):
		return QuestionWhy
	case strings.HasPrefix(text, "how") || strings.Contains(text, " how "):
		return QuestionHow
	case strings.HasPrefix(text, "what") || strings.Contains(text, " what "):
		return QuestionWhat
	case len(strings.Fields(text)) <= 4:
		// Short interviewer interjections ("okay, and then?") are
		// follow-ups, not fresh questions.
		return QuestionFollowup
	default:
		return QuestionGeneral
	}
}

// unitText concatenates the question and answer texts of a unit.
func unitText(unit QAUnit) string {
	var b strings.Builder
	if unit.Question != nil {
		b.WriteString(unit.Question.Text)
	}
	for _, a := range unit.Answers {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(a.Text)
	}
	return b.String()
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func countHits(text string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}
