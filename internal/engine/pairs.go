package engine

// BuildPairs groups the coalesced turn sequence into question/answer units.
//
// The walk is a two-state machine folded over the turns: while seeking a
// question, candidate turns before the first interviewer turn accumulate
// into a synthetic leading unit (nil Question) that captures introductions
// and small talk; once a question is open, candidate turns accumulate as its
// answers and the next interviewer turn closes the unit and immediately
// opens the next one. RoleUnknown turns are noise and are skipped, so every
// interviewer and candidate turn lands in exactly one unit. A trailing
// question with no answers is kept with empty Answers, never dropped.
func BuildPairs(turns []Turn) []QAUnit {
	var b pairBuilder
	for _, t := range turns {
		b.step(t)
	}
	return b.flush()
}

type pairBuilder struct {
	units []QAUnit
	open  *QAUnit
}

func (b *pairBuilder) step(t Turn) {
	switch t.Speaker {
	case RoleUnknown:
		// Diarization noise; skipped when scanning for questions and
		// answers.
	case RoleInterviewer:
		b.close()
		q := t
		b.open = &QAUnit{Question: &q}
	default:
		if b.open == nil {
			// Candidate speech before any question: synthetic
			// leading unit.
			b.open = &QAUnit{}
		}
		b.open.Answers = append(b.open.Answers, t)
	}
}

func (b *pairBuilder) close() {
	if b.open == nil {
		return
	}
	u := *b.open
	u.Start, u.End = unitSpan(u)
	b.units = append(b.units, u)
	b.open = nil
}

func (b *pairBuilder) flush() []QAUnit {
	b.close()
	return b.units
}

func unitSpan(u QAUnit) (start, end float64) {
	if u.Question != nil {
		start, end = u.Question.Start, u.Question.End
	} else if len(u.Answers) > 0 {
		start, end = u.Answers[0].Start, u.Answers[0].End
	}
	if n := len(u.Answers); n > 0 {
		if u.Question == nil {
			start = u.Answers[0].Start
		}
		if last := u.Answers[n-1].End; last > end {
			end = last
		}
	}
	return start, end
}
