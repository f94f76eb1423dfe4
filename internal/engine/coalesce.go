package engine

import "strings"

// DefaultMaxGap is the largest silence, in seconds, across which two
// same-speaker segments are still considered one turn. Recognizers chop
// continuous speech into chunks with sub-second gaps; 1.5s comfortably
// bridges those while still splitting genuine pauses around turn boundaries.
const DefaultMaxGap = 1.5

// Coalesce merges adjacent same-speaker segments into turns.
//
// RoleUnknown segments bridge diarization gaps: when the nearest labeled
// neighbors on both sides share a speaker, the unknown segment joins that
// speaker's turn. Unbridgeable unknowns (at the edges, or flanked by two
// different speakers) form their own RoleUnknown turns, which downstream
// stages treat as noise.
//
// The output guarantees that no two consecutive non-unknown turns share a
// speaker, even when a pause inside one speaker's speech exceeds maxGap:
// a long gap only splits a turn when a different speaker actually
// intervenes.
func Coalesce(labeled []LabeledSegment, maxGap float64) []Turn {
	if maxGap <= 0 {
		maxGap = DefaultMaxGap
	}
	bridged := bridgeUnknowns(labeled)

	var turns []Turn
	var cur *Turn
	var prevEnd float64

	for _, seg := range bridged {
		if cur != nil && seg.Speaker == cur.Speaker && seg.Start-prevEnd <= maxGap {
			appendSegment(cur, seg)
			prevEnd = seg.End
			continue
		}
		if cur != nil {
			turns = append(turns, *cur)
		}
		cur = &Turn{
			Speaker:      seg.Speaker,
			Start:        seg.Start,
			End:          seg.End,
			Text:         strings.TrimSpace(seg.Text),
			SegmentCount: 1,
		}
		prevEnd = seg.End
	}
	if cur != nil {
		turns = append(turns, *cur)
	}

	return mergeAdjacentSameSpeaker(turns)
}

// bridgeUnknowns relabels RoleUnknown segments that sit between two segments
// of the same speaker, closing diarization gaps inside a single turn.
func bridgeUnknowns(labeled []LabeledSegment) []LabeledSegment {
	out := make([]LabeledSegment, len(labeled))
	copy(out, labeled)

	for i := range out {
		if out[i].Speaker != RoleUnknown {
			continue
		}
		prev := prevKnownSpeaker(out, i)
		next := nextKnownSpeaker(out, i)
		if prev != "" && prev == next {
			out[i].Speaker = prev
		}
	}
	return out
}

func prevKnownSpeaker(segs []LabeledSegment, i int) string {
	for j := i - 1; j >= 0; j-- {
		if segs[j].Speaker != RoleUnknown {
			return segs[j].Speaker
		}
	}
	return ""
}

func nextKnownSpeaker(segs []LabeledSegment, i int) string {
	for j := i + 1; j < len(segs); j++ {
		if segs[j].Speaker != RoleUnknown {
			return segs[j].Speaker
		}
	}
	return ""
}

// mergeAdjacentSameSpeaker enforces the fully-coalesced invariant: a gap
// larger than maxGap closed the turn above, but when the very next turn
// belongs to the same speaker there was no real hand-over, so the two halves
// are rejoined here.
func mergeAdjacentSameSpeaker(turns []Turn) []Turn {
	if len(turns) < 2 {
		return turns
	}
	out := turns[:1]
	for _, t := range turns[1:] {
		last := &out[len(out)-1]
		if t.Speaker == last.Speaker {
			last.End = t.End
			last.Text = joinTurnText(last.Text, t.Text)
			last.SegmentCount += t.SegmentCount
			continue
		}
		out = append(out, t)
	}
	return out
}

func appendSegment(t *Turn, seg LabeledSegment) {
	t.End = seg.End
	t.Text = joinTurnText(t.Text, seg.Text)
	t.SegmentCount++
}

func joinTurnText(a, b string) string {
	b = strings.TrimSpace(b)
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + " " + b
}
