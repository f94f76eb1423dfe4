package engine

import "math"

// Align assigns a speaker to every text segment by maximum time overlap with
// the diarization intervals. Confidence is the fraction of the segment's
// span covered by the winning interval. Segments with no overlapping
// interval get RoleUnknown with confidence 0; zero-duration segments take
// the label of the nearest interval by start time. Equal overlaps resolve to
// the earlier-starting interval — a deliberate, testable tie-break.
//
// Align never fails: every input segment produces exactly one labeled
// segment, and malformed timing degrades to RoleUnknown instead of raising.
func Align(segments []TextSegment, intervals []SpeakerInterval) []LabeledSegment {
	out := make([]LabeledSegment, 0, len(segments))
	for _, seg := range segments {
		out = append(out, labelSegment(seg, intervals))
	}
	return out
}

func labelSegment(seg TextSegment, intervals []SpeakerInterval) LabeledSegment {
	dur := seg.Duration()
	if dur == 0 {
		// Degenerate span: overlap is meaningless, fall back to the
		// nearest interval by start time. Confidence stays 0 because no
		// coverage fraction exists for a zero-length span.
		return LabeledSegment{
			TextSegment: seg,
			Speaker:     nearestSpeaker(seg.Start, intervals),
			Confidence:  0,
		}
	}

	best := -1
	bestOverlap := 0.0
	for i, iv := range intervals {
		ov := overlapSeconds(seg.Start, seg.End, iv.Start, iv.End)
		if ov <= 0 {
			continue
		}
		// Strict > keeps the earliest-starting interval on exact ties,
		// because intervals arrive ordered by start.
		if ov > bestOverlap {
			best = i
			bestOverlap = ov
		}
	}

	if best < 0 {
		return LabeledSegment{TextSegment: seg, Speaker: RoleUnknown, Confidence: 0}
	}

	conf := bestOverlap / dur
	if conf > 1 {
		conf = 1
	}
	return LabeledSegment{TextSegment: seg, Speaker: intervals[best].Speaker, Confidence: conf}
}

// overlapSeconds returns the length of the intersection of [aStart,aEnd) and
// [bStart,bEnd) in seconds, or 0 when they do not intersect.
func overlapSeconds(aStart, aEnd, bStart, bEnd float64) float64 {
	lo := math.Max(aStart, bStart)
	hi := math.Min(aEnd, bEnd)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// nearestSpeaker returns the speaker of the interval whose start is closest
// to t, preferring the earlier interval on ties. RoleUnknown when there are
// no intervals at all.
func nearestSpeaker(t float64, intervals []SpeakerInterval) string {
	best := -1
	bestDist := math.Inf(1)
	for i, iv := range intervals {
		d := math.Abs(iv.Start - t)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	if best < 0 {
		return RoleUnknown
	}
	return intervals[best].Speaker
}
