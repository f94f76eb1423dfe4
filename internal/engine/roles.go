package engine

import "sort"

// ResolveRoles maps raw diarization cluster labels onto the closed
// {INTERVIEWER, CANDIDATE} set. Diarization engines emit arbitrary ids
// (SPEAKER_00, SPEAKER_01, ...), so the mapping is heuristic: of the two
// clusters with the most speaking time, the interviewer is the one with the
// shorter mean turn length (questions are short, answers are long); when the
// means are equal, the earlier first appearance wins, since the interviewer
// normally opens the conversation. Any further clusters map to RoleUnknown.
//
// The function is stateless: the mapping is returned to the caller and
// nothing leaks between interviews.
func ResolveRoles(intervals []SpeakerInterval) map[string]string {
	type stat struct {
		label      string
		firstStart float64
		total      float64
		count      int
	}

	byLabel := map[string]*stat{}
	var order []string
	for _, iv := range intervals {
		s, ok := byLabel[iv.Speaker]
		if !ok {
			s = &stat{label: iv.Speaker, firstStart: iv.Start}
			byLabel[iv.Speaker] = s
			order = append(order, iv.Speaker)
		}
		if iv.Start < s.firstStart {
			s.firstStart = iv.Start
		}
		if d := iv.End - iv.Start; d > 0 {
			s.total += d
		}
		s.count++
	}

	mapping := make(map[string]string, len(byLabel))
	switch len(byLabel) {
	case 0:
		return mapping
	case 1:
		// A single voice is someone practicing answers alone.
		mapping[order[0]] = RoleCandidate
		return mapping
	}

	stats := make([]*stat, 0, len(byLabel))
	for _, l := range order {
		stats = append(stats, byLabel[l])
	}
	// Two dominant clusters carry the conversation; sort is stable on the
	// first-appearance order captured above.
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].total > stats[j].total })

	a, b := stats[0], stats[1]
	interviewer, candidate := a, b
	meanA, meanB := a.total/float64(a.count), b.total/float64(b.count)
	switch {
	case meanA < meanB:
		// a already interviewer
	case meanB < meanA:
		interviewer, candidate = b, a
	case b.firstStart < a.firstStart:
		interviewer, candidate = b, a
	}

	mapping[interviewer.label] = RoleInterviewer
	mapping[candidate.label] = RoleCandidate
	for _, s := range stats[2:] {
		mapping[s.label] = RoleUnknown
	}
	return mapping
}

// ApplyRoles rewrites interval speaker labels through the given mapping.
// Labels missing from the mapping become RoleUnknown. The input slice is not
// modified.
func ApplyRoles(intervals []SpeakerInterval, mapping map[string]string) []SpeakerInterval {
	out := make([]SpeakerInterval, len(intervals))
	for i, iv := range intervals {
		role, ok := mapping[iv.Speaker]
		if !ok {
			role = RoleUnknown
		}
		out[i] = SpeakerInterval{Start: iv.Start, End: iv.End, Speaker: role}
	}
	return out
}
