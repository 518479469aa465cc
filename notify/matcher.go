package notify

import "strings"

// Separator splits topics into segments.
const Separator = "."

// Match reports whether topic matches pattern. "*" matches exactly one
// segment and "#" matches zero or more, anywhere in the pattern:
//
//	wizard.*.submission_failed  matches wizard.tender.submission_failed
//	wizard.#                    matches wizard and wizard.tender.draft_saved
func Match(pattern, topic string) bool {
	if pattern == topic {
		return true
	}
	return matchParts(strings.Split(pattern, Separator), strings.Split(topic, Separator))
}

// matchParts walks the pattern one segment at a time keeping, for every
// topic prefix length, whether the pattern so far can consume it.
func matchParts(pattern, topic []string) bool {
	prev := make([]bool, len(topic)+1)
	cur := make([]bool, len(topic)+1)
	prev[0] = true

	for _, p := range pattern {
		cur[0] = p == "#" && prev[0]
		for j := 1; j <= len(topic); j++ {
			switch p {
			case "#":
				cur[j] = prev[j] || cur[j-1]
			case "*":
				cur[j] = prev[j-1]
			default:
				cur[j] = prev[j-1] && p == topic[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(topic)]
}

// Topic joins segments, dropping empty ones.
func Topic(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, Separator)
}
