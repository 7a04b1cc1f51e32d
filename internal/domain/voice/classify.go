// Package voice turns transcribed utterances into draft actions using fixed
// keyword and pattern rules.
package voice

import "strings"

var eventKeywords = []string{"schedule", "appointment", "event", "meeting"}

var taskMarkers = []string{"task", "todo", "remind me to"}

// Classification records which draft kinds an utterance denotes. Both flags
// may be set; callers extract one draft per set flag.
type Classification struct {
	Event bool
	Task  bool
}

// Unclassified reports that neither rule fired
func (c Classification) Unclassified() bool {
	return !c.Event && !c.Task
}

func (c Classification) String() string {
	switch {
	case c.Event && c.Task:
		return "event+task"
	case c.Event:
		return "event"
	case c.Task:
		return "task"
	default:
		return "unclassified"
	}
}

// Classify applies the keyword rules to a raw utterance
func Classify(utterance string) Classification {
	lower := strings.ToLower(utterance)
	return Classification{
		Event: containsAny(lower, eventKeywords),
		Task:  strings.Contains(lower, "add") && containsAny(lower, taskMarkers),
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
