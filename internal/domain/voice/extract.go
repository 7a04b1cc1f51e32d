package voice

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/domain/timeutil"
)

var (
	twelveHourPattern      = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	twentyFourHourPattern  = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	scheduleTitlePattern   = regexp.MustCompile(`(?is)schedule (.*)$`)
	createTitlePattern     = regexp.MustCompile(`(?is)create (.*)$`)
	addTitlePattern        = regexp.MustCompile(`(?is)add (.*)$`)
	remindTitlePattern     = regexp.MustCompile(`(?is)remind me to (.*)$`)
	eventWordPattern       = regexp.MustCompile(`(?i)event`)
	taskListPhrasePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)to my task list`),
		regexp.MustCompile(`(?i)to tasks`),
		regexp.MustCompile(`(?i)task`),
	}
)

// ExtractorConfig holds the defaults applied when an utterance is silent
type ExtractorConfig struct {
	DefaultAssigneeID int64
	DefaultHour       int
	DefaultMinute     int
	EventDuration     time.Duration
}

// Extractor pulls titles, times and assignees out of classified utterances
type Extractor struct {
	cfg ExtractorConfig
}

// NewExtractor creates an extractor. Zero-valued duration falls back to one hour.
func NewExtractor(cfg ExtractorConfig) *Extractor {
	if cfg.EventDuration <= 0 {
		cfg.EventDuration = time.Hour
	}
	return &Extractor{cfg: cfg}
}

// Extract classifies the utterance and returns one draft per matching rule,
// event first. members is optional; a member named in the utterance becomes
// the assignee instead of the default.
func (e *Extractor) Extract(utterance string, now time.Time, members []*entities.FamilyMember) []Action {
	class := Classify(utterance)

	var actions []Action
	if class.Event {
		actions = append(actions, e.ExtractEvent(utterance, now, members))
	}
	if class.Task {
		actions = append(actions, e.ExtractTask(utterance, now, members))
	}
	return actions
}

// ExtractEvent builds an event draft. StartTime is always set.
func (e *Extractor) ExtractEvent(utterance string, now time.Time, members []*entities.FamilyMember) EventAction {
	hour, minute, parsed := ParseClock(utterance)
	if !parsed {
		hour, minute = e.cfg.DefaultHour, e.cfg.DefaultMinute
	}

	start := anchorDate(strings.ToLower(utterance), now, hour, minute)
	end := start.Add(e.cfg.EventDuration)

	return EventAction{
		Title:      eventTitle(utterance),
		StartTime:  start,
		EndTime:    &end,
		AssignedTo: e.assignee(utterance, members),
	}
}

// ExtractTask builds a task draft with medium priority
func (e *Extractor) ExtractTask(utterance string, now time.Time, members []*entities.FamilyMember) TaskAction {
	lower := strings.ToLower(utterance)

	var due *time.Time
	switch {
	case strings.Contains(lower, "today"):
		d := timeutil.EndOfDay(now)
		due = &d
	case strings.Contains(lower, "tomorrow"):
		d := timeutil.EndOfDay(timeutil.NextDay(timeutil.StartOfDay(now)))
		due = &d
	}

	return TaskAction{
		Title:      taskTitle(utterance),
		DueDate:    due,
		AssignedTo: e.assignee(utterance, members),
		Priority:   entities.PriorityMedium,
	}
}

func (e *Extractor) assignee(utterance string, members []*entities.FamilyMember) *int64 {
	if id, ok := MatchMember(utterance, members); ok {
		return &id
	}
	id := e.cfg.DefaultAssigneeID
	return &id
}

// ParseClock finds a 12-hour ("4pm", "7:30 am") or 24-hour ("18:45") time
func ParseClock(utterance string) (hour, minute int, ok bool) {
	if m := twelveHourPattern.FindStringSubmatch(utterance); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins := 0
		if m[2] != "" {
			mins, _ = strconv.Atoi(m[2])
		}
		if h >= 1 && h <= 12 && mins < 60 {
			h %= 12
			if strings.EqualFold(m[3], "pm") {
				h += 12
			}
			return h, mins, true
		}
	}

	if m := twentyFourHourPattern.FindStringSubmatch(utterance); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		if h < 24 && mins < 60 {
			return h, mins, true
		}
	}

	return 0, 0, false
}

func anchorDate(lower string, now time.Time, hour, minute int) time.Time {
	today := timeutil.AtClock(now, hour, minute)

	switch {
	case strings.Contains(lower, "today"):
		return today
	case strings.Contains(lower, "tomorrow"):
		return timeutil.AtClock(timeutil.NextDay(timeutil.StartOfDay(now)), hour, minute)
	case today.After(now):
		return today
	default:
		return timeutil.AtClock(timeutil.NextDay(timeutil.StartOfDay(now)), hour, minute)
	}
}

func eventTitle(utterance string) string {
	if m := scheduleTitlePattern.FindStringSubmatch(utterance); m != nil {
		return tidy(m[1])
	}
	if m := createTitlePattern.FindStringSubmatch(utterance); m != nil {
		return tidy(eventWordPattern.ReplaceAllString(m[1], ""))
	}
	return tidy(utterance)
}

func taskTitle(utterance string) string {
	rest := utterance
	for _, p := range []*regexp.Regexp{addTitlePattern, createTitlePattern, remindTitlePattern} {
		if m := p.FindStringSubmatch(utterance); m != nil {
			rest = m[1]
			break
		}
	}
	for _, p := range taskListPhrasePatterns {
		rest = p.ReplaceAllString(rest, "")
	}
	return tidy(rest)
}

func tidy(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// determiners mark a common noun, so "the bill" is not Bill. Possessives
// are left out since "my mom" still names a member.
var determiners = map[string]bool{
	"a": true, "an": true, "the": true, "this": true, "that": true, "some": true,
}

// MatchMember finds the first family member whose name appears in the
// utterance as whole words and not right after a determiner.
func MatchMember(utterance string, members []*entities.FamilyMember) (int64, bool) {
	if len(members) == 0 {
		return 0, false
	}

	words := strings.FieldsFunc(strings.ToLower(utterance), func(r rune) bool {
		return !(r == '\'' || r == '-' || ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') || r > 127)
	})
	for i, w := range words {
		words[i] = strings.TrimSuffix(w, "'s")
	}

	for _, m := range members {
		name := strings.Fields(strings.ToLower(m.Name))
		if len(name) > 0 && containsName(words, name) {
			return m.ID, true
		}
	}
	return 0, false
}

func containsName(words, name []string) bool {
	for i := 0; i+len(name) <= len(words); i++ {
		if i > 0 && determiners[words[i-1]] {
			continue
		}
		match := true
		for j, part := range name {
			if words[i+j] != part {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
