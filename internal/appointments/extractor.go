package appointments

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Slot is a tentative appointment window extracted from a transcript.
type Slot struct {
	StartsAt time.Time
	EndsAt   time.Time
	Purpose  string
}

// DateExtractor parses a transcript into a slot. ok is false when the
// transcript carries no usable date mention; such intents are dropped.
type DateExtractor interface {
	Extract(transcript string, now time.Time) (slot Slot, ok bool)
}

var (
	dayPattern = regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday|tomorrow|today)\b`)
	// "march 3", "march 3rd", "december 21st"
	monthDayPattern = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}(st|nd|rd|th)?\b`)
	// "3pm", "3:30 pm", "11am"
	clockPattern = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	// 24h form "15:00"
	clock24Pattern = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	// "for a consultation", "for an estimate"
	purposePattern = regexp.MustCompile(`(?i)\bfor an? ([a-z]+)`)
)

// HeuristicExtractor approximates scheduling from free text. Any recognized
// day word lands on tomorrow relative to now; callers confirm the real date
// with the customer afterwards. The default slot is 10:00 for one hour.
type HeuristicExtractor struct{}

func (HeuristicExtractor) Extract(transcript string, now time.Time) (Slot, bool) {
	if !dayPattern.MatchString(transcript) && !monthDayPattern.MatchString(transcript) {
		return Slot{}, false
	}

	hour, minute := 10, 0
	if m := clockPattern.FindStringSubmatch(transcript); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if strings.EqualFold(m[3], "pm") && hour < 12 {
			hour += 12
		}
		if strings.EqualFold(m[3], "am") && hour == 12 {
			hour = 0
		}
	} else if m := clock24Pattern.FindStringSubmatch(transcript); m != nil {
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		if h < 24 && mm < 60 {
			hour, minute = h, mm
		}
	}

	day := now.UTC().AddDate(0, 0, 1)
	start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)

	slot := Slot{StartsAt: start, EndsAt: start.Add(time.Hour)}
	if m := purposePattern.FindStringSubmatch(transcript); m != nil {
		slot.Purpose = strings.ToLower(m[1])
	}
	return slot, true
}
