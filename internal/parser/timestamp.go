// Package parser turns natural language time expressions into instants.
package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"

	"github.com/manav03panchal/mindstore/internal/errors"
)

// periodRegex matches period expressions like "this week", "last month".
var periodRegex = regexp.MustCompile(`(?i)^(this|current|last|previous)\s+(hour|day|week|month|year)$`)

// TimestampExamples are shown when an expression cannot be parsed.
const TimestampExamples = "Try 'now', 'yesterday', '7 days ago', 'last week' or '2025-01-31'"

// ParseTimestamp parses a natural language timestamp relative to now.
// Period expressions resolve to the start of the period.
func ParseTimestamp(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.EqualFold(input, "now") {
		return now, nil
	}

	if match := periodRegex.FindStringSubmatch(input); match != nil {
		return periodStart(strings.ToLower(match[1]), strings.ToLower(match[2]), now), nil
	}

	cfg := &dateparser.Configuration{
		CurrentTime: now,
	}
	result, err := dateparser.Parse(cfg, input)
	if err != nil || result.Time.IsZero() {
		return time.Time{}, errors.NewUserErrorWithField("time", input, "could not parse time expression", TimestampExamples)
	}
	return result.Time, nil
}

func periodStart(modifier, period string, now time.Time) time.Time {
	previous := modifier == "last" || modifier == "previous"

	var t time.Time
	switch period {
	case "hour":
		t = time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
		if previous {
			t = t.Add(-time.Hour)
		}
	case "day":
		t = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if previous {
			t = t.AddDate(0, 0, -1)
		}
	case "week":
		// Weeks start on Monday.
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		t = time.Date(now.Year(), now.Month(), now.Day()-weekday+1, 0, 0, 0, 0, now.Location())
		if previous {
			t = t.AddDate(0, 0, -7)
		}
	case "month":
		t = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		if previous {
			t = t.AddDate(0, -1, 0)
		}
	case "year":
		t = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		if previous {
			t = t.AddDate(-1, 0, 0)
		}
	default:
		t = now
	}
	return t
}
