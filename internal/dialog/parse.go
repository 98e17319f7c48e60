package dialog

import (
	"strconv"
	"strings"
	"time"
)

// birthdateLayout is the only accepted date format: two-digit day,
// two-digit month, four-digit year, period-separated.
const birthdateLayout = "02.01.2006"

// parseBirthdate parses strict DD.MM.YYYY input.
func parseBirthdate(input string) (time.Time, bool) {
	t, err := time.ParseInLocation(birthdateLayout, strings.TrimSpace(input), time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func formatBirthdate(t time.Time) string {
	return t.Format(birthdateLayout)
}

// parseCuratedExpectancy accepts the curated keyboard values: the leading
// integer of inputs like "90 лет" must be one of 70/80/90.
func parseCuratedExpectancy(input string) (int, bool) {
	fields := strings.Fields(strings.TrimSpace(input))
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, false
	}
	switch n {
	case 70, 80, 90:
		return n, true
	}
	return 0, false
}

// parseCustomExpectancy accepts a free-form integer within [min, max].
func parseCustomExpectancy(input string, min, max int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, false
	}
	if n < min || n > max {
		return 0, false
	}
	return n, true
}

// isCancel reports whether the input is the global cancel command,
// accepted from every state.
func isCancel(input string) bool {
	s := strings.TrimSpace(input)
	return strings.EqualFold(s, "/cancel") || strings.EqualFold(s, BtnCancel)
}
