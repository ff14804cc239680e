package shared

import (
	"fmt"
	"strconv"
	"strings"
)

// Quarters are labelled T1..T4 on call sheets and exports, matching the
// convention of the managing agent's paperwork.
var quarterLabels = [...]string{"T1", "T2", "T3", "T4"}

// QuarterLabel returns the label for a 1-based quarter index.
func QuarterLabel(q int) (string, error) {
	if q < 1 || q > len(quarterLabels) {
		return "", fmt.Errorf("shared: quarter %d out of range", q)
	}
	return quarterLabels[q-1], nil
}

// ParseQuarter accepts "1".."4" or "T1".."T4" (case-insensitive).
func ParseQuarter(raw string) (int, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "T")
	q, err := strconv.Atoi(s)
	if err != nil || q < 1 || q > 4 {
		return 0, fmt.Errorf("shared: invalid quarter %q", raw)
	}
	return q, nil
}

// ParseFiscalYear validates a year parameter.
func ParseFiscalYear(raw string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || year < 2000 || year > 2100 {
		return 0, fmt.Errorf("shared: invalid fiscal year %q", raw)
	}
	return year, nil
}
