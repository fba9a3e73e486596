// Package kql builds the SecurityEvent queries sent to Log Analytics.
package kql

import (
	"math"
	"regexp"
	"strconv"
)

// UnitDays is the only window unit understood by the extractor.
const UnitDays = "days"

var windowRe = regexp.MustCompile(`(?i)(\d+)\s*days?`)

// Window is a relative look-back period.
type Window struct {
	Magnitude int    `json:"magnitude"`
	Unit      string `json:"unit"`

	// digits is the number as written in the message
	digits string
}

// Timespan renders the window as a KQL timespan literal, e.g. "7d". An
// extracted window keeps the digits exactly as the user typed them.
func (w Window) Timespan() string {
	if w.digits != "" {
		return w.digits + "d"
	}
	return strconv.Itoa(w.Magnitude) + "d"
}

// ExtractWindow finds the first "<n> day(s)" phrase in text. The magnitude
// is not capped: "999999 days" yields 999999, and a number too large for an
// int saturates Magnitude while Timespan still carries every digit.
func ExtractWindow(text string) (Window, bool) {
	m := windowRe.FindStringSubmatch(text)
	if m == nil {
		return Window{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		n = math.MaxInt
	}
	return Window{Magnitude: n, Unit: UnitDays, digits: m[1]}, true
}
