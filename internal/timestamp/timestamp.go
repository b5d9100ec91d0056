// Package timestamp coerces the assorted timestamp strings found in
// imported recordings into time.Time values and repairs implausible ones.
package timestamp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnparseable is returned when no known layout matches.
var ErrUnparseable = errors.New("unparseable timestamp")

// Fix names the repair applied by Repair.
type Fix string

// Repair outcomes.
const (
	FixNone        Fix = "none"
	FixUnparseable Fix = "unparseable"
	FixFuture      Fix = "future"
	FixAncient     Fix = "ancient"
)

// zoned layouts carry their own offset.
var zoned = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02 15:04:05 -0700",
	time.RFC1123Z,
	time.RFC1123,
}

// local layouts are interpreted in the caller's location.
var local = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"2006-01-02",
	"2006年1月2日 15時04分",
	"2006年1月2日 15:04",
	"2006年1月2日",
	"20060102_150405",
}

// Parse interprets s using the known layouts. Layouts without a zone use
// loc (UTC when nil). Eight digits are read as YYYYMMDD; other purely
// numeric input is read as Unix seconds, or milliseconds when it has more
// than ten digits.
func Parse(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrUnparseable)
	}
	if loc == nil {
		loc = time.UTC
	}

	if len(s) == 8 {
		if t, err := time.ParseInLocation("20060102", s, loc); err == nil {
			return t, nil
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if len(strings.TrimLeft(s, "-")) > 10 {
			return time.UnixMilli(n).In(loc), nil
		}
		return time.Unix(n, 0).In(loc), nil
	}

	for _, layout := range zoned {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range local {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, s)
}

// Policy controls which parsed timestamps Repair accepts.
type Policy struct {
	// Earliest plausible time; zero means 2000-01-01 UTC.
	Earliest time.Time
	// FutureTolerance allowed beyond now before a time counts as future.
	FutureTolerance time.Duration
}

// DefaultPolicy accepts times from 2000 up to one day past now.
var DefaultPolicy = Policy{FutureTolerance: 24 * time.Hour}

func (p Policy) earliest() time.Time {
	if p.Earliest.IsZero() {
		return time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return p.Earliest
}

// Repair parses raw and falls back to fallback when raw is unparseable,
// zero, earlier than the policy's earliest time, or further in the future
// than the tolerance. The returned Fix names the reason for a fallback.
func (p Policy) Repair(raw string, fallback, now time.Time, loc *time.Location) (time.Time, Fix) {
	t, err := Parse(raw, loc)
	switch {
	case err != nil || t.IsZero():
		return fallback, FixUnparseable
	case t.Before(p.earliest()):
		return fallback, FixAncient
	case t.After(now.Add(p.FutureTolerance)):
		return fallback, FixFuture
	default:
		return t, FixNone
	}
}
