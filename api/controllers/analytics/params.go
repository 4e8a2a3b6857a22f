package analytics

import (
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
)

const (
	day           = 24 * time.Hour
	defaultWindow = "30d"
)

var windows = map[string]time.Duration{
	"7d":  7 * day,
	"30d": 30 * day,
	"90d": 90 * day,
}

var clock = func() time.Time { return time.Now().UTC() }

type window struct {
	start, end time.Time
}

// windowFromQuery reads either an explicit from/to pair (RFC 3339) or a named
// preset ending now. An empty query falls back to the last 30 days.
func windowFromQuery(q url.Values, now time.Time) (window, error) {
	from, to := strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to"))
	if from == "" && to == "" {
		return presetWindow(q.Get("preset"), now)
	}
	if from == "" || to == "" {
		return window{}, invalidRange("from and to must be provided together")
	}

	start, err := parseInstant("from", from)
	if err != nil {
		return window{}, err
	}
	end, err := parseInstant("to", to)
	if err != nil {
		return window{}, err
	}
	if end.Before(start) {
		return window{}, invalidRange("to must not be before from")
	}
	return window{start: start, end: end}, nil
}

func presetWindow(name string, now time.Time) (window, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = defaultWindow
	}
	span, ok := windows[name]
	if !ok {
		return window{}, invalidRange("preset must be one of 7d, 30d, 90d")
	}
	return window{start: now.Add(-span), end: now}, nil
}

func parseInstant(field, raw string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, invalidRange(field + " must be an RFC 3339 timestamp")
	}
	return ts.UTC(), nil
}

func invalidRange(msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg)
}
