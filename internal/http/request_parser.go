// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating request data: the user
// identity header, date and period query parameters, listing filters and JSON bodies.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/ports"
)

// UserHeader carries the identity of the caller, set by the authenticating proxy.
const UserHeader = "X-User-ID"

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// UserID returns the caller's ID or core.ErrMissingUser.
func UserID(r *http.Request) (string, error) {
	id := sanitizeInput(r.Header.Get(UserHeader))
	if id == "" {
		return "", core.ErrMissingUser
	}
	return id, nil
}

// ParseToday reads the optional "today" parameter, defaulting to now in loc.
func ParseToday(query url.Values, now time.Time, loc *time.Location) (core.Date, error) {
	if v := strings.TrimSpace(query.Get("today")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Date{}, badRequestf("invalid today parameter %q", v)
		}
		return d, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	return core.DateOf(now.In(loc)), nil
}

// ParsePeriodParam reads the optional "period" parameter (YYYY-MM), defaulting to
// the period containing today.
func ParsePeriodParam(query url.Values, today core.Date) (core.Period, error) {
	v := strings.TrimSpace(query.Get("period"))
	if v == "" {
		return core.PeriodOf(today), nil
	}
	p, err := core.ParsePeriod(v)
	if err != nil {
		return core.Period{}, badRequestf("invalid period parameter %q", v)
	}
	return p, nil
}

// ParseTransactionFilter reads from, to, type and category. Bounds are inclusive dates.
func ParseTransactionFilter(query url.Values) (ports.TransactionFilter, error) {
	var f ports.TransactionFilter
	var err error
	if v := strings.TrimSpace(query.Get("from")); v != "" {
		if f.From, err = core.ParseDate(v); err != nil {
			return f, badRequestf("invalid from parameter %q", v)
		}
	}
	if v := strings.TrimSpace(query.Get("to")); v != "" {
		if f.To, err = core.ParseDate(v); err != nil {
			return f, badRequestf("invalid to parameter %q", v)
		}
	}
	if !f.From.IsEmpty() && !f.To.IsEmpty() && f.To.Before(f.From) {
		return f, badRequestf("to must not be before from")
	}
	if v := strings.TrimSpace(query.Get("type")); v != "" {
		f.Type = core.TransactionType(v)
		if !f.Type.Valid() {
			return f, badRequestf("invalid type parameter %q", v)
		}
	}
	f.CategoryID = sanitizeInput(query.Get("category"))
	return f, nil
}

// DecodeJSON reads a single JSON object from the body into v. Amount and date
// failures are returned as is so they map to a field error.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) || errors.Is(err, core.ErrInvalidDate) ||
			errors.Is(err, core.ErrInvalidPeriod) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return badRequestf("empty request body")
		}
		return badRequestf("invalid JSON body: %v", err)
	}
	if dec.More() {
		return badRequestf("request body must hold a single JSON object")
	}
	return nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
