// Package http provides the JSON API server and its handlers.
//
// This file implements request decoding shared by the handlers.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"financas/internal/core"
	"financas/internal/services"
)

const maxBodyBytes = 1 << 20

var errMalformedJSON = errors.New("malformed JSON body")

// decodeJSON reads one JSON value from the request body into dst. Invalid
// amounts and dates surface as their core.ValidationError; anything else
// unreadable is errMalformedJSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return fmt.Errorf("%w: %v", errMalformedJSON, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", errMalformedJSON)
	}
	return nil
}

// recordID returns the id from the path, then the query string, then the
// body, whichever is set first.
func recordID(r *http.Request, fromBody string) string {
	if id := strings.TrimSpace(r.PathValue("id")); id != "" {
		return id
	}
	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		return id
	}
	return strings.TrimSpace(fromBody)
}

// parseMonthParams reads ?ano=YYYY&mes=M. Missing values default to the
// current month in loc; present but unparseable values are rejected.
func parseMonthParams(r *http.Request, now time.Time, loc *time.Location) (int, time.Month, error) {
	now = now.In(loc)
	year, month := now.Year(), now.Month()

	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("ano")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, services.ErrInvalidPeriod
		}
		year = y
	}
	if v := strings.TrimSpace(q.Get("mes")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, services.ErrInvalidPeriod
		}
		month = time.Month(m)
	}
	return year, month, nil
}
