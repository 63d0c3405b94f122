package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/grocer/internal/auth"
	"github.com/dukerupert/grocer/internal/grocery"
	"github.com/dukerupert/grocer/internal/middleware"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps domain errors to HTTP responses. Anything unrecognised is
// logged and reported as a 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verrs grocery.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation failed",
			"fields": verrs,
		})
	case errors.Is(err, grocery.ErrBadRequest):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, grocery.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, grocery.ErrForbidden):
		writeMessage(w, http.StatusForbidden, "not authorized to access this resource")
	default:
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFrom(r.Context()),
			"error", err,
		)
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", grocery.ErrBadRequest, name)
	}
	return id, nil
}

// decodeJSON reads a JSON body into v. With optional set, an empty body
// leaves v untouched. Field errors raised while decoding pass through.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) && optional {
		return nil
	}
	var verrs grocery.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs
	}
	if err != nil {
		return fmt.Errorf("%w: invalid JSON body", grocery.ErrBadRequest)
	}
	return nil
}

// caller returns the authenticated principal. Routes using it sit behind
// middleware.RequireAuth.
func caller(r *http.Request) auth.Principal {
	p, _ := auth.FromContext(r.Context())
	return p
}

// pageParams reads skip and limit from the query string.
func pageParams(r *http.Request) (grocery.Page, error) {
	page := grocery.DefaultPage
	var errs grocery.ValidationErrors
	q := r.URL.Query()
	if s := q.Get("skip"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			errs = append(errs, grocery.FieldError{Field: "skip", Message: "must be an integer"})
		}
		page.Skip = n
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			errs = append(errs, grocery.FieldError{Field: "limit", Message: "must be an integer"})
		}
		page.Limit = n
	}
	if len(errs) > 0 {
		return page, errs
	}
	return page, nil
}

func boolParam(r *http.Request, name string) (value, present bool, err error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return false, false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, true, grocery.ValidationErrors{{Field: name, Message: "must be a boolean"}}
	}
	return v, true, nil
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly}

// listDate accepts a full timestamp, a timestamp without zone (read as
// UTC) or a bare date. The parsed offset is kept.
type listDate time.Time

var errListDate = grocery.ValidationErrors{{Field: "list_date", Message: "must be a date or RFC 3339 timestamp"}}

func (d *listDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errListDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*d = listDate(t)
			return nil
		}
	}
	return errListDate
}

func (d *listDate) time() *time.Time {
	if d == nil {
		return nil
	}
	t := time.Time(*d)
	return &t
}
