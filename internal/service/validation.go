package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/sakif/journalize/internal/apperror"
	"github.com/sakif/journalize/internal/model"
)

const (
	MaxTitleLength      = 200
	MaxContentLength    = 1 << 20 // bytes of serialized editor output
	MaxMoodLength       = 50
	MaxFolderNameLength = 100

	MinUsernameLength = 3
	MaxUsernameLength = 32
	MinPasswordLength = 6
	MaxPasswordLength = 72 // bcrypt's limit, in bytes
)

// DateLayout is the wire format of journal dates. time.Parse accepts an
// optional fractional second, so "2024-01-01T00:00:00.000Z" parses too.
const DateLayout = time.RFC3339

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

var (
	isRequired  = validation.Required.Error("is required")
	notBlank    = validation.NilOrNotEmpty.Error("must not be empty")
	journalType = validation.In(journalTypeValues()...).
			Error("must be one of: " + strings.Join(journalTypeNames(), ", "))
	isoDate = validation.Date(DateLayout).Error("must be an ISO-8601 datetime")
)

func journalTypeValues() []any {
	out := make([]any, 0, len(model.JournalTypes))
	for _, t := range model.JournalTypes {
		out = append(out, string(t))
	}
	return out
}

func journalTypeNames() []string {
	out := make([]string, 0, len(model.JournalTypes))
	for _, t := range model.JournalTypes {
		out = append(out, string(t))
	}
	return out
}

// validationError turns ozzo's per-field error map into an
// apperror.ValidationFields. Anything else ozzo returns is a programming
// error (a rule applied to the wrong type) and is passed through wrapped.
func validationError(err error) error {
	if err == nil {
		return nil
	}

	fields := make(map[string]string)
	if !collectFieldErrors("", err, fields) {
		return fmt.Errorf("validating request: %w", err)
	}
	return apperror.ValidationFields(fields)
}

// collectFieldErrors flattens err into out with keys like "title" or
// "journals[2].date". It reports false when err is not a validation.Errors.
func collectFieldErrors(prefix string, err error, out map[string]string) bool {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return false
	}

	for name, fieldErr := range errs {
		if fieldErr == nil {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if !collectFieldErrors(key, fieldErr, out) {
			out[key] = fieldErr.Error()
		}
	}
	return true
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, apperror.ValidationFailed("date", "must be an ISO-8601 datetime")
	}
	return t, nil
}
