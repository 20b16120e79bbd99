package model

import (
	"errors"
	"fmt"
	"strings"
)

// ImportRow is one already-parsed contact row. CSV parsing and column
// mapping happen upstream; this layer only normalizes and dedupes.
type ImportRow struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Phone          string `json:"phone"`
	SecondaryPhone string `json:"phone_secondary"`
	Email          string `json:"email"`
	Year           *int   `json:"year"`
}

// ImportRequest is the contact import input.
type ImportRequest struct {
	ChapterID string      `json:"chapter_id"`
	Rows      []ImportRow `json:"rows"`
}

func (p ImportRequest) Validate() error {
	if p.ChapterID == "" {
		return errors.New("chapter_id is required")
	}
	if len(p.Rows) == 0 {
		return errors.New("rows must not be empty")
	}
	return nil
}

// RowError is one rejected import row with its 1-based index.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult reports exact outcome counts for one import call.
type ImportResult struct {
	Imported      int        `json:"imported"`
	Skipped       int        `json:"skipped"`
	Duplicates    int        `json:"duplicates"`
	DualPhone     int        `json:"dual_phone"`
	QueueAssigned int        `json:"queue_assigned"`
	Errors        []RowError `json:"errors"`
}

// NormalizePhone converts a raw phone string to E.164. Ten digits get the
// +1 country code, eleven digits need the leading 1; anything longer up to
// fifteen digits is taken as already country-coded.
func NormalizePhone(raw string) (string, bool) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()

	switch {
	case len(d) == 10:
		return "+1" + d, true
	case len(d) == 11 && strings.HasPrefix(d, "1"):
		return "+" + d, true
	case len(d) >= 11 && len(d) <= 15:
		return "+" + d, true
	}
	return "", false
}

// BoundYear keeps a graduation year only when it is plausible.
func BoundYear(year *int) *int {
	if year == nil {
		return nil
	}
	if *year > 1900 && *year < 2100 {
		return year
	}
	return nil
}

// InvalidPhoneError formats the row error for an unparseable phone.
func InvalidPhoneError(raw string) string {
	return fmt.Sprintf("Invalid phone number: %s", raw)
}
