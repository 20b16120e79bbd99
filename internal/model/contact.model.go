package model

import (
	"time"
)

// OutreachStatus is the lifecycle tag of a contact. Forward progression is
// monotonic; wrong_number and opted_out are terminal side exits.
type OutreachStatus string

const (
	OutreachStatusNotContacted OutreachStatus = "not_contacted"
	OutreachStatusVerified     OutreachStatus = "verified"
	OutreachStatusPitched      OutreachStatus = "pitched"
	OutreachStatusResponded    OutreachStatus = "responded"
	OutreachStatusSignedUp     OutreachStatus = "signed_up"
	OutreachStatusWrongNumber  OutreachStatus = "wrong_number"
	OutreachStatusOptedOut     OutreachStatus = "opted_out"
)

// Rank orders the forward-progressing statuses. Terminal side exits rank
// above everything so they are never overwritten by a poll result.
func (s OutreachStatus) Rank() int {
	switch s {
	case OutreachStatusNotContacted:
		return 0
	case OutreachStatusVerified:
		return 1
	case OutreachStatusPitched:
		return 2
	case OutreachStatusResponded:
		return 3
	case OutreachStatusSignedUp:
		return 4
	case OutreachStatusWrongNumber, OutreachStatusOptedOut:
		return 5
	}
	return -1
}

// Valid reports whether s is a member of the closed status set.
func (s OutreachStatus) Valid() bool {
	return s.Rank() >= 0
}

// Terminal reports whether the contact left the campaign for good.
func (s OutreachStatus) Terminal() bool {
	switch s {
	case OutreachStatusSignedUp, OutreachStatusWrongNumber, OutreachStatusOptedOut:
		return true
	}
	return false
}

// StatusMeta is the display metadata of one status.
type StatusMeta struct {
	Label string
	Color string
}

// Meta returns the display metadata for s. The switch is exhaustive over the
// closed set so an unknown tag is caught instead of silently missing a key.
func (s OutreachStatus) Meta() StatusMeta {
	switch s {
	case OutreachStatusNotContacted:
		return StatusMeta{Label: "Not Contacted", Color: "gray"}
	case OutreachStatusVerified:
		return StatusMeta{Label: "Verified", Color: "blue"}
	case OutreachStatusPitched:
		return StatusMeta{Label: "Pitched", Color: "purple"}
	case OutreachStatusResponded:
		return StatusMeta{Label: "Responded", Color: "yellow"}
	case OutreachStatusSignedUp:
		return StatusMeta{Label: "Signed Up", Color: "green"}
	case OutreachStatusWrongNumber:
		return StatusMeta{Label: "Wrong Number", Color: "red"}
	case OutreachStatusOptedOut:
		return StatusMeta{Label: "Opted Out", Color: "red"}
	}
	return StatusMeta{Label: "Unknown", Color: "gray"}
}

type Contact struct {
	ID                     int64           `json:"id"`
	ChapterID              string          `json:"chapter_id"`
	FirstName              string          `json:"first_name"`
	LastName               string          `json:"last_name"`
	PhonePrimary           *string         `json:"phone_primary"`   // E.164
	PhoneSecondary         *string         `json:"phone_secondary"` // E.164
	Email                  *string         `json:"email"`
	Year                   *int            `json:"year"`
	IsIMessage             *bool           `json:"is_imessage"` // nil = unknown
	ChatID                 *string         `json:"chat_id"`     // provider conversation id
	OutreachStatus         OutreachStatus  `json:"outreach_status"`
	ResponseClassification *string         `json:"response_classification"`
	ResponseText           *string         `json:"response_text"`
	LastResponseAt         *time.Time      `json:"last_response_at"`
	Touch1SentAt           *time.Time      `json:"touch1_sent_at"`
	Touch2SentAt           *time.Time      `json:"touch2_sent_at"`
	Touch3SentAt           *time.Time      `json:"touch3_sent_at"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// ContactSummary is the joined contact view embedded in queue reads.
type ContactSummary struct {
	ID                     int64          `json:"id"`
	FirstName              string         `json:"first_name"`
	LastName               string         `json:"last_name"`
	PhonePrimary           *string        `json:"phone_primary"`
	IsIMessage             *bool          `json:"is_imessage"`
	OutreachStatus         OutreachStatus `json:"outreach_status"`
	ResponseClassification *string        `json:"response_classification"`
}
