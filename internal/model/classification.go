package model

import (
	"errors"
	"regexp"
	"strings"
)

// Classification is the tag put on an inbound reply. Deterministic keyword
// heuristics, checked in priority order; no ML involved so results stay
// reproducible.
type Classification string

const (
	ClassificationConfirmed   Classification = "confirmed"
	ClassificationWrongNumber Classification = "wrong_number"
	ClassificationDeclined    Classification = "declined"
	ClassificationSignedUp    Classification = "signed_up"
	ClassificationQuestion    Classification = "question"
)

var (
	wrongNumberPattern = regexp.MustCompile(`(?i)\b(wrong|not me|not this person|mother|father|deceased|passed away|passed|who is this)\b`)
	declinePattern     = regexp.MustCompile(`(?i)\b(stop|remove|unsubscribe|not interested|no thanks|don't text|dont text|leave me alone|opt out)\b`)
	signedUpPattern    = regexp.MustCompile(`(?i)\b(signed up|just signed|done|registered|joined)\b`)
	confirmPattern     = regexp.MustCompile(`(?i)\b(yes|yeah|yep|yessir|this is|correct|sure|that's me|thats me|ya|yea)\b`)
)

// ClassifyResponse tags an inbound reply. Wrong-number and opt-out phrases
// win over everything else; a bare question mark without other signals is a
// question; the fallback is confirmed.
func ClassifyResponse(text string) Classification {
	lower := strings.ToLower(strings.TrimSpace(text))

	if wrongNumberPattern.MatchString(lower) {
		return ClassificationWrongNumber
	}
	if declinePattern.MatchString(lower) {
		return ClassificationDeclined
	}
	if signedUpPattern.MatchString(lower) {
		return ClassificationSignedUp
	}
	if confirmPattern.MatchString(lower) {
		return ClassificationConfirmed
	}
	if strings.Contains(lower, "?") {
		return ClassificationQuestion
	}
	return ClassificationConfirmed
}

// OutreachStatus maps a classification to the contact status it implies.
// A plain confirmation after the pitch went out counts as responded.
func (c Classification) OutreachStatus(hasTouchTwo bool) OutreachStatus {
	switch c {
	case ClassificationConfirmed:
		if hasTouchTwo {
			return OutreachStatusResponded
		}
		return OutreachStatusVerified
	case ClassificationWrongNumber:
		return OutreachStatusWrongNumber
	case ClassificationDeclined:
		return OutreachStatusOptedOut
	case ClassificationSignedUp:
		return OutreachStatusSignedUp
	case ClassificationQuestion:
		return OutreachStatusResponded
	}
	return OutreachStatusResponded
}

// PollRequest is the response poller input.
type PollRequest struct {
	ChapterID string `json:"chapter_id"`
}

func (p PollRequest) Validate() error {
	if p.ChapterID == "" {
		return errors.New("chapter_id is required")
	}
	return nil
}

// VerifyRequest is the verifier input. A zero limit means the default sweep
// size.
type VerifyRequest struct {
	ChapterID string `json:"chapter_id"`
	Limit     int    `json:"limit"`
}

func (p VerifyRequest) Validate() error {
	if p.ChapterID == "" {
		return errors.New("chapter_id is required")
	}
	return nil
}

// PollResult aggregates one poll-responses call.
type PollResult struct {
	Polled           int            `json:"polled"`
	NewResponses     int            `json:"new_responses"`
	ByClassification map[string]int `json:"by_classification"`
}

// VerifyResult aggregates one verify-imessage call.
type VerifyResult struct {
	TotalChecked int `json:"total_checked"`
	IMessage     int `json:"imessage"`
	SMS          int `json:"sms"`
	Errors       int `json:"errors"`
}

// AssignResult reports the partitioner outcome.
type AssignResult struct {
	QueueAssigned int `json:"queue_assigned"`
	TotalInQueue  int `json:"total_in_queue"`
}
