package model

import (
	"errors"
	"fmt"
	"strings"
)

// SendingLine is one outbound phone number with a daily send quota.
// Loaded once at startup and never mutated afterwards.
type SendingLine struct {
	Number     int    `json:"number"` // 1..K, registry order
	Label      string `json:"label"`
	Phone      string `json:"phone"` // E.164
	DailyLimit int    `json:"daily_limit"`
}

// Lines is the ordered sending-line registry.
type Lines []SendingLine

// NewLines builds the registry from index-aligned configuration slices.
// An empty or inconsistent registry fails closed.
func NewLines(labels, phones []string, dailyLimits []int) (Lines, error) {
	if len(labels) == 0 {
		return nil, errors.New("sending line registry is empty")
	}
	if len(phones) != len(labels) || len(dailyLimits) != len(labels) {
		return nil, fmt.Errorf("sending line config mismatch: %d labels, %d phones, %d limits",
			len(labels), len(phones), len(dailyLimits))
	}

	lines := make(Lines, 0, len(labels))
	for i := range labels {
		label := strings.TrimSpace(labels[i])
		phone := strings.TrimSpace(phones[i])
		if label == "" || phone == "" {
			return nil, fmt.Errorf("sending line %d has an empty label or phone", i+1)
		}
		if dailyLimits[i] <= 0 {
			return nil, fmt.Errorf("sending line %d has non-positive daily limit %d", i+1, dailyLimits[i])
		}
		lines = append(lines, SendingLine{
			Number:     i + 1,
			Label:      label,
			Phone:      phone,
			DailyLimit: dailyLimits[i],
		})
	}
	return lines, nil
}

// ByNumber returns the line with the given number, or false.
func (l Lines) ByNumber(number int) (SendingLine, bool) {
	for _, line := range l {
		if line.Number == number {
			return line, true
		}
	}
	return SendingLine{}, false
}

// Phones returns the set of line phone numbers. Used by the response poller
// to tell inbound messages apart from our own outbound ones.
func (l Lines) Phones() map[string]bool {
	set := make(map[string]bool, len(l))
	for _, line := range l {
		set[line.Phone] = true
	}
	return set
}
