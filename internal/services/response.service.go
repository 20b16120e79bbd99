package services

import (
	"context"
	"errors"
	"time"

	gateway "github.com/trailblaize/outreach-engine/internal/gateways"
	"github.com/trailblaize/outreach-engine/internal/model"
	"github.com/trailblaize/outreach-engine/pkg/logger"
	"github.com/trailblaize/outreach-engine/pkg/prom"
)

const (
	pollCandidateLimit = 100
	pollMessageLimit   = 20
	responseTextMax    = 500
)

// PollResponses pulls recent chat messages for contacts awaiting a reply,
// classifies the newest inbound one and records it. Contacts that already
// reached a terminal status are never polled; a provider error on one
// contact never stops the sweep.
func (s *OutreachService) PollResponses(ctx context.Context, chapterID string) (*model.PollResult, error) {
	if chapterID == "" {
		return nil, errors.New("chapter_id is required")
	}

	candidates, err := s.contactRepo.ListPollCandidates(ctx, chapterID, pollCandidateLimit)
	if err != nil {
		return nil, err
	}

	linePhones := s.lines.Phones()
	result := &model.PollResult{ByClassification: map[string]int{}}

	for _, c := range candidates {
		result.Polled++
		if c.ChatID == nil || *c.ChatID == "" {
			continue
		}

		messages, err := s.messenger.GetMessages(ctx, *c.ChatID, pollMessageLimit)
		if err != nil {
			logger.Warn("poll skipped a contact", "contact_id", c.ID, "error", err)
			continue
		}

		latest, ok := latestInbound(messages, linePhones, c.LastResponseAt)
		if !ok {
			continue
		}

		text := latest.Text()
		// truncate on rune boundaries, replies carry emoji
		if runes := []rune(text); len(runes) > responseTextMax {
			text = string(runes[:responseTextMax])
		}

		classification := model.ClassifyResponse(text)
		newStatus := classification.OutreachStatus(c.Touch2SentAt != nil)

		if err := s.contactRepo.RecordResponse(ctx, c.ID, text, classification, latest.CreatedAt, newStatus); err != nil {
			logger.Error("response not recorded", "contact_id", c.ID, "error", err)
			continue
		}

		result.NewResponses++
		result.ByClassification[string(classification)]++
		prom.AddResponseClassified(string(classification))
	}

	logger.Info("responses polled",
		"chapter", chapterID,
		"polled", result.Polled,
		"new", result.NewResponses)

	return result, nil
}

// latestInbound picks the newest message not sent from one of our lines,
// ignoring anything at or before the contact's last recorded response.
func latestInbound(messages []gateway.ChatMessage, linePhones map[string]bool, after *time.Time) (gateway.ChatMessage, bool) {
	var latest gateway.ChatMessage
	found := false
	for _, m := range messages {
		if linePhones[m.From] {
			continue
		}
		if after != nil && !m.CreatedAt.After(*after) {
			continue
		}
		if !found || m.CreatedAt.After(latest.CreatedAt) {
			latest = m
			found = true
		}
	}
	return latest, found
}
