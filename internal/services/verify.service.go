package services

import (
	"context"
	"errors"

	gateway "github.com/trailblaize/outreach-engine/internal/gateways"
	"github.com/trailblaize/outreach-engine/internal/model"
	"github.com/trailblaize/outreach-engine/pkg/logger"
	"github.com/trailblaize/outreach-engine/pkg/prom"
)

const defaultVerifyLimit = 50

// VerifyIMessage resolves iMessage capability for contacts that were never
// checked. It opens an empty chat from the first sending line and reads the
// service the provider reports for the recipient handle. A provider error
// leaves the contact unknown; capability is never guessed.
func (s *OutreachService) VerifyIMessage(ctx context.Context, chapterID string, limit int) (*model.VerifyResult, error) {
	if chapterID == "" {
		return nil, errors.New("chapter_id is required")
	}
	if limit <= 0 {
		limit = defaultVerifyLimit
	}

	candidates, err := s.contactRepo.ListVerifyCandidates(ctx, chapterID, limit)
	if err != nil {
		return nil, err
	}

	from := s.lines[0].Phone
	result := &model.VerifyResult{}

	for _, c := range candidates {
		result.TotalChecked++
		if c.PhonePrimary == nil || *c.PhonePrimary == "" {
			result.Errors++
			prom.AddVerificationResolved("error")
			continue
		}

		chat, err := s.messenger.CreateChat(ctx, from, *c.PhonePrimary, "")
		if err != nil {
			result.Errors++
			prom.AddVerificationResolved("error")
			logger.Warn("verification lookup failed", "contact_id", c.ID, "error", err)
			continue
		}

		isIMessage := gateway.RecipientService(chat) == gateway.ServiceIMessage
		if err := s.contactRepo.SetVerification(ctx, c.ID, isIMessage, chat.ID); err != nil {
			result.Errors++
			prom.AddVerificationResolved("error")
			logger.Error("verification not stored", "contact_id", c.ID, "error", err)
			continue
		}

		if isIMessage {
			result.IMessage++
			prom.AddVerificationResolved("imessage")
		} else {
			result.SMS++
			prom.AddVerificationResolved("sms")
		}
	}

	logger.Info("verification sweep finished",
		"chapter", chapterID,
		"checked", result.TotalChecked,
		"imessage", result.IMessage,
		"sms", result.SMS,
		"errors", result.Errors)

	return result, nil
}
