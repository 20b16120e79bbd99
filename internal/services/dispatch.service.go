package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/trailblaize/outreach-engine/internal/model"
	"github.com/trailblaize/outreach-engine/pkg/logger"
	"github.com/trailblaize/outreach-engine/pkg/prom"
)

// lineQuota tracks one line's slice of a dispatch batch.
type lineQuota struct {
	line      model.SendingLine
	remaining int
	share     int
}

// SendBatch dispatches up to batch_size pending messages, split fairly
// across the lines that still have daily quota. Only iMessage-verified
// contacts eligible for the requested touch are dispatched, so a contact
// never gets the same touch twice and never a touch before its
// predecessor; each line drains its own FIFO in queue-position order.
// Per-contact failures mark the entry failed and never abort the rest of
// the batch.
func (s *OutreachService) SendBatch(ctx context.Context, params model.SendBatchRequest) (*model.SendBatchResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	batchID := uuid.New().String()
	dayStart := todayUTC()

	var available []*lineQuota
	for _, line := range s.lines {
		sentToday, err := s.queueRepo.SentTodayCount(ctx, params.ChapterID, line.Number, dayStart)
		if err != nil {
			return nil, err
		}
		if remaining := line.DailyLimit - int(sentToday); remaining > 0 {
			available = append(available, &lineQuota{line: line, remaining: remaining})
		}
	}

	result := &model.SendBatchResult{
		PerLine: []model.LineBatchResult{},
		Errors:  []model.ContactError{},
	}
	if len(available) == 0 {
		logger.Warn("batch skipped, every line exhausted its daily quota", "chapter", params.ChapterID)
		return result, nil
	}

	// Equal shares with the remainder on the earliest lines, capped by
	// each line's remaining quota.
	base := params.BatchSize / len(available)
	rem := params.BatchSize % len(available)
	for i, q := range available {
		q.share = base
		if i < rem {
			q.share++
		}
		if q.share > q.remaining {
			q.share = q.remaining
		}
	}

	for _, q := range available {
		sent := 0
		if q.share > 0 {
			entries, err := s.queueRepo.ListPendingFIFO(ctx, params.ChapterID, q.line.Number, q.share, params.Touch, true)
			if err != nil {
				return nil, err
			}
			for _, entry := range entries {
				if err := s.dispatchEntry(ctx, batchID, q.line, entry, params); err != nil {
					result.Errors = append(result.Errors, model.ContactError{
						ContactID: entry.ContactID,
						Message:   err.Error(),
					})
					continue
				}
				sent++
			}
		}
		result.Sent += sent
		result.PerLine = append(result.PerLine, model.LineBatchResult{
			Line:      q.line.Number,
			Label:     q.line.Label,
			Sent:      sent,
			Remaining: q.remaining - sent,
		})
	}

	prom.ObserveBatchDuration(time.Since(start).Seconds())
	logger.Info("batch dispatched",
		"batch_id", batchID,
		"chapter", params.ChapterID,
		"touch", params.Touch,
		"sent", result.Sent,
		"errors", len(result.Errors))

	return result, nil
}

// dispatchEntry renders and sends one touch message, then settles the queue
// entry and the contact. The queue entry status is authoritative; a contact
// update failure after a successful send is logged, not returned.
func (s *OutreachService) dispatchEntry(ctx context.Context, batchID string, line model.SendingLine, entry *model.QueueEntryWithContact, params model.SendBatchRequest) error {
	contact := entry.Contact
	if contact.PhonePrimary == nil || *contact.PhonePrimary == "" {
		return s.failEntry(ctx, batchID, line, entry, params.Touch, errors.New("contact has no phone"))
	}

	confirmed := contact.ResponseClassification != nil &&
		*contact.ResponseClassification == string(model.ClassificationConfirmed)
	message := model.RenderTemplate(model.TemplateForTouch(params.Touch, confirmed), model.TemplateVars{
		FirstName:  contact.FirstName,
		LastName:   contact.LastName,
		SenderName: params.SenderName,
		School:     params.School,
		Fraternity: params.Fraternity,
		SignupLink: params.SignupLink,
	})

	chat, err := s.messenger.CreateChat(ctx, line.Phone, *contact.PhonePrimary, message)
	if err != nil {
		return s.failEntry(ctx, batchID, line, entry, params.Touch, err)
	}

	now := time.Now().UTC()
	if _, err := s.queueRepo.MarkSent(ctx, entry.ID, now); err != nil {
		logger.Error("entry delivered but not marked sent", "entry_id", entry.ID, "error", err)
		return err
	}
	if err := s.contactRepo.MarkTouchSent(ctx, entry.ContactID, params.Touch, chat.ID, now); err != nil {
		logger.Error("touch sent but contact not updated", "contact_id", entry.ContactID, "error", err)
	}

	s.publishEvent(ctx, batchID, entry, line.Number, params.Touch, model.QueueEntryStatusSent, "")
	prom.AddMessageSent(line.Label, strconv.Itoa(params.Touch), "sent")
	return nil
}

// failEntry marks the entry failed and reports the cause back to the batch.
func (s *OutreachService) failEntry(ctx context.Context, batchID string, line model.SendingLine, entry *model.QueueEntryWithContact, touch int, cause error) error {
	if _, err := s.queueRepo.MarkFailed(ctx, entry.ID, cause.Error()); err != nil {
		logger.Error("entry not marked failed", "entry_id", entry.ID, "error", err)
	}
	s.publishEvent(ctx, batchID, entry, line.Number, touch, model.QueueEntryStatusFailed, cause.Error())
	prom.AddMessageSent(line.Label, strconv.Itoa(touch), "failed")
	return cause
}

// publishEvent pushes a send event for the recorder, best effort.
func (s *OutreachService) publishEvent(ctx context.Context, batchID string, entry *model.QueueEntryWithContact, lineNumber, touch int, status model.QueueEntryStatus, errorMessage string) {
	if s.events == nil {
		return
	}
	_, err := s.events.PublishSendEvent(ctx, &model.SendEvent{
		BatchID:      batchID,
		EntryID:      entry.ID,
		ContactID:    entry.ContactID,
		ChapterID:    entry.ChapterID,
		LineNumber:   lineNumber,
		Touch:        touch,
		Status:       status,
		ErrorMessage: errorMessage,
		OccurredAt:   time.Now().UTC(),
	})
	if err != nil {
		logger.Warn("send event not published", "entry_id", entry.ID, "error", err)
	}
}
