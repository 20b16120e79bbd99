package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/trailblaize/outreach-engine/internal/model"
	"github.com/trailblaize/outreach-engine/internal/repository"
	"github.com/trailblaize/outreach-engine/pkg/logger"
	"github.com/trailblaize/outreach-engine/pkg/prom"
)

// GetQueue returns the line's queue for the current day: the next pending
// entries in FIFO order, capped at what the daily limit still allows, plus
// the line's current campaign day. A line that exhausted its quota shows an
// empty queue until the day rolls over.
func (s *OutreachService) GetQueue(ctx context.Context, chapterID string, lineNumber int) (*model.QueueResult, error) {
	if chapterID == "" {
		return nil, errors.New("chapter_id is required")
	}
	line, ok := s.lines.ByNumber(lineNumber)
	if !ok {
		return nil, ErrUnknownLine
	}

	sentToday, err := s.queueRepo.SentTodayCount(ctx, chapterID, lineNumber, todayUTC())
	if err != nil {
		return nil, err
	}

	entries := []*model.QueueEntryWithContact{}
	if remaining := line.DailyLimit - int(sentToday); remaining > 0 {
		entries, err = s.queueRepo.ListPendingFIFO(ctx, chapterID, lineNumber, remaining, 0, false)
		if err != nil {
			return nil, err
		}
	}
	counts, err := s.queueRepo.StatusCountsByLine(ctx, chapterID)
	if err != nil {
		return nil, err
	}

	prom.SetQueueDepth(line.Label, float64(len(entries)))

	return &model.QueueResult{
		Queue:      entries,
		CurrentDay: currentDayFor(counts[lineNumber], line.DailyLimit),
	}, nil
}

// MarkEntry settles one queue entry by hand. A sent report moves a
// not-yet-contacted recipient to verified; a failure report naming a wrong
// number retires the contact.
func (s *OutreachService) MarkEntry(ctx context.Context, params model.ReportRequest) (*model.QueueEntry, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var entry *model.QueueEntry
	var err error
	switch params.Status {
	case model.QueueEntryStatusSent:
		entry, err = s.queueRepo.MarkSent(ctx, params.QueueID, time.Now().UTC())
	case model.QueueEntryStatusFailed:
		msg := params.ErrorMessage
		if msg == "" {
			msg = "reported failed"
		}
		entry, err = s.queueRepo.MarkFailed(ctx, params.QueueID, msg)
	}
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEntryNotFound):
			return nil, ErrEntryNotFound
		case errors.Is(err, repository.ErrEntryNotPending):
			return nil, ErrEntryNotPending
		}
		return nil, err
	}

	switch {
	case params.Status == model.QueueEntryStatusSent:
		if err := s.contactRepo.AdvanceStatus(ctx, entry.ContactID, model.OutreachStatusVerified); err != nil {
			logger.Warn("entry marked sent but contact not advanced", "contact_id", entry.ContactID, "error", err)
		}
	case strings.Contains(strings.ToLower(params.ErrorMessage), "wrong number"):
		if err := s.contactRepo.SetStatus(ctx, entry.ContactID, model.OutreachStatusWrongNumber); err != nil {
			logger.Warn("entry marked failed but contact not retired", "contact_id", entry.ContactID, "error", err)
		}
	}

	return entry, nil
}

// Dashboard derives the queue rollup on demand. Nothing is cached or stored;
// a chapter with no entries yields the all-zero snapshot.
func (s *OutreachService) Dashboard(ctx context.Context, chapterID string) (*model.DashboardSnapshot, error) {
	if chapterID == "" {
		return nil, errors.New("chapter_id is required")
	}
	counts, err := s.queueRepo.StatusCountsByLine(ctx, chapterID)
	if err != nil {
		return nil, err
	}

	snap := &model.DashboardSnapshot{
		Lines: make([]model.LineSnapshot, 0, len(s.lines)),
	}
	for _, line := range s.lines {
		c := counts[line.Number]
		pending := c.Total - c.Sent - c.Failed
		totalDays := daysFor(c.Total, line.DailyLimit)
		daysLeft := daysFor(pending, line.DailyLimit)

		snap.Lines = append(snap.Lines, model.LineSnapshot{
			Number:     line.Number,
			Label:      line.Label,
			DailyLimit: line.DailyLimit,
			Total:      c.Total,
			Sent:       c.Sent,
			Failed:     c.Failed,
			Pending:    pending,
			CurrentDay: currentDayFor(c, line.DailyLimit),
			TotalDays:  totalDays,
		})

		snap.Total += c.Total
		snap.Sent += c.Sent
		snap.Failed += c.Failed
		snap.Pending += pending
		if totalDays > snap.TotalDays {
			snap.TotalDays = totalDays
		}
		if daysLeft > snap.DaysRemaining {
			snap.DaysRemaining = daysLeft
		}

		prom.SetQueueDepth(line.Label, float64(pending))
	}
	return snap, nil
}

// daysFor is how many daily-limit sized days it takes to work through n
// entries.
func daysFor(n int64, dailyLimit int) int64 {
	if n <= 0 {
		return 0
	}
	limit := int64(dailyLimit)
	return (n + limit - 1) / limit
}

// currentDayFor is the line's 1-based campaign day, derived from how many
// entries already settled, clamped to the campaign length. An empty line is
// day zero.
func currentDayFor(c repository.LineStatusCounts, dailyLimit int) int64 {
	if c.Total == 0 {
		return 0
	}
	totalDays := daysFor(c.Total, dailyLimit)
	day := (c.Sent+c.Failed)/int64(dailyLimit) + 1
	if day > totalDays {
		day = totalDays
	}
	return day
}
