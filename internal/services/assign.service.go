package services

import (
	"context"

	"github.com/trailblaize/outreach-engine/internal/model"
	"github.com/trailblaize/outreach-engine/pkg/logger"
	"github.com/trailblaize/outreach-engine/pkg/prom"
)

// Assign partitions every assignable contact across the sending lines. A
// contact is assignable when it has a phone, is not in a terminal status,
// and holds no pending entry or entry assigned today, so repeating the call
// within a day changes nothing.
func (s *OutreachService) Assign(ctx context.Context, params model.AssignRequest) (*model.AssignResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	contacts, err := s.contactRepo.ListWithPhone(ctx, params.ChapterID)
	if err != nil {
		return nil, err
	}

	today := todayUTC()
	result := &model.AssignResult{}
	pending := make(map[int]int64)

	err = s.queueRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		active, err := s.queueRepo.ActiveContactIDs(ctx, params.ChapterID, today)
		if err != nil {
			return err
		}
		counts, err := s.queueRepo.PendingCountsByLine(ctx, params.ChapterID)
		if err != nil {
			return err
		}
		for line, n := range counts {
			pending[line] = n
		}
		positions, err := s.queueRepo.MaxPositionsByLine(ctx, params.ChapterID)
		if err != nil {
			return err
		}

		var entries []*model.QueueEntry
		for _, c := range contacts {
			if active[c.ID] || c.OutreachStatus.Terminal() {
				continue
			}
			line := s.shortestLine(pending)
			pending[line.Number]++
			positions[line.Number]++
			entries = append(entries, &model.QueueEntry{
				ChapterID:     params.ChapterID,
				ContactID:     c.ID,
				LineNumber:    line.Number,
				QueuePosition: positions[line.Number],
				Status:        model.QueueEntryStatusPending,
				AssignedDay:   today,
			})
		}

		if err := s.queueRepo.InsertBatch(ctx, entries); err != nil {
			return err
		}
		total, err := s.queueRepo.CountAll(ctx, params.ChapterID)
		if err != nil {
			return err
		}

		result.QueueAssigned = len(entries)
		result.TotalInQueue = int(total)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, line := range s.lines {
		prom.SetQueueDepth(line.Label, float64(pending[line.Number]))
	}

	logger.Info("queue assigned",
		"chapter", params.ChapterID,
		"assigned", result.QueueAssigned,
		"total", result.TotalInQueue)

	return result, nil
}

// shortestLine picks the line with the fewest pending entries, lowest line
// number on ties. Greedy assignment keeps per-line pending counts within one
// of each other.
func (s *OutreachService) shortestLine(pending map[int]int64) model.SendingLine {
	best := s.lines[0]
	for _, line := range s.lines[1:] {
		if pending[line.Number] < pending[best.Number] {
			best = line
		}
	}
	return best
}
