package model

import (
	"errors"
	"time"
)

// QueueEntryStatus is the lifecycle state of a queue entry.
// Transitions are pending -> sent | failed only; both are terminal.
type QueueEntryStatus string

const (
	QueueEntryStatusPending QueueEntryStatus = "pending"
	QueueEntryStatusSent    QueueEntryStatus = "sent"
	QueueEntryStatusFailed  QueueEntryStatus = "failed"
)

type QueueEntry struct {
	ID            int64            `json:"id"`
	ChapterID     string           `json:"chapter_id"`
	ContactID     int64            `json:"contact_id"`
	LineNumber    int              `json:"line_number"`
	QueuePosition int              `json:"queue_position"` // per-line FIFO ordinal
	Status        QueueEntryStatus `json:"status"`
	AssignedDay   time.Time        `json:"assigned_day"` // UTC date
	SentAt        *time.Time       `json:"sent_at"`
	ErrorMessage  *string          `json:"error_message"`
	CreatedAt     time.Time        `json:"created_at"`
}

// QueueEntryWithContact is the queue read view with the joined contact summary.
type QueueEntryWithContact struct {
	QueueEntry
	Contact ContactSummary `json:"contact"`
}

// ReportRequest is the manual mark input.
type ReportRequest struct {
	QueueID      int64            `json:"queue_id"`
	Status       QueueEntryStatus `json:"status"`
	ErrorMessage string           `json:"error_message"`
}

func (p ReportRequest) Validate() error {
	if p.QueueID == 0 {
		return errors.New("queue_id is required")
	}
	if p.Status != QueueEntryStatusSent && p.Status != QueueEntryStatusFailed {
		return errors.New("status must be sent or failed")
	}
	return nil
}

// AssignRequest is the partitioner input.
type AssignRequest struct {
	ChapterID string `json:"chapter_id"`
}

func (p AssignRequest) Validate() error {
	if p.ChapterID == "" {
		return errors.New("chapter_id is required")
	}
	return nil
}

// SendBatchRequest is the dispatch batcher input.
type SendBatchRequest struct {
	ChapterID  string `json:"chapter_id"`
	Touch      int    `json:"touch"`
	SenderName string `json:"sender_name"`
	School     string `json:"school"`
	Fraternity string `json:"fraternity"`
	SignupLink string `json:"signup_link"`
	BatchSize  int    `json:"batch_size"`
}

const (
	MinBatchSize = 1
	MaxBatchSize = 150
)

func (p SendBatchRequest) Validate() error {
	if p.ChapterID == "" {
		return errors.New("chapter_id is required")
	}
	if p.Touch < 1 || p.Touch > 3 {
		return errors.New("touch must be 1, 2 or 3")
	}
	// out-of-range batch sizes are rejected, never clamped
	if p.BatchSize < MinBatchSize || p.BatchSize > MaxBatchSize {
		return errors.New("batch_size must be between 1 and 150")
	}
	if p.Touch == 1 || p.Touch == 2 {
		if p.SenderName == "" {
			return errors.New("sender_name is required")
		}
		if p.School == "" {
			return errors.New("school is required")
		}
		if p.Fraternity == "" {
			return errors.New("fraternity is required")
		}
	}
	if p.Touch == 2 && p.SignupLink == "" {
		return errors.New("signup_link is required for touch 2")
	}
	return nil
}

// LineBatchResult is one line's slice of a SendBatch response.
type LineBatchResult struct {
	Line      int    `json:"line"`
	Label     string `json:"label"`
	Sent      int    `json:"sent"`
	Remaining int    `json:"remaining"`
}

// ContactError is one contact's failure inside a partially failed batch.
type ContactError struct {
	ContactID int64  `json:"contact_id"`
	Message   string `json:"message"`
}

// SendBatchResult aggregates one dispatch call.
type SendBatchResult struct {
	Sent    int               `json:"sent"`
	PerLine []LineBatchResult `json:"per_line"`
	Errors  []ContactError    `json:"errors"`
}

// QueueResult is today's queue view for one line.
type QueueResult struct {
	Queue      []*QueueEntryWithContact `json:"queue"`
	CurrentDay int64                    `json:"current_day"`
}
