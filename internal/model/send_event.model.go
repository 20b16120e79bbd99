package model

import "time"

// SendEvent is the stream payload published after every dispatch attempt.
// The recorder consumes it into the message log.
type SendEvent struct {
	BatchID      string           `json:"batch_id"`
	EntryID      int64            `json:"entry_id"`
	ContactID    int64            `json:"contact_id"`
	ChapterID    string           `json:"chapter_id"`
	LineNumber   int              `json:"line_number"`
	Touch        int              `json:"touch"`
	Status       QueueEntryStatus `json:"status"`
	ErrorMessage string           `json:"error_message,omitempty"`
	OccurredAt   time.Time        `json:"occurred_at"`
}

// MessageLog is the durable record of one dispatched touch, written by the
// recorder from send events.
type MessageLog struct {
	ID           int64            `json:"id"`
	BatchID      string           `json:"batch_id"`
	EntryID      int64            `json:"entry_id"`
	ContactID    int64            `json:"contact_id"`
	ChapterID    string           `json:"chapter_id"`
	LineNumber   int              `json:"line_number"`
	Touch        int              `json:"touch"`
	Status       QueueEntryStatus `json:"status"`
	ErrorMessage *string          `json:"error_message"`
	CreatedAt    time.Time        `json:"created_at"`
}
