package repository

import (
	"time"

	"github.com/trailblaize/outreach-engine/internal/model"
)

type MessageLogEntity struct {
	ID           int64     `db:"id"            gorm:"primaryKey;autoIncrement;column:id"`
	BatchID      string    `db:"batch_id"      gorm:"column:batch_id;not null;index"`
	EntryID      int64     `db:"entry_id"      gorm:"column:entry_id;not null;index"`
	ContactID    int64     `db:"contact_id"    gorm:"column:contact_id;not null;index"`
	ChapterID    string    `db:"chapter_id"    gorm:"column:chapter_id;not null;index"`
	LineNumber   int       `db:"line_number"   gorm:"column:line_number;not null"`
	Touch        int       `db:"touch"         gorm:"column:touch;not null"`
	Status       string    `db:"status"        gorm:"column:status;not null"`
	ErrorMessage *string   `db:"error_message" gorm:"column:error_message"`
	CreatedAt    time.Time `db:"created_at"    gorm:"column:created_at;autoCreateTime"`
}

func (MessageLogEntity) TableName() string {
	return "message_log"
}

func toMessageLogEntity(m *model.MessageLog) *MessageLogEntity {
	if m == nil {
		return nil
	}
	return &MessageLogEntity{
		ID:           m.ID,
		BatchID:      m.BatchID,
		EntryID:      m.EntryID,
		ContactID:    m.ContactID,
		ChapterID:    m.ChapterID,
		LineNumber:   m.LineNumber,
		Touch:        m.Touch,
		Status:       string(m.Status),
		ErrorMessage: m.ErrorMessage,
		CreatedAt:    m.CreatedAt,
	}
}

func toMessageLogModel(e *MessageLogEntity) *model.MessageLog {
	if e == nil {
		return nil
	}
	return &model.MessageLog{
		ID:           e.ID,
		BatchID:      e.BatchID,
		EntryID:      e.EntryID,
		ContactID:    e.ContactID,
		ChapterID:    e.ChapterID,
		LineNumber:   e.LineNumber,
		Touch:        e.Touch,
		Status:       model.QueueEntryStatus(e.Status),
		ErrorMessage: e.ErrorMessage,
		CreatedAt:    e.CreatedAt,
	}
}
