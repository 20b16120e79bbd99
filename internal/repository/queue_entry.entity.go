package repository

import (
	"time"

	"github.com/trailblaize/outreach-engine/internal/model"
)

type QueueEntryEntity struct {
	ID            int64      `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	ChapterID     string     `db:"chapter_id"     gorm:"column:chapter_id;not null;index"`
	ContactID     int64      `db:"contact_id"     gorm:"column:contact_id;not null;index"`
	LineNumber    int        `db:"line_number"    gorm:"column:line_number;not null;index"`
	QueuePosition int        `db:"queue_position" gorm:"column:queue_position;not null"`
	Status        string     `db:"status"         gorm:"column:status;not null;default:pending;index"`
	AssignedDay   time.Time  `db:"assigned_day"   gorm:"column:assigned_day;not null"`
	SentAt        *time.Time `db:"sent_at"        gorm:"column:sent_at"`
	ErrorMessage  *string    `db:"error_message"  gorm:"column:error_message"`
	CreatedAt     time.Time  `db:"created_at"     gorm:"column:created_at;autoCreateTime"`
}

func (QueueEntryEntity) TableName() string {
	return "outreach_queue"
}

func toQueueEntryEntity(q *model.QueueEntry) *QueueEntryEntity {
	if q == nil {
		return nil
	}
	return &QueueEntryEntity{
		ID:            q.ID,
		ChapterID:     q.ChapterID,
		ContactID:     q.ContactID,
		LineNumber:    q.LineNumber,
		QueuePosition: q.QueuePosition,
		Status:        string(q.Status),
		AssignedDay:   q.AssignedDay,
		SentAt:        q.SentAt,
		ErrorMessage:  q.ErrorMessage,
		CreatedAt:     q.CreatedAt,
	}
}

func toQueueEntryModel(e *QueueEntryEntity) *model.QueueEntry {
	if e == nil {
		return nil
	}
	return &model.QueueEntry{
		ID:            e.ID,
		ChapterID:     e.ChapterID,
		ContactID:     e.ContactID,
		LineNumber:    e.LineNumber,
		QueuePosition: e.QueuePosition,
		Status:        model.QueueEntryStatus(e.Status),
		AssignedDay:   e.AssignedDay,
		SentAt:        e.SentAt,
		ErrorMessage:  e.ErrorMessage,
		CreatedAt:     e.CreatedAt,
	}
}

// queueEntryWithContactRow is the joined row used by queue reads and batch
// selection.
type queueEntryWithContactRow struct {
	QueueEntryEntity
	CFirstName              string  `gorm:"column:c_first_name"`
	CLastName               string  `gorm:"column:c_last_name"`
	CPhonePrimary           *string `gorm:"column:c_phone_primary"`
	CIsIMessage             *bool   `gorm:"column:c_is_imessage"`
	COutreachStatus         string  `gorm:"column:c_outreach_status"`
	CResponseClassification *string `gorm:"column:c_response_classification"`
}

func toQueueEntryWithContact(row *queueEntryWithContactRow) *model.QueueEntryWithContact {
	return &model.QueueEntryWithContact{
		QueueEntry: *toQueueEntryModel(&row.QueueEntryEntity),
		Contact: model.ContactSummary{
			ID:                     row.ContactID,
			FirstName:              row.CFirstName,
			LastName:               row.CLastName,
			PhonePrimary:           row.CPhonePrimary,
			IsIMessage:             row.CIsIMessage,
			OutreachStatus:         model.OutreachStatus(row.COutreachStatus),
			ResponseClassification: row.CResponseClassification,
		},
	}
}

// LineStatusCounts carries the per-line dashboard aggregates.
type LineStatusCounts struct {
	Total  int64
	Sent   int64
	Failed int64
}
