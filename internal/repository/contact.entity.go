package repository

import (
	"time"

	"github.com/trailblaize/outreach-engine/internal/model"
)

type ContactEntity struct {
	ID                     int64      `db:"id"                      gorm:"primaryKey;autoIncrement;column:id"`
	ChapterID              string     `db:"chapter_id"              gorm:"column:chapter_id;not null;index"`
	FirstName              string     `db:"first_name"              gorm:"column:first_name;not null"`
	LastName               string     `db:"last_name"               gorm:"column:last_name;not null"`
	PhonePrimary           *string    `db:"phone_primary"           gorm:"column:phone_primary;index"`
	PhoneSecondary         *string    `db:"phone_secondary"         gorm:"column:phone_secondary"`
	Email                  *string    `db:"email"                   gorm:"column:email"`
	Year                   *int       `db:"year"                    gorm:"column:year"`
	IsIMessage             *bool      `db:"is_imessage"             gorm:"column:is_imessage"`
	ChatID                 *string    `db:"chat_id"                 gorm:"column:chat_id"`
	OutreachStatus         string     `db:"outreach_status"         gorm:"column:outreach_status;not null;default:not_contacted;index"`
	ResponseClassification *string    `db:"response_classification" gorm:"column:response_classification"`
	ResponseText           *string    `db:"response_text"           gorm:"column:response_text"`
	LastResponseAt         *time.Time `db:"last_response_at"        gorm:"column:last_response_at"`
	Touch1SentAt           *time.Time `db:"touch1_sent_at"          gorm:"column:touch1_sent_at"`
	Touch2SentAt           *time.Time `db:"touch2_sent_at"          gorm:"column:touch2_sent_at"`
	Touch3SentAt           *time.Time `db:"touch3_sent_at"          gorm:"column:touch3_sent_at"`
	CreatedAt              time.Time  `db:"created_at"              gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time  `db:"updated_at"              gorm:"column:updated_at;autoUpdateTime"`
}

func (ContactEntity) TableName() string {
	return "alumni_contacts"
}

func toContactEntity(c *model.Contact) *ContactEntity {
	if c == nil {
		return nil
	}
	return &ContactEntity{
		ID:                     c.ID,
		ChapterID:              c.ChapterID,
		FirstName:              c.FirstName,
		LastName:               c.LastName,
		PhonePrimary:           c.PhonePrimary,
		PhoneSecondary:         c.PhoneSecondary,
		Email:                  c.Email,
		Year:                   c.Year,
		IsIMessage:             c.IsIMessage,
		ChatID:                 c.ChatID,
		OutreachStatus:         string(c.OutreachStatus),
		ResponseClassification: c.ResponseClassification,
		ResponseText:           c.ResponseText,
		LastResponseAt:         c.LastResponseAt,
		Touch1SentAt:           c.Touch1SentAt,
		Touch2SentAt:           c.Touch2SentAt,
		Touch3SentAt:           c.Touch3SentAt,
		CreatedAt:              c.CreatedAt,
		UpdatedAt:              c.UpdatedAt,
	}
}

func toContactModel(e *ContactEntity) *model.Contact {
	if e == nil {
		return nil
	}
	return &model.Contact{
		ID:                     e.ID,
		ChapterID:              e.ChapterID,
		FirstName:              e.FirstName,
		LastName:               e.LastName,
		PhonePrimary:           e.PhonePrimary,
		PhoneSecondary:         e.PhoneSecondary,
		Email:                  e.Email,
		Year:                   e.Year,
		IsIMessage:             e.IsIMessage,
		ChatID:                 e.ChatID,
		OutreachStatus:         model.OutreachStatus(e.OutreachStatus),
		ResponseClassification: e.ResponseClassification,
		ResponseText:           e.ResponseText,
		LastResponseAt:         e.LastResponseAt,
		Touch1SentAt:           e.Touch1SentAt,
		Touch2SentAt:           e.Touch2SentAt,
		Touch3SentAt:           e.Touch3SentAt,
		CreatedAt:              e.CreatedAt,
		UpdatedAt:              e.UpdatedAt,
	}
}

func toContactModels(entities []*ContactEntity) []*model.Contact {
	if entities == nil {
		return nil
	}
	models := make([]*model.Contact, len(entities))
	for i, e := range entities {
		models[i] = toContactModel(e)
	}
	return models
}
