package repository

import (
	"context"
	"errors"
	"time"

	"github.com/trailblaize/outreach-engine/internal/model"
	"github.com/trailblaize/outreach-engine/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrContactNotFound = errors.New("contact not found")
)

type ContactRepository struct {
	*pg.DB
}

func NewContactRepository(db *pg.DB) *ContactRepository {
	return &ContactRepository{
		db,
	}
}

func (r *ContactRepository) GetByID(ctx context.Context, id int64) (*model.Contact, error) {
	var entity ContactEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return toContactModel(&entity), nil
}

// ListWithPhone returns every contact of the chapter that has a primary
// phone, oldest first. The partitioner filters out already-queued ones.
func (r *ContactRepository) ListWithPhone(ctx context.Context, chapterID string) ([]*model.Contact, error) {
	var entities []*ContactEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("chapter_id = ?", chapterID).
		Where("phone_primary IS NOT NULL").
		Order("created_at ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toContactModels(entities), nil
}

// ListVerifyCandidates returns contacts whose iMessage capability is still
// unknown. Already-resolved contacts are skipped so re-runs are safe.
func (r *ContactRepository) ListVerifyCandidates(ctx context.Context, chapterID string, limit int) ([]*model.Contact, error) {
	var entities []*ContactEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("chapter_id = ?", chapterID).
		Where("phone_primary IS NOT NULL").
		Where("is_imessage IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toContactModels(entities), nil
}

// ListPollCandidates returns contacts with an open conversation that are
// still in play, least-recently-heard-from first.
func (r *ContactRepository) ListPollCandidates(ctx context.Context, chapterID string, limit int) ([]*model.Contact, error) {
	var entities []*ContactEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("chapter_id = ?", chapterID).
		Where("chat_id IS NOT NULL").
		Where("outreach_status NOT IN ?", []string{
			string(model.OutreachStatusSignedUp),
			string(model.OutreachStatusWrongNumber),
			string(model.OutreachStatusOptedOut),
		}).
		Order("last_response_at ASC").
		Limit(limit).
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toContactModels(entities), nil
}

// SetVerification resolves the iMessage capability of a contact and stores
// the conversation id opened by the capability check.
func (r *ContactRepository) SetVerification(ctx context.Context, id int64, isIMessage bool, chatID string) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&ContactEntity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_imessage": isIMessage,
			"chat_id":     chatID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrContactNotFound
	}
	return nil
}

// MarkTouchSent stamps the touch timestamp and conversation id after a
// successful dispatch and advances outreach_status when the touch implies
// one. The status guard keeps the progression monotonic under races.
func (r *ContactRepository) MarkTouchSent(ctx context.Context, id int64, touch int, chatID string, sentAt time.Time) error {
	updates := map[string]interface{}{
		"chat_id": chatID,
	}
	switch touch {
	case 1:
		updates["touch1_sent_at"] = sentAt
	case 2:
		updates["touch2_sent_at"] = sentAt
	case 3:
		updates["touch3_sent_at"] = sentAt
	}

	result := r.Write(ctx).WithContext(ctx).
		Model(&ContactEntity{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrContactNotFound
	}

	switch touch {
	case 1:
		return r.AdvanceStatus(ctx, id, model.OutreachStatusVerified)
	case 2:
		return r.AdvanceStatus(ctx, id, model.OutreachStatusPitched)
	}
	return nil
}

// AdvanceStatus moves the contact forward to the given status, never
// backward. The rank comparison happens in SQL so concurrent writers
// cannot downgrade each other.
func (r *ContactRepository) AdvanceStatus(ctx context.Context, id int64, to model.OutreachStatus) error {
	lower := lowerRankedStatuses(to)
	if len(lower) == 0 {
		return nil
	}
	return r.Write(ctx).WithContext(ctx).
		Model(&ContactEntity{}).
		Where("id = ?", id).
		Where("outreach_status IN ?", lower).
		Update("outreach_status", string(to)).
		Error
}

// SetStatus force-sets a terminal side exit such as wrong_number.
func (r *ContactRepository) SetStatus(ctx context.Context, id int64, to model.OutreachStatus) error {
	return r.Write(ctx).WithContext(ctx).
		Model(&ContactEntity{}).
		Where("id = ?", id).
		Update("outreach_status", string(to)).
		Error
}

// RecordResponse stores one classified inbound reply. The status advance
// stays monotonic; the response fields always reflect the latest reply.
func (r *ContactRepository) RecordResponse(ctx context.Context, id int64, text string, classification model.Classification, respondedAt time.Time, newStatus model.OutreachStatus) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&ContactEntity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_response_at":        respondedAt,
			"response_text":           text,
			"response_classification": string(classification),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrContactNotFound
	}
	return r.AdvanceStatus(ctx, id, newStatus)
}

// ExistingPhones returns the set of primary phones already stored for the
// chapter, used by import dedupe.
func (r *ContactRepository) ExistingPhones(ctx context.Context, chapterID string) (map[string]bool, error) {
	var phones []string
	err := r.Read(ctx).WithContext(ctx).
		Model(&ContactEntity{}).
		Where("chapter_id = ?", chapterID).
		Where("phone_primary IS NOT NULL").
		Pluck("phone_primary", &phones).
		Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(phones))
	for _, p := range phones {
		set[p] = true
	}
	return set, nil
}

// InsertBatch inserts imported contacts in chunks.
func (r *ContactRepository) InsertBatch(ctx context.Context, contacts []*model.Contact) (int, error) {
	if len(contacts) == 0 {
		return 0, nil
	}
	entities := make([]*ContactEntity, len(contacts))
	for i, c := range contacts {
		entities[i] = toContactEntity(c)
	}
	const chunkSize = 500
	if err := r.Write(ctx).WithContext(ctx).CreateInBatches(entities, chunkSize).Error; err != nil {
		return 0, err
	}
	return len(entities), nil
}

func lowerRankedStatuses(to model.OutreachStatus) []string {
	all := []model.OutreachStatus{
		model.OutreachStatusNotContacted,
		model.OutreachStatusVerified,
		model.OutreachStatusPitched,
		model.OutreachStatusResponded,
		model.OutreachStatusSignedUp,
	}
	var lower []string
	for _, s := range all {
		// signed_up is sticky, a later reply never moves it
		if s == model.OutreachStatusSignedUp {
			continue
		}
		if s.Rank() < to.Rank() {
			lower = append(lower, string(s))
		}
	}
	return lower
}
