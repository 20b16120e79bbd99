package repository

import (
	"context"

	"github.com/trailblaize/outreach-engine/internal/model"
	"github.com/trailblaize/outreach-engine/pkg/pg"
)

type MessageLogRepository struct {
	*pg.DB
}

func NewMessageLogRepository(db *pg.DB) *MessageLogRepository {
	return &MessageLogRepository{
		db,
	}
}

func (r *MessageLogRepository) Create(ctx context.Context, log *model.MessageLog) (*model.MessageLog, error) {
	entity := toMessageLogEntity(log)
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toMessageLogModel(entity), nil
}

// ListByBatch returns every log row of one dispatch batch, insertion order.
func (r *MessageLogRepository) ListByBatch(ctx context.Context, batchID string) ([]*model.MessageLog, error) {
	var entities []*MessageLogEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("id ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	out := make([]*model.MessageLog, len(entities))
	for i, e := range entities {
		out[i] = toMessageLogModel(e)
	}
	return out, nil
}

// CountByContactAndTouch reports how many times a touch went out to a
// contact, used to spot duplicate sends.
func (r *MessageLogRepository) CountByContactAndTouch(ctx context.Context, contactID int64, touch int) (int64, error) {
	var n int64
	err := r.Read(ctx).WithContext(ctx).
		Model(&MessageLogEntity{}).
		Where("contact_id = ?", contactID).
		Where("touch = ?", touch).
		Where("status = ?", string(model.QueueEntryStatusSent)).
		Count(&n).
		Error
	return n, err
}
