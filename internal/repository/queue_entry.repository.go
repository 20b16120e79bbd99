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
	ErrEntryNotFound = errors.New("queue entry not found")
	// ErrEntryNotPending is returned when a status transition loses the
	// conditional-update race or targets an already-terminal entry.
	ErrEntryNotPending = errors.New("queue entry is not pending")
)

type QueueEntryRepository struct {
	*pg.DB
}

func NewQueueEntryRepository(db *pg.DB) *QueueEntryRepository {
	return &QueueEntryRepository{
		db,
	}
}

func (r *QueueEntryRepository) GetByID(ctx context.Context, id int64) (*model.QueueEntry, error) {
	var entity QueueEntryEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return toQueueEntryModel(&entity), nil
}

// InsertBatch inserts new pending entries in chunks.
func (r *QueueEntryRepository) InsertBatch(ctx context.Context, entries []*model.QueueEntry) error {
	if len(entries) == 0 {
		return nil
	}
	entities := make([]*QueueEntryEntity, len(entries))
	for i, q := range entries {
		entities[i] = toQueueEntryEntity(q)
	}
	const chunkSize = 500
	return r.Write(ctx).WithContext(ctx).CreateInBatches(entities, chunkSize).Error
}

// ActiveContactIDs returns contacts that must not be re-queued: anyone
// holding a pending entry or an entry assigned today.
func (r *QueueEntryRepository) ActiveContactIDs(ctx context.Context, chapterID string, today time.Time) (map[int64]bool, error) {
	var ids []int64
	err := r.Read(ctx).WithContext(ctx).
		Model(&QueueEntryEntity{}).
		Where("chapter_id = ?", chapterID).
		Where("status = ? OR assigned_day >= ?", string(model.QueueEntryStatusPending), today).
		Pluck("contact_id", &ids).
		Error
	if err != nil {
		return nil, err
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// CountAll returns the total number of entries for the chapter.
func (r *QueueEntryRepository) CountAll(ctx context.Context, chapterID string) (int64, error) {
	var total int64
	err := r.Read(ctx).WithContext(ctx).
		Model(&QueueEntryEntity{}).
		Where("chapter_id = ?", chapterID).
		Count(&total).
		Error
	return total, err
}

// PendingCountsByLine returns the pending entry count per line. Lines with
// no pending entries are absent from the map.
func (r *QueueEntryRepository) PendingCountsByLine(ctx context.Context, chapterID string) (map[int]int64, error) {
	type row struct {
		LineNumber int   `gorm:"column:line_number"`
		N          int64 `gorm:"column:n"`
	}
	var rows []row
	err := r.Read(ctx).WithContext(ctx).
		Model(&QueueEntryEntity{}).
		Select("line_number, COUNT(*) AS n").
		Where("chapter_id = ?", chapterID).
		Where("status = ?", string(model.QueueEntryStatusPending)).
		Group("line_number").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	counts := make(map[int]int64, len(rows))
	for _, rw := range rows {
		counts[rw.LineNumber] = rw.N
	}
	return counts, nil
}

// MaxPositionsByLine returns the highest queue_position per line, so new
// entries keep appending to each line's FIFO.
func (r *QueueEntryRepository) MaxPositionsByLine(ctx context.Context, chapterID string) (map[int]int, error) {
	type row struct {
		LineNumber int `gorm:"column:line_number"`
		MaxPos     int `gorm:"column:max_pos"`
	}
	var rows []row
	err := r.Read(ctx).WithContext(ctx).
		Model(&QueueEntryEntity{}).
		Select("line_number, MAX(queue_position) AS max_pos").
		Where("chapter_id = ?", chapterID).
		Group("line_number").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	positions := make(map[int]int, len(rows))
	for _, rw := range rows {
		positions[rw.LineNumber] = rw.MaxPos
	}
	return positions, nil
}

// SentTodayCount returns how many entries the line already sent since the
// UTC day boundary. Drives the remaining-quota computation.
func (r *QueueEntryRepository) SentTodayCount(ctx context.Context, chapterID string, lineNumber int, dayStart time.Time) (int64, error) {
	var n int64
	err := r.Read(ctx).WithContext(ctx).
		Model(&QueueEntryEntity{}).
		Where("chapter_id = ?", chapterID).
		Where("line_number = ?", lineNumber).
		Where("status = ?", string(model.QueueEntryStatusSent)).
		Where("sent_at >= ?", dayStart).
		Count(&n).
		Error
	return n, err
}

// touchWaitPeriod is how long the previous touch must age before the next
// one may go out to a contact who never replied confirmed.
const touchWaitPeriod = 48 * time.Hour

// touchBlockedStatuses are never dispatched a follow-up touch.
func touchBlockedStatuses() []string {
	return []string{
		string(model.OutreachStatusSignedUp),
		string(model.OutreachStatusWrongNumber),
		string(model.OutreachStatusOptedOut),
	}
}

// ListPendingFIFO returns up to limit pending entries for a line, oldest
// queue position first, joined with the contact summary. With onlyIMessage
// set, contacts not verified as iMessage-capable are skipped. A touch of
// 1..3 restricts the selection to contacts eligible for that touch: touch 1
// goes to untouched contacts only, touch 2 needs touch 1 sent plus a
// confirmed reply or the wait period elapsed, touch 3 needs touch 2 sent
// plus the wait period; a touch of 0 applies no sequencing filter.
func (r *QueueEntryRepository) ListPendingFIFO(ctx context.Context, chapterID string, lineNumber int, limit int, touch int, onlyIMessage bool) ([]*model.QueueEntryWithContact, error) {
	q := r.Read(ctx).WithContext(ctx).
		Table("outreach_queue AS q").
		Select(`q.*,
			c.first_name              AS c_first_name,
			c.last_name               AS c_last_name,
			c.phone_primary           AS c_phone_primary,
			c.is_imessage             AS c_is_imessage,
			c.outreach_status         AS c_outreach_status,
			c.response_classification AS c_response_classification`).
		Joins("JOIN alumni_contacts AS c ON c.id = q.contact_id").
		Where("q.chapter_id = ?", chapterID).
		Where("q.line_number = ?", lineNumber).
		Where("q.status = ?", string(model.QueueEntryStatusPending))

	if onlyIMessage {
		q = q.Where("c.is_imessage = ?", true)
	}

	switch touch {
	case 1:
		q = q.Where("c.outreach_status = ?", string(model.OutreachStatusNotContacted)).
			Where("c.touch1_sent_at IS NULL")
	case 2:
		cutoff := time.Now().UTC().Add(-touchWaitPeriod)
		q = q.Where("c.touch1_sent_at IS NOT NULL").
			Where("c.touch2_sent_at IS NULL").
			Where("c.response_classification = ? OR c.touch1_sent_at <= ?", string(model.ClassificationConfirmed), cutoff).
			Where("c.outreach_status NOT IN ?", touchBlockedStatuses())
	case 3:
		cutoff := time.Now().UTC().Add(-touchWaitPeriod)
		q = q.Where("c.touch2_sent_at IS NOT NULL").
			Where("c.touch3_sent_at IS NULL").
			Where("c.touch2_sent_at <= ?", cutoff).
			Where("c.outreach_status NOT IN ?", touchBlockedStatuses())
	}

	var rows []*queueEntryWithContactRow
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Order("q.queue_position ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]*model.QueueEntryWithContact, len(rows))
	for i, rw := range rows {
		out[i] = toQueueEntryWithContact(rw)
	}
	return out, nil
}

// MarkSent transitions pending -> sent with a conditional update so
// concurrent writers cannot double-mark the same entry.
func (r *QueueEntryRepository) MarkSent(ctx context.Context, id int64, sentAt time.Time) (*model.QueueEntry, error) {
	result := r.Write(ctx).WithContext(ctx).
		Model(&QueueEntryEntity{}).
		Where("id = ?", id).
		Where("status = ?", string(model.QueueEntryStatusPending)).
		Updates(map[string]interface{}{
			"status":  string(model.QueueEntryStatusSent),
			"sent_at": sentAt,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, r.notPendingReason(ctx, id)
	}
	return r.GetByID(ctx, id)
}

// MarkFailed transitions pending -> failed, recording the failure reason.
func (r *QueueEntryRepository) MarkFailed(ctx context.Context, id int64, errorMessage string) (*model.QueueEntry, error) {
	result := r.Write(ctx).WithContext(ctx).
		Model(&QueueEntryEntity{}).
		Where("id = ?", id).
		Where("status = ?", string(model.QueueEntryStatusPending)).
		Updates(map[string]interface{}{
			"status":        string(model.QueueEntryStatusFailed),
			"error_message": errorMessage,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, r.notPendingReason(ctx, id)
	}
	return r.GetByID(ctx, id)
}

// notPendingReason distinguishes a lost race from a missing row.
func (r *QueueEntryRepository) notPendingReason(ctx context.Context, id int64) error {
	var n int64
	if err := r.Read(ctx).WithContext(ctx).
		Model(&QueueEntryEntity{}).
		Where("id = ?", id).
		Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrEntryNotFound
	}
	return ErrEntryNotPending
}

// StatusCountsByLine returns total/sent/failed counts per line for the
// dashboard rollup.
func (r *QueueEntryRepository) StatusCountsByLine(ctx context.Context, chapterID string) (map[int]LineStatusCounts, error) {
	type row struct {
		LineNumber int    `gorm:"column:line_number"`
		Status     string `gorm:"column:status"`
		N          int64  `gorm:"column:n"`
	}
	var rows []row
	err := r.Read(ctx).WithContext(ctx).
		Model(&QueueEntryEntity{}).
		Select("line_number, status, COUNT(*) AS n").
		Where("chapter_id = ?", chapterID).
		Group("line_number").
		Group("status").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	counts := make(map[int]LineStatusCounts)
	for _, rw := range rows {
		c := counts[rw.LineNumber]
		c.Total += rw.N
		switch model.QueueEntryStatus(rw.Status) {
		case model.QueueEntryStatusSent:
			c.Sent += rw.N
		case model.QueueEntryStatusFailed:
			c.Failed += rw.N
		}
		counts[rw.LineNumber] = c
	}
	return counts, nil
}
