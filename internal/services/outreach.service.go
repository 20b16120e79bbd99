package services

import (
	"context"
	"errors"
	"time"

	gateway "github.com/trailblaize/outreach-engine/internal/gateways"
	"github.com/trailblaize/outreach-engine/internal/model"
	"github.com/trailblaize/outreach-engine/internal/repository"
)

var (
	ErrEmptyRegistry   = errors.New("sending line registry is empty")
	ErrEntryNotFound   = errors.New("queue entry not found")
	ErrEntryNotPending = errors.New("queue entry is not pending")
	ErrUnknownLine     = errors.New("unknown line number")
)

type ContactRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Contact, error)
	ListWithPhone(ctx context.Context, chapterID string) ([]*model.Contact, error)
	ListVerifyCandidates(ctx context.Context, chapterID string, limit int) ([]*model.Contact, error)
	ListPollCandidates(ctx context.Context, chapterID string, limit int) ([]*model.Contact, error)
	SetVerification(ctx context.Context, id int64, isIMessage bool, chatID string) error
	MarkTouchSent(ctx context.Context, id int64, touch int, chatID string, sentAt time.Time) error
	AdvanceStatus(ctx context.Context, id int64, to model.OutreachStatus) error
	SetStatus(ctx context.Context, id int64, to model.OutreachStatus) error
	RecordResponse(ctx context.Context, id int64, text string, classification model.Classification, respondedAt time.Time, newStatus model.OutreachStatus) error
}

type QueueEntryRepository interface {
	GetByID(ctx context.Context, id int64) (*model.QueueEntry, error)
	InsertBatch(ctx context.Context, entries []*model.QueueEntry) error
	ActiveContactIDs(ctx context.Context, chapterID string, today time.Time) (map[int64]bool, error)
	CountAll(ctx context.Context, chapterID string) (int64, error)
	PendingCountsByLine(ctx context.Context, chapterID string) (map[int]int64, error)
	MaxPositionsByLine(ctx context.Context, chapterID string) (map[int]int, error)
	SentTodayCount(ctx context.Context, chapterID string, lineNumber int, dayStart time.Time) (int64, error)
	ListPendingFIFO(ctx context.Context, chapterID string, lineNumber int, limit int, touch int, onlyIMessage bool) ([]*model.QueueEntryWithContact, error)
	MarkSent(ctx context.Context, id int64, sentAt time.Time) (*model.QueueEntry, error)
	MarkFailed(ctx context.Context, id int64, errorMessage string) (*model.QueueEntry, error)
	StatusCountsByLine(ctx context.Context, chapterID string) (map[int]repository.LineStatusCounts, error)
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Messenger is the external messaging capability.
type Messenger interface {
	CreateChat(ctx context.Context, fromPhone, toPhone, message string) (*gateway.Chat, error)
	GetMessages(ctx context.Context, chatID string, limit int) ([]gateway.ChatMessage, error)
}

// EventPublisher pushes send events onto the recorder stream.
type EventPublisher interface {
	PublishSendEvent(ctx context.Context, ev *model.SendEvent) (string, error)
}

// OutreachService implements the assignment partitioner, dispatch batcher,
// queue state tracker, response poller, iMessage verifier and dashboard
// aggregator over one injected line registry.
type OutreachService struct {
	lines       model.Lines
	contactRepo ContactRepository
	queueRepo   QueueEntryRepository
	messenger   Messenger
	events      EventPublisher
}

func NewOutreachService(lines model.Lines, contactRepo ContactRepository, queueRepo QueueEntryRepository, messenger Messenger, events EventPublisher) (*OutreachService, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyRegistry
	}
	return &OutreachService{
		lines:       lines,
		contactRepo: contactRepo,
		queueRepo:   queueRepo,
		messenger:   messenger,
		events:      events,
	}, nil
}

// Lines exposes the injected registry, registry order.
func (s *OutreachService) Lines() model.Lines {
	return s.lines
}

// todayUTC is the day boundary for every quota computation.
func todayUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
