package recorder

import (
	"context"
	"time"

	"github.com/trailblaize/outreach-engine/internal/model"
	"github.com/trailblaize/outreach-engine/internal/queue"
	"github.com/trailblaize/outreach-engine/pkg/logger"
	"github.com/trailblaize/outreach-engine/pkg/worker"
)

// MessageLogRepository persists consumed send events.
type MessageLogRepository interface {
	Create(ctx context.Context, log *model.MessageLog) (*model.MessageLog, error)
}

// Service drains the send-event stream into the message log. The queue
// entries in Postgres stay authoritative; the log is the audit trail, so a
// write that keeps failing is logged and dropped instead of blocking the
// stream.
type Service struct {
	queue   *queue.Queue
	repo    MessageLogRepository
	manager *worker.WorkerManager
	timeout time.Duration
}

func New(q *queue.Queue, repo MessageLogRepository, workers int) *Service {
	s := &Service{
		queue:   q,
		repo:    repo,
		timeout: 10 * time.Second,
	}
	s.manager = worker.NewWorkerManager(workers*2, workers, nil)
	s.manager.SetWorker(s.record)
	return s
}

// Start consumes the stream and blocks until the worker pool exits.
func (s *Service) Start() error {
	if err := s.queue.Consume(s.handle); err != nil {
		return err
	}
	return s.manager.Start()
}

func (s *Service) Stop(timeout time.Duration) error {
	err := s.queue.Stop(timeout)
	s.manager.Exit()
	return err
}

// handle hands the decoded event to the pool. A payload that cannot decode
// is acked away so it cannot poison the consumer group.
func (s *Service) handle(ctx context.Context, msg *queue.Message) error {
	ev, err := msg.SendEvent()
	if err != nil {
		logger.Error("undecodable send event dropped", "message_id", msg.ID, "error", err)
		return nil
	}
	s.manager.Enqueue(ev)
	return nil
}

// record writes one send event into the message log.
func (s *Service) record(workerIndex int, job interface{}) {
	ev, ok := job.(*model.SendEvent)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	entry := &model.MessageLog{
		BatchID:    ev.BatchID,
		EntryID:    ev.EntryID,
		ContactID:  ev.ContactID,
		ChapterID:  ev.ChapterID,
		LineNumber: ev.LineNumber,
		Touch:      ev.Touch,
		Status:     ev.Status,
		CreatedAt:  ev.OccurredAt,
	}
	if ev.ErrorMessage != "" {
		entry.ErrorMessage = &ev.ErrorMessage
	}

	if _, err := s.repo.Create(ctx, entry); err != nil {
		logger.Error("send event not recorded", "entry_id", ev.EntryID, "worker", workerIndex, "error", err)
		return
	}
	logger.Debug("send event recorded", "entry_id", ev.EntryID, "status", string(ev.Status))
}
