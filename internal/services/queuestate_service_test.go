package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trailblaize/outreach-engine/internal/model"
	"github.com/trailblaize/outreach-engine/internal/repository"
)

// newSmallLimitService builds a service whose lines send three messages a day,
// which keeps the day arithmetic visible in assertions.
func newSmallLimitService(t *testing.T) (*OutreachService, *MockContactRepository, *MockQueueEntryRepository) {
	t.Helper()
	lines, err := model.NewLines(
		[]string{"Line A", "Line B"},
		[]string{"+15550000001", "+15550000002"},
		[]int{3, 3},
	)
	require.NoError(t, err)

	contactRepo := new(MockContactRepository)
	queueRepo := new(MockQueueEntryRepository)
	svc, err := NewOutreachService(lines, contactRepo, queueRepo, new(MockMessenger), new(MockEventPublisher))
	require.NoError(t, err)
	return svc, contactRepo, queueRepo
}

func TestOutreachService_GetQueue(t *testing.T) {
	t.Run("today's slice of the fifo", func(t *testing.T) {
		svc, _, queueRepo := newSmallLimitService(t)
		ctx := context.Background()

		entries := []*model.QueueEntryWithContact{
			pendingEntry(1, 101, 1, 1, "+12055550001"),
			pendingEntry(2, 102, 1, 2, "+12055550002"),
		}
		// one of three daily sends used, two slots left today
		queueRepo.On("SentTodayCount", ctx, "ch1", 1, mock.Anything).Return(int64(1), nil)
		queueRepo.On("ListPendingFIFO", ctx, "ch1", 1, 2, 0, false).Return(entries, nil)
		queueRepo.On("StatusCountsByLine", ctx, "ch1").Return(map[int]repository.LineStatusCounts{
			1: {Total: 10, Sent: 4, Failed: 1},
		}, nil)

		result, err := svc.GetQueue(ctx, "ch1", 1)
		require.NoError(t, err)
		assert.Equal(t, entries, result.Queue)
		// 5 of 10 settled at 3 a day puts the line on day 2 of 4
		assert.Equal(t, int64(2), result.CurrentDay)
	})

	t.Run("exhausted quota empties the day", func(t *testing.T) {
		svc, _, queueRepo := newSmallLimitService(t)
		ctx := context.Background()

		queueRepo.On("SentTodayCount", ctx, "ch1", 1, mock.Anything).Return(int64(3), nil)
		queueRepo.On("StatusCountsByLine", ctx, "ch1").Return(map[int]repository.LineStatusCounts{
			1: {Total: 6, Sent: 3, Failed: 0},
		}, nil)

		result, err := svc.GetQueue(ctx, "ch1", 1)
		require.NoError(t, err)
		assert.Empty(t, result.Queue)
		queueRepo.AssertNotCalled(t, "ListPendingFIFO", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestOutreachService_GetQueue_UnknownLine(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	_, err := svc.GetQueue(context.Background(), "ch1", 9)
	assert.ErrorIs(t, err, ErrUnknownLine)
}

func TestOutreachService_MarkEntry(t *testing.T) {
	t.Run("sent verifies the contact", func(t *testing.T) {
		svc, contactRepo, queueRepo, _, _ := newTestService(t)
		ctx := context.Background()

		queueRepo.On("MarkSent", ctx, int64(7), mock.Anything).Return(&model.QueueEntry{ID: 7, ContactID: 70, Status: model.QueueEntryStatusSent}, nil)
		contactRepo.On("AdvanceStatus", ctx, int64(70), model.OutreachStatusVerified).Return(nil)

		entry, err := svc.MarkEntry(ctx, model.ReportRequest{QueueID: 7, Status: model.QueueEntryStatusSent})
		require.NoError(t, err)
		assert.Equal(t, model.QueueEntryStatusSent, entry.Status)
		contactRepo.AssertExpectations(t)
	})

	t.Run("wrong number failure retires the contact", func(t *testing.T) {
		svc, contactRepo, queueRepo, _, _ := newTestService(t)
		ctx := context.Background()

		queueRepo.On("MarkFailed", ctx, int64(7), "Wrong Number, she moved").Return(&model.QueueEntry{ID: 7, ContactID: 70, Status: model.QueueEntryStatusFailed}, nil)
		contactRepo.On("SetStatus", ctx, int64(70), model.OutreachStatusWrongNumber).Return(nil)

		_, err := svc.MarkEntry(ctx, model.ReportRequest{QueueID: 7, Status: model.QueueEntryStatusFailed, ErrorMessage: "Wrong Number, she moved"})
		require.NoError(t, err)
		contactRepo.AssertExpectations(t)
	})

	t.Run("plain failure leaves the contact alone", func(t *testing.T) {
		svc, contactRepo, queueRepo, _, _ := newTestService(t)
		ctx := context.Background()

		queueRepo.On("MarkFailed", ctx, int64(7), "reported failed").Return(&model.QueueEntry{ID: 7, ContactID: 70, Status: model.QueueEntryStatusFailed}, nil)

		_, err := svc.MarkEntry(ctx, model.ReportRequest{QueueID: 7, Status: model.QueueEntryStatusFailed})
		require.NoError(t, err)
		contactRepo.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("maps repository errors", func(t *testing.T) {
		svc, _, queueRepo, _, _ := newTestService(t)
		ctx := context.Background()

		queueRepo.On("MarkSent", ctx, int64(1), mock.Anything).Return(nil, repository.ErrEntryNotFound)
		queueRepo.On("MarkSent", ctx, int64(2), mock.Anything).Return(nil, repository.ErrEntryNotPending)

		_, err := svc.MarkEntry(ctx, model.ReportRequest{QueueID: 1, Status: model.QueueEntryStatusSent})
		assert.ErrorIs(t, err, ErrEntryNotFound)

		_, err = svc.MarkEntry(ctx, model.ReportRequest{QueueID: 2, Status: model.QueueEntryStatusSent})
		assert.ErrorIs(t, err, ErrEntryNotPending)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		svc, _, _, _, _ := newTestService(t)
		_, err := svc.MarkEntry(context.Background(), model.ReportRequest{QueueID: 1, Status: "pending"})
		assert.Error(t, err)
	})
}

func TestOutreachService_Dashboard(t *testing.T) {
	svc, _, queueRepo := newSmallLimitService(t)
	ctx := context.Background()

	queueRepo.On("StatusCountsByLine", ctx, "ch1").Return(map[int]repository.LineStatusCounts{
		1: {Total: 10, Sent: 4, Failed: 1},
		2: {Total: 2, Sent: 2, Failed: 0},
	}, nil)

	snap, err := svc.Dashboard(ctx, "ch1")
	require.NoError(t, err)

	assert.Equal(t, int64(12), snap.Total)
	assert.Equal(t, int64(6), snap.Sent)
	assert.Equal(t, int64(1), snap.Failed)
	assert.Equal(t, int64(5), snap.Pending)
	assert.Equal(t, int64(4), snap.TotalDays)
	assert.Equal(t, int64(2), snap.DaysRemaining)

	require.Len(t, snap.Lines, 2)
	lineA := snap.Lines[0]
	assert.Equal(t, int64(5), lineA.Pending)
	assert.Equal(t, int64(2), lineA.CurrentDay)
	assert.Equal(t, int64(4), lineA.TotalDays)

	// a fully drained line sits on its final day
	lineB := snap.Lines[1]
	assert.Zero(t, lineB.Pending)
	assert.Equal(t, int64(1), lineB.CurrentDay)
	assert.Equal(t, int64(1), lineB.TotalDays)
}

func TestOutreachService_Dashboard_EmptyChapter(t *testing.T) {
	svc, _, queueRepo, _, _ := newTestService(t)
	ctx := context.Background()

	queueRepo.On("StatusCountsByLine", ctx, "empty").Return(map[int]repository.LineStatusCounts{}, nil)

	snap, err := svc.Dashboard(ctx, "empty")
	require.NoError(t, err)
	assert.Zero(t, snap.Total)
	assert.Zero(t, snap.Pending)
	assert.Zero(t, snap.TotalDays)
	assert.Zero(t, snap.DaysRemaining)
	require.Len(t, snap.Lines, 3)
	for _, line := range snap.Lines {
		assert.Zero(t, line.Total)
		assert.Zero(t, line.CurrentDay)
	}
}
