package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	gateway "github.com/trailblaize/outreach-engine/internal/gateways"
	"github.com/trailblaize/outreach-engine/internal/model"
)

func pendingEntry(id, contactID int64, line, pos int, phone string) *model.QueueEntryWithContact {
	e := &model.QueueEntryWithContact{
		QueueEntry: model.QueueEntry{
			ID:            id,
			ChapterID:     "ch1",
			ContactID:     contactID,
			LineNumber:    line,
			QueuePosition: pos,
			Status:        model.QueueEntryStatusPending,
			AssignedDay:   todayUTC(),
		},
		Contact: model.ContactSummary{
			ID:             contactID,
			FirstName:      "First",
			LastName:       "Last",
			OutreachStatus: model.OutreachStatusVerified,
		},
	}
	if phone != "" {
		e.Contact.PhonePrimary = &phone
	}
	return e
}

func touchOneRequest() model.SendBatchRequest {
	return model.SendBatchRequest{
		ChapterID:  "ch1",
		Touch:      1,
		SenderName: "Jake",
		School:     "Alabama",
		Fraternity: "Phi Delta Theta",
		BatchSize:  10,
	}
}

func TestOutreachService_SendBatch_FairSplitWithQuota(t *testing.T) {
	svc, contactRepo, queueRepo, messenger, events := newTestService(t)
	ctx := context.Background()

	// line 1 has only two sends left today, the others are untouched
	queueRepo.On("SentTodayCount", ctx, "ch1", 1, mock.Anything).Return(int64(73), nil)
	queueRepo.On("SentTodayCount", ctx, "ch1", 2, mock.Anything).Return(int64(0), nil)
	queueRepo.On("SentTodayCount", ctx, "ch1", 3, mock.Anything).Return(int64(0), nil)

	queueRepo.On("ListPendingFIFO", ctx, "ch1", 1, 2, 1, true).Return([]*model.QueueEntryWithContact{
		pendingEntry(1, 101, 1, 1, "+12055550001"),
		pendingEntry(2, 102, 1, 2, "+12055550002"),
	}, nil)
	queueRepo.On("ListPendingFIFO", ctx, "ch1", 2, 3, 1, true).Return([]*model.QueueEntryWithContact{
		pendingEntry(3, 103, 2, 1, "+12055550003"),
		pendingEntry(4, 104, 2, 2, "+12055550004"),
		pendingEntry(5, 105, 2, 3, "+12055550005"),
	}, nil)
	queueRepo.On("ListPendingFIFO", ctx, "ch1", 3, 3, 1, true).Return([]*model.QueueEntryWithContact{
		pendingEntry(6, 106, 3, 1, "+12055550006"),
		pendingEntry(7, 107, 3, 2, "+12055550007"),
		pendingEntry(8, 108, 3, 3, "+12055550008"),
	}, nil)

	messenger.On("CreateChat", ctx, mock.Anything, mock.Anything, mock.Anything).Return(&gateway.Chat{ID: "chat_1"}, nil)
	queueRepo.On("MarkSent", ctx, mock.Anything, mock.Anything).Return(&model.QueueEntry{}, nil)
	contactRepo.On("MarkTouchSent", ctx, mock.Anything, 1, "chat_1", mock.Anything).Return(nil)
	events.On("PublishSendEvent", ctx, mock.Anything).Return("1-0", nil)

	result, err := svc.SendBatch(ctx, touchOneRequest())
	require.NoError(t, err)

	assert.Equal(t, 8, result.Sent)
	assert.Empty(t, result.Errors)
	require.Len(t, result.PerLine, 3)
	assert.Equal(t, model.LineBatchResult{Line: 1, Label: "Line A", Sent: 2, Remaining: 0}, result.PerLine[0])
	assert.Equal(t, model.LineBatchResult{Line: 2, Label: "Line B", Sent: 3, Remaining: 72}, result.PerLine[1])
	assert.Equal(t, model.LineBatchResult{Line: 3, Label: "Line C", Sent: 3, Remaining: 72}, result.PerLine[2])
	messenger.AssertNumberOfCalls(t, "CreateChat", 8)
}

func TestOutreachService_SendBatch_PartialFailure(t *testing.T) {
	svc, contactRepo, queueRepo, messenger, events := newTestService(t)
	ctx := context.Background()

	queueRepo.On("SentTodayCount", ctx, "ch1", 1, mock.Anything).Return(int64(0), nil)
	queueRepo.On("SentTodayCount", ctx, "ch1", 2, mock.Anything).Return(int64(75), nil)
	queueRepo.On("SentTodayCount", ctx, "ch1", 3, mock.Anything).Return(int64(75), nil)

	queueRepo.On("ListPendingFIFO", ctx, "ch1", 1, 3, 1, true).Return([]*model.QueueEntryWithContact{
		pendingEntry(1, 101, 1, 1, "+12055550001"),
		pendingEntry(2, 102, 1, 2, "+12055550002"),
		pendingEntry(3, 103, 1, 3, ""), // no phone on file
	}, nil)

	messenger.On("CreateChat", ctx, "+15550000001", "+12055550001", mock.Anything).Return(&gateway.Chat{ID: "chat_1"}, nil)
	messenger.On("CreateChat", ctx, "+15550000001", "+12055550002", mock.Anything).Return(nil, errors.New("provider timeout"))

	queueRepo.On("MarkSent", ctx, int64(1), mock.Anything).Return(&model.QueueEntry{ID: 1}, nil)
	queueRepo.On("MarkFailed", ctx, int64(2), "provider timeout").Return(&model.QueueEntry{ID: 2}, nil)
	queueRepo.On("MarkFailed", ctx, int64(3), "contact has no phone").Return(&model.QueueEntry{ID: 3}, nil)
	contactRepo.On("MarkTouchSent", ctx, int64(101), 1, "chat_1", mock.Anything).Return(nil)
	events.On("PublishSendEvent", ctx, mock.Anything).Return("1-0", nil)

	params := touchOneRequest()
	params.BatchSize = 3
	result, err := svc.SendBatch(ctx, params)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Sent)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, int64(102), result.Errors[0].ContactID)
	assert.Equal(t, "provider timeout", result.Errors[0].Message)
	assert.Equal(t, int64(103), result.Errors[1].ContactID)
	assert.Equal(t, "contact has no phone", result.Errors[1].Message)
	require.Len(t, result.PerLine, 1)
	assert.Equal(t, 1, result.PerLine[0].Sent)

	queueRepo.AssertCalled(t, "MarkFailed", ctx, int64(2), "provider timeout")
	queueRepo.AssertCalled(t, "MarkFailed", ctx, int64(3), "contact has no phone")
	events.AssertNumberOfCalls(t, "PublishSendEvent", 3)
}

func TestOutreachService_SendBatch_ConfirmedVariant(t *testing.T) {
	svc, contactRepo, queueRepo, messenger, events := newTestService(t)
	ctx := context.Background()

	queueRepo.On("SentTodayCount", ctx, "ch1", 1, mock.Anything).Return(int64(0), nil)
	queueRepo.On("SentTodayCount", ctx, "ch1", 2, mock.Anything).Return(int64(75), nil)
	queueRepo.On("SentTodayCount", ctx, "ch1", 3, mock.Anything).Return(int64(75), nil)

	confirmed := pendingEntry(1, 101, 1, 1, "+12055550001")
	confirmedClass := string(model.ClassificationConfirmed)
	confirmed.Contact.ResponseClassification = &confirmedClass
	silent := pendingEntry(2, 102, 1, 2, "+12055550002")

	queueRepo.On("ListPendingFIFO", ctx, "ch1", 1, 2, 2, true).Return([]*model.QueueEntryWithContact{confirmed, silent}, nil)

	messages := map[string]string{}
	messenger.On("CreateChat", ctx, "+15550000001", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			messages[args.String(2)] = args.String(3)
		}).
		Return(&gateway.Chat{ID: "chat_1"}, nil)
	queueRepo.On("MarkSent", ctx, mock.Anything, mock.Anything).Return(&model.QueueEntry{}, nil)
	contactRepo.On("MarkTouchSent", ctx, mock.Anything, 2, "chat_1", mock.Anything).Return(nil)
	events.On("PublishSendEvent", ctx, mock.Anything).Return("1-0", nil)

	params := model.SendBatchRequest{
		ChapterID:  "ch1",
		Touch:      2,
		SenderName: "Jake",
		School:     "Alabama",
		Fraternity: "Phi Delta Theta",
		SignupLink: "https://x.co",
		BatchSize:  2,
	}
	result, err := svc.SendBatch(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)

	vars := model.TemplateVars{
		FirstName:  "First",
		LastName:   "Last",
		SenderName: "Jake",
		School:     "Alabama",
		Fraternity: "Phi Delta Theta",
		SignupLink: "https://x.co",
	}
	assert.Equal(t, model.RenderTemplate(model.TemplateTouch2Confirmed, vars), messages["+12055550001"])
	assert.Equal(t, model.RenderTemplate(model.TemplateTouch2NoResponse, vars), messages["+12055550002"])
}

func TestOutreachService_SendBatch_AllLinesExhausted(t *testing.T) {
	svc, _, queueRepo, messenger, _ := newTestService(t)
	ctx := context.Background()

	queueRepo.On("SentTodayCount", ctx, "ch1", mock.Anything, mock.Anything).Return(int64(75), nil)

	result, err := svc.SendBatch(ctx, touchOneRequest())
	require.NoError(t, err)
	assert.Zero(t, result.Sent)
	assert.Empty(t, result.PerLine)
	messenger.AssertNotCalled(t, "CreateChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	queueRepo.AssertNotCalled(t, "ListPendingFIFO", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOutreachService_SendBatch_Validation(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*model.SendBatchRequest)
	}{
		{"zero batch size", func(p *model.SendBatchRequest) { p.BatchSize = 0 }},
		{"batch size over limit", func(p *model.SendBatchRequest) { p.BatchSize = 151 }},
		{"touch out of range", func(p *model.SendBatchRequest) { p.Touch = 4 }},
		{"missing sender name", func(p *model.SendBatchRequest) { p.SenderName = "" }},
		{"missing chapter", func(p *model.SendBatchRequest) { p.ChapterID = "" }},
		{"touch two without signup link", func(p *model.SendBatchRequest) { p.Touch = 2 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := touchOneRequest()
			tc.mutate(&params)
			_, err := svc.SendBatch(ctx, params)
			assert.Error(t, err)
		})
	}
}
