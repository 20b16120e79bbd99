package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trailblaize/outreach-engine/internal/model"
	"github.com/trailblaize/outreach-engine/internal/services"
	"github.com/valyala/fasthttp"
)

type MockOutreachProvider struct {
	mock.Mock
}

func (m *MockOutreachProvider) Lines() model.Lines {
	args := m.Called()
	return args.Get(0).(model.Lines)
}

func (m *MockOutreachProvider) Assign(ctx context.Context, params model.AssignRequest) (*model.AssignResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AssignResult), args.Error(1)
}

func (m *MockOutreachProvider) SendBatch(ctx context.Context, params model.SendBatchRequest) (*model.SendBatchResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SendBatchResult), args.Error(1)
}

func (m *MockOutreachProvider) GetQueue(ctx context.Context, chapterID string, lineNumber int) (*model.QueueResult, error) {
	args := m.Called(ctx, chapterID, lineNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QueueResult), args.Error(1)
}

func (m *MockOutreachProvider) MarkEntry(ctx context.Context, params model.ReportRequest) (*model.QueueEntry, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QueueEntry), args.Error(1)
}

func (m *MockOutreachProvider) PollResponses(ctx context.Context, chapterID string) (*model.PollResult, error) {
	args := m.Called(ctx, chapterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PollResult), args.Error(1)
}

func (m *MockOutreachProvider) VerifyIMessage(ctx context.Context, chapterID string, limit int) (*model.VerifyResult, error) {
	args := m.Called(ctx, chapterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VerifyResult), args.Error(1)
}

func (m *MockOutreachProvider) Dashboard(ctx context.Context, chapterID string) (*model.DashboardSnapshot, error) {
	args := m.Called(ctx, chapterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DashboardSnapshot), args.Error(1)
}

func postCtx(uri string, body string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(fasthttp.MethodPost)
	ctx.Request.SetRequestURI(uri)
	ctx.Request.SetBodyString(body)
	return ctx
}

func getCtx(uri string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	ctx.Request.SetRequestURI(uri)
	return ctx
}

type responseEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *errorBody      `json:"error"`
}

func decodeResponse(t *testing.T, ctx *fasthttp.RequestCtx) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env))
	return env
}

func TestOutreachHandler_Assign(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		provider := new(MockOutreachProvider)
		h := NewOutreachHandler(provider)
		provider.On("Assign", mock.Anything, model.AssignRequest{ChapterID: "ch1"}).
			Return(&model.AssignResult{QueueAssigned: 5, TotalInQueue: 12}, nil)

		ctx := postCtx("/api/v1/outreach/assign", `{"chapter_id":"ch1"}`)
		h.Assign(ctx)

		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
		env := decodeResponse(t, ctx)
		require.Nil(t, env.Error)

		var result model.AssignResult
		require.NoError(t, json.Unmarshal(env.Data, &result))
		assert.Equal(t, 5, result.QueueAssigned)
		assert.Equal(t, 12, result.TotalInQueue)
	})

	t.Run("invalid json", func(t *testing.T) {
		h := NewOutreachHandler(new(MockOutreachProvider))
		ctx := postCtx("/api/v1/outreach/assign", `{`)
		h.Assign(ctx)

		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
		env := decodeResponse(t, ctx)
		require.NotNil(t, env.Error)
		assert.Equal(t, CodeValidationError, env.Error.Code)
	})

	t.Run("missing chapter", func(t *testing.T) {
		h := NewOutreachHandler(new(MockOutreachProvider))
		ctx := postCtx("/api/v1/outreach/assign", `{}`)
		h.Assign(ctx)

		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	})
}

func TestOutreachHandler_Report_ErrorMapping(t *testing.T) {
	t.Run("unknown entry", func(t *testing.T) {
		provider := new(MockOutreachProvider)
		h := NewOutreachHandler(provider)
		provider.On("MarkEntry", mock.Anything, mock.Anything).Return(nil, services.ErrEntryNotFound)

		ctx := postCtx("/api/v1/outreach/report", `{"queue_id":9,"status":"sent"}`)
		h.Report(ctx)

		assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
		env := decodeResponse(t, ctx)
		require.NotNil(t, env.Error)
		assert.Equal(t, CodeNotFound, env.Error.Code)
	})

	t.Run("already settled", func(t *testing.T) {
		provider := new(MockOutreachProvider)
		h := NewOutreachHandler(provider)
		provider.On("MarkEntry", mock.Anything, mock.Anything).Return(nil, services.ErrEntryNotPending)

		ctx := postCtx("/api/v1/outreach/report", `{"queue_id":9,"status":"sent"}`)
		h.Report(ctx)

		assert.Equal(t, fasthttp.StatusConflict, ctx.Response.StatusCode())
		env := decodeResponse(t, ctx)
		require.NotNil(t, env.Error)
		assert.Equal(t, CodeInvalidState, env.Error.Code)
	})

	t.Run("bad status value", func(t *testing.T) {
		h := NewOutreachHandler(new(MockOutreachProvider))
		ctx := postCtx("/api/v1/outreach/report", `{"queue_id":9,"status":"pending"}`)
		h.Report(ctx)

		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	})
}

func TestOutreachHandler_Queue(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		provider := new(MockOutreachProvider)
		h := NewOutreachHandler(provider)
		provider.On("GetQueue", mock.Anything, "ch1", 2).
			Return(&model.QueueResult{Queue: []*model.QueueEntryWithContact{}, CurrentDay: 3}, nil)

		ctx := getCtx("/api/v1/outreach/queue?chapter_id=ch1&line_number=2")
		h.Queue(ctx)

		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
		var result model.QueueResult
		env := decodeResponse(t, ctx)
		require.NoError(t, json.Unmarshal(env.Data, &result))
		assert.Equal(t, int64(3), result.CurrentDay)
	})

	t.Run("missing chapter", func(t *testing.T) {
		h := NewOutreachHandler(new(MockOutreachProvider))
		ctx := getCtx("/api/v1/outreach/queue?line_number=2")
		h.Queue(ctx)

		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	})

	t.Run("unknown line", func(t *testing.T) {
		provider := new(MockOutreachProvider)
		h := NewOutreachHandler(provider)
		provider.On("GetQueue", mock.Anything, "ch1", 9).Return(nil, services.ErrUnknownLine)

		ctx := getCtx("/api/v1/outreach/queue?chapter_id=ch1&line_number=9")
		h.Queue(ctx)

		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
		env := decodeResponse(t, ctx)
		require.NotNil(t, env.Error)
		assert.Equal(t, CodeValidationError, env.Error.Code)
	})
}

func TestOutreachHandler_SendBatch_ServerError(t *testing.T) {
	provider := new(MockOutreachProvider)
	h := NewOutreachHandler(provider)
	provider.On("SendBatch", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	body := `{"chapter_id":"ch1","touch":1,"sender_name":"Jake","school":"Alabama","fraternity":"Phi Delta Theta","batch_size":10}`
	ctx := postCtx("/api/v1/outreach/send-batch", body)
	h.SendBatch(ctx)

	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
	env := decodeResponse(t, ctx)
	require.NotNil(t, env.Error)
	assert.Equal(t, CodeServerError, env.Error.Code)
}

func TestOutreachHandler_VerifyIMessage(t *testing.T) {
	provider := new(MockOutreachProvider)
	h := NewOutreachHandler(provider)
	provider.On("VerifyIMessage", mock.Anything, "ch1", 25).
		Return(&model.VerifyResult{TotalChecked: 25, IMessage: 20, SMS: 4, Errors: 1}, nil)

	ctx := postCtx("/api/v1/outreach/verify-imessage", `{"chapter_id":"ch1","limit":25}`)
	h.VerifyIMessage(ctx)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var result model.VerifyResult
	env := decodeResponse(t, ctx)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 20, result.IMessage)
}

func TestOutreachHandler_Dashboard(t *testing.T) {
	provider := new(MockOutreachProvider)
	h := NewOutreachHandler(provider)
	provider.On("Dashboard", mock.Anything, "ch1").
		Return(&model.DashboardSnapshot{Total: 10, Pending: 4}, nil)

	ctx := getCtx("/api/v1/outreach/dashboard?chapter_id=ch1")
	h.Dashboard(ctx)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var snap model.DashboardSnapshot
	env := decodeResponse(t, ctx)
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, int64(10), snap.Total)
	assert.Equal(t, int64(4), snap.Pending)
}
