package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trailblaize/outreach-engine/internal/model"
	"github.com/valyala/fasthttp"
)

type MockContactImporter struct {
	mock.Mock
}

func (m *MockContactImporter) Import(ctx context.Context, params model.ImportRequest) (*model.ImportResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImportResult), args.Error(1)
}

func TestContactsHandler_Import(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		importer := new(MockContactImporter)
		h := NewContactsHandler(importer)
		importer.On("Import", mock.Anything, mock.Anything).Return(&model.ImportResult{
			Imported:      3,
			Skipped:       1,
			Duplicates:    1,
			QueueAssigned: 3,
			Errors:        []model.RowError{{Row: 2, Message: "Invalid phone number: 555"}},
		}, nil)

		body := `{"chapter_id":"ch1","rows":[{"first_name":"Jake","phone":"2055550001"}]}`
		ctx := postCtx("/api/v1/contacts/import", body)
		h.Import(ctx)

		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
		var result model.ImportResult
		env := decodeResponse(t, ctx)
		require.NoError(t, json.Unmarshal(env.Data, &result))
		assert.Equal(t, 3, result.Imported)
		assert.Equal(t, 3, result.QueueAssigned)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, 2, result.Errors[0].Row)
	})

	t.Run("empty rows rejected", func(t *testing.T) {
		h := NewContactsHandler(new(MockContactImporter))
		ctx := postCtx("/api/v1/contacts/import", `{"chapter_id":"ch1","rows":[]}`)
		h.Import(ctx)

		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
		env := decodeResponse(t, ctx)
		require.NotNil(t, env.Error)
		assert.Equal(t, CodeValidationError, env.Error.Code)
	})
}
