package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trailblaize/outreach-engine/internal/model"
)

func seedContact(t *testing.T, db *testDB, entity *ContactEntity) *ContactEntity {
	t.Helper()
	require.NoError(t, db.rawDB.Create(entity).Error)
	return entity
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestContactRepository_AdvanceStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContactRepository(db.DB)
	ctx := context.Background()

	t.Run("moves forward", func(t *testing.T) {
		c := seedContact(t, db, &ContactEntity{ChapterID: "ch1", FirstName: "A", LastName: "B", OutreachStatus: "not_contacted"})

		require.NoError(t, repo.AdvanceStatus(ctx, c.ID, model.OutreachStatusVerified))
		got, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OutreachStatusVerified, got.OutreachStatus)
	})

	t.Run("never moves backward", func(t *testing.T) {
		c := seedContact(t, db, &ContactEntity{ChapterID: "ch1", FirstName: "A", LastName: "B", OutreachStatus: "responded"})

		require.NoError(t, repo.AdvanceStatus(ctx, c.ID, model.OutreachStatusVerified))
		got, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OutreachStatusResponded, got.OutreachStatus)
	})

	t.Run("signed_up is sticky", func(t *testing.T) {
		c := seedContact(t, db, &ContactEntity{ChapterID: "ch1", FirstName: "A", LastName: "B", OutreachStatus: "signed_up"})

		require.NoError(t, repo.AdvanceStatus(ctx, c.ID, model.OutreachStatusOptedOut))
		got, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OutreachStatusSignedUp, got.OutreachStatus)
	})

	t.Run("set status forces a side exit", func(t *testing.T) {
		c := seedContact(t, db, &ContactEntity{ChapterID: "ch1", FirstName: "A", LastName: "B", OutreachStatus: "responded"})

		require.NoError(t, repo.SetStatus(ctx, c.ID, model.OutreachStatusWrongNumber))
		got, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OutreachStatusWrongNumber, got.OutreachStatus)
	})
}

func TestContactRepository_MarkTouchSent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContactRepository(db.DB)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("touch one verifies", func(t *testing.T) {
		c := seedContact(t, db, &ContactEntity{ChapterID: "ch1", FirstName: "A", LastName: "B", OutreachStatus: "not_contacted"})

		require.NoError(t, repo.MarkTouchSent(ctx, c.ID, 1, "chat_1", now))
		got, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OutreachStatusVerified, got.OutreachStatus)
		require.NotNil(t, got.Touch1SentAt)
		require.NotNil(t, got.ChatID)
		assert.Equal(t, "chat_1", *got.ChatID)
	})

	t.Run("touch two pitches", func(t *testing.T) {
		c := seedContact(t, db, &ContactEntity{ChapterID: "ch1", FirstName: "A", LastName: "B", OutreachStatus: "verified"})

		require.NoError(t, repo.MarkTouchSent(ctx, c.ID, 2, "chat_2", now))
		got, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OutreachStatusPitched, got.OutreachStatus)
		assert.NotNil(t, got.Touch2SentAt)
	})

	t.Run("touch three keeps status", func(t *testing.T) {
		c := seedContact(t, db, &ContactEntity{ChapterID: "ch1", FirstName: "A", LastName: "B", OutreachStatus: "pitched"})

		require.NoError(t, repo.MarkTouchSent(ctx, c.ID, 3, "chat_3", now))
		got, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OutreachStatusPitched, got.OutreachStatus)
		assert.NotNil(t, got.Touch3SentAt)
	})

	t.Run("unknown contact", func(t *testing.T) {
		err := repo.MarkTouchSent(ctx, 99999, 1, "chat_x", now)
		assert.ErrorIs(t, err, ErrContactNotFound)
	})
}

func TestContactRepository_RecordResponse(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContactRepository(db.DB)
	ctx := context.Background()

	c := seedContact(t, db, &ContactEntity{ChapterID: "ch1", FirstName: "A", LastName: "B", OutreachStatus: "pitched"})

	respondedAt := time.Now().UTC().Truncate(time.Second)
	err := repo.RecordResponse(ctx, c.ID, "yes that's me", model.ClassificationConfirmed, respondedAt, model.OutreachStatusResponded)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OutreachStatusResponded, got.OutreachStatus)
	require.NotNil(t, got.ResponseText)
	assert.Equal(t, "yes that's me", *got.ResponseText)
	require.NotNil(t, got.ResponseClassification)
	assert.Equal(t, "confirmed", *got.ResponseClassification)
	require.NotNil(t, got.LastResponseAt)
}

func TestContactRepository_SetVerification(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContactRepository(db.DB)
	ctx := context.Background()

	c := seedContact(t, db, &ContactEntity{ChapterID: "ch1", FirstName: "A", LastName: "B", PhonePrimary: strPtr("+12055550001"), OutreachStatus: "not_contacted"})

	require.NoError(t, repo.SetVerification(ctx, c.ID, true, "chat_v"))

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.IsIMessage)
	assert.True(t, *got.IsIMessage)
	require.NotNil(t, got.ChatID)
	assert.Equal(t, "chat_v", *got.ChatID)

	assert.ErrorIs(t, repo.SetVerification(ctx, 99999, false, "x"), ErrContactNotFound)
}

func TestContactRepository_Candidates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContactRepository(db.DB)
	ctx := context.Background()

	unresolved := seedContact(t, db, &ContactEntity{ChapterID: "ch1", FirstName: "A", LastName: "B", PhonePrimary: strPtr("+12055550001"), OutreachStatus: "not_contacted"})
	seedContact(t, db, &ContactEntity{ChapterID: "ch1", FirstName: "C", LastName: "D", PhonePrimary: strPtr("+12055550002"), IsIMessage: boolPtr(true), OutreachStatus: "verified"})
	seedContact(t, db, &ContactEntity{ChapterID: "ch1", FirstName: "E", LastName: "F", OutreachStatus: "not_contacted"})

	t.Run("verify candidates", func(t *testing.T) {
		got, err := repo.ListVerifyCandidates(ctx, "ch1", 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, unresolved.ID, got[0].ID)
	})

	polled := seedContact(t, db, &ContactEntity{ChapterID: "ch1", FirstName: "G", LastName: "H", PhonePrimary: strPtr("+12055550003"), ChatID: strPtr("chat_p"), OutreachStatus: "pitched"})
	seedContact(t, db, &ContactEntity{ChapterID: "ch1", FirstName: "I", LastName: "J", PhonePrimary: strPtr("+12055550004"), ChatID: strPtr("chat_q"), OutreachStatus: "opted_out"})

	t.Run("poll candidates skip terminal and chatless", func(t *testing.T) {
		got, err := repo.ListPollCandidates(ctx, "ch1", 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, polled.ID, got[0].ID)
	})
}

func TestContactRepository_ImportSupport(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContactRepository(db.DB)
	ctx := context.Background()

	seedContact(t, db, &ContactEntity{ChapterID: "ch1", FirstName: "A", LastName: "B", PhonePrimary: strPtr("+12055550001"), OutreachStatus: "not_contacted"})

	phones, err := repo.ExistingPhones(ctx, "ch1")
	require.NoError(t, err)
	assert.True(t, phones["+12055550001"])
	assert.False(t, phones["+12055550002"])

	phone := "+12055550002"
	inserted, err := repo.InsertBatch(ctx, []*model.Contact{{
		ChapterID:      "ch1",
		FirstName:      "New",
		LastName:       "Guy",
		PhonePrimary:   &phone,
		OutreachStatus: model.OutreachStatusNotContacted,
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	phones, err = repo.ExistingPhones(ctx, "ch1")
	require.NoError(t, err)
	assert.True(t, phones["+12055550002"])
}
