package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ramonvasc/comunicahub/internal/database/testutil"
	"github.com/ramonvasc/comunicahub/internal/models"
)

func TestCommunicationService_UpsertIsIdempotent(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewCommunicationService(db)
	require.NoError(t, err)
	ctx := context.Background()

	input := UpsertCommunicationInput{
		ExternalID:    42,
		Hash:          "hash-42",
		ProcessNumber: "0001234-56.2024.8.11.0000",
		TribunalCode:  "TJMT",
		OrganName:     "1a Vara Civel",
		Text:          "Intimacao para audiencia",
		Kind:          "intimation",
		PublishedAt:   time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}

	first, err := svc.Upsert(ctx, input)
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	require.Equal(t, "000123456202481100000", first.ProcessNumberDigits)
	require.Equal(t, models.MediumDiary, first.Medium)

	second, err := svc.Upsert(ctx, input)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.Communication{}).Where("hash = ?", "hash-42").Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCommunicationService_UpsertUpdatesOnlyProvidedLinks(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewCommunicationService(db)
	require.NoError(t, err)
	ctx := context.Background()

	processID := "proc-1"
	clientID := "client-1"

	first, err := svc.Upsert(ctx, UpsertCommunicationInput{
		ExternalID: 1,
		Hash:       "hash-links",
		Text:       "original text",
		ClientID:   &clientID,
	})
	require.NoError(t, err)
	require.Nil(t, first.ProcessID)
	require.Equal(t, "client-1", *first.ClientID)

	// Redelivery resolving a process: the process link lands, the client link
	// and the record body stay untouched.
	second, err := svc.Upsert(ctx, UpsertCommunicationInput{
		ExternalID: 1,
		Hash:       "hash-links",
		Text:       "different text that must not overwrite",
		ProcessID:  &processID,
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "proc-1", *second.ProcessID)
	require.Equal(t, "client-1", *second.ClientID)
	require.Equal(t, "original text", second.Text)
}

func TestCommunicationService_FindByHashAbsenceIsNil(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewCommunicationService(db)
	require.NoError(t, err)

	comm, err := svc.FindByHash(context.Background(), "never-seen")
	require.NoError(t, err)
	require.Nil(t, comm)
}

func TestCommunicationService_ListOrderingAndFilters(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewCommunicationService(db)
	require.NoError(t, err)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	clientID := "client-7"

	older, err := svc.Upsert(ctx, UpsertCommunicationInput{
		ExternalID: 1, Hash: "h-old", PublishedAt: base,
	})
	require.NoError(t, err)
	newer, err := svc.Upsert(ctx, UpsertCommunicationInput{
		ExternalID: 2, Hash: "h-new", PublishedAt: base.AddDate(0, 0, 3), ClientID: &clientID,
	})
	require.NoError(t, err)

	all, err := svc.List(ctx, CommunicationFilters{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, newer.ID, all[0].ID) // published_at DESC
	require.Equal(t, older.ID, all[1].ID)

	byClient, err := svc.List(ctx, CommunicationFilters{ClientID: "client-7"})
	require.NoError(t, err)
	require.Len(t, byClient, 1)
	require.Equal(t, newer.ID, byClient[0].ID)

	require.NoError(t, svc.MarkRead(ctx, newer.ID))

	unread, err := svc.ListUnread(ctx, CommunicationFilters{})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	require.Equal(t, older.ID, unread[0].ID)
}

func TestCommunicationService_MarkManyReadIsOneWrite(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewCommunicationService(db)
	require.NoError(t, err)
	ctx := context.Background()

	a, err := svc.Upsert(ctx, UpsertCommunicationInput{ExternalID: 1, Hash: "h-a"})
	require.NoError(t, err)
	b, err := svc.Upsert(ctx, UpsertCommunicationInput{ExternalID: 2, Hash: "h-b"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkManyRead(ctx, []string{a.ID, b.ID}))

	unread, err := svc.ListUnread(ctx, CommunicationFilters{})
	require.NoError(t, err)
	require.Empty(t, unread)
}

func TestCommunicationService_ChildRecords(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewCommunicationService(db)
	require.NoError(t, err)
	ctx := context.Background()

	comm, err := svc.Upsert(ctx, UpsertCommunicationInput{ExternalID: 5, Hash: "h-children"})
	require.NoError(t, err)

	require.NoError(t, svc.AddLawyer(ctx, comm.ID, "Dr. Carlos Pereira"))
	require.NoError(t, svc.AddRecipient(ctx, comm.ID, RecipientInput{
		Name: "Maria da Silva", Pole: models.PolePassive, TaxID: "123.456.789-00",
	}))
	require.Error(t, svc.AddRecipient(ctx, comm.ID, RecipientInput{Name: "  "}))

	loaded, err := svc.Get(ctx, comm.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Lawyers, 1)
	require.Len(t, loaded.Recipients, 1)
	require.Equal(t, models.PolePassive, loaded.Recipients[0].Pole)
}

func TestCommunicationService_ManualLinking(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewCommunicationService(db)
	require.NoError(t, err)
	ctx := context.Background()

	comm, err := svc.Upsert(ctx, UpsertCommunicationInput{ExternalID: 6, Hash: "h-manual"})
	require.NoError(t, err)
	require.Nil(t, comm.ProcessID)

	processID := "proc-manual"
	updated, err := svc.Update(ctx, comm.ID, UpdateCommunicationInput{ProcessID: &processID})
	require.NoError(t, err)
	require.Equal(t, "proc-manual", *updated.ProcessID)
	require.False(t, updated.Read)
}

func TestCommunicationService_ListUnreadIsUncapped(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewCommunicationService(db)
	require.NoError(t, err)
	ctx := context.Background()

	rows := make([]models.Communication, 0, 120)
	for i := 0; i < 120; i++ {
		rows = append(rows, models.Communication{
			ExternalID:  int64(i + 1),
			Hash:        fmt.Sprintf("hash-backlog-%d", i),
			PublishedAt: time.Now().UTC().Add(-time.Duration(i) * time.Minute),
			Active:      true,
		})
	}
	require.NoError(t, db.CreateInBatches(rows, 40).Error)

	unread, err := svc.ListUnread(ctx, CommunicationFilters{})
	require.NoError(t, err)
	require.Len(t, unread, 120)

	// The paged listing keeps its default cap.
	page, err := svc.List(ctx, CommunicationFilters{})
	require.NoError(t, err)
	require.Len(t, page, 100)
}
