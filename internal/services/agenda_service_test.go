package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ramonvasc/comunicahub/internal/database/testutil"
	"github.com/ramonvasc/comunicahub/internal/models"
)

func TestDeadlineService_ListPendingWindow(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewDeadlineService(db)
	require.NoError(t, err)

	now := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	rows := []models.Deadline{
		{Title: "overdue", DueAt: now.AddDate(0, 0, -1), Status: models.DeadlineStatusPending},
		{Title: "soon", DueAt: now.AddDate(0, 0, 3), Status: models.DeadlineStatusPending},
		{Title: "late", DueAt: now.AddDate(0, 0, 20), Status: models.DeadlineStatusPending},
		{Title: "done", DueAt: now.AddDate(0, 0, 2), Status: models.DeadlineStatusDone},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	pending, err := svc.ListPending(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, "overdue", pending[0].Title) // due_at ASC
	require.Equal(t, "soon", pending[1].Title)
}

func TestAppointmentService_ListUpcomingWindow(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewAppointmentService(db)
	require.NoError(t, err)

	now := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	rows := []models.Appointment{
		{Title: "past", StartsAt: now.AddDate(0, 0, -1)},
		{Title: "tomorrow", StartsAt: now.AddDate(0, 0, 1)},
		{Title: "next-month", StartsAt: now.AddDate(0, 1, 0)},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	upcoming, err := svc.ListUpcoming(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	require.Equal(t, "tomorrow", upcoming[0].Title)
}
