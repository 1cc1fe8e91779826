package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ramonvasc/comunicahub/internal/models"
)

// DeadlineService reads the deadlines registry. The registry itself is owned
// by an external collaborator; this core only queries it.
type DeadlineService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDeadlineService constructs a DeadlineService.
func NewDeadlineService(db *gorm.DB) (*DeadlineService, error) {
	if db == nil {
		return nil, errors.New("deadline service: db is required")
	}
	return &DeadlineService{db: db, now: time.Now}, nil
}

// ListPending returns pending deadlines due within the window, soonest first.
// Overdue pending deadlines are included: they are still actionable.
func (s *DeadlineService) ListPending(ctx context.Context, windowDays int) ([]models.Deadline, error) {
	ctx = ensureContext(ctx)
	if windowDays <= 0 {
		windowDays = 7
	}

	horizon := s.now().AddDate(0, 0, windowDays)

	var rows []models.Deadline
	err := s.db.WithContext(ctx).
		Where("status = ? AND due_at <= ?", models.DeadlineStatusPending, horizon).
		Order("due_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("deadline service: list pending: %w", err)
	}
	return rows, nil
}

// AppointmentService reads the appointments registry.
type AppointmentService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAppointmentService constructs an AppointmentService.
func NewAppointmentService(db *gorm.DB) (*AppointmentService, error) {
	if db == nil {
		return nil, errors.New("appointment service: db is required")
	}
	return &AppointmentService{db: db, now: time.Now}, nil
}

// ListUpcoming returns appointments starting within [now, now+windowDays].
func (s *AppointmentService) ListUpcoming(ctx context.Context, windowDays int) ([]models.Appointment, error) {
	ctx = ensureContext(ctx)
	if windowDays <= 0 {
		windowDays = 7
	}

	now := s.now()
	horizon := now.AddDate(0, 0, windowDays)

	var rows []models.Appointment
	err := s.db.WithContext(ctx).
		Where("starts_at >= ? AND starts_at <= ?", now, horizon).
		Order("starts_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("appointment service: list upcoming: %w", err)
	}
	return rows, nil
}
