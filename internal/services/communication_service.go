package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ramonvasc/comunicahub/internal/models"
	"github.com/ramonvasc/comunicahub/internal/normalize"
	apperrors "github.com/ramonvasc/comunicahub/pkg/errors"
)

// UpsertCommunicationInput defines the attributes of one ingested notice.
// ProcessID and ClientID are applied only when non-nil: re-ingesting an
// already stored hash never clears an existing link.
type UpsertCommunicationInput struct {
	ExternalID    int64
	Hash          string
	ProcessNumber string
	TribunalCode  string
	OrganName     string
	Text          string
	Kind          string
	Medium        string
	PublishedAt   time.Time
	ExternalLink  string
	ProcessID     *string
	ClientID      *string
}

// UpdateCommunicationInput defines a partial update; nil fields are left
// untouched.
type UpdateCommunicationInput struct {
	ProcessID *string
	ClientID  *string
	Read      *bool
}

// RecipientInput describes one party named on a notice.
type RecipientInput struct {
	Name  string
	Pole  string
	TaxID string
}

// CommunicationFilters narrows listing queries. Limit zero selects the
// default page size; a negative Limit disables the cap entirely.
type CommunicationFilters struct {
	Read      *bool
	ClientID  string
	ProcessID string
	Limit     int
}

// CommunicationService provides CRUD and idempotent upsert-by-hash over the
// communications table and its two child collections.
type CommunicationService struct {
	db *gorm.DB
}

// NewCommunicationService constructs a CommunicationService.
func NewCommunicationService(db *gorm.DB) (*CommunicationService, error) {
	if db == nil {
		return nil, errors.New("communication service: db is required")
	}
	return &CommunicationService{db: db}, nil
}

// FindByHash returns the active communication carrying the supplied hash, or
// nil when none exists. Absence is not an error.
func (s *CommunicationService) FindByHash(ctx context.Context, hash string) (*models.Communication, error) {
	ctx = ensureContext(ctx)
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return nil, errors.New("communication service: hash is required")
	}

	var comm models.Communication
	err := s.db.WithContext(ctx).
		Where("hash = ? AND active = ?", hash, true).
		Take(&comm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("communication service: find by hash: %w", err)
	}
	return &comm, nil
}

// Upsert inserts the communication, or, when the hash already exists, updates
// only the link fields explicitly present in the input. The conflict is
// resolved atomically on the unique hash column, which keeps the operation
// idempotent under at-least-once redelivery.
func (s *CommunicationService) Upsert(ctx context.Context, input UpsertCommunicationInput) (*models.Communication, error) {
	ctx = ensureContext(ctx)

	hash := strings.TrimSpace(input.Hash)
	if hash == "" {
		return nil, errors.New("communication service: hash is required")
	}

	comm := models.Communication{
		ExternalID:          input.ExternalID,
		Hash:                hash,
		ProcessNumber:       strings.TrimSpace(input.ProcessNumber),
		ProcessNumberDigits: normalize.ProcessNumber(input.ProcessNumber),
		TribunalCode:        strings.TrimSpace(input.TribunalCode),
		OrganName:           strings.TrimSpace(input.OrganName),
		Text:                input.Text,
		Kind:                strings.TrimSpace(input.Kind),
		Medium:              defaultIfEmpty(input.Medium, models.MediumDiary),
		PublishedAt:         input.PublishedAt,
		ExternalLink:        strings.TrimSpace(input.ExternalLink),
		ProcessID:           input.ProcessID,
		ClientID:            input.ClientID,
		Active:              true,
	}

	var linkColumns []string
	if input.ProcessID != nil {
		linkColumns = append(linkColumns, "process_id")
	}
	if input.ClientID != nil {
		linkColumns = append(linkColumns, "client_id")
	}

	onConflict := clause.OnConflict{Columns: []clause.Column{{Name: "hash"}}}
	if len(linkColumns) > 0 {
		onConflict.DoUpdates = clause.AssignmentColumns(append(linkColumns, "updated_at"))
	} else {
		onConflict.DoNothing = true
	}

	if err := s.db.WithContext(ctx).Clauses(onConflict).Create(&comm).Error; err != nil {
		return nil, fmt.Errorf("communication service: upsert: %w", err)
	}

	// Re-read the canonical row; on conflict the in-memory struct carries a
	// discarded id.
	stored, err := s.FindByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("communication service: upsert: row for hash %q not visible after write", hash)
	}
	return stored, nil
}

// Get loads one communication with its child collections.
func (s *CommunicationService) Get(ctx context.Context, id string) (*models.Communication, error) {
	ctx = ensureContext(ctx)

	var comm models.Communication
	err := s.db.WithContext(ctx).
		Preload("Lawyers").
		Preload("Recipients").
		Take(&comm, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("communication service: get: %w", err)
	}
	return &comm, nil
}

// Update applies a partial update, used for mark-as-read and manual linking.
func (s *CommunicationService) Update(ctx context.Context, id string, input UpdateCommunicationInput) (*models.Communication, error) {
	ctx = ensureContext(ctx)

	changes := map[string]any{}
	if input.ProcessID != nil {
		changes["process_id"] = *input.ProcessID
	}
	if input.ClientID != nil {
		changes["client_id"] = *input.ClientID
	}
	if input.Read != nil {
		changes["read"] = *input.Read
		if *input.Read {
			changes["read_at"] = time.Now().UTC()
		} else {
			changes["read_at"] = nil
		}
	}
	if len(changes) == 0 {
		return s.Get(ctx, id)
	}

	result := s.db.WithContext(ctx).
		Model(&models.Communication{}).
		Where("id = ?", id).
		Updates(changes)
	if result.Error != nil {
		return nil, fmt.Errorf("communication service: update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrNotFound
	}

	return s.Get(ctx, id)
}

// MarkRead sets the read flag on one communication.
func (s *CommunicationService) MarkRead(ctx context.Context, id string) error {
	read := true
	_, err := s.Update(ctx, id, UpdateCommunicationInput{Read: &read})
	return err
}

// MarkManyRead sets the read flag on a batch of communications in one write.
func (s *CommunicationService) MarkManyRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).
		Model(&models.Communication{}).
		Where("id IN ? AND read = ?", ids, false).
		Updates(map[string]any{
			"read":    true,
			"read_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("communication service: mark many read: %w", err)
	}
	return nil
}

// ListUnread returns every unread active communication, newest publication
// first. The result is uncapped: feed assembly and mark-all-read have to see
// the whole unread backlog, not a page of it.
func (s *CommunicationService) ListUnread(ctx context.Context, filters CommunicationFilters) ([]models.Communication, error) {
	unread := false
	filters.Read = &unread
	filters.Limit = -1
	return s.List(ctx, filters)
}

// List returns active communications matching the filters, ordered by
// publication timestamp descending.
func (s *CommunicationService) List(ctx context.Context, filters CommunicationFilters) ([]models.Communication, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).
		Model(&models.Communication{}).
		Where("active = ?", true)
	query = applyCommunicationFilters(query, filters)

	limit := filters.Limit
	if limit == 0 || limit > 500 {
		limit = 100
	}

	query = query.Order("published_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.Communication
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("communication service: list: %w", err)
	}
	return rows, nil
}

// AddLawyer writes one lawyer child record tied to the parent communication.
// The write is independent of the parent transaction.
func (s *CommunicationService) AddLawyer(ctx context.Context, communicationID, name string) error {
	ctx = ensureContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("communication service: lawyer name is required")
	}

	lawyer := models.CommunicationLawyer{
		CommunicationID: communicationID,
		Name:            name,
	}
	if err := s.db.WithContext(ctx).Create(&lawyer).Error; err != nil {
		return fmt.Errorf("communication service: add lawyer: %w", err)
	}
	return nil
}

// AddRecipient writes one recipient child record tied to the parent
// communication.
func (s *CommunicationService) AddRecipient(ctx context.Context, communicationID string, input RecipientInput) error {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return errors.New("communication service: recipient name is required")
	}

	recipient := models.CommunicationRecipient{
		CommunicationID: communicationID,
		Name:            name,
		Pole:            strings.TrimSpace(input.Pole),
		TaxID:           strings.TrimSpace(input.TaxID),
	}
	if err := s.db.WithContext(ctx).Create(&recipient).Error; err != nil {
		return fmt.Errorf("communication service: add recipient: %w", err)
	}
	return nil
}

func applyCommunicationFilters(query *gorm.DB, filters CommunicationFilters) *gorm.DB {
	if filters.Read != nil {
		query = query.Where("read = ?", *filters.Read)
	}
	if filters.ClientID != "" {
		query = query.Where("client_id = ?", filters.ClientID)
	}
	if filters.ProcessID != "" {
		query = query.Where("process_id = ?", filters.ProcessID)
	}
	return query
}
