// Package ingest orchestrates idempotent batch imports of externally
// published communications.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ramonvasc/comunicahub/internal/models"
	"github.com/ramonvasc/comunicahub/internal/registry"
	"github.com/ramonvasc/comunicahub/internal/services"
	"github.com/ramonvasc/comunicahub/pkg/logger"
	"github.com/ramonvasc/comunicahub/pkg/metrics"
)

// Summary aggregates the outcome of one batch import.
type Summary struct {
	Saved   int `json:"saved"`
	Skipped int `json:"skipped"`
}

// Seed carries the registry snapshots used to prime the matcher caches before
// a batch runs.
type Seed struct {
	Processes []models.Process
	Clients   []models.Client
}

// errDuplicate marks the expected idempotent no-op outcome.
var errDuplicate = errors.New("duplicate hash")

// Pipeline imports external records one at a time: dedupe by hash, resolve
// process and client links, persist the communication and its child records.
// Records are processed sequentially; batches are bounded by the feed's page
// size and a single malformed record never aborts the batch.
type Pipeline struct {
	db      *gorm.DB
	comms   *services.CommunicationService
	matcher *registry.Matcher
	log     *zap.Logger
}

// NewPipeline constructs a Pipeline.
func NewPipeline(db *gorm.DB, comms *services.CommunicationService, matcher *registry.Matcher) (*Pipeline, error) {
	if db == nil {
		return nil, errors.New("ingest pipeline: db is required")
	}
	if comms == nil {
		return nil, errors.New("ingest pipeline: communication service is required")
	}
	if matcher == nil {
		return nil, errors.New("ingest pipeline: registry matcher is required")
	}
	return &Pipeline{
		db:      db,
		comms:   comms,
		matcher: matcher,
		log:     logger.WithModule("ingest"),
	}, nil
}

// IngestBatch runs one batch to completion and returns aggregate counts. All
// per-record failures are caught, counted as skips and logged; the batch is
// safe to retry wholesale since stored hashes turn into skips on the rerun.
func (p *Pipeline) IngestBatch(ctx context.Context, records []ExternalRecord, seed Seed) Summary {
	if ctx == nil {
		ctx = context.Background()
	}

	startedAt := time.Now().UTC()
	p.matcher.Seed(seed.Processes, seed.Clients)

	var summary Summary
	var failures []map[string]any

	for i := range records {
		record := records[i]

		err := p.ingestOne(ctx, record)
		switch {
		case err == nil:
			summary.Saved++
			metrics.IngestedRecords.WithLabelValues("saved").Inc()
		case errors.Is(err, errDuplicate):
			summary.Skipped++
			metrics.IngestedRecords.WithLabelValues("skipped").Inc()
		default:
			summary.Skipped++
			metrics.IngestedRecords.WithLabelValues("skipped").Inc()
			failures = append(failures, map[string]any{
				"hash":        record.Hash,
				"external_id": record.ExternalID,
				"reason":      err.Error(),
			})
			p.log.Warn("record skipped",
				zap.String("hash", record.Hash),
				zap.Int64("external_id", record.ExternalID),
				zap.Error(err),
			)
		}
	}

	metrics.IngestionBatches.Inc()
	p.recordRun(ctx, startedAt, summary, failures)

	p.log.Info("batch ingested",
		zap.Int("records", len(records)),
		zap.Int("saved", summary.Saved),
		zap.Int("skipped", summary.Skipped),
	)
	return summary
}

func (p *Pipeline) ingestOne(ctx context.Context, record ExternalRecord) error {
	if err := record.validate(); err != nil {
		return fmt.Errorf("malformed record: %w", err)
	}

	existing, err := p.comms.FindByHash(ctx, record.Hash)
	if err != nil {
		return err
	}
	if existing != nil {
		return errDuplicate
	}

	payload := services.UpsertCommunicationInput{
		ExternalID:    record.ExternalID,
		Hash:          record.Hash,
		ProcessNumber: record.ProcessNumber,
		TribunalCode:  record.TribunalCode,
		OrganName:     record.OrganName,
		Text:          record.Text,
		Kind:          record.Kind,
		Medium:        record.Medium,
		PublishedAt:   record.PublishedAt,
		ExternalLink:  record.ExternalLink,
	}

	// Process codes are less ambiguous than free-text names, so the process
	// match runs first and its owning client short-circuits name matching.
	match, found, err := p.matcher.MatchProcess(ctx, record.ProcessNumber)
	if err != nil {
		return fmt.Errorf("match process: %w", err)
	}
	if found {
		payload.ProcessID = &match.ProcessID
		if match.ClientID != "" {
			clientID := match.ClientID
			payload.ClientID = &clientID
		}
	}

	if payload.ClientID == nil {
		clientID, found, err := p.matcher.MatchClient(ctx, record.RecipientNames())
		if err != nil {
			return fmt.Errorf("match client: %w", err)
		}
		if found {
			payload.ClientID = &clientID
		}
	}

	comm, err := p.comms.Upsert(ctx, payload)
	if err != nil {
		return err
	}

	// Child writes are independent of the parent: a failure leaves the parent
	// in a degraded-but-valid state and never fails the record.
	for _, lawyer := range record.Lawyers {
		if err := p.comms.AddLawyer(ctx, comm.ID, lawyer.Name); err != nil {
			p.log.Warn("lawyer record dropped",
				zap.String("communication_id", comm.ID),
				zap.Error(err),
			)
		}
	}
	for _, party := range record.Recipients {
		if err := p.comms.AddRecipient(ctx, comm.ID, services.RecipientInput{
			Name:  party.Name,
			Pole:  party.Pole,
			TaxID: party.TaxID,
		}); err != nil {
			p.log.Warn("recipient record dropped",
				zap.String("communication_id", comm.ID),
				zap.Error(err),
			)
		}
	}

	return nil
}

func (p *Pipeline) recordRun(ctx context.Context, startedAt time.Time, summary Summary, failures []map[string]any) {
	run := models.IngestionRun{
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
		Saved:      summary.Saved,
		Skipped:    summary.Skipped,
	}

	if len(failures) > 0 {
		if detail, err := json.Marshal(map[string]any{"failures": failures}); err == nil {
			run.Detail = datatypes.JSON(detail)
		}
	}

	if err := p.db.WithContext(ctx).Create(&run).Error; err != nil {
		p.log.Warn("ingestion run not recorded", zap.Error(err))
	}
}
