// Package feed assembles the unified notification feed from unread
// communications, pending deadlines and upcoming appointments.
package feed

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ramonvasc/comunicahub/internal/models"
	"github.com/ramonvasc/comunicahub/internal/services"
	apperrors "github.com/ramonvasc/comunicahub/pkg/errors"
	"github.com/ramonvasc/comunicahub/pkg/logger"
	"github.com/ramonvasc/comunicahub/pkg/metrics"
)

// ErrSuperseded signals that a newer aggregation started while this one was
// still fetching; the caller should discard the result and keep whatever the
// newer call returns.
var ErrSuperseded = errors.New("feed: aggregation superseded")

const defaultWindowDays = 7

// Aggregator builds the notification feed. Source fetches run concurrently
// and the feed is all-or-nothing: any source failure yields ErrFeedUnavailable
// rather than a partial feed.
type Aggregator struct {
	comms        *services.CommunicationService
	deadlines    *services.DeadlineService
	appointments *services.AppointmentService
	reads        *ReadStateStore
	log          *zap.Logger

	now        func() time.Time
	generation atomic.Uint64
}

// NewAggregator constructs an Aggregator.
func NewAggregator(
	comms *services.CommunicationService,
	deadlines *services.DeadlineService,
	appointments *services.AppointmentService,
	reads *ReadStateStore,
) (*Aggregator, error) {
	if comms == nil {
		return nil, errors.New("feed: communication service is required")
	}
	if deadlines == nil {
		return nil, errors.New("feed: deadline service is required")
	}
	if appointments == nil {
		return nil, errors.New("feed: appointment service is required")
	}
	if reads == nil {
		return nil, errors.New("feed: read state store is required")
	}
	return &Aggregator{
		comms:        comms,
		deadlines:    deadlines,
		appointments: appointments,
		reads:        reads,
		log:          logger.WithModule("feed"),
		now:          time.Now,
	}, nil
}

// Aggregate assembles the current notification feed. Each call supersedes any
// still-running one: the older call returns ErrSuperseded instead of stale
// items.
func (a *Aggregator) Aggregate(ctx context.Context, windowDays int) ([]Item, error) {
	start := time.Now()
	generation := a.generation.Add(1)

	items, err := a.collect(ctx, windowDays)
	if err != nil {
		a.log.Error("feed aggregation failed", zap.Error(err))
		return nil, apperrors.ErrFeedUnavailable.WithInternal(err)
	}

	if a.generation.Load() != generation {
		return nil, ErrSuperseded
	}

	metrics.FeedBuildDuration.Observe(time.Since(start).Seconds())
	return items, nil
}

// MarkRead acknowledges one notification. The local read-state entry is
// written first; for intimation items the flag is also pushed to the stored
// communication. A source record that disappeared since the feed was built is
// not an error.
func (a *Aggregator) MarkRead(ctx context.Context, id string) error {
	sourceType, sourceID, ok := SplitItemID(id)
	if !ok {
		return apperrors.NewBadRequest("invalid notification id")
	}

	if err := a.reads.Add(ctx, id); err != nil {
		return err
	}

	if sourceType == SourceIntimation {
		if err := a.comms.MarkRead(ctx, sourceID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
	}
	return nil
}

// MarkAllRead acknowledges every unread item currently in the window. All ids
// go into the read-state set in one write, and intimation flags are pushed to
// the database in one batched update. Returns the number of items marked.
func (a *Aggregator) MarkAllRead(ctx context.Context, windowDays int) (int, error) {
	items, err := a.collect(ctx, windowDays)
	if err != nil {
		return 0, apperrors.ErrFeedUnavailable.WithInternal(err)
	}

	ids := make([]string, 0, len(items))
	commIDs := make([]string, 0, len(items))
	for _, item := range items {
		if item.IsRead {
			continue
		}
		ids = append(ids, item.ID)
		if item.SourceType == SourceIntimation {
			commIDs = append(commIDs, item.SourceID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := a.reads.Add(ctx, ids...); err != nil {
		return 0, err
	}
	if err := a.comms.MarkManyRead(ctx, commIDs); err != nil {
		return 0, err
	}

	a.log.Info("feed marked read", zap.Int("items", len(ids)))
	return len(ids), nil
}

func (a *Aggregator) collect(ctx context.Context, windowDays int) ([]Item, error) {
	if windowDays <= 0 {
		windowDays = defaultWindowDays
	}

	// The snapshot is taken once, before the fetches; an acknowledgement
	// landing mid-aggregation shows up in the next pass, never a torn one.
	readSet, err := a.reads.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var (
		communications []models.Communication
		deadlines      []models.Deadline
		appointments   []models.Appointment
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		communications, err = a.comms.ListUnread(groupCtx, services.CommunicationFilters{})
		return err
	})
	group.Go(func() error {
		var err error
		deadlines, err = a.deadlines.ListPending(groupCtx, windowDays)
		return err
	})
	group.Go(func() error {
		var err error
		appointments, err = a.appointments.ListUpcoming(groupCtx, windowDays)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	now := a.now()
	items := make([]Item, 0, len(communications)+len(deadlines)+len(appointments))
	for i := range communications {
		items = append(items, itemFromCommunication(&communications[i], readSet))
	}
	for i := range deadlines {
		items = append(items, itemFromDeadline(&deadlines[i], now, readSet))
	}
	for i := range appointments {
		items = append(items, itemFromAppointment(&appointments[i], readSet))
	}

	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := priorityRank(items[i].Priority), priorityRank(items[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return items[i].OccursAt.Before(items[j].OccursAt)
	})
	return items, nil
}

func itemFromCommunication(c *models.Communication, readSet map[string]struct{}) Item {
	id := ItemID(SourceIntimation, c.ID)
	title := c.Kind
	if title == "" {
		title = "Intimation"
	}

	_, acked := readSet[id]
	return Item{
		ID:          id,
		SourceType:  SourceIntimation,
		SourceID:    c.ID,
		Title:       title,
		Description: snippet(c.Text, 240),
		OccursAt:    c.PublishedAt,
		Priority:    PriorityUrgent,
		IsRead:      c.Read || acked,
	}
}

func itemFromDeadline(d *models.Deadline, now time.Time, readSet map[string]struct{}) Item {
	id := ItemID(SourceDeadline, d.ID)
	_, acked := readSet[id]
	return Item{
		ID:          id,
		SourceType:  SourceDeadline,
		SourceID:    d.ID,
		Title:       d.Title,
		Description: snippet(d.Description, 240),
		OccursAt:    d.DueAt,
		Priority:    deadlinePriority(now, d.DueAt),
		IsRead:      acked,
	}
}

func itemFromAppointment(ap *models.Appointment, readSet map[string]struct{}) Item {
	id := ItemID(SourceAppointment, ap.ID)
	_, acked := readSet[id]
	return Item{
		ID:          id,
		SourceType:  SourceAppointment,
		SourceID:    ap.ID,
		Title:       ap.Title,
		Description: snippet(ap.Description, 240),
		OccursAt:    ap.StartsAt,
		Priority:    PriorityNormal,
		IsRead:      acked,
	}
}

// deadlinePriority escalates as the due date approaches. Overdue deadlines
// count as due in zero days and stay urgent.
func deadlinePriority(now, dueAt time.Time) string {
	days := int(math.Ceil(dueAt.Sub(now).Hours() / 24))
	switch {
	case days <= 2:
		return PriorityUrgent
	case days <= 5:
		return PriorityHigh
	default:
		return PriorityNormal
	}
}

func snippet(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
