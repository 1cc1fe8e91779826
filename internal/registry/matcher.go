// Package registry resolves free-text process numbers and party names against
// the process and client registries.
package registry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ramonvasc/comunicahub/internal/models"
	"github.com/ramonvasc/comunicahub/internal/normalize"
	"github.com/ramonvasc/comunicahub/pkg/logger"
	"github.com/ramonvasc/comunicahub/pkg/metrics"
)

const defaultLookupTimeout = 3 * time.Second

// ProcessMatch is the result of a successful process resolution. ClientID is
// the owning client of the matched process, when the registry records one.
type ProcessMatch struct {
	ProcessID string
	ClientID  string
}

type processRef struct {
	id       string
	clientID string
}

// Matcher resolves identifiers with a three-tier strategy: exact cache hit,
// normalized cache hit, then a remote fallback query. Caches are append-only
// for the duration of a batch and backfilled on every remote hit.
type Matcher struct {
	db      *gorm.DB
	timeout time.Duration
	log     *zap.Logger

	mu            sync.Mutex
	byCode        map[string]processRef
	byDigits      map[string]processRef
	clientsByName map[string]string
}

// Option customises the Matcher.
type Option func(*Matcher)

// WithLookupTimeout overrides the per-query timeout applied to remote
// fallback lookups.
func WithLookupTimeout(d time.Duration) Option {
	return func(m *Matcher) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// NewMatcher constructs a Matcher over the supplied registry database handle.
func NewMatcher(db *gorm.DB, opts ...Option) (*Matcher, error) {
	if db == nil {
		return nil, errors.New("registry matcher: db is required")
	}

	m := &Matcher{
		db:            db,
		timeout:       defaultLookupTimeout,
		log:           logger.WithModule("registry"),
		byCode:        make(map[string]processRef),
		byDigits:      make(map[string]processRef),
		clientsByName: make(map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Seed primes the in-memory caches from caller-supplied registry snapshots,
// typically the processes and clients loaded for the session. Seeding is
// additive and may be called more than once.
func (m *Matcher) Seed(processes []models.Process, clients []models.Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range processes {
		ref := processRef{id: p.ID}
		if p.ClientID != nil {
			ref.clientID = *p.ClientID
		}
		m.cacheProcessLocked(p.ProcessCode, ref)
	}

	for _, c := range clients {
		key := normalize.Name(c.FullName)
		if key == "" {
			continue
		}
		if _, exists := m.clientsByName[key]; !exists {
			m.clientsByName[key] = c.ID
		}
	}
}

// MatchProcess resolves a raw process number to a known process record. The
// boolean reports whether a match was found; an error is returned only for
// remote lookup failures (the caller treats those as a skip, not an abort).
func (m *Matcher) MatchProcess(ctx context.Context, rawNumber string) (ProcessMatch, bool, error) {
	trimmed := strings.TrimSpace(rawNumber)
	if trimmed == "" {
		return ProcessMatch{}, false, nil
	}

	digits := normalize.ProcessNumber(trimmed)

	m.mu.Lock()
	ref, ok := m.byCode[trimmed]
	if !ok && digits != "" {
		ref, ok = m.byDigits[digits]
	}
	if ok {
		// Backfill so the exact string used here hits tier 1 next time.
		m.cacheProcessLocked(trimmed, ref)
	}
	m.mu.Unlock()

	if ok {
		metrics.MatcherLookups.WithLabelValues("process", "cache").Inc()
		return ProcessMatch{ProcessID: ref.id, ClientID: ref.clientID}, true, nil
	}

	process, found, err := m.fetchProcess(ctx, trimmed)
	if err != nil {
		return ProcessMatch{}, false, err
	}
	if !found {
		metrics.MatcherLookups.WithLabelValues("process", "miss").Inc()
		return ProcessMatch{}, false, nil
	}

	hit := processRef{id: process.ID}
	if process.ClientID != nil {
		hit.clientID = *process.ClientID
	}

	// Backfill both maps under the original and the found code so repeated
	// lookups within the same batch stay in memory.
	m.mu.Lock()
	m.cacheProcessLocked(trimmed, hit)
	m.cacheProcessLocked(process.ProcessCode, hit)
	m.mu.Unlock()

	metrics.MatcherLookups.WithLabelValues("process", "remote").Inc()
	return ProcessMatch{ProcessID: hit.id, ClientID: hit.clientID}, true, nil
}

// MatchClient resolves the first candidate name that maps to a known client.
// Candidates are tried in caller-supplied order; no match is an expected,
// non-error outcome.
func (m *Matcher) MatchClient(ctx context.Context, candidateNames []string) (string, bool, error) {
	for _, name := range candidateNames {
		key := normalize.Name(name)
		if key == "" {
			continue
		}

		m.mu.Lock()
		id, ok := m.clientsByName[key]
		m.mu.Unlock()
		if ok {
			metrics.MatcherLookups.WithLabelValues("client", "cache").Inc()
			return id, true, nil
		}

		// Substring match on the raw name, kept for compatibility with the
		// upstream feed. Short or common names can false-positive here.
		client, found, err := m.fetchClient(ctx, strings.TrimSpace(name))
		if err != nil {
			return "", false, err
		}
		if !found {
			continue
		}

		m.mu.Lock()
		m.clientsByName[key] = client.ID
		m.mu.Unlock()

		metrics.MatcherLookups.WithLabelValues("client", "remote").Inc()
		return client.ID, true, nil
	}

	metrics.MatcherLookups.WithLabelValues("client", "miss").Inc()
	return "", false, nil
}

func (m *Matcher) fetchProcess(ctx context.Context, code string) (models.Process, bool, error) {
	ctx, cancel := m.lookupContext(ctx)
	defer cancel()

	var process models.Process
	err := m.db.WithContext(ctx).
		Where("process_code = ?", code).
		Take(&process).Error
	if err == nil {
		return process, true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Process{}, false, err
	}

	// LOWER on both sides: plain LIKE is case-sensitive on postgres but not
	// on the sqlite and mysql drivers, and recall must not differ per backend.
	err = m.db.WithContext(ctx).
		Where("LOWER(process_code) LIKE LOWER(?)", "%"+code+"%").
		Order("process_code").
		Take(&process).Error
	if err == nil {
		return process, true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Process{}, false, nil
	}
	return models.Process{}, false, err
}

func (m *Matcher) fetchClient(ctx context.Context, name string) (models.Client, bool, error) {
	ctx, cancel := m.lookupContext(ctx)
	defer cancel()

	var client models.Client
	err := m.db.WithContext(ctx).
		Where("LOWER(full_name) LIKE LOWER(?)", "%"+name+"%").
		Order("full_name").
		Take(&client).Error
	if err == nil {
		return client, true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Client{}, false, nil
	}
	return models.Client{}, false, err
}

func (m *Matcher) lookupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, m.timeout)
}

func (m *Matcher) cacheProcessLocked(code string, ref processRef) {
	code = strings.TrimSpace(code)
	if code == "" {
		return
	}
	m.byCode[code] = ref
	if digits := normalize.ProcessNumber(code); digits != "" {
		m.byDigits[digits] = ref
	}
}
