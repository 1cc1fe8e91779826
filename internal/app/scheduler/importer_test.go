package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ramonvasc/comunicahub/internal/database/testutil"
	"github.com/ramonvasc/comunicahub/internal/ingest"
	"github.com/ramonvasc/comunicahub/internal/registry"
	"github.com/ramonvasc/comunicahub/internal/services"
)

type stubSource struct {
	name    string
	records []ingest.ExternalRecord
	err     error
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) Fetch(context.Context) ([]ingest.ExternalRecord, ingest.Seed, error) {
	if s.err != nil {
		return nil, ingest.Seed{}, s.err
	}
	return s.records, ingest.Seed{}, nil
}

func newTestImporter(t *testing.T, sources []Source, opts ...Option) (*Importer, *services.CommunicationService) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	comms, err := services.NewCommunicationService(db)
	require.NoError(t, err)
	matcher, err := registry.NewMatcher(db)
	require.NoError(t, err)
	pipeline, err := ingest.NewPipeline(db, comms, matcher)
	require.NoError(t, err)

	imp, err := NewImporter(pipeline, sources, opts...)
	require.NoError(t, err)
	return imp, comms
}

func TestRunOnce_IngestsAllSources(t *testing.T) {
	record := func(id int64, hash string) ingest.ExternalRecord {
		return ingest.ExternalRecord{
			ExternalID:  id,
			Hash:        hash,
			PublishedAt: time.Date(2026, 8, 25, 8, 0, 0, 0, time.UTC),
		}
	}

	imp, comms := newTestImporter(t, []Source{
		stubSource{name: "diario", records: []ingest.ExternalRecord{record(1, "h1"), record(2, "h2")}},
		stubSource{name: "edital", records: []ingest.ExternalRecord{record(3, "h3")}},
	})

	summary, err := imp.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, ingest.Summary{Saved: 3}, summary)

	comm, err := comms.FindByHash(context.Background(), "h3")
	require.NoError(t, err)
	require.NotNil(t, comm)
}

func TestRunOnce_FailingSourceDoesNotBlockOthers(t *testing.T) {
	imp, comms := newTestImporter(t, []Source{
		stubSource{name: "down", err: errors.New("upstream timeout")},
		stubSource{name: "up", records: []ingest.ExternalRecord{{
			ExternalID: 10,
			Hash:       "h10",
		}}},
	})

	summary, err := imp.RunOnce(context.Background())
	require.ErrorContains(t, err, "source down")
	require.Equal(t, ingest.Summary{Saved: 1}, summary)

	comm, err := comms.FindByHash(context.Background(), "h10")
	require.NoError(t, err)
	require.NotNil(t, comm)
}

func TestRunOnce_RerunSkipsStoredHashes(t *testing.T) {
	source := stubSource{name: "diario", records: []ingest.ExternalRecord{{
		ExternalID: 1,
		Hash:       "h1",
	}}}
	imp, _ := newTestImporter(t, []Source{source})

	first, err := imp.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, ingest.Summary{Saved: 1}, first)

	second, err := imp.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, ingest.Summary{Skipped: 1}, second)
}

func TestStart_NoSourcesIsANoOp(t *testing.T) {
	imp, _ := newTestImporter(t, nil)
	require.NoError(t, imp.Start())
	<-imp.Stop().Done()
}
