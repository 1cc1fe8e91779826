package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ramonvasc/comunicahub/internal/ingest"
	"github.com/ramonvasc/comunicahub/internal/models"
)

// HTTPSource polls an upstream publication endpoint that serves pre-decoded
// batches as JSON. The endpoint returns the records plus optional registry
// seed lists in one document.
type HTTPSource struct {
	name   string
	url    string
	client *http.Client
}

// NewHTTPSource constructs an HTTPSource.
func NewHTTPSource(name, url string, timeout time.Duration) (*HTTPSource, error) {
	if name == "" {
		return nil, errors.New("http source: name is required")
	}
	if url == "" {
		return nil, errors.New("http source: url is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Name identifies the source in logs and error reports.
func (s *HTTPSource) Name() string { return s.name }

type sourceDocument struct {
	Records []ingest.ExternalRecord `json:"records"`
	Seed    struct {
		Processes []models.Process `json:"processes"`
		Clients   []models.Client  `json:"clients"`
	} `json:"seed"`
}

// Fetch retrieves one batch from the upstream endpoint.
func (s *HTTPSource) Fetch(ctx context.Context) ([]ingest.ExternalRecord, ingest.Seed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, ingest.Seed{}, fmt.Errorf("http source: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, ingest.Seed{}, fmt.Errorf("http source: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ingest.Seed{}, fmt.Errorf("http source: unexpected status %d", resp.StatusCode)
	}

	var doc sourceDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, ingest.Seed{}, fmt.Errorf("http source: decode: %w", err)
	}

	return doc.Records, ingest.Seed{
		Processes: doc.Seed.Processes,
		Clients:   doc.Seed.Clients,
	}, nil
}
