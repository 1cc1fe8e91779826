package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ramonvasc/comunicahub/internal/ingest"
	"github.com/ramonvasc/comunicahub/internal/models"
	"github.com/ramonvasc/comunicahub/pkg/response"
)

// IngestHandler accepts externally fetched batches over HTTP, for operators
// replaying an export or wiring a push-style upstream.
type IngestHandler struct {
	pipeline *ingest.Pipeline
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(pipeline *ingest.Pipeline) (*IngestHandler, error) {
	if pipeline == nil {
		return nil, errors.New("ingest handler: pipeline is required")
	}
	return &IngestHandler{pipeline: pipeline}, nil
}

type seedProcessInput struct {
	ID          string  `json:"id" validate:"required"`
	ProcessCode string  `json:"process_code" validate:"required"`
	ClientID    *string `json:"client_id"`
}

type seedClientInput struct {
	ID       string `json:"id" validate:"required"`
	FullName string `json:"full_name" validate:"required"`
}

type ingestBatchRequest struct {
	Records []ingest.ExternalRecord `json:"records" validate:"required,min=1"`
	Seed    struct {
		Processes []seedProcessInput `json:"processes"`
		Clients   []seedClientInput  `json:"clients"`
	} `json:"seed"`
}

// Batch ingests one batch of external records and returns the summary counts.
func (h *IngestHandler) Batch(c *gin.Context) {
	var req ingestBatchRequest
	if !bindAndValidate(c, &req) {
		return
	}

	seed := ingest.Seed{
		Processes: make([]models.Process, 0, len(req.Seed.Processes)),
		Clients:   make([]models.Client, 0, len(req.Seed.Clients)),
	}
	for _, p := range req.Seed.Processes {
		seed.Processes = append(seed.Processes, models.Process{
			BaseModel:   models.BaseModel{ID: p.ID},
			ProcessCode: p.ProcessCode,
			ClientID:    p.ClientID,
		})
	}
	for _, cl := range req.Seed.Clients {
		seed.Clients = append(seed.Clients, models.Client{
			BaseModel: models.BaseModel{ID: cl.ID},
			FullName:  cl.FullName,
		})
	}

	summary := h.pipeline.IngestBatch(c.Request.Context(), req.Records, seed)
	response.Success(c, http.StatusOK, summary)
}
