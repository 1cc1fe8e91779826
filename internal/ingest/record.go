package ingest

import (
	"errors"
	"strings"
	"time"
)

// ExternalParty is a recipient sub-record embedded in the external feed.
type ExternalParty struct {
	Name  string `json:"name"`
	Pole  string `json:"pole"`
	TaxID string `json:"tax_id,omitempty"`
}

// ExternalLawyer is a lawyer sub-record embedded in the external feed.
type ExternalLawyer struct {
	Name string `json:"name"`
}

// ExternalRecord is one decoded legal notice as published by the external
// source. The transport that produced it (HTTP poll, scheduled job) is not
// this package's concern.
type ExternalRecord struct {
	ExternalID    int64            `json:"external_id"`
	Hash          string           `json:"hash"`
	ProcessNumber string           `json:"process_number"`
	TribunalCode  string           `json:"tribunal_code"`
	OrganName     string           `json:"organ_name"`
	Text          string           `json:"text"`
	Kind          string           `json:"kind"`
	Medium        string           `json:"medium"`
	PublishedAt   time.Time        `json:"published_at"`
	ExternalLink  string           `json:"external_link"`
	Recipients    []ExternalParty  `json:"recipients"`
	Lawyers       []ExternalLawyer `json:"lawyers"`
}

// RecipientNames returns the recipient names in feed order, the order the
// client matcher tries them in.
func (r ExternalRecord) RecipientNames() []string {
	names := make([]string, 0, len(r.Recipients))
	for _, party := range r.Recipients {
		names = append(names, party.Name)
	}
	return names
}

func (r ExternalRecord) validate() error {
	if strings.TrimSpace(r.Hash) == "" {
		return errors.New("missing hash")
	}
	if r.ExternalID <= 0 {
		return errors.New("missing external id")
	}
	return nil
}
