package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"Healthchecks/internal/backend/models"
	shared "Healthchecks/internal/shared/models"
	"Healthchecks/pkg/validator"
)

// errClearField rejects a PATCH that tries to unset an optional field. An
// absent key means "unchanged", so clearing goes through PUT.
var errClearField = errors.New("optional field cannot be cleared with PATCH, use PUT")

// checkRequest is the body of create and replace calls. Omitted keys take
// the zero value of their field.
type checkRequest struct {
	Name         string     `json:"name"`
	Tag          string     `json:"tag"`
	Timeout      uint32     `json:"timeout"`
	Grace        uint32     `json:"grace"`
	PingURL      string     `json:"ping_url"`
	PingCount    uint32     `json:"ping_count"`
	LastPingDate *time.Time `json:"last_ping_date"`
	NextPingDate *time.Time `json:"next_ping_date"`
}

func (r checkRequest) toCheck() (*shared.Check, error) {
	pingURL, err := validator.ParsePingURL(r.PingURL)
	if err != nil {
		return nil, err
	}

	return shared.NewCheck(
		r.Name,
		r.Tag,
		r.Timeout,
		r.Grace,
		pingURL,
		r.PingCount,
		r.LastPingDate,
		r.NextPingDate,
	), nil
}

type checkPatchRequest struct {
	Name         *string    `json:"name"`
	Tag          *string    `json:"tag"`
	Timeout      *uint32    `json:"timeout"`
	Grace        *uint32    `json:"grace"`
	PingURL      *string    `json:"ping_url"`
	PingCount    *uint32    `json:"ping_count"`
	LastPingDate patchTime  `json:"last_ping_date"`
	NextPingDate patchTime  `json:"next_ping_date"`
}

// patchTime tells an absent key from an explicit null.
type patchTime struct {
	Present bool
	Value   *time.Time
}

func (p *patchTime) UnmarshalJSON(data []byte) error {
	p.Present = true
	if string(data) == "null" {
		p.Value = nil
		return nil
	}

	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	p.Value = &t
	return nil
}

func (r checkPatchRequest) toPatch() (models.CheckPatch, error) {
	if r.LastPingDate.Present && r.LastPingDate.Value == nil {
		return models.CheckPatch{}, fmt.Errorf("%w: last_ping_date", errClearField)
	}
	if r.NextPingDate.Present && r.NextPingDate.Value == nil {
		return models.CheckPatch{}, fmt.Errorf("%w: next_ping_date", errClearField)
	}

	patch := models.CheckPatch{
		Name:         r.Name,
		Tag:          r.Tag,
		Timeout:      r.Timeout,
		Grace:        r.Grace,
		PingCount:    r.PingCount,
		LastPingDate: r.LastPingDate.Value,
		NextPingDate: r.NextPingDate.Value,
	}

	if r.PingURL != nil {
		if *r.PingURL == "" {
			return models.CheckPatch{}, fmt.Errorf("%w: ping_url", errClearField)
		}

		pingURL, err := validator.ParsePingURL(*r.PingURL)
		if err != nil {
			return models.CheckPatch{}, err
		}
		patch.PingURL = pingURL
	}

	return patch, nil
}

type checkResponse struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Tag          string     `json:"tag"`
	Timeout      uint32     `json:"timeout"`
	Grace        uint32     `json:"grace"`
	PingURL      *string    `json:"ping_url"`
	PingCount    uint32     `json:"ping_count"`
	LastPingDate *time.Time `json:"last_ping_date"`
	NextPingDate *time.Time `json:"next_ping_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func newCheckResponse(record *models.CheckRecord) checkResponse {
	check := record.Check
	if check == nil {
		check = &shared.Check{}
	}

	var pingURL *string
	if check.PingURL != nil {
		s := check.PingURL.String()
		pingURL = &s
	}

	return checkResponse{
		ID:           record.ID,
		Name:         check.Name,
		Tag:          check.Tag,
		Timeout:      check.Timeout,
		Grace:        check.Grace,
		PingURL:      pingURL,
		PingCount:    check.PingCount,
		LastPingDate: check.LastPingDate,
		NextPingDate: check.NextPingDate,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
}

func newCheckResponses(records []*models.CheckRecord) []checkResponse {
	out := make([]checkResponse, 0, len(records))
	for _, record := range records {
		out = append(out, newCheckResponse(record))
	}
	return out
}
