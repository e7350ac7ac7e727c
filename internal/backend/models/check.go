package models

import (
	"net/url"
	"time"

	shared "Healthchecks/internal/shared/models"
)

// CheckRecord is a stored check together with its registry metadata.
type CheckRecord struct {
	ID string
	*shared.Check
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CheckPatch carries the fields of a partial update. A nil field is left as is.
type CheckPatch struct {
	Name         *string
	Tag          *string
	Timeout      *uint32
	Grace        *uint32
	PingURL      *url.URL
	PingCount    *uint32
	LastPingDate *time.Time
	NextPingDate *time.Time
}

// Apply sets every non-nil field of p on check.
func (p CheckPatch) Apply(check *shared.Check) {
	if p.Name != nil {
		check.Name = *p.Name
	}
	if p.Tag != nil {
		check.Tag = *p.Tag
	}
	if p.Timeout != nil {
		check.Timeout = *p.Timeout
	}
	if p.Grace != nil {
		check.Grace = *p.Grace
	}
	if p.PingURL != nil {
		check.PingURL = p.PingURL
	}
	if p.PingCount != nil {
		check.PingCount = *p.PingCount
	}
	if p.LastPingDate != nil {
		check.LastPingDate = p.LastPingDate
	}
	if p.NextPingDate != nil {
		check.NextPingDate = p.NextPingDate
	}
}

// IsEmpty reports whether the patch would change nothing.
func (p CheckPatch) IsEmpty() bool {
	return p == CheckPatch{}
}

type CheckFilter struct {
	Tag    string
	Limit  int
	Offset int
}

// CheckPage is one page of a list call and the filter that produced it.
type CheckPage struct {
	Records []*CheckRecord
	Filter  CheckFilter
}

// TagStats maps a tag to the number of checks carrying it.
type TagStats map[string]int
