package model

import (
	"strings"
	"time"

	"loyalty-campaign/internal/domain"

	"github.com/google/uuid"
)

// Campaign is a marketing campaign owning a pool of barcodes, matched by Code.
type Campaign struct {
	ID          string
	Code        string
	Name        string
	Description string
	IsActive    bool
	StartDate   time.Time
	EndDate     *time.Time // nil means open-ended
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewCampaign(code, name, description string, start time.Time, end *time.Time) (*Campaign, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" || len(code) > 50 || name == "" || start.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	if end != nil && end.Before(start) {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Campaign{
		ID:          uuid.NewString(),
		Code:        code,
		Name:        name,
		Description: description,
		IsActive:    true,
		StartDate:   start,
		EndDate:     end,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsActiveAt applies the activity window: enabled, started, and not yet ended.
// Both bounds are inclusive.
func (c *Campaign) IsActiveAt(now time.Time) bool {
	if c == nil || !c.IsActive {
		return false
	}
	if c.StartDate.After(now) {
		return false
	}
	return c.EndDate == nil || !c.EndDate.Before(now)
}

// SelectActive picks the campaign active at now. When several qualify the
// latest-started wins, then the most recently created, then the lowest ID, which
// is the same order the repository query uses.
func SelectActive(campaigns []*Campaign, now time.Time) *Campaign {
	var best *Campaign
	for _, c := range campaigns {
		if !c.IsActiveAt(now) {
			continue
		}
		if best == nil || preferCampaign(c, best) {
			best = c
		}
	}
	return best
}

func preferCampaign(a, b *Campaign) bool {
	if !a.StartDate.Equal(b.StartDate) {
		return a.StartDate.After(b.StartDate)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

// CampaignStats summarises a campaign's barcode pool.
type CampaignStats struct {
	Code              string `json:"campaign_code"`
	TotalBarcodes     int    `json:"barcode_count"`
	AssignedBarcodes  int    `json:"assigned_count"`
	AvailableBarcodes int    `json:"available_count"`
}
