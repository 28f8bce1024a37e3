package model

import (
	"regexp"
	"strings"
	"time"

	"loyalty-campaign/internal/domain"

	"github.com/google/uuid"
)

var barcodeCodeRe = regexp.MustCompile(`^\d{6}$`)

// ValidBarcodeCode reports whether s is exactly six decimal digits.
func ValidBarcodeCode(s string) bool { return barcodeCodeRe.MatchString(s) }

// CampaignBarcode is one entry of a campaign's pool. IsAssigned flips to true
// exactly once, when a UserBarcode binding is created for it.
type CampaignBarcode struct {
	ID           string
	Code         string
	Name         string
	CampaignCode string
	ImageURL     *string
	IsAssigned   bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewCampaignBarcode builds an unassigned, active barcode named "<prefix> - <code>".
func NewCampaignBarcode(code, namePrefix, campaignCode string) (*CampaignBarcode, error) {
	if !ValidBarcodeCode(code) {
		return nil, domain.ErrInvalidArgument
	}
	campaignCode = strings.TrimSpace(campaignCode)
	if campaignCode == "" {
		return nil, domain.ErrInvalidArgument
	}
	namePrefix = strings.TrimSpace(namePrefix)
	if namePrefix == "" {
		namePrefix = DefaultBarcodeNamePrefix
	}
	now := time.Now()
	return &CampaignBarcode{
		ID:           uuid.NewString(),
		Code:         code,
		Name:         namePrefix + " - " + code,
		CampaignCode: campaignCode,
		IsAssigned:   false,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

const DefaultBarcodeNamePrefix = "Campaign Barcode"

// Claimable reports whether the allocator may hand this barcode out.
func (b *CampaignBarcode) Claimable() bool {
	return b != nil && b.IsActive && !b.IsAssigned
}
