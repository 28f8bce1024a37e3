package model

import (
	"time"

	"github.com/google/uuid"
)

// UserBarcode is the permanent binding of one user to one claimed barcode.
// Both UserID and CampaignBarcodeID are unique.
type UserBarcode struct {
	ID                string
	UserID            string
	CampaignBarcodeID string
	AssignedAt        time.Time

	// Barcode is populated by reads that join the barcode row.
	Barcode *CampaignBarcode
}

func NewUserBarcode(userID string, barcode *CampaignBarcode) *UserBarcode {
	return &UserBarcode{
		ID:                uuid.NewString(),
		UserID:            userID,
		CampaignBarcodeID: barcode.ID,
		AssignedAt:        time.Now(),
		Barcode:           barcode,
	}
}

// UserBarcodeView is a binding together with the campaign its barcode belongs
// to. Campaign is nil when the campaign row no longer exists.
type UserBarcodeView struct {
	Binding  *UserBarcode
	Campaign *Campaign
}

// AssignSource tells where an allocation request came from.
type AssignSource string

const (
	AssignOnRegister AssignSource = "register"
	AssignOnLookup   AssignSource = "lookup"
	AssignManual     AssignSource = "manual"
)

// ResetResult is the per-barcode outcome of an admin reset.
type ResetResult struct {
	BarcodeID string `json:"barcode_id"`
	Reset     bool   `json:"reset"`
	Reason    string `json:"reason,omitempty"`
}

// PoolStatus is a quick health view of the allocator's inputs.
type PoolStatus struct {
	ActiveCampaign    *string `json:"active_campaign"`
	TotalBarcodes     int     `json:"total_barcodes"`
	AvailableBarcodes int     `json:"available_barcodes"`
	CampaignCount     int     `json:"campaign_count"`
}
