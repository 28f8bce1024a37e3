package repository

import (
	"context"
	"time"

	"loyalty-campaign/internal/domain/model"
)

type CampaignRepository interface {
	// Save inserts or updates by campaign code.
	Save(ctx context.Context, tx Tx, c *model.Campaign) error
	FindByCode(ctx context.Context, tx Tx, code string) (*model.Campaign, error)
	// FindActive returns the campaign active at now using the same ordering as
	// model.SelectActive, or domain.ErrNotFound.
	FindActive(ctx context.Context, tx Tx, now time.Time) (*model.Campaign, error)
	List(ctx context.Context, tx Tx) ([]*model.Campaign, error)
	Count(ctx context.Context, tx Tx) (int, error)
	Stats(ctx context.Context, tx Tx, code string) (*model.CampaignStats, error)
}

type CampaignBarcodeRepository interface {
	// ClaimNext atomically picks one active, unassigned barcode of the campaign,
	// flips it to assigned and returns it. Rows locked by concurrent claimers are
	// skipped. Returns domain.ErrNotFound when nothing is claimable.
	ClaimNext(ctx context.Context, tx Tx, campaignCode string) (*model.CampaignBarcode, error)
	FindByID(ctx context.Context, tx Tx, id string) (*model.CampaignBarcode, error)
	// LockByID is FindByID with a row lock when tx is set.
	LockByID(ctx context.Context, tx Tx, id string) (*model.CampaignBarcode, error)
	ExistsByCode(ctx context.Context, tx Tx, code string) (bool, error)
	Create(ctx context.Context, tx Tx, b *model.CampaignBarcode) error
	SetAssigned(ctx context.Context, tx Tx, id string, assigned bool) error
	SetActive(ctx context.Context, tx Tx, id string, active bool) error
	CountAvailable(ctx context.Context, tx Tx, campaignCode string) (int, error)
	CountAll(ctx context.Context, tx Tx) (int, error)
}

type UserBarcodeRepository interface {
	// FindByUserID returns the binding with its barcode joined in.
	FindByUserID(ctx context.Context, tx Tx, userID string) (*model.UserBarcode, error)
	// Create returns domain.ErrAlreadyAssigned when the user is already bound and
	// domain.ErrBarcodeBound when the barcode is.
	Create(ctx context.Context, tx Tx, ub *model.UserBarcode) error
	ExistsForBarcode(ctx context.Context, tx Tx, barcodeID string) (bool, error)
}
