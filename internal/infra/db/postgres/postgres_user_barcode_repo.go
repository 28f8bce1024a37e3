package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"loyalty-campaign/internal/domain"
	"loyalty-campaign/internal/domain/model"
	"loyalty-campaign/internal/domain/ports/repository"
)

var _ repository.UserBarcodeRepository = (*userBarcodeRepo)(nil)

type userBarcodeRepo struct{ pool *pgxpool.Pool }

func NewUserBarcodeRepo(pool *pgxpool.Pool) *userBarcodeRepo {
	return &userBarcodeRepo{pool: pool}
}

func (r *userBarcodeRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.UserBarcode, error) {
	const q = `
SELECT ub.id, ub.user_id, ub.campaign_barcode_id, ub.assigned_at,
       b.id, b.code, b.name, b.campaign_code, b.image_url, b.is_assigned, b.is_active, b.created_at, b.updated_at
FROM user_barcodes ub
JOIN campaign_barcodes b ON b.id = ub.campaign_barcode_id
WHERE ub.user_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	ub := &model.UserBarcode{}
	b := &model.CampaignBarcode{}
	if err := row.Scan(
		&ub.ID, &ub.UserID, &ub.CampaignBarcodeID, &ub.AssignedAt,
		&b.ID, &b.Code, &b.Name, &b.CampaignCode, &b.ImageURL, &b.IsAssigned, &b.IsActive, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, scanErr(err)
	}
	ub.Barcode = b
	return ub, nil
}

// Create maps the two unique constraints to distinct errors so the allocator
// can tell "user lost the race" from "barcode already taken".
func (r *userBarcodeRepo) Create(ctx context.Context, tx repository.Tx, ub *model.UserBarcode) error {
	const q = `INSERT INTO user_barcodes (id, user_id, campaign_barcode_id, assigned_at) VALUES ($1,$2,$3,$4);`
	_, err := execSQL(ctx, r.pool, tx, q, ub.ID, ub.UserID, ub.CampaignBarcodeID, ub.AssignedAt)
	if err != nil {
		if pgErr, ok := uniqueViolation(err); ok {
			switch pgErr.ConstraintName {
			case conUserBarcodeUser:
				return domain.ErrAlreadyAssigned
			case conUserBarcodeBarcode:
				return domain.ErrBarcodeBound
			}
			return domain.ErrAlreadyExists
		}
		return opErr(err)
	}
	return nil
}

func (r *userBarcodeRepo) ExistsForBarcode(ctx context.Context, tx repository.Tx, barcodeID string) (bool, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT EXISTS (SELECT 1 FROM user_barcodes WHERE campaign_barcode_id=$1);`, barcodeID)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return ok, nil
}
