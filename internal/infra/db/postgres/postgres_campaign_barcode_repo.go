package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"loyalty-campaign/internal/domain"
	"loyalty-campaign/internal/domain/model"
	"loyalty-campaign/internal/domain/ports/repository"
)

var _ repository.CampaignBarcodeRepository = (*campaignBarcodeRepo)(nil)

type campaignBarcodeRepo struct{ pool *pgxpool.Pool }

func NewCampaignBarcodeRepo(pool *pgxpool.Pool) *campaignBarcodeRepo {
	return &campaignBarcodeRepo{pool: pool}
}

const barcodeCols = `id, code, name, campaign_code, image_url, is_assigned, is_active, created_at, updated_at`

func scanBarcode(row pgx.Row) (*model.CampaignBarcode, error) {
	b := &model.CampaignBarcode{}
	if err := row.Scan(&b.ID, &b.Code, &b.Name, &b.CampaignCode, &b.ImageURL, &b.IsAssigned, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return b, nil
}

// ClaimNext selects the oldest claimable row and flips it in one statement.
// SKIP LOCKED keeps concurrent claimers from waiting on each other's candidate,
// and the outer is_assigned predicate is re-checked against the locked row.
// Without a tx the claim commits immediately.
func (r *campaignBarcodeRepo) ClaimNext(ctx context.Context, tx repository.Tx, campaignCode string) (*model.CampaignBarcode, error) {
	const q = `
UPDATE campaign_barcodes SET is_assigned = TRUE, updated_at = NOW()
WHERE id = (
  SELECT id FROM campaign_barcodes
  WHERE campaign_code = $1 AND is_assigned = FALSE AND is_active = TRUE
  ORDER BY created_at, id
  LIMIT 1
  FOR UPDATE SKIP LOCKED
) AND is_assigned = FALSE
RETURNING ` + barcodeCols + `;`
	row, err := pickRow(ctx, r.pool, tx, q, campaignCode)
	if err != nil {
		return nil, err
	}
	b, err := scanBarcode(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return b, nil
}

func (r *campaignBarcodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CampaignBarcode, error) {
	return r.findByID(ctx, tx, id, false)
}

func (r *campaignBarcodeRepo) LockByID(ctx context.Context, tx repository.Tx, id string) (*model.CampaignBarcode, error) {
	return r.findByID(ctx, tx, id, true)
}

func (r *campaignBarcodeRepo) findByID(ctx context.Context, tx repository.Tx, id string, lock bool) (*model.CampaignBarcode, error) {
	q := `SELECT ` + barcodeCols + ` FROM campaign_barcodes WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok && lock {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", id)
	if err != nil {
		return nil, err
	}
	b, err := scanBarcode(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return b, nil
}

func (r *campaignBarcodeRepo) ExistsByCode(ctx context.Context, tx repository.Tx, code string) (bool, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT EXISTS (SELECT 1 FROM campaign_barcodes WHERE code=$1);`, code)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return ok, nil
}

// Create never aborts a surrounding transaction on a duplicate code: the
// conflict is absorbed by ON CONFLICT and reported as ErrAlreadyExists.
func (r *campaignBarcodeRepo) Create(ctx context.Context, tx repository.Tx, b *model.CampaignBarcode) error {
	const q = `INSERT INTO campaign_barcodes (` + barcodeCols + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (code) DO NOTHING;`
	tag, err := execSQL(ctx, r.pool, tx, q, b.ID, b.Code, b.Name, b.CampaignCode, b.ImageURL, b.IsAssigned, b.IsActive, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return domain.ErrAlreadyExists
		}
		return opErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (r *campaignBarcodeRepo) SetAssigned(ctx context.Context, tx repository.Tx, id string, assigned bool) error {
	return r.setFlag(ctx, tx, `UPDATE campaign_barcodes SET is_assigned=$2, updated_at=NOW() WHERE id=$1;`, id, assigned)
}

func (r *campaignBarcodeRepo) SetActive(ctx context.Context, tx repository.Tx, id string, active bool) error {
	return r.setFlag(ctx, tx, `UPDATE campaign_barcodes SET is_active=$2, updated_at=NOW() WHERE id=$1;`, id, active)
}

func (r *campaignBarcodeRepo) setFlag(ctx context.Context, tx repository.Tx, q, id string, v bool) error {
	tag, err := execSQL(ctx, r.pool, tx, q, id, v)
	if err != nil {
		return opErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *campaignBarcodeRepo) CountAvailable(ctx context.Context, tx repository.Tx, campaignCode string) (int, error) {
	const q = `SELECT COUNT(*) FROM campaign_barcodes WHERE campaign_code=$1 AND is_assigned=FALSE AND is_active=TRUE;`
	return r.count(ctx, tx, q, campaignCode)
}

func (r *campaignBarcodeRepo) CountAll(ctx context.Context, tx repository.Tx) (int, error) {
	return r.count(ctx, tx, `SELECT COUNT(*) FROM campaign_barcodes;`)
}

func (r *campaignBarcodeRepo) count(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
