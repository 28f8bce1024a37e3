package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"loyalty-campaign/internal/domain"
	"loyalty-campaign/internal/domain/model"
	"loyalty-campaign/internal/domain/ports/repository"
)

var _ repository.CampaignRepository = (*campaignRepo)(nil)

type campaignRepo struct{ pool *pgxpool.Pool }

func NewCampaignRepo(pool *pgxpool.Pool) *campaignRepo {
	return &campaignRepo{pool: pool}
}

const campaignCols = `id, campaign_code, name, description, is_active, start_date, end_date, created_at, updated_at`

func scanCampaign(row pgx.Row) (*model.Campaign, error) {
	c := &model.Campaign{}
	if err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Description, &c.IsActive, &c.StartDate, &c.EndDate, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *campaignRepo) Save(ctx context.Context, tx repository.Tx, c *model.Campaign) error {
	const q = `
INSERT INTO campaigns (` + campaignCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (campaign_code) DO UPDATE SET
  name=$3, description=$4, is_active=$5, start_date=$6, end_date=$7, updated_at=$9
RETURNING id, created_at;`
	row, err := pickRow(ctx, r.pool, tx, q, c.ID, c.Code, c.Name, c.Description, c.IsActive, c.StartDate, c.EndDate, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
		return opErr(err)
	}
	return nil
}

func (r *campaignRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Campaign, error) {
	q := `SELECT ` + campaignCols + ` FROM campaigns WHERE campaign_code=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", code)
	if err != nil {
		return nil, err
	}
	c, err := scanCampaign(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return c, nil
}

// FindActive never locks: it is a read of whichever campaign qualifies at now.
func (r *campaignRepo) FindActive(ctx context.Context, tx repository.Tx, now time.Time) (*model.Campaign, error) {
	const q = `
SELECT ` + campaignCols + ` FROM campaigns
WHERE is_active = TRUE AND start_date <= $1 AND (end_date IS NULL OR end_date >= $1)
ORDER BY start_date DESC, created_at DESC, id ASC
LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, now)
	if err != nil {
		return nil, err
	}
	c, err := scanCampaign(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return c, nil
}

func (r *campaignRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Campaign, error) {
	const q = `SELECT ` + campaignCols + ` FROM campaigns ORDER BY created_at DESC, id ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, opErr(err)
	}
	defer rows.Close()

	var out []*model.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *campaignRepo) Count(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM campaigns;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *campaignRepo) Stats(ctx context.Context, tx repository.Tx, code string) (*model.CampaignStats, error) {
	const q = `
SELECT c.campaign_code,
       COUNT(b.id),
       COUNT(b.id) FILTER (WHERE b.is_assigned),
       COUNT(b.id) FILTER (WHERE NOT b.is_assigned AND b.is_active)
FROM campaigns c
LEFT JOIN campaign_barcodes b ON b.campaign_code = c.campaign_code
WHERE c.campaign_code = $1
GROUP BY c.campaign_code;`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	s := &model.CampaignStats{}
	if err := row.Scan(&s.Code, &s.TotalBarcodes, &s.AssignedBarcodes, &s.AvailableBarcodes); err != nil {
		return nil, scanErr(err)
	}
	return s, nil
}
