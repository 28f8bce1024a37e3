package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"loyalty-campaign/internal/domain"
	"loyalty-campaign/internal/domain/model"
	"loyalty-campaign/internal/domain/ports/repository"
)

var _ repository.OpportunityRepository = (*opportunityRepo)(nil)

type opportunityRepo struct{ pool *pgxpool.Pool }

func NewOpportunityRepo(pool *pgxpool.Pool) *opportunityRepo {
	return &opportunityRepo{pool: pool}
}

func (r *opportunityRepo) ListActive(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.OpportunityProduct, int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM opportunity_products WHERE is_active=TRUE;`)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := row.Scan(&total); err != nil {
		return nil, 0, domain.ErrReadDatabaseRow
	}

	// numeric is read as text so no precision is lost on the way to decimal.
	const q = `
SELECT id, name, description, original_price::text, discounted_price::text, image_url, is_active, created_at, updated_at
FROM opportunity_products
WHERE is_active=TRUE
ORDER BY created_at DESC, id
OFFSET $1 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, offset, limit)
	if err != nil {
		return nil, 0, opErr(err)
	}
	defer rows.Close()

	out := []*model.OpportunityProduct{}
	for rows.Next() {
		p := &model.OpportunityProduct{}
		var orig, disc string
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &orig, &disc, &p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, domain.ErrReadDatabaseRow
		}
		if p.OriginalPrice, err = decimal.NewFromString(orig); err != nil {
			return nil, 0, domain.ErrReadDatabaseRow
		}
		if p.DiscountedPrice, err = decimal.NewFromString(disc); err != nil {
			return nil, 0, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, 0, domain.ErrReadDatabaseRow
	}
	return out, total, nil
}

func (r *opportunityRepo) Create(ctx context.Context, tx repository.Tx, p *model.OpportunityProduct) error {
	const q = `
INSERT INTO opportunity_products (id, name, description, original_price, discounted_price, image_url, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4::numeric,$5::numeric,$6,$7,$8,$9);`
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Name, p.Description, p.OriginalPrice.StringFixed(2), p.DiscountedPrice.StringFixed(2),
		p.ImageURL, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return opErr(err)
	}
	return nil
}
