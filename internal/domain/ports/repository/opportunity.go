package repository

import (
	"context"

	"loyalty-campaign/internal/domain/model"
)

type OpportunityRepository interface {
	// ListActive returns one page of active products, newest first, and the
	// total number of active products.
	ListActive(ctx context.Context, tx Tx, offset, limit int) ([]*model.OpportunityProduct, int, error)
	Create(ctx context.Context, tx Tx, p *model.OpportunityProduct) error
}
