package usecase

import (
	"context"

	"loyalty-campaign/internal/domain/model"
	"loyalty-campaign/internal/domain/ports/repository"
	"loyalty-campaign/internal/infra/logging"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Compile-time check
var _ OpportunityUseCase = (*opportunityUC)(nil)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	// keeps (page-1)*pageSize far from overflow
	maxPage = 1_000_000
)

type OpportunityInput struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
	ImageURL        *string         `json:"image_url,omitempty"`
}

type OpportunityUseCase interface {
	ListActive(ctx context.Context, page, pageSize int) ([]*model.OpportunityProduct, model.Page, error)
	Create(ctx context.Context, in OpportunityInput) (*model.OpportunityProduct, error)
}

type opportunityUC struct {
	products repository.OpportunityRepository
	log      *zerolog.Logger
}

func NewOpportunityUseCase(products repository.OpportunityRepository, logger *zerolog.Logger) *opportunityUC {
	return &opportunityUC{products: products, log: logger}
}

// ListActive clamps page to [1, maxPage] and pageSize to [1, 100], defaulting to 20.
func (u *opportunityUC) ListActive(ctx context.Context, page, pageSize int) ([]*model.OpportunityProduct, model.Page, error) {
	defer logging.TraceDuration(u.log, "OpportunityUC.ListActive")()

	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	items, total, err := u.products.ListActive(ctx, repository.NoTX, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, model.Page{}, err
	}
	return items, model.NewPage(page, pageSize, total), nil
}

func (u *opportunityUC) Create(ctx context.Context, in OpportunityInput) (*model.OpportunityProduct, error) {
	defer logging.TraceDuration(u.log, "OpportunityUC.Create")()

	p, err := model.NewOpportunityProduct(in.Name, in.Description, in.OriginalPrice, in.DiscountedPrice, in.ImageURL)
	if err != nil {
		return nil, err
	}
	if err := u.products.Create(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	return p, nil
}
