package model

import (
	"strings"
	"time"

	"loyalty-campaign/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// OpportunityProduct is a discounted product shown to campaign members.
type OpportunityProduct struct {
	ID              string
	Name            string
	Description     string
	OriginalPrice   decimal.Decimal
	DiscountedPrice decimal.Decimal
	ImageURL        *string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewOpportunityProduct(name, description string, original, discounted decimal.Decimal, imageURL *string) (*OpportunityProduct, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 200 {
		return nil, domain.ErrInvalidArgument
	}
	if original.IsNegative() || discounted.IsNegative() || discounted.GreaterThan(original) {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &OpportunityProduct{
		ID:              uuid.NewString(),
		Name:            name,
		Description:     description,
		OriginalPrice:   original.Round(2),
		DiscountedPrice: discounted.Round(2),
		ImageURL:        imageURL,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// DiscountPercentage is the truncated integer percentage saved; 0 when the
// original price is not positive.
func (p *OpportunityProduct) DiscountPercentage() int {
	if !p.OriginalPrice.IsPositive() {
		return 0
	}
	pct := p.OriginalPrice.Sub(p.DiscountedPrice).Div(p.OriginalPrice).Mul(hundred)
	return int(pct.IntPart())
}

func (p *OpportunityProduct) SavingsAmount() decimal.Decimal {
	return p.OriginalPrice.Sub(p.DiscountedPrice)
}

// Page describes a slice of a larger result set.
type Page struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

func NewPage(page, pageSize, total int) Page {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return Page{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
	}
}
