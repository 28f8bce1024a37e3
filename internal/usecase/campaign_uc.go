package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"loyalty-campaign/internal/domain"
	"loyalty-campaign/internal/domain/model"
	"loyalty-campaign/internal/domain/ports/repository"
	"loyalty-campaign/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ CampaignUseCase = (*campaignUC)(nil)

// CampaignInput carries the editable fields of a campaign.
type CampaignInput struct {
	Code        string     `json:"campaign_code"`
	Name        string     `json:"campaign_name"`
	Description string     `json:"description"`
	IsActive    *bool      `json:"is_active,omitempty"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

type CampaignUseCase interface {
	// GetActive returns domain.ErrNoActiveCampaign when nothing qualifies at now.
	GetActive(ctx context.Context, now time.Time) (*model.Campaign, error)
	List(ctx context.Context) ([]*model.Campaign, error)
	Create(ctx context.Context, in CampaignInput) (*model.Campaign, error)
	Update(ctx context.Context, code string, in CampaignInput) (*model.Campaign, error)
	Stats(ctx context.Context, code string) (*model.CampaignStats, error)
}

type campaignUC struct {
	campaigns repository.CampaignRepository
	log       *zerolog.Logger
}

func NewCampaignUseCase(campaigns repository.CampaignRepository, logger *zerolog.Logger) *campaignUC {
	return &campaignUC{campaigns: campaigns, log: logger}
}

func (u *campaignUC) GetActive(ctx context.Context, now time.Time) (*model.Campaign, error) {
	defer logging.TraceDuration(u.log, "CampaignUC.GetActive")()
	c, err := u.campaigns.FindActive(ctx, repository.NoTX, now)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNoActiveCampaign
	}
	return c, err
}

func (u *campaignUC) List(ctx context.Context) ([]*model.Campaign, error) {
	defer logging.TraceDuration(u.log, "CampaignUC.List")()
	return u.campaigns.List(ctx, repository.NoTX)
}

func (u *campaignUC) Create(ctx context.Context, in CampaignInput) (*model.Campaign, error) {
	defer logging.TraceDuration(u.log, "CampaignUC.Create")()

	c, err := model.NewCampaign(in.Code, in.Name, in.Description, in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if _, err := u.campaigns.FindByCode(ctx, repository.NoTX, c.Code); err == nil {
		return nil, domain.ErrAlreadyExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if err := u.campaigns.Save(ctx, repository.NoTX, c); err != nil {
		return nil, err
	}
	u.log.Info().Str("campaign", c.Code).Time("start", c.StartDate).Msg("campaign created")
	return c, nil
}

// Update edits a campaign in place. The code itself is immutable here;
// renaming would cascade to every barcode of the pool.
func (u *campaignUC) Update(ctx context.Context, code string, in CampaignInput) (*model.Campaign, error) {
	defer logging.TraceDuration(u.log, "CampaignUC.Update")()

	c, err := u.campaigns.FindByCode(ctx, repository.NoTX, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		c.Name = name
	}
	if in.Description != "" {
		c.Description = in.Description
	}
	if !in.StartDate.IsZero() {
		c.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		c.EndDate = in.EndDate
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if c.EndDate != nil && c.EndDate.Before(c.StartDate) {
		return nil, domain.ErrInvalidArgument
	}
	c.UpdatedAt = time.Now()
	if err := u.campaigns.Save(ctx, repository.NoTX, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (u *campaignUC) Stats(ctx context.Context, code string) (*model.CampaignStats, error) {
	defer logging.TraceDuration(u.log, "CampaignUC.Stats")()
	return u.campaigns.Stats(ctx, repository.NoTX, code)
}
