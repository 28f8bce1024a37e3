package web

import (
	"time"

	"loyalty-campaign/internal/domain/model"
)

type campaignDTO struct {
	ID          string     `json:"id"`
	Code        string     `json:"campaign_code"`
	Name        string     `json:"campaign_name"`
	Description string     `json:"description"`
	IsActive    bool       `json:"is_active"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

func toCampaignDTO(c *model.Campaign) *campaignDTO {
	if c == nil {
		return nil
	}
	return &campaignDTO{
		ID:          c.ID,
		Code:        c.Code,
		Name:        c.Name,
		Description: c.Description,
		IsActive:    c.IsActive,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
	}
}

type campaignInfoDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

type userBarcodeDTO struct {
	ID           string           `json:"id"`
	Code         string           `json:"barcode_code"`
	Name         string           `json:"barcode_name"`
	CampaignCode string           `json:"campaign_code"`
	CampaignInfo *campaignInfoDTO `json:"campaign_info"`
	AssignedAt   time.Time        `json:"assigned_at"`
}

func toUserBarcodeDTO(v *model.UserBarcodeView) *userBarcodeDTO {
	if v == nil || v.Binding == nil {
		return nil
	}
	out := &userBarcodeDTO{ID: v.Binding.ID, AssignedAt: v.Binding.AssignedAt}
	if b := v.Binding.Barcode; b != nil {
		out.Code, out.Name, out.CampaignCode = b.Code, b.Name, b.CampaignCode
	}
	if c := v.Campaign; c != nil {
		out.CampaignInfo = &campaignInfoDTO{Name: c.Name, Description: c.Description, IsActive: c.IsActive}
	}
	return out
}

type childDTO struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Grade        model.Grade `json:"grade"`
	GradeDisplay string      `json:"grade_display"`
	CreatedAt    time.Time   `json:"created_at"`
}

func toChildDTO(c *model.Child) childDTO {
	return childDTO{ID: c.ID, Name: c.Name, Grade: c.Grade, GradeDisplay: c.Grade.Display(), CreatedAt: c.CreatedAt}
}

func toChildDTOs(cs []*model.Child) []childDTO {
	out := make([]childDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, toChildDTO(c))
	}
	return out
}

type userDTO struct {
	ID              string     `json:"id"`
	PhoneNumber     string     `json:"phone_number"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	IsPhoneVerified bool       `json:"is_phone_verified"`
	HasChildren     bool       `json:"has_children"`
	ChildrenCount   int        `json:"children_count"`
	Children        []childDTO `json:"children"`
	DateJoined      time.Time  `json:"date_joined"`
}

func toUserDTO(u *model.User) userDTO {
	return userDTO{
		ID:              u.ID,
		PhoneNumber:     u.PhoneNumber,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		IsPhoneVerified: u.IsPhoneVerified,
		HasChildren:     u.HasChildren,
		ChildrenCount:   u.ChildrenCount,
		Children:        toChildDTOs(u.Children),
		DateJoined:      u.DateJoined,
	}
}

type opportunityDTO struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	OriginalPrice      string    `json:"original_price"`
	DiscountedPrice    string    `json:"discounted_price"`
	Image              *string   `json:"image"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	DiscountPercentage int       `json:"discount_percentage"`
	SavingsAmount      string    `json:"savings_amount"`
}

func toOpportunityDTO(p *model.OpportunityProduct) opportunityDTO {
	return opportunityDTO{
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		OriginalPrice:      p.OriginalPrice.StringFixed(2),
		DiscountedPrice:    p.DiscountedPrice.StringFixed(2),
		Image:              p.ImageURL,
		IsActive:           p.IsActive,
		CreatedAt:          p.CreatedAt,
		DiscountPercentage: p.DiscountPercentage(),
		SavingsAmount:      p.SavingsAmount().StringFixed(2),
	}
}
