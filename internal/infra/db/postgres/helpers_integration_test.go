//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"loyalty-campaign/internal/domain/model"
)

func seedCampaign(t *testing.T, code string, start time.Time) *model.Campaign {
	t.Helper()
	c, err := model.NewCampaign(code, code+" campaign", "", start, nil)
	if err != nil {
		t.Fatalf("model.NewCampaign() failed: %v", err)
	}
	if err := NewCampaignRepo(testPool).Save(context.Background(), nil, c); err != nil {
		t.Fatalf("Save campaign failed: %v", err)
	}
	return c
}

func seedBarcodes(t *testing.T, campaignCode string, first, n int) []*model.CampaignBarcode {
	t.Helper()
	repo := NewCampaignBarcodeRepo(testPool)
	out := make([]*model.CampaignBarcode, 0, n)
	for i := 0; i < n; i++ {
		b, err := model.NewCampaignBarcode(fmt.Sprintf("%06d", first+i), "", campaignCode)
		if err != nil {
			t.Fatalf("model.NewCampaignBarcode() failed: %v", err)
		}
		b.CreatedAt = b.CreatedAt.Add(time.Duration(i) * time.Millisecond)
		if err := repo.Create(context.Background(), nil, b); err != nil {
			t.Fatalf("Create barcode failed: %v", err)
		}
		out = append(out, b)
	}
	return out
}

func seedUser(t *testing.T, phone string) *model.User {
	t.Helper()
	u, err := model.NewUser("", phone, "Test", "User", "hash")
	if err != nil {
		t.Fatalf("model.NewUser() failed: %v", err)
	}
	if err := NewPostgresUserRepo(testPool).Create(context.Background(), nil, u); err != nil {
		t.Fatalf("Create user failed: %v", err)
	}
	return u
}
