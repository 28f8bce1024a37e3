//go:build !integration

package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"loyalty-campaign/internal/config"
	"loyalty-campaign/internal/domain"
	"loyalty-campaign/internal/domain/model"
	"loyalty-campaign/internal/infra/i18n"
	"loyalty-campaign/internal/usecase"

	"github.com/rs/zerolog"
)

const (
	testSecret = "test-jwt-secret-please-change"
	testAPIKey = "test-admin-key"
)

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// ---- MockCampaignUC ----

type MockCampaignUC struct {
	Active  *model.Campaign
	Created []usecase.CampaignInput
}

func (m *MockCampaignUC) GetActive(ctx context.Context, now time.Time) (*model.Campaign, error) {
	if m.Active == nil {
		return nil, domain.ErrNoActiveCampaign
	}
	return m.Active, nil
}

func (m *MockCampaignUC) List(ctx context.Context) ([]*model.Campaign, error) {
	if m.Active == nil {
		return nil, nil
	}
	return []*model.Campaign{m.Active}, nil
}

func (m *MockCampaignUC) Create(ctx context.Context, in usecase.CampaignInput) (*model.Campaign, error) {
	m.Created = append(m.Created, in)
	return model.NewCampaign(in.Code, in.Name, in.Description, in.StartDate, in.EndDate)
}

func (m *MockCampaignUC) Update(ctx context.Context, code string, in usecase.CampaignInput) (*model.Campaign, error) {
	if m.Active == nil || m.Active.Code != code {
		return nil, domain.ErrNotFound
	}
	return m.Active, nil
}

func (m *MockCampaignUC) Stats(ctx context.Context, code string) (*model.CampaignStats, error) {
	return &model.CampaignStats{}, nil
}

// ---- MockBarcodeUC ----

// MockBarcodeUC hands out barcodes from a fixed list, one per user.
type MockBarcodeUC struct {
	mu       sync.Mutex
	Campaign *model.Campaign
	Free     []*model.CampaignBarcode
	Bound    map[string]*model.UserBarcode
	Resets   [][]string
	Err      error
}

func newMockBarcodeUC(c *model.Campaign, codes ...string) *MockBarcodeUC {
	m := &MockBarcodeUC{Campaign: c, Bound: map[string]*model.UserBarcode{}}
	for i, code := range codes {
		m.Free = append(m.Free, &model.CampaignBarcode{
			ID:           "b" + string(rune('1'+i)),
			Code:         code,
			Name:         "Promo - " + code,
			CampaignCode: c.Code,
			IsActive:     true,
		})
	}
	return m
}

func (m *MockBarcodeUC) view(ub *model.UserBarcode) *model.UserBarcodeView {
	return &model.UserBarcodeView{Binding: ub, Campaign: m.Campaign}
}

func (m *MockBarcodeUC) Assign(ctx context.Context, userID string, source model.AssignSource) (*model.UserBarcode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if ub, ok := m.Bound[userID]; ok {
		return ub, nil
	}
	if len(m.Free) == 0 {
		return nil, domain.ErrPoolExhausted
	}
	b := m.Free[0]
	m.Free = m.Free[1:]
	b.IsAssigned = true
	ub := model.NewUserBarcode(userID, b)
	m.Bound[userID] = ub
	return ub, nil
}

func (m *MockBarcodeUC) GetOrAssign(ctx context.Context, userID string) (*model.UserBarcodeView, error) {
	ub, err := m.Assign(ctx, userID, model.AssignOnLookup)
	if err != nil {
		return nil, err
	}
	return m.view(ub), nil
}

func (m *MockBarcodeUC) ForceAssign(ctx context.Context, userID string) (*model.UserBarcodeView, error) {
	m.mu.Lock()
	ub, ok := m.Bound[userID]
	m.mu.Unlock()
	if ok {
		return m.view(ub), domain.ErrAlreadyAssigned
	}
	return m.GetOrAssign(ctx, userID)
}

func (m *MockBarcodeUC) ResetAssignment(ctx context.Context, ids []string) ([]model.ResetResult, error) {
	m.Resets = append(m.Resets, ids)
	out := make([]model.ResetResult, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.ResetResult{BarcodeID: id, Reset: id != "bound"})
	}
	return out, nil
}

func (m *MockBarcodeUC) SetActive(ctx context.Context, barcodeID string, active bool) error {
	if barcodeID == "missing" {
		return domain.ErrNotFound
	}
	return nil
}

func (m *MockBarcodeUC) Status(ctx context.Context, now time.Time) (*model.PoolStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	code := m.Campaign.Code
	return &model.PoolStatus{
		ActiveCampaign:    &code,
		TotalBarcodes:     len(m.Free) + len(m.Bound),
		AvailableBarcodes: len(m.Free),
		CampaignCount:     1,
	}, nil
}

// ---- MockUserUC ----

type MockUserUC struct {
	Users map[string]*model.User // by phone
}

func newMockUserUC() *MockUserUC {
	return &MockUserUC{Users: map[string]*model.User{}}
}

func (m *MockUserUC) byID(id string) (*model.User, error) {
	for _, u := range m.Users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserUC) Register(ctx context.Context, in usecase.RegisterInput) (*model.User, error) {
	v := domain.NewValidationError()
	if len(in.Password) < 8 {
		v.Add("password", "too short")
	}
	if in.Password != in.PasswordConfirm {
		v.Add("password_confirm", domain.ErrPasswordMismatch.Error())
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	if _, ok := m.Users[in.PhoneNumber]; ok {
		return nil, domain.ErrAlreadyExists
	}
	u, err := model.NewUser("", in.PhoneNumber, in.FirstName, in.LastName, "hashed:"+in.Password)
	if err != nil {
		return nil, err
	}
	m.Users[in.PhoneNumber] = u
	return u, nil
}

func (m *MockUserUC) Authenticate(ctx context.Context, phone, password string) (*model.User, error) {
	u, ok := m.Users[phone]
	if !ok || u.PasswordHash != "hashed:"+password {
		return nil, domain.ErrInvalidCredentials
	}
	return u, nil
}

func (m *MockUserUC) VerifyPhone(ctx context.Context, phone, code string) error {
	if code != "123456" {
		return domain.ErrInvalidVerification
	}
	return nil
}

func (m *MockUserUC) Profile(ctx context.Context, userID string) (*model.User, error) {
	return m.byID(userID)
}

func (m *MockUserUC) UpdateProfile(ctx context.Context, userID string, in usecase.UpdateProfileInput) (*model.User, error) {
	u, err := m.byID(userID)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	return u, nil
}

func (m *MockUserUC) DeleteAccount(ctx context.Context, userID string) error {
	u, err := m.byID(userID)
	if err != nil {
		return err
	}
	delete(m.Users, u.PhoneNumber)
	return nil
}

func (m *MockUserUC) ListChildren(ctx context.Context, userID string) ([]*model.Child, error) {
	u, err := m.byID(userID)
	if err != nil {
		return nil, err
	}
	return u.Children, nil
}

func (m *MockUserUC) AddChild(ctx context.Context, userID string, in model.ChildInput) (*model.Child, error) {
	u, err := m.byID(userID)
	if err != nil {
		return nil, err
	}
	for _, c := range u.Children {
		if c.Name == in.Name {
			return nil, domain.ErrDuplicateChild
		}
	}
	c := &model.Child{ID: "c1", UserID: userID, Name: in.Name, Grade: in.Grade, CreatedAt: time.Now()}
	u.Children = append(u.Children, c)
	return c, nil
}

func (m *MockUserUC) UpdateChild(ctx context.Context, userID, childID string, in model.ChildInput) (*model.Child, error) {
	return nil, domain.ErrNotFound
}

func (m *MockUserUC) DeleteChild(ctx context.Context, userID, childID string) error {
	return domain.ErrNotFound
}

// ---- MockOpportunityUC ----

type MockOpportunityUC struct {
	Items []*model.OpportunityProduct
}

func (m *MockOpportunityUC) ListActive(ctx context.Context, page, pageSize int) ([]*model.OpportunityProduct, model.Page, error) {
	return m.Items, model.Page{Page: 1, PageSize: 20, Total: len(m.Items), TotalPages: 1}, nil
}

func (m *MockOpportunityUC) Create(ctx context.Context, in usecase.OpportunityInput) (*model.OpportunityProduct, error) {
	p := &model.OpportunityProduct{
		ID:              "p1",
		Name:            in.Name,
		Description:     in.Description,
		OriginalPrice:   in.OriginalPrice,
		DiscountedPrice: in.DiscountedPrice,
		IsActive:        true,
		CreatedAt:       time.Now(),
	}
	m.Items = append(m.Items, p)
	return p, nil
}

// ---- MockBlacklist ----

type MockBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newMockBlacklist() *MockBlacklist {
	return &MockBlacklist{revoked: map[string]time.Duration{}}
}

func (m *MockBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = ttl
	return nil
}

func (m *MockBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[jti]
	return ok, nil
}

// ---- MockPinger ----

type MockPinger struct{ Err error }

func (m MockPinger) Ping(ctx context.Context) error { return m.Err }

// ---- fixture ----

type fixture struct {
	campaigns     *MockCampaignUC
	barcodes      *MockBarcodeUC
	users         *MockUserUC
	opportunities *MockOpportunityUC
	auth          *AuthManager
	handler       http.Handler
}

func newFixture(codes ...string) *fixture {
	c := &model.Campaign{
		ID:        "c-1",
		Code:      "SPRING",
		Name:      "Spring",
		IsActive:  true,
		StartDate: time.Now().Add(-time.Hour),
	}
	f := &fixture{
		campaigns:     &MockCampaignUC{Active: c},
		barcodes:      newMockBarcodeUC(c, codes...),
		users:         newMockUserUC(),
		opportunities: &MockOpportunityUC{},
		auth:          NewAuthManager(testSecret, time.Minute, time.Hour, newMockBlacklist()),
	}
	locales, err := i18n.NewBundle(i18n.LocalesFS, "en", "tr")
	if err != nil {
		panic(err)
	}
	srv := NewServer(f.campaigns, f.barcodes, f.users, f.opportunities, f.auth, locales, MockPinger{}, testAPIKey,
		config.HTTPConfig{}, newTestLogger())
	f.handler = srv.Routes()
	return f
}

// register creates a user through the mock and returns an access token for it.
func (f *fixture) register(phone string) (*model.User, string) {
	u, err := f.users.Register(context.Background(), usecase.RegisterInput{
		PhoneNumber: phone, Password: "password1", PasswordConfirm: "password1", FirstName: "A", LastName: "B",
	})
	if err != nil {
		panic(err)
	}
	pair, err := f.auth.Mint(u.ID)
	if err != nil {
		panic(err)
	}
	return u, pair.Access
}
