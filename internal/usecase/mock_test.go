//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"loyalty-campaign/internal/domain"
	"loyalty-campaign/internal/domain/model"
	"loyalty-campaign/internal/domain/ports/adapter"
	"loyalty-campaign/internal/domain/ports/repository"
)

// =============================
// In-memory store
// =============================

// memDB holds every table in memory. Transactions run one at a time and
// restore a snapshot when fn fails, which is enough to exercise the rollback
// paths of the use cases. Repositories below are thin views over it.
type memDB struct {
	txMu sync.Mutex // serialises WithTx
	mu   sync.Mutex // guards the maps

	campaigns map[string]model.Campaign        // by code
	barcodes  map[string]model.CampaignBarcode // by id
	users     map[string]model.User            // by id
	children  map[string]model.Child           // by id
	bindings  map[string]model.UserBarcode     // by user id
	products  []model.OpportunityProduct

	// CreateBarcodeErr, when set, is consulted before every barcode insert.
	CreateBarcodeErr func(code string) error
	// ClaimDelay widens the window between finding and claiming a barcode.
	ClaimDelay time.Duration
}

func newMemDB() *memDB {
	return &memDB{
		campaigns: map[string]model.Campaign{},
		barcodes:  map[string]model.CampaignBarcode{},
		users:     map[string]model.User{},
		children:  map[string]model.Child{},
		bindings:  map[string]model.UserBarcode{},
	}
}

var _ repository.TransactionManager = (*memDB)(nil)

type memSnapshot struct {
	campaigns map[string]model.Campaign
	barcodes  map[string]model.CampaignBarcode
	users     map[string]model.User
	children  map[string]model.Child
	bindings  map[string]model.UserBarcode
	products  []model.OpportunityProduct
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (db *memDB) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.Lock()
	snap := memSnapshot{
		campaigns: copyMap(db.campaigns),
		barcodes:  copyMap(db.barcodes),
		users:     copyMap(db.users),
		children:  copyMap(db.children),
		bindings:  copyMap(db.bindings),
		products:  append([]model.OpportunityProduct(nil), db.products...),
	}
	db.mu.Unlock()

	if err := fn(ctx, db); err != nil {
		db.mu.Lock()
		db.campaigns, db.barcodes, db.users = snap.campaigns, snap.barcodes, snap.users
		db.children, db.bindings, db.products = snap.children, snap.bindings, snap.products
		db.mu.Unlock()
		return err
	}
	return nil
}

// ---- seeding helpers ----

func (db *memDB) seedCampaign(code string, start time.Time, end *time.Time) *model.Campaign {
	c, err := model.NewCampaign(code, code+" campaign", "", start, end)
	if err != nil {
		panic(err)
	}
	db.mu.Lock()
	db.campaigns[c.Code] = *c
	db.mu.Unlock()
	return c
}

func (db *memDB) seedBarcodes(campaign string, codes ...string) []*model.CampaignBarcode {
	out := make([]*model.CampaignBarcode, 0, len(codes))
	base := time.Now()
	db.mu.Lock()
	defer db.mu.Unlock()
	for i, code := range codes {
		b, err := model.NewCampaignBarcode(code, "", campaign)
		if err != nil {
			panic(err)
		}
		b.CreatedAt = base.Add(time.Duration(i) * time.Millisecond)
		db.barcodes[b.ID] = *b
		out = append(out, b)
	}
	return out
}

func (db *memDB) seedUser(phone string) *model.User {
	u, err := model.NewUser("", phone, "Test", "User", "hashed:password1")
	if err != nil {
		panic(err)
	}
	db.mu.Lock()
	db.users[u.ID] = *u
	db.mu.Unlock()
	return u
}

func (db *memDB) barcode(id string) model.CampaignBarcode {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.barcodes[id]
}

func (db *memDB) barcodeCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.barcodes)
}

func (db *memDB) bindingCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.bindings)
}

func (db *memDB) assignedCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, b := range db.barcodes {
		if b.IsAssigned {
			n++
		}
	}
	return n
}

// ---- campaigns ----

type memCampaignRepo struct{ db *memDB }

var _ repository.CampaignRepository = (*memCampaignRepo)(nil)

func (r *memCampaignRepo) Save(ctx context.Context, tx repository.Tx, c *model.Campaign) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if old, ok := r.db.campaigns[c.Code]; ok {
		c.ID, c.CreatedAt = old.ID, old.CreatedAt
	}
	r.db.campaigns[c.Code] = *c
	return nil
}

func (r *memCampaignRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Campaign, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.campaigns[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r *memCampaignRepo) all() []*model.Campaign {
	out := make([]*model.Campaign, 0, len(r.db.campaigns))
	for _, c := range r.db.campaigns {
		c := c
		out = append(out, &c)
	}
	return out
}

func (r *memCampaignRepo) FindActive(ctx context.Context, tx repository.Tx, now time.Time) (*model.Campaign, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if c := model.SelectActive(r.all(), now); c != nil {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memCampaignRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Campaign, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := r.all()
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (r *memCampaignRepo) Count(ctx context.Context, tx repository.Tx) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.campaigns), nil
}

func (r *memCampaignRepo) Stats(ctx context.Context, tx repository.Tx, code string) (*model.CampaignStats, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.campaigns[code]; !ok {
		return nil, domain.ErrNotFound
	}
	st := &model.CampaignStats{Code: code}
	for _, b := range r.db.barcodes {
		if b.CampaignCode != code {
			continue
		}
		st.TotalBarcodes++
		if b.IsAssigned {
			st.AssignedBarcodes++
		} else if b.IsActive {
			st.AvailableBarcodes++
		}
	}
	return st, nil
}

// ---- campaign barcodes ----

type memBarcodeRepo struct{ db *memDB }

var _ repository.CampaignBarcodeRepository = (*memBarcodeRepo)(nil)

func (r *memBarcodeRepo) ClaimNext(ctx context.Context, tx repository.Tx, campaignCode string) (*model.CampaignBarcode, error) {
	if r.db.ClaimDelay > 0 {
		time.Sleep(r.db.ClaimDelay)
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var pick *model.CampaignBarcode
	for _, b := range r.db.barcodes {
		b := b
		if b.CampaignCode != campaignCode || !b.Claimable() {
			continue
		}
		if pick == nil || b.CreatedAt.Before(pick.CreatedAt) ||
			(b.CreatedAt.Equal(pick.CreatedAt) && b.ID < pick.ID) {
			pick = &b
		}
	}
	if pick == nil {
		return nil, domain.ErrNotFound
	}
	pick.IsAssigned = true
	pick.UpdatedAt = time.Now()
	r.db.barcodes[pick.ID] = *pick
	return pick, nil
}

func (r *memBarcodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CampaignBarcode, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.barcodes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (r *memBarcodeRepo) LockByID(ctx context.Context, tx repository.Tx, id string) (*model.CampaignBarcode, error) {
	return r.FindByID(ctx, tx, id)
}

func (r *memBarcodeRepo) ExistsByCode(ctx context.Context, tx repository.Tx, code string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, b := range r.db.barcodes {
		if b.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *memBarcodeRepo) Create(ctx context.Context, tx repository.Tx, b *model.CampaignBarcode) error {
	if r.db.CreateBarcodeErr != nil {
		if err := r.db.CreateBarcodeErr(b.Code); err != nil {
			return err
		}
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, old := range r.db.barcodes {
		if old.Code == b.Code {
			return domain.ErrAlreadyExists
		}
	}
	r.db.barcodes[b.ID] = *b
	return nil
}

func (r *memBarcodeRepo) update(id string, fn func(b *model.CampaignBarcode)) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.barcodes[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(&b)
	b.UpdatedAt = time.Now()
	r.db.barcodes[id] = b
	return nil
}

func (r *memBarcodeRepo) SetAssigned(ctx context.Context, tx repository.Tx, id string, assigned bool) error {
	return r.update(id, func(b *model.CampaignBarcode) { b.IsAssigned = assigned })
}

func (r *memBarcodeRepo) SetActive(ctx context.Context, tx repository.Tx, id string, active bool) error {
	return r.update(id, func(b *model.CampaignBarcode) { b.IsActive = active })
}

func (r *memBarcodeRepo) CountAvailable(ctx context.Context, tx repository.Tx, campaignCode string) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n := 0
	for _, b := range r.db.barcodes {
		if b.CampaignCode == campaignCode && b.Claimable() {
			n++
		}
	}
	return n, nil
}

func (r *memBarcodeRepo) CountAll(ctx context.Context, tx repository.Tx) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.barcodes), nil
}

// ---- user barcodes ----

type memBindingRepo struct{ db *memDB }

var _ repository.UserBarcodeRepository = (*memBindingRepo)(nil)

func (r *memBindingRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.UserBarcode, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	ub, ok := r.db.bindings[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	b := r.db.barcodes[ub.CampaignBarcodeID]
	ub.Barcode = &b
	return &ub, nil
}

func (r *memBindingRepo) Create(ctx context.Context, tx repository.Tx, ub *model.UserBarcode) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.bindings[ub.UserID]; ok {
		return domain.ErrAlreadyAssigned
	}
	for _, other := range r.db.bindings {
		if other.CampaignBarcodeID == ub.CampaignBarcodeID {
			return domain.ErrBarcodeBound
		}
	}
	cp := *ub
	cp.Barcode = nil
	r.db.bindings[ub.UserID] = cp
	return nil
}

func (r *memBindingRepo) ExistsForBarcode(ctx context.Context, tx repository.Tx, barcodeID string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, ub := range r.db.bindings {
		if ub.CampaignBarcodeID == barcodeID {
			return true, nil
		}
	}
	return false, nil
}

// ---- users ----

type memUserRepo struct{ db *memDB }

var _ repository.UserRepository = (*memUserRepo)(nil)

func (r *memUserRepo) Create(ctx context.Context, tx repository.Tx, u *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, old := range r.db.users {
		if old.PhoneNumber == u.PhoneNumber {
			return domain.ErrAlreadyExists
		}
	}
	cp := *u
	cp.Children = nil
	r.db.users[u.ID] = cp
	return nil
}

func (r *memUserRepo) Update(ctx context.Context, tx repository.Tx, u *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *u
	cp.Children = nil
	r.db.users[u.ID] = cp
	return nil
}

func (r *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *memUserRepo) FindByPhone(ctx context.Context, tx repository.Tx, phone string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.PhoneNumber == phone {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memUserRepo) SetPhoneVerified(ctx context.Context, tx repository.Tx, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.IsPhoneVerified = true
	r.db.users[id] = u
	return nil
}

// Delete cascades to children and the binding; the barcode stays assigned.
func (r *memUserRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.db.users, id)
	delete(r.db.bindings, id)
	for cid, c := range r.db.children {
		if c.UserID == id {
			delete(r.db.children, cid)
		}
	}
	return nil
}

// ---- children ----

type memChildRepo struct{ db *memDB }

var _ repository.ChildRepository = (*memChildRepo)(nil)

func (r *memChildRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Child, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*model.Child
	for _, c := range r.db.children {
		if c.UserID == userID {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memChildRepo) FindByID(ctx context.Context, tx repository.Tx, userID, id string) (*model.Child, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.children[id]
	if !ok || c.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r *memChildRepo) nameTaken(userID, name, exceptID string) bool {
	for _, c := range r.db.children {
		if c.UserID == userID && c.ID != exceptID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (r *memChildRepo) Create(ctx context.Context, tx repository.Tx, c *model.Child) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.nameTaken(c.UserID, c.Name, "") {
		return domain.ErrDuplicateChild
	}
	r.db.children[c.ID] = *c
	return nil
}

func (r *memChildRepo) Update(ctx context.Context, tx repository.Tx, c *model.Child) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.nameTaken(c.UserID, c.Name, c.ID) {
		return domain.ErrDuplicateChild
	}
	r.db.children[c.ID] = *c
	return nil
}

func (r *memChildRepo) Delete(ctx context.Context, tx repository.Tx, userID, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.children[id]
	if !ok || c.UserID != userID {
		return domain.ErrNotFound
	}
	delete(r.db.children, id)
	return nil
}

func (r *memChildRepo) DeleteByUser(ctx context.Context, tx repository.Tx, userID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, c := range r.db.children {
		if c.UserID == userID {
			delete(r.db.children, id)
		}
	}
	return nil
}

func (r *memChildRepo) ExistsByName(ctx context.Context, tx repository.Tx, userID, name, exceptID string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.nameTaken(userID, name, exceptID), nil
}

// ---- opportunities ----

type memOpportunityRepo struct{ db *memDB }

var _ repository.OpportunityRepository = (*memOpportunityRepo)(nil)

func (r *memOpportunityRepo) ListActive(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.OpportunityProduct, int, error) {
	// Postgres rejects a negative OFFSET or LIMIT.
	if offset < 0 || limit < 0 {
		return nil, 0, fmt.Errorf("negative offset %d or limit %d", offset, limit)
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var active []*model.OpportunityProduct
	for i := len(r.db.products) - 1; i >= 0; i-- {
		if p := r.db.products[i]; p.IsActive {
			active = append(active, &p)
		}
	}
	total := len(active)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return active[offset:end], total, nil
}

func (r *memOpportunityRepo) Create(ctx context.Context, tx repository.Tx, p *model.OpportunityProduct) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.products = append(r.db.products, *p)
	return nil
}

// =============================
// Coordination fakes
// =============================

// ---- In-memory Locker ----

type MockLocker struct {
	mu   sync.Mutex
	held map[string]string
}

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}}
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", domain.ErrLockBusy
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

// ---- In-memory attempt limiter ----

type MockLimiter struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewMockLimiter() *MockLimiter { return &MockLimiter{counts: map[string]int{}} }

func (l *MockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[key]++
	return l.counts[key] <= limit, nil
}

func (l *MockLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counts, key)
	return nil
}

// ---- Password hasher ----

// fakeHasher avoids bcrypt cost in unit tests.
type fakeHasher struct{}

var _ adapter.PasswordHasher = fakeHasher{}

func (fakeHasher) Hash(pw string) (string, error) { return "hashed:" + pw, nil }

func (fakeHasher) Compare(hash, pw string) error {
	if hash != "hashed:"+pw {
		return domain.ErrInvalidCredentials
	}
	return nil
}

// ---- Mock TxManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc overrides it.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
