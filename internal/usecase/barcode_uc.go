package usecase

import (
	"context"
	"errors"
	"time"

	"loyalty-campaign/internal/domain"
	"loyalty-campaign/internal/domain/model"
	"loyalty-campaign/internal/domain/ports/repository"
	"loyalty-campaign/internal/infra/logging"
	"loyalty-campaign/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ BarcodeUseCase = (*barcodeUC)(nil)

// Clock returns the current time. Tests substitute a fixed one.
type Clock func() time.Time

// BarcodeUseCase is the barcode allocator and the admin operations on the pool.
type BarcodeUseCase interface {
	// Assign binds one barcode of the active campaign to the user. It is
	// idempotent: a user that already has a binding gets it back unchanged.
	// domain.IsNoAssignment(err) reports the expected "nothing to hand out" cases.
	Assign(ctx context.Context, userID string, source model.AssignSource) (*model.UserBarcode, error)
	// GetOrAssign returns the user's binding, allocating one on first call.
	GetOrAssign(ctx context.Context, userID string) (*model.UserBarcodeView, error)
	// ForceAssign allocates only for unbound users. For bound users it returns
	// the existing binding together with domain.ErrAlreadyAssigned.
	ForceAssign(ctx context.Context, userID string) (*model.UserBarcodeView, error)
	// ResetAssignment marks barcodes unassigned, skipping any with a bound user.
	ResetAssignment(ctx context.Context, barcodeIDs []string) ([]model.ResetResult, error)
	SetActive(ctx context.Context, barcodeID string, active bool) error
	Status(ctx context.Context, now time.Time) (*model.PoolStatus, error)
}

type barcodeUC struct {
	campaigns repository.CampaignRepository
	barcodes  repository.CampaignBarcodeRepository
	bindings  repository.UserBarcodeRepository
	tm        repository.TransactionManager
	clock     Clock
	log       *zerolog.Logger
}

func NewBarcodeUseCase(
	campaigns repository.CampaignRepository,
	barcodes repository.CampaignBarcodeRepository,
	bindings repository.UserBarcodeRepository,
	tm repository.TransactionManager,
	clock Clock,
	logger *zerolog.Logger,
) *barcodeUC {
	if clock == nil {
		clock = time.Now
	}
	return &barcodeUC{
		campaigns: campaigns,
		barcodes:  barcodes,
		bindings:  bindings,
		tm:        tm,
		clock:     clock,
		log:       logger,
	}
}

func (u *barcodeUC) Assign(ctx context.Context, userID string, source model.AssignSource) (*model.UserBarcode, error) {
	defer logging.TraceDuration(u.log, "BarcodeUC.Assign")()
	ub, _, err := u.observedAssign(ctx, userID, source)
	return ub, err
}

// observedAssign runs assign with metrics and logging. The result is
// "assigned" only when this call created the binding.
func (u *barcodeUC) observedAssign(ctx context.Context, userID string, source model.AssignSource) (*model.UserBarcode, string, error) {
	start := time.Now()
	ub, result, err := u.assign(ctx, userID)
	metrics.ObserveAssignment(string(source), result, time.Since(start))

	log := logging.With(logging.WithUserID(ctx, userID), u.log)
	switch {
	case err == nil && result == "assigned":
		log.Info().Str("barcode", ub.Barcode.Code).Str("campaign", ub.Barcode.CampaignCode).
			Str("source", string(source)).Msg("barcode assigned")
	case domain.IsNoAssignment(err):
		log.Warn().Err(err).Str("source", string(source)).Msg("no barcode assigned")
	case err != nil:
		log.Error().Err(err).Str("source", string(source)).Msg("barcode assignment failed")
	}
	return ub, result, err
}

// assign implements the allocation steps. The result string feeds metrics.
func (u *barcodeUC) assign(ctx context.Context, userID string) (*model.UserBarcode, string, error) {
	if userID == "" {
		return nil, "error", domain.ErrInvalidArgument
	}

	// 1. Already bound: return the binding untouched.
	existing, err := u.bindings.FindByUserID(ctx, repository.NoTX, userID)
	if err == nil {
		return existing, "existing", nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, "error", err
	}

	// 2. Active campaign at now.
	campaign, err := u.campaigns.FindActive(ctx, repository.NoTX, u.clock())
	if errors.Is(err, domain.ErrNotFound) {
		return nil, "no_campaign", domain.ErrNoActiveCampaign
	}
	if err != nil {
		return nil, "error", err
	}

	// 3. Claim and bind in one transaction. A failed bind rolls the claim back.
	var created *model.UserBarcode
	err = u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		b, err := u.barcodes.ClaimNext(ctx, tx, campaign.Code)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrPoolExhausted
		}
		if err != nil {
			return err
		}
		ub := model.NewUserBarcode(userID, b)
		if err := u.bindings.Create(ctx, tx, ub); err != nil {
			return err
		}
		created = ub
		return nil
	})

	switch {
	case err == nil:
		if n, cerr := u.barcodes.CountAvailable(ctx, repository.NoTX, campaign.Code); cerr == nil {
			metrics.SetBarcodesAvailable(campaign.Code, n)
		}
		return created, "assigned", nil
	case errors.Is(err, domain.ErrAlreadyAssigned):
		// A concurrent call for the same user won; hand back its binding.
		winner, rerr := u.bindings.FindByUserID(ctx, repository.NoTX, userID)
		if rerr != nil {
			return nil, "error", rerr
		}
		return winner, "existing", nil
	case errors.Is(err, domain.ErrPoolExhausted):
		// The claim skips rows locked by other allocators, including one
		// binding this same user right now. Its commit wins over exhaustion.
		winner, rerr := u.bindings.FindByUserID(ctx, repository.NoTX, userID)
		if rerr == nil {
			return winner, "existing", nil
		}
		if !errors.Is(rerr, domain.ErrNotFound) {
			return nil, "error", rerr
		}
		metrics.SetBarcodesAvailable(campaign.Code, 0)
		return nil, "exhausted", err
	default:
		return nil, "error", err
	}
}

func (u *barcodeUC) GetOrAssign(ctx context.Context, userID string) (*model.UserBarcodeView, error) {
	defer logging.TraceDuration(u.log, "BarcodeUC.GetOrAssign")()
	ub, err := u.Assign(ctx, userID, model.AssignOnLookup)
	if err != nil {
		return nil, err
	}
	return u.view(ctx, ub), nil
}

func (u *barcodeUC) ForceAssign(ctx context.Context, userID string) (*model.UserBarcodeView, error) {
	defer logging.TraceDuration(u.log, "BarcodeUC.ForceAssign")()
	ub, result, err := u.observedAssign(ctx, userID, model.AssignManual)
	if err != nil {
		return nil, err
	}
	if result == "existing" {
		return u.view(ctx, ub), domain.ErrAlreadyAssigned
	}
	return u.view(ctx, ub), nil
}

// view attaches the campaign; a missing campaign is not an error.
func (u *barcodeUC) view(ctx context.Context, ub *model.UserBarcode) *model.UserBarcodeView {
	v := &model.UserBarcodeView{Binding: ub}
	if ub.Barcode == nil {
		return v
	}
	c, err := u.campaigns.FindByCode(ctx, repository.NoTX, ub.Barcode.CampaignCode)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			u.log.Warn().Err(err).Str("campaign", ub.Barcode.CampaignCode).Msg("load campaign for binding")
		}
		return v
	}
	v.Campaign = c
	return v
}

const (
	resetReasonNotFound = "barcode not found"
	resetReasonBound    = "barcode is bound to a user"
	resetReasonFree     = "barcode is already unassigned"
	resetReasonFailed   = "reset failed"
)

// ResetAssignment handles each id in its own transaction. The row lock makes
// the reset wait for an allocator that is claiming the same barcode, and the
// binding check runs after the lock so it sees that allocator's commit.
// A failing id is reported in its result and does not stop the others.
func (u *barcodeUC) ResetAssignment(ctx context.Context, barcodeIDs []string) ([]model.ResetResult, error) {
	defer logging.TraceDuration(u.log, "BarcodeUC.ResetAssignment")()

	results := make([]model.ResetResult, 0, len(barcodeIDs))
	for _, id := range barcodeIDs {
		res := model.ResetResult{BarcodeID: id}
		err := u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
			b, err := u.barcodes.LockByID(ctx, tx, id)
			if err != nil {
				return err
			}
			bound, err := u.bindings.ExistsForBarcode(ctx, tx, id)
			if err != nil {
				return err
			}
			if bound {
				return domain.ErrBarcodeBound
			}
			if !b.IsAssigned {
				res.Reason = resetReasonFree
				return nil
			}
			return u.barcodes.SetAssigned(ctx, tx, id, false)
		})

		switch {
		case err == nil && res.Reason == "":
			res.Reset = true
			metrics.IncBarcodeReset("reset")
			u.log.Info().Str("barcode_id", id).Msg("barcode reset to unassigned")
		case err == nil:
			metrics.IncBarcodeReset("unchanged")
		case errors.Is(err, domain.ErrNotFound):
			res.Reason = resetReasonNotFound
			metrics.IncBarcodeReset("not_found")
		case errors.Is(err, domain.ErrBarcodeBound):
			res.Reason = resetReasonBound
			metrics.IncBarcodeReset("bound")
		default:
			metrics.IncBarcodeReset("error")
			u.log.Error().Err(err).Str("barcode_id", id).Msg("barcode reset failed")
			res.Reason = resetReasonFailed
		}
		results = append(results, res)
	}
	return results, nil
}

func (u *barcodeUC) SetActive(ctx context.Context, barcodeID string, active bool) error {
	defer logging.TraceDuration(u.log, "BarcodeUC.SetActive")()
	return u.barcodes.SetActive(ctx, repository.NoTX, barcodeID, active)
}

func (u *barcodeUC) Status(ctx context.Context, now time.Time) (*model.PoolStatus, error) {
	defer logging.TraceDuration(u.log, "BarcodeUC.Status")()

	st := &model.PoolStatus{}
	c, err := u.campaigns.FindActive(ctx, repository.NoTX, now)
	switch {
	case err == nil:
		st.ActiveCampaign = &c.Code
		if st.AvailableBarcodes, err = u.barcodes.CountAvailable(ctx, repository.NoTX, c.Code); err != nil {
			return nil, err
		}
		metrics.SetBarcodesAvailable(c.Code, st.AvailableBarcodes)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}
	if st.TotalBarcodes, err = u.barcodes.CountAll(ctx, repository.NoTX); err != nil {
		return nil, err
	}
	if st.CampaignCount, err = u.campaigns.Count(ctx, repository.NoTX); err != nil {
		return nil, err
	}
	return st, nil
}
