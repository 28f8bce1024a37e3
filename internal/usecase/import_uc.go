package usecase

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
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
var _ ImportUseCase = (*importUC)(nil)

// InvalidLine is one rejected input line, 1-based.
type InvalidLine struct {
	Line  int    `json:"line"`
	Value string `json:"value"`
}

// ImportReport summarises one bulk import run.
type ImportReport struct {
	CampaignCode string        `json:"campaign_code"`
	Processed    int           `json:"processed"`
	Created      int           `json:"created"`
	Duplicates   int           `json:"duplicates"`
	Invalid      int           `json:"invalid"`
	Errors       int           `json:"errors"`
	RolledBack   bool          `json:"rolled_back"`
	InvalidLines []InvalidLine `json:"invalid_lines,omitempty"`
}

type ImportUseCase interface {
	// Import reads newline separated codes from r and creates one barcode per
	// new six-digit code. The batch is all-or-nothing: an unexpected store
	// error rolls every insert back and is returned with RolledBack set.
	Import(ctx context.Context, r io.Reader, campaignCode, namePrefix string) (*ImportReport, error)
}

type importUC struct {
	campaigns repository.CampaignRepository
	barcodes  repository.CampaignBarcodeRepository
	tm        repository.TransactionManager
	locker    repository.Locker // optional
	log       *zerolog.Logger
}

func NewImportUseCase(
	campaigns repository.CampaignRepository,
	barcodes repository.CampaignBarcodeRepository,
	tm repository.TransactionManager,
	locker repository.Locker,
	logger *zerolog.Logger,
) *importUC {
	return &importUC{campaigns: campaigns, barcodes: barcodes, tm: tm, locker: locker, log: logger}
}

func importLockKey(code string) string { return "lock:import:" + code }

func (u *importUC) Import(ctx context.Context, r io.Reader, campaignCode, namePrefix string) (*ImportReport, error) {
	defer logging.TraceDuration(u.log, "ImportUC.Import")()

	campaignCode = strings.TrimSpace(campaignCode)
	if campaignCode == "" {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := u.campaigns.FindByCode(ctx, repository.NoTX, campaignCode); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("campaign %q: %w", campaignCode, err)
		}
		return nil, err
	}

	if u.locker != nil {
		token, err := u.locker.TryLock(ctx, importLockKey(campaignCode), 10*time.Minute)
		if err != nil {
			return nil, err
		}
		defer func() { _ = u.locker.Unlock(context.Background(), importLockKey(campaignCode), token) }()
	}

	rep := &ImportReport{CampaignCode: campaignCode}
	codes, err := u.parse(r, rep)
	if err != nil {
		return nil, err
	}

	var created, dups int
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		created, dups = 0, 0
		for _, code := range codes {
			exists, err := u.barcodes.ExistsByCode(ctx, tx, code)
			if err != nil {
				return err
			}
			if exists {
				dups++
				continue
			}
			b, err := model.NewCampaignBarcode(code, namePrefix, campaignCode)
			if err != nil {
				return err
			}
			err = u.barcodes.Create(ctx, tx, b)
			if errors.Is(err, domain.ErrAlreadyExists) {
				dups++
				continue
			}
			if err != nil {
				return fmt.Errorf("create barcode %s: %w", code, err)
			}
			created++
		}
		return nil
	})
	rep.Duplicates += dups
	if err != nil {
		rep.Errors++
		rep.RolledBack = true
		metrics.AddImportRows("error", 1)
		u.log.Error().Err(err).Str("campaign", campaignCode).Msg("barcode import rolled back")
		return rep, err
	}
	rep.Created = created

	metrics.AddImportRows("created", rep.Created)
	metrics.AddImportRows("duplicate", rep.Duplicates)
	metrics.AddImportRows("invalid", rep.Invalid)
	u.log.Info().
		Str("campaign", campaignCode).
		Int("processed", rep.Processed).
		Int("created", rep.Created).
		Int("duplicates", rep.Duplicates).
		Int("invalid", rep.Invalid).
		Msg("barcode import finished")
	return rep, nil
}

// parse validates every line and drops repeats within the file. Only codes
// that still need a store lookup are returned, in input order.
func (u *importUC) parse(r io.Reader, rep *ImportReport) ([]string, error) {
	seen := map[string]struct{}{}
	var codes []string

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		rep.Processed++
		if !model.ValidBarcodeCode(raw) {
			rep.Invalid++
			rep.InvalidLines = append(rep.InvalidLines, InvalidLine{Line: line, Value: raw})
			u.log.Warn().Int("line", line).Str("value", raw).Msg("invalid barcode format, skipped")
			continue
		}
		if _, dup := seen[raw]; dup {
			rep.Duplicates++
			continue
		}
		seen[raw] = struct{}{}
		codes = append(codes, raw)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read import input: %w", err)
	}
	return codes, nil
}
