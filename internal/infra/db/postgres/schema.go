package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// Schema creates every table the service needs. All statements are idempotent.
//
//go:embed schema.sql
var Schema string

// Constraint names the repositories inspect on unique violations.
const (
	conUserBarcodeUser    = "user_barcodes_user_id_key"
	conUserBarcodeBarcode = "user_barcodes_campaign_barcode_id_key"
	conUserPhone          = "users_phone_number_key"
	conChildName          = "children_user_name_key"
)

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
