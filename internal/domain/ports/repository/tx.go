package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes fn inside a database transaction and hands the
// transaction handle to it as `tx`.
//
// Repositories that receive a tx run their statements on it, so a row claimed
// with FOR UPDATE stays locked until fn returns. Returning an error from fn
// rolls everything back.
//
// USAGE
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
//		b, err := barcodes.ClaimNext(ctx, tx, campaignCode)
//		...
//		return userBarcodes.Create(ctx, tx, binding)
//	})
//
// The concrete type of `tx` is infra-defined (pgx.Tx for Postgres).
// Repositories MUST accept NoTX (non-transactional path).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
