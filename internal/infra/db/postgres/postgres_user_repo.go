package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"loyalty-campaign/internal/domain"
	"loyalty-campaign/internal/domain/model"
	"loyalty-campaign/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

const userCols = `id, phone_number, first_name, last_name, password_hash, is_phone_verified, is_active,
       has_children, children_count, date_joined, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.PhoneNumber, &u.FirstName, &u.LastName, &u.PasswordHash, &u.IsPhoneVerified, &u.IsActive,
		&u.HasChildren, &u.ChildrenCount, &u.DateJoined, &u.UpdatedAt); err != nil {
		return nil, scanErr(err)
	}
	return &u, nil
}

func (r *PostgresUserRepo) Create(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (
  id, phone_number, first_name, last_name, password_hash, is_phone_verified, is_active,
  has_children, children_count, date_joined, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11);`
	_, err := execSQL(ctx, r.pool, tx, q, u.ID, u.PhoneNumber, u.FirstName, u.LastName, u.PasswordHash, u.IsPhoneVerified, u.IsActive,
		u.HasChildren, u.ChildrenCount, u.DateJoined, u.UpdatedAt)
	if err != nil {
		if pgErr, ok := uniqueViolation(err); ok && pgErr.ConstraintName == conUserPhone {
			return domain.ErrAlreadyExists
		}
		return opErr(err)
	}
	return nil
}

func (r *PostgresUserRepo) Update(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
UPDATE users SET first_name=$2, last_name=$3, password_hash=$4, is_active=$5,
  has_children=$6, children_count=$7, updated_at=$8
WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, u.ID, u.FirstName, u.LastName, u.PasswordHash, u.IsActive, u.HasChildren, u.ChildrenCount, u.UpdatedAt)
	if err != nil {
		return opErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	q := `SELECT ` + userCols + ` FROM users WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", id)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *PostgresUserRepo) FindByPhone(ctx context.Context, tx repository.Tx, phone string) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+userCols+` FROM users WHERE phone_number=$1;`, phone)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *PostgresUserRepo) SetPhoneVerified(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE users SET is_phone_verified=TRUE, updated_at=NOW() WHERE id=$1;`, id)
	if err != nil {
		return opErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete relies on ON DELETE CASCADE for children and user_barcodes.
func (r *PostgresUserRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM users WHERE id=$1;`, id)
	if err != nil {
		return opErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
