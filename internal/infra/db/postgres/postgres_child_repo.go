package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"loyalty-campaign/internal/domain"
	"loyalty-campaign/internal/domain/model"
	"loyalty-campaign/internal/domain/ports/repository"
)

var _ repository.ChildRepository = (*childRepo)(nil)

type childRepo struct{ pool *pgxpool.Pool }

func NewChildRepo(pool *pgxpool.Pool) *childRepo {
	return &childRepo{pool: pool}
}

const childCols = `id, user_id, name, grade, created_at, updated_at`

func scanChild(row pgx.Row) (*model.Child, error) {
	c := &model.Child{}
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Grade, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *childRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Child, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT `+childCols+` FROM children WHERE user_id=$1 ORDER BY created_at, id;`, userID)
	if err != nil {
		return nil, opErr(err)
	}
	defer rows.Close()

	out := []*model.Child{}
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *childRepo) FindByID(ctx context.Context, tx repository.Tx, userID, id string) (*model.Child, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+childCols+` FROM children WHERE id=$1 AND user_id=$2;`, id, userID)
	if err != nil {
		return nil, err
	}
	c, err := scanChild(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return c, nil
}

func (r *childRepo) Create(ctx context.Context, tx repository.Tx, c *model.Child) error {
	const q = `INSERT INTO children (` + childCols + `) VALUES ($1,$2,$3,$4,$5,$6);`
	_, err := execSQL(ctx, r.pool, tx, q, c.ID, c.UserID, c.Name, c.Grade, c.CreatedAt, c.UpdatedAt)
	return r.writeErr(err)
}

func (r *childRepo) Update(ctx context.Context, tx repository.Tx, c *model.Child) error {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE children SET name=$3, grade=$4, updated_at=$5 WHERE id=$1 AND user_id=$2;`,
		c.ID, c.UserID, c.Name, c.Grade, c.UpdatedAt)
	if err != nil {
		return r.writeErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *childRepo) writeErr(err error) error {
	if err == nil {
		return nil
	}
	if pgErr, ok := uniqueViolation(err); ok && pgErr.ConstraintName == conChildName {
		return domain.ErrDuplicateChild
	}
	return opErr(err)
}

func (r *childRepo) Delete(ctx context.Context, tx repository.Tx, userID, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM children WHERE id=$1 AND user_id=$2;`, id, userID)
	if err != nil {
		return opErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *childRepo) DeleteByUser(ctx context.Context, tx repository.Tx, userID string) error {
	if _, err := execSQL(ctx, r.pool, tx, `DELETE FROM children WHERE user_id=$1;`, userID); err != nil {
		return opErr(err)
	}
	return nil
}

func (r *childRepo) ExistsByName(ctx context.Context, tx repository.Tx, userID, name, exceptID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM children WHERE user_id=$1 AND lower(name)=lower($2) AND id::text <> $3);`
	row, err := pickRow(ctx, r.pool, tx, q, userID, name, exceptID)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return ok, nil
}
