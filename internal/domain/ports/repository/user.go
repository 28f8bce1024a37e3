package repository

import (
	"context"

	"loyalty-campaign/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

type UserRepository interface {
	Create(ctx context.Context, tx Tx, u *model.User) error
	Update(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByPhone(ctx context.Context, tx Tx, phone string) (*model.User, error)
	SetPhoneVerified(ctx context.Context, tx Tx, id string) error
	// Delete removes the user together with its children and barcode binding.
	// The bound barcode keeps is_assigned = true.
	Delete(ctx context.Context, tx Tx, id string) error
}

// -----------------------------
// Children
// -----------------------------

type ChildRepository interface {
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Child, error)
	FindByID(ctx context.Context, tx Tx, userID, id string) (*model.Child, error)
	Create(ctx context.Context, tx Tx, c *model.Child) error
	Update(ctx context.Context, tx Tx, c *model.Child) error
	Delete(ctx context.Context, tx Tx, userID, id string) error
	DeleteByUser(ctx context.Context, tx Tx, userID string) error
	// ExistsByName is case-insensitive; exceptID excludes the row being renamed.
	ExistsByName(ctx context.Context, tx Tx, userID, name, exceptID string) (bool, error)
}
