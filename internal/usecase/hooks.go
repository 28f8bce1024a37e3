package usecase

import (
	"context"

	"loyalty-campaign/internal/domain"
	"loyalty-campaign/internal/domain/model"
	"loyalty-campaign/internal/infra/logging"

	"github.com/rs/zerolog"
)

// UserCreatedHook runs once after a new user's registration has committed.
// Hooks cannot fail the registration; they handle their own errors.
type UserCreatedHook func(ctx context.Context, u *model.User)

// AutoAssignHook gives every new user a barcode when one is available.
// Every failure is logged and dropped.
func AutoAssignHook(barcodes BarcodeUseCase, logger *zerolog.Logger) UserCreatedHook {
	return func(ctx context.Context, u *model.User) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().Interface("panic", r).Str("user_id", u.ID).Msg("auto-assign hook panicked")
			}
		}()
		_, err := barcodes.Assign(ctx, u.ID, model.AssignOnRegister)
		if err == nil {
			return
		}
		log := logging.With(logging.WithUserID(ctx, u.ID), logger)
		if domain.IsNoAssignment(err) {
			log.Info().Err(err).Msg("registered without barcode")
			return
		}
		log.Error().Err(err).Msg("auto-assign after registration failed")
	}
}
