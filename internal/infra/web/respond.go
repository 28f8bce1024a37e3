package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"loyalty-campaign/internal/domain"
	"loyalty-campaign/internal/infra/i18n"
	"loyalty-campaign/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Message keys, resolved against the request's locale.
const (
	msgInternal       = "error.internal"
	msgInvalidBody    = "error.invalid_body"
	msgValidation     = "error.validation"
	msgNotFound       = "error.not_found"
	msgNoBarcode      = "barcode.none_available"
	msgNoCampaign     = "campaign.none_active"
	msgBadCredentials = "auth.bad_credentials"
)

// envelope is the {success, message, ...} body every endpoint answers with.
type envelope map[string]any

type ctxKey int

const translatorKey ctxKey = 0

func withTranslator(ctx context.Context, t *i18n.Translator) context.Context {
	return context.WithValue(ctx, translatorKey, t)
}

// msg resolves a message key for the request. Without a translator in the
// context the key itself is returned.
func msg(r *http.Request, key string, args ...any) string {
	if t, ok := r.Context().Value(translatorKey).(*i18n.Translator); ok && t != nil {
		return t.T(key, args...)
	}
	return key
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeMessage answers with a bare envelope carrying the localized key.
func writeMessage(w http.ResponseWriter, r *http.Request, status int, success bool, key string, args ...any) {
	writeJSON(w, status, envelope{"success": success, "message": msg(r, key, args...)})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return domain.ErrInvalidArgument
	}
	return nil
}

// statusFor maps domain errors onto HTTP statuses and message keys.
// Anything unknown is a 500 with a generic message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNoActiveCampaign):
		return http.StatusNotFound, msgNoCampaign
	case errors.Is(err, domain.ErrPoolExhausted):
		return http.StatusNotFound, msgNoBarcode
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, "error.conflict"
	case errors.Is(err, domain.ErrLockBusy):
		return http.StatusConflict, "error.lock_busy"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgBadCredentials
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "auth.unauthorized"
	case errors.Is(err, domain.ErrTokenRevoked):
		return http.StatusUnauthorized, "auth.token_revoked"
	case errors.Is(err, domain.ErrInactiveAccount):
		return http.StatusForbidden, "auth.inactive"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "auth.too_many_attempts"
	case errors.Is(err, domain.ErrInvalidVerification):
		return http.StatusBadRequest, "user.invalid_verification"
	case errors.Is(err, domain.ErrDuplicateChild):
		return http.StatusBadRequest, "child.duplicate"
	case errors.Is(err, domain.ErrAlreadyAssigned):
		return http.StatusBadRequest, "barcode.already_assigned"
	case errors.Is(err, domain.ErrBarcodeBound):
		return http.StatusBadRequest, "barcode.bound"
	case errors.Is(err, domain.ErrWrongPassword):
		return http.StatusBadRequest, "user.wrong_password"
	case errors.Is(err, domain.ErrPasswordMismatch):
		return http.StatusBadRequest, "user.password_mismatch"
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "error.invalid_argument"
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// writeError answers with the mapped status. Validation errors carry their
// per-field messages; unexpected errors are logged and never leaked.
func writeError(w http.ResponseWriter, r *http.Request, logger *zerolog.Logger, op string, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, envelope{"success": false, "message": msg(r, msgValidation), "errors": ve.Fields})
		return
	}
	status, key := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.With(r.Context(), logger).Error().Err(err).Str("op", op).Msg("request failed")
	}
	writeMessage(w, r, status, false, key)
}
