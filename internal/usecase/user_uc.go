package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"loyalty-campaign/internal/domain"
	"loyalty-campaign/internal/domain/model"
	"loyalty-campaign/internal/domain/ports/adapter"
	"loyalty-campaign/internal/domain/ports/repository"
	"loyalty-campaign/internal/infra/logging"
	"loyalty-campaign/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

const minPasswordLen = 8

type RegisterInput struct {
	PhoneNumber     string             `json:"phone_number"`
	Password        string             `json:"password"`
	PasswordConfirm string             `json:"password_confirm"`
	FirstName       string             `json:"first_name"`
	LastName        string             `json:"last_name"`
	HasChildren     bool               `json:"has_children"`
	ChildrenCount   int                `json:"children_count"`
	Children        []model.ChildInput `json:"children"`
}

// UpdateProfileInput leaves a field untouched when it is nil. Children are
// replaced wholesale only when HasChildren or ChildrenCount is given.
type UpdateProfileInput struct {
	FirstName       *string            `json:"first_name"`
	LastName        *string            `json:"last_name"`
	CurrentPassword string             `json:"current_password"`
	NewPassword     string             `json:"new_password"`
	HasChildren     *bool              `json:"has_children"`
	ChildrenCount   *int               `json:"children_count"`
	Children        []model.ChildInput `json:"children"`
}

// UserUseCase exposes account management used by the HTTP API.
type UserUseCase interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Authenticate(ctx context.Context, phone, password string) (*model.User, error)
	VerifyPhone(ctx context.Context, phone, code string) error
	Profile(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*model.User, error)
	DeleteAccount(ctx context.Context, userID string) error

	ListChildren(ctx context.Context, userID string) ([]*model.Child, error)
	AddChild(ctx context.Context, userID string, in model.ChildInput) (*model.Child, error)
	UpdateChild(ctx context.Context, userID, childID string, in model.ChildInput) (*model.Child, error)
	DeleteChild(ctx context.Context, userID, childID string) error
}

type UserUseCaseConfig struct {
	VerificationCode string
	LoginAttempts    int
	LoginWindow      time.Duration
	Dev              bool
}

type userUC struct {
	users    repository.UserRepository
	children repository.ChildRepository
	tm       repository.TransactionManager
	hasher   adapter.PasswordHasher
	limiter  repository.AttemptLimiter // optional
	hooks    []UserCreatedHook
	cfg      UserUseCaseConfig
	log      *zerolog.Logger
}

func NewUserUseCase(
	users repository.UserRepository,
	children repository.ChildRepository,
	tm repository.TransactionManager,
	hasher adapter.PasswordHasher,
	limiter repository.AttemptLimiter,
	cfg UserUseCaseConfig,
	logger *zerolog.Logger,
) *userUC {
	if cfg.LoginAttempts <= 0 {
		cfg.LoginAttempts = 5
	}
	if cfg.LoginWindow <= 0 {
		cfg.LoginWindow = 15 * time.Minute
	}
	return &userUC{
		users:    users,
		children: children,
		tm:       tm,
		hasher:   hasher,
		limiter:  limiter,
		cfg:      cfg,
		log:      logger,
	}
}

// OnUserCreated registers a hook run after every successful registration.
// Hooks are called in registration order. Not safe for use after startup.
func (u *userUC) OnUserCreated(h UserCreatedHook) {
	u.hooks = append(u.hooks, h)
}

func validatePassword(v *domain.ValidationError, field, pw, confirm string) {
	switch {
	case len(pw) < minPasswordLen:
		v.Add(field, "must be at least 8 characters")
	case pw != confirm:
		v.Add("password_confirm", domain.ErrPasswordMismatch.Error())
	}
}

func (u *userUC) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Register")()

	v := domain.NewValidationError()
	phone := model.NormalizePhone(in.PhoneNumber)
	if !model.ValidPhone(phone) {
		v.Add("phone_number", "invalid phone number")
	}
	validatePassword(v, "password", in.Password, in.PasswordConfirm)
	if err := model.ValidateChildren(in.HasChildren, in.ChildrenCount, in.Children); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			for k, msg := range ve.Fields {
				v.Add(k, msg)
			}
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user, err := model.NewUser("", phone, in.FirstName, in.LastName, hash)
	if err != nil {
		return nil, err
	}
	user.HasChildren = in.HasChildren
	user.ChildrenCount = in.ChildrenCount

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.users.Create(ctx, tx, user); err != nil {
			return err
		}
		for _, ci := range in.Children {
			c, err := model.NewChild(user.ID, ci)
			if err != nil {
				return err
			}
			if err := u.children.Create(ctx, tx, c); err != nil {
				return err
			}
			user.Children = append(user.Children, c)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}

	metrics.IncUsersRegistered()
	u.log.Info().Str("user_id", user.ID).Str("phone", logging.Redact(user.PhoneNumber, u.cfg.Dev)).Msg("user registered")

	for _, h := range u.hooks {
		h(ctx, user)
	}
	return user, nil
}

func (u *userUC) Authenticate(ctx context.Context, phone, password string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Authenticate")()

	phone = model.NormalizePhone(phone)
	key := "rate_limit:login:" + phone
	if u.limiter != nil {
		ok, err := u.limiter.Allow(ctx, key, u.cfg.LoginAttempts, u.cfg.LoginWindow)
		if err != nil {
			u.log.Warn().Err(err).Msg("login limiter unavailable, allowing attempt")
		} else if !ok {
			metrics.IncRateLimitTriggered()
			metrics.IncLogin("throttled")
			return nil, domain.ErrTooManyAttempts
		}
	}

	user, err := u.users.FindByPhone(ctx, repository.NoTX, phone)
	if errors.Is(err, domain.ErrNotFound) {
		metrics.IncLogin("invalid")
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := u.hasher.Compare(user.PasswordHash, password); err != nil {
		metrics.IncLogin("invalid")
		u.log.Warn().Str("phone", logging.Redact(phone, u.cfg.Dev)).Msg("login failed")
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		metrics.IncLogin("inactive")
		return nil, domain.ErrInactiveAccount
	}

	if u.limiter != nil {
		_ = u.limiter.Reset(ctx, key)
	}
	metrics.IncLogin("ok")
	return user, nil
}

func (u *userUC) VerifyPhone(ctx context.Context, phone, code string) error {
	defer logging.TraceDuration(u.log, "UserUC.VerifyPhone")()

	user, err := u.users.FindByPhone(ctx, repository.NoTX, model.NormalizePhone(phone))
	if err != nil {
		return err
	}
	if strings.TrimSpace(code) != u.cfg.VerificationCode {
		return domain.ErrInvalidVerification
	}
	return u.users.SetPhoneVerified(ctx, repository.NoTX, user.ID)
}

func (u *userUC) Profile(ctx context.Context, userID string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Profile")()

	user, err := u.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	if user.Children, err = u.children.ListByUser(ctx, repository.NoTX, userID); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userUC) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.UpdateProfile")()

	var out *model.User
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		user, err := u.users.FindByID(ctx, tx, userID)
		if err != nil {
			return err
		}

		v := domain.NewValidationError()
		if in.NewPassword != "" && in.CurrentPassword == "" {
			v.Add("current_password", "required to set a new password")
		}
		if in.CurrentPassword != "" && u.hasher.Compare(user.PasswordHash, in.CurrentPassword) != nil {
			v.Add("current_password", domain.ErrWrongPassword.Error())
		}
		if in.NewPassword != "" && len(in.NewPassword) < minPasswordLen {
			v.Add("new_password", "must be at least 8 characters")
		}

		replaceChildren := in.HasChildren != nil || in.ChildrenCount != nil
		hasChildren, count := user.HasChildren, user.ChildrenCount
		if in.HasChildren != nil {
			hasChildren = *in.HasChildren
		}
		if in.ChildrenCount != nil {
			count = *in.ChildrenCount
		}
		if replaceChildren {
			if err := model.ValidateChildren(hasChildren, count, in.Children); err != nil {
				var ve *domain.ValidationError
				if errors.As(err, &ve) {
					for k, msg := range ve.Fields {
						v.Add(k, msg)
					}
				}
			}
		}
		if err := v.OrNil(); err != nil {
			return err
		}

		if in.FirstName != nil {
			user.FirstName = strings.TrimSpace(*in.FirstName)
		}
		if in.LastName != nil {
			user.LastName = strings.TrimSpace(*in.LastName)
		}
		if in.NewPassword != "" {
			hash, err := u.hasher.Hash(in.NewPassword)
			if err != nil {
				return err
			}
			user.PasswordHash = hash
		}
		user.HasChildren, user.ChildrenCount = hasChildren, count
		user.Touch()
		if err := u.users.Update(ctx, tx, user); err != nil {
			return err
		}

		if replaceChildren {
			if err := u.children.DeleteByUser(ctx, tx, userID); err != nil {
				return err
			}
			for _, ci := range in.Children {
				c, err := model.NewChild(userID, ci)
				if err != nil {
					return err
				}
				if err := u.children.Create(ctx, tx, c); err != nil {
					return err
				}
			}
		}
		if user.Children, err = u.children.ListByUser(ctx, tx, userID); err != nil {
			return err
		}
		out = user
		return nil
	})
	return out, err
}

// DeleteAccount removes the user. The bound barcode is not returned to the pool.
func (u *userUC) DeleteAccount(ctx context.Context, userID string) error {
	defer logging.TraceDuration(u.log, "UserUC.DeleteAccount")()
	if err := u.users.Delete(ctx, repository.NoTX, userID); err != nil {
		return err
	}
	u.log.Info().Str("user_id", userID).Msg("account deleted")
	return nil
}

func (u *userUC) ListChildren(ctx context.Context, userID string) ([]*model.Child, error) {
	defer logging.TraceDuration(u.log, "UserUC.ListChildren")()
	return u.children.ListByUser(ctx, repository.NoTX, userID)
}

func (u *userUC) AddChild(ctx context.Context, userID string, in model.ChildInput) (*model.Child, error) {
	defer logging.TraceDuration(u.log, "UserUC.AddChild")()

	c, err := model.NewChild(userID, in)
	if err != nil {
		v := domain.NewValidationError()
		v.Add("child", err.Error())
		return nil, v
	}
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		dup, err := u.children.ExistsByName(ctx, tx, userID, c.Name, "")
		if err != nil {
			return err
		}
		if dup {
			return domain.ErrDuplicateChild
		}
		if err := u.children.Create(ctx, tx, c); err != nil {
			return err
		}
		return u.syncChildCount(ctx, tx, userID)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (u *userUC) UpdateChild(ctx context.Context, userID, childID string, in model.ChildInput) (*model.Child, error) {
	defer logging.TraceDuration(u.log, "UserUC.UpdateChild")()

	if err := in.Validate(); err != nil {
		v := domain.NewValidationError()
		v.Add("child", err.Error())
		return nil, v
	}
	var out *model.Child
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		c, err := u.children.FindByID(ctx, tx, userID, childID)
		if err != nil {
			return err
		}
		name := strings.TrimSpace(in.Name)
		dup, err := u.children.ExistsByName(ctx, tx, userID, name, childID)
		if err != nil {
			return err
		}
		if dup {
			return domain.ErrDuplicateChild
		}
		c.Name, c.Grade, c.UpdatedAt = name, in.Grade, time.Now()
		if err := u.children.Update(ctx, tx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

func (u *userUC) DeleteChild(ctx context.Context, userID, childID string) error {
	defer logging.TraceDuration(u.log, "UserUC.DeleteChild")()
	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.children.Delete(ctx, tx, userID, childID); err != nil {
			return err
		}
		return u.syncChildCount(ctx, tx, userID)
	})
}

// syncChildCount keeps has_children and children_count equal to the stored list.
func (u *userUC) syncChildCount(ctx context.Context, tx repository.Tx, userID string) error {
	user, err := u.users.FindByID(ctx, tx, userID)
	if err != nil {
		return err
	}
	list, err := u.children.ListByUser(ctx, tx, userID)
	if err != nil {
		return err
	}
	user.ChildrenCount = len(list)
	user.HasChildren = len(list) > 0
	user.Touch()
	return u.users.Update(ctx, tx, user)
}
