package model

import (
	"regexp"
	"strings"
	"time"

	"loyalty-campaign/internal/domain"

	"github.com/google/uuid"
)

var phoneRe = regexp.MustCompile(`^(\+90|0)?5[0-9]{9}$`)

// NormalizePhone strips surrounding whitespace and inner spaces.
func NormalizePhone(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "")
}

// ValidPhone accepts Turkish mobile numbers: 5XXXXXXXXX, 05XXXXXXXXX or +905XXXXXXXXX.
func ValidPhone(s string) bool { return phoneRe.MatchString(s) }

// User is an account identified by its phone number.
type User struct {
	ID              string
	PhoneNumber     string
	FirstName       string
	LastName        string
	PasswordHash    string
	IsPhoneVerified bool
	IsActive        bool
	HasChildren     bool
	ChildrenCount   int
	DateJoined      time.Time
	UpdatedAt       time.Time

	Children []*Child
}

func NewUser(id, phone, firstName, lastName, passwordHash string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	phone = NormalizePhone(phone)
	if !ValidPhone(phone) {
		return nil, domain.ErrInvalidArgument
	}
	if passwordHash == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:           id,
		PhoneNumber:  phone,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		PasswordHash: passwordHash,
		IsActive:     true,
		DateJoined:   now,
		UpdatedAt:    now,
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
func (u *User) Touch()       { u.UpdatedAt = time.Now() }

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ValidateChildren enforces the has_children / children_count / children list
// consistency rules shared by registration and profile updates.
func ValidateChildren(hasChildren bool, count int, children []ChildInput) error {
	v := domain.NewValidationError()
	switch {
	case hasChildren && count <= 0:
		v.Add("children_count", "must be greater than 0")
	case hasChildren && count != len(children):
		v.Add("children", "children_count does not match the number of children given")
	case !hasChildren && (count > 0 || len(children) > 0):
		v.Add("children", "children must be empty when has_children is false")
	}
	seen := make(map[string]struct{}, len(children))
	for _, c := range children {
		if err := c.Validate(); err != nil {
			v.Add("children", err.Error())
			break
		}
		key := strings.ToLower(strings.TrimSpace(c.Name))
		if _, dup := seen[key]; dup {
			v.Add("children", domain.ErrDuplicateChild.Error())
			break
		}
		seen[key] = struct{}{}
	}
	return v.OrNil()
}
