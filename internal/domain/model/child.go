package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Grade string

const (
	Grade3Yas    Grade = "3_yas"
	Grade4Yas    Grade = "4_yas"
	Grade5Yas    Grade = "5_yas"
	Grade1Sinif  Grade = "1_sinif"
	Grade2Sinif  Grade = "2_sinif"
	Grade3Sinif  Grade = "3_sinif"
	Grade4Sinif  Grade = "4_sinif"
	Grade5Sinif  Grade = "5_sinif"
	Grade6Sinif  Grade = "6_sinif"
	Grade7Sinif  Grade = "7_sinif"
	Grade8Sinif  Grade = "8_sinif"
	Grade9Sinif  Grade = "9_sinif"
	Grade10Sinif Grade = "10_sinif"
	Grade11Sinif Grade = "11_sinif"
	Grade12Sinif Grade = "12_sinif"
)

var gradeDisplay = map[Grade]string{
	Grade3Yas:    "3 Yaş",
	Grade4Yas:    "4 Yaş",
	Grade5Yas:    "5 Yaş",
	Grade1Sinif:  "1. Sınıf",
	Grade2Sinif:  "2. Sınıf",
	Grade3Sinif:  "3. Sınıf",
	Grade4Sinif:  "4. Sınıf",
	Grade5Sinif:  "5. Sınıf",
	Grade6Sinif:  "6. Sınıf",
	Grade7Sinif:  "7. Sınıf",
	Grade8Sinif:  "8. Sınıf",
	Grade9Sinif:  "9. Sınıf",
	Grade10Sinif: "10. Sınıf",
	Grade11Sinif: "11. Sınıf",
	Grade12Sinif: "12. Sınıf",
}

func (g Grade) Valid() bool {
	_, ok := gradeDisplay[g]
	return ok
}

func (g Grade) Display() string { return gradeDisplay[g] }

// Child is a sub-record of a user's profile.
type Child struct {
	ID        string
	UserID    string
	Name      string
	Grade     Grade
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChildInput is the user-supplied part of a Child.
type ChildInput struct {
	Name  string `json:"name"`
	Grade Grade  `json:"grade"`
}

var (
	errChildName  = errors.New("child name is required")
	errChildGrade = errors.New("unknown grade")
)

func (in ChildInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errChildName
	}
	if !in.Grade.Valid() {
		return errChildGrade
	}
	return nil
}

func NewChild(userID string, in ChildInput) (*Child, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	return &Child{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      strings.TrimSpace(in.Name),
		Grade:     in.Grade,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
