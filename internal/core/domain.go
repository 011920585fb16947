package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusPlanned       Status = "planned"
	StatusBooked        Status = "booked"
	StatusPartiallyPaid Status = "partially-paid"
	StatusPaid          Status = "paid"
)

type (
	Status string

	// BudgetItem is a single user-created budget line. ID and CreatedAt are
	// assigned by the store on insert and never change afterwards; ModifiedAt
	// is stamped by the store on every write.
	BudgetItem struct {
		ID            string
		Description   string
		Category      string
		EstimatedCost Money
		ActualCost    *Money // nil until spending occurs; distinct from an actual cost of zero
		Status        Status
		CreatedAt     time.Time
		ModifiedAt    time.Time
		PaidDate      *time.Time
		DueDate       *time.Time
		Notes         string
	}

	// ItemDraft is the editable field set shared by create and edit.
	// ID, CreatedAt and ModifiedAt are deliberately not part of it, so a
	// caller cannot change them through an edit.
	ItemDraft struct {
		Description   string
		Category      string
		EstimatedCost Money
		ActualCost    *Money
		Status        Status
		PaidDate      *time.Time
		DueDate       *time.Time
		Notes         string
	}
)

var (
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidStatus      = errors.New("invalid status")
)

// Valid reports whether s is one of the four known item states.
// There is no enforced transition order between them.
func (s Status) Valid() bool {
	switch s {
	case StatusPlanned, StatusBooked, StatusPartiallyPaid, StatusPaid:
		return true
	default:
		return false
	}
}

func (d ItemDraft) Validate() error {
	if len(strings.TrimSpace(d.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(d.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if err := d.EstimatedCost.Validate(); err != nil {
		return err
	}
	if d.ActualCost != nil {
		if err := d.ActualCost.Validate(); err != nil {
			return err
		}
	}
	if !d.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}
