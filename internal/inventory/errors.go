package inventory

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnitNotFound means the unit does not exist or is not owned by the
	// requesting bank.
	ErrUnitNotFound = errors.New("blood unit not found")
	// ErrUnitNotAvailable means the unit exists but is not in the
	// available status.
	ErrUnitNotAvailable = errors.New("blood unit is not available")
	// ErrPatientNotFound means the patient the unit is being used for does
	// not exist.
	ErrPatientNotFound = errors.New("patient not found")
)

// ExpiredUnitError reports an attempt to use a unit past its expiry date.
type ExpiredUnitError struct {
	UnitID     string
	ExpiryDate time.Time
}

func (e *ExpiredUnitError) Error() string {
	return fmt.Sprintf("blood unit %s expired on %s", e.UnitID, e.ExpiryDate.Format("2006-01-02"))
}

// InsufficientUnitsError reports an allocation that could not be fully
// satisfied. No units are consumed when this is returned.
type InsufficientUnitsError struct {
	BloodType string
	Requested int
	Available int
}

func (e *InsufficientUnitsError) Error() string {
	return fmt.Sprintf("insufficient %s units: requested %d, available %d", e.BloodType, e.Requested, e.Available)
}
