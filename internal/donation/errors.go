package donation

import (
	"errors"
	"fmt"
	"time"

	"github.com/lifelink-dev/lifelink/pkg/bloodtype"
)

var (
	ErrDonorNotFound   = errors.New("donor not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrBankNotFound    = errors.New("blood bank not found")
	// ErrNotPending covers both "no such request" and "request not in the
	// pending state / not owned by the caller"; the two are deliberately
	// indistinguishable to callers.
	ErrNotPending = errors.New("donation request not found or not pending")
)

// IncompleteProfileError reports a donor or patient profile missing the city
// or blood bank fields needed to route a request.
type IncompleteProfileError struct {
	Who string // "donor" or "patient"
}

func (e *IncompleteProfileError) Error() string {
	return fmt.Sprintf("%s profile incomplete: blood bank or city information missing", e.Who)
}

// IncompatibleError reports a donor/patient blood type mismatch along with
// the full compatibility picture for the response body.
type IncompatibleError struct {
	Info bloodtype.Info
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("blood type incompatible: donor (%s) cannot donate to patient (%s)",
		e.Info.DonorType, e.Info.PatientType)
}

// IneligibleError reports a donor inside the mandatory waiting window.
type IneligibleError struct {
	Reason           string
	NextEligibleDate time.Time
	LastDonationDate time.Time
}

func (e *IneligibleError) Error() string { return e.Reason }

// DuplicateRequestError reports an existing pending request for the same
// (donor, patient) pair.
type DuplicateRequestError struct {
	ExistingRequestID string
}

func (e *DuplicateRequestError) Error() string {
	return "a pending donation request already exists for this patient"
}
