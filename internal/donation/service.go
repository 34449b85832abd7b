// Package donation implements the donation request lifecycle: a donor
// creates a pending request against a patient, and the owning blood bank
// accepts it (spawning individually tracked blood units) or rejects it.
package donation

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/lifelink-dev/lifelink/internal/certificate"
	"github.com/lifelink-dev/lifelink/internal/database"
	"github.com/lifelink-dev/lifelink/internal/notify"
	"github.com/lifelink-dev/lifelink/pkg/bloodtype"
	"github.com/lifelink-dev/lifelink/pkg/models"
)

const (
	// DefaultExpiryDays is how long a unit stays usable after donation.
	DefaultExpiryDays = 35
	// MaxExpiryDays is the hard upper bound on a unit's shelf life.
	MaxExpiryDays = 42
	// MaxUnitsPerDonation caps how many bags one acceptance can create.
	MaxUnitsPerDonation = 10
)

// Service coordinates the donation request workflow.
type Service struct {
	db       *database.DB
	certs    *certificate.Service
	notifier *notify.Notifier
}

// New creates a donation service.
func New(db *database.DB, certs *certificate.Service, notifier *notify.Notifier) *Service {
	return &Service{db: db, certs: certs, notifier: notifier}
}

// CreateInput is the validated input for a new donation request.
type CreateInput struct {
	DonorID       string
	PatientID     string
	UrgencyLevel  models.UrgencyLevel
	RequiredUnits int
	Notes         string
	PreferredDate *time.Time
}

// CreateResult carries the new request plus the donor/patient summaries the
// response echoes back.
type CreateResult struct {
	Request *models.DonationRequest
	Donor   *models.Donor
	Patient *models.Patient
}

// Create validates and persists a new pending donation request.
//
// The checks run in order: both profiles exist and are complete (city +
// associated bank), donor blood is compatible with the patient, the donor is
// outside the waiting window, the donor's bank (matched by name and city)
// exists, and no pending request already exists for this (donor, patient)
// pair. Donor, patient, and bank fields are snapshotted onto the request so
// later profile edits do not rewrite history.
func (s *Service) Create(in CreateInput) (*CreateResult, error) {
	donor, err := s.db.GetDonorByID(in.DonorID)
	if err != nil {
		return nil, fmt.Errorf("lookup donor: %w", err)
	}
	if donor == nil {
		return nil, ErrDonorNotFound
	}
	if donor.BloodBank == "" || donor.City == "" {
		return nil, &IncompleteProfileError{Who: "donor"}
	}

	patient, err := s.db.GetPatientByID(in.PatientID)
	if err != nil {
		return nil, fmt.Errorf("lookup patient: %w", err)
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}
	if patient.BloodBank == "" || patient.City == "" {
		return nil, &IncompleteProfileError{Who: "patient"}
	}

	if !bloodtype.Compatible(donor.BloodType, patient.BloodType) {
		return nil, &IncompatibleError{Info: bloodtype.Describe(donor.BloodType, patient.BloodType)}
	}

	if elig := s.CheckEligibility(donor.ID); !elig.Eligible {
		e := &IneligibleError{Reason: elig.Reason}
		if elig.NextEligibleDate != nil {
			e.NextEligibleDate = *elig.NextEligibleDate
		}
		if elig.LastDonationDate != nil {
			e.LastDonationDate = *elig.LastDonationDate
		}
		return nil, e
	}

	bank, err := s.db.GetBloodBankByNameCity(donor.BloodBank, donor.City)
	if err != nil {
		return nil, fmt.Errorf("lookup blood bank: %w", err)
	}
	if bank == nil {
		return nil, ErrBankNotFound
	}

	existing, err := s.db.FindPendingRequest(donor.ID, patient.ID)
	if err != nil {
		return nil, fmt.Errorf("check pending request: %w", err)
	}
	if existing != nil {
		return nil, &DuplicateRequestError{ExistingRequestID: existing.ID}
	}

	urgency := in.UrgencyLevel
	if urgency == "" {
		urgency = models.UrgencyMedium
	}
	requiredUnits := in.RequiredUnits
	if requiredUnits == 0 {
		requiredUnits = 1
	}

	req := &models.DonationRequest{
		ID:                   uuid.New().String(),
		DonorID:              donor.ID,
		DonorName:            donor.Name,
		DonorBloodType:       donor.BloodType,
		BloodBankID:          bank.ID,
		BloodBankName:        bank.Name,
		PatientID:            patient.ID,
		PatientCity:          patient.City,
		PatientBloodBankName: patient.BloodBank,
		PatientBloodType:     patient.BloodType,
		UrgencyLevel:         urgency,
		RequiredUnits:        requiredUnits,
		Notes:                in.Notes,
		PreferredDate:        in.PreferredDate,
		Status:               models.RequestStatusPending,
		CreatedAt:            time.Now(),
	}
	if err := s.db.CreateDonationRequest(req); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	s.notifier.Dispatch(notify.EventDonationRequest, map[string]interface{}{
		"requestId":   req.ID,
		"donorName":   donor.Name,
		"patientName": patient.Name,
		"bloodType":   donor.BloodType,
	})
	s.logAnalytics(req, donor, patient)

	return &CreateResult{Request: req, Donor: donor, Patient: patient}, nil
}

// logAnalytics records a structured line about the new request. Failures
// here are impossible by construction; the point is the explicit, detached
// call shape alongside notification dispatch.
func (s *Service) logAnalytics(req *models.DonationRequest, donor *models.Donor, patient *models.Patient) {
	log.Printf("analytics: donation_request id=%s donorCity=%s patientCity=%s bloodType=%s crossCity=%v",
		req.ID, donor.City, patient.City, donor.BloodType, donor.City != patient.City)
}

// AcceptInput is the validated input for accepting a donation request.
type AcceptInput struct {
	DonationRequestID string
	NumberOfUnits     int
	Notes             string
	ExpiryDays        int
}

// AcceptResult carries the mutated request, its new units, and the outcome
// of the best-effort certificate generation.
type AcceptResult struct {
	Request         *models.DonationRequest
	Units           []models.BloodUnit
	CertificatePath string
	// CertificateNote is set when certificate generation failed; the accept
	// itself still succeeded.
	CertificateNote string
}

// Accept atomically flips a pending request owned by bankID to success and
// creates its blood units, then attempts certificate generation as a
// best-effort side operation that cannot fail the accept.
func (s *Service) Accept(bankID string, in AcceptInput) (*AcceptResult, error) {
	req, err := s.db.GetPendingRequestForBank(in.DonationRequestID, bankID)
	if err != nil {
		return nil, fmt.Errorf("lookup request: %w", err)
	}
	if req == nil {
		return nil, ErrNotPending
	}

	bank, err := s.db.GetBloodBankByID(bankID)
	if err != nil {
		return nil, fmt.Errorf("lookup blood bank: %w", err)
	}
	if bank == nil {
		return nil, ErrBankNotFound
	}

	numberOfUnits := in.NumberOfUnits
	if numberOfUnits == 0 {
		numberOfUnits = 1
	}
	expiryDays := in.ExpiryDays
	if expiryDays == 0 {
		expiryDays = DefaultExpiryDays
	}

	donationDate := time.Now()
	expiryDate := donationDate.AddDate(0, 0, expiryDays)

	units := make([]models.BloodUnit, 0, numberOfUnits)
	for i := 1; i <= numberOfUnits; i++ {
		units = append(units, models.BloodUnit{
			ID:                uuid.New().String(),
			UnitNumber:        i,
			DonationRequestID: req.ID,
			DonorID:           req.DonorID,
			DonorName:         req.DonorName,
			DonorBloodType:    req.DonorBloodType,
			BloodBankID:       bank.ID,
			BloodBankName:     bank.Name,
			DonationDate:      donationDate,
			ExpiryDate:        expiryDate,
			Volume:            models.StandardBagVolumeML,
			Status:            models.UnitStatusAvailable,
			Barcode:           Barcode(bank.Name, req.ID, i),
			Notes:             in.Notes,
		})
	}

	ok, err := s.db.AcceptDonationRequest(req.ID, bankID, units)
	if err != nil {
		return nil, fmt.Errorf("accept request: %w", err)
	}
	if !ok {
		// A concurrent accept or reject won the race.
		return nil, ErrNotPending
	}
	req.Status = models.RequestStatusSuccess

	result := &AcceptResult{Request: req, Units: units}

	path, certErr := s.certs.Generate(req)
	if certErr != nil {
		log.Printf("certificate generation for request %s failed: %v", req.ID, certErr)
		result.CertificateNote = "PDF certificate generation failed, but donation was processed successfully."
	} else {
		result.CertificatePath = path
	}

	s.notifier.Dispatch(notify.EventDonationAccepted, map[string]interface{}{
		"requestId":     req.ID,
		"donorName":     req.DonorName,
		"bloodBank":     bank.Name,
		"numberOfUnits": numberOfUnits,
	})

	return result, nil
}

// Reject flips a pending request owned by bankID to rejected.
func (s *Service) Reject(bankID, requestID string) (*models.DonationRequest, error) {
	ok, err := s.db.RejectDonationRequest(requestID, bankID)
	if err != nil {
		return nil, fmt.Errorf("reject request: %w", err)
	}
	if !ok {
		return nil, ErrNotPending
	}

	req, err := s.db.GetDonationRequest(requestID)
	if err != nil {
		return nil, fmt.Errorf("reload request: %w", err)
	}

	s.notifier.Dispatch(notify.EventDonationRejected, map[string]interface{}{
		"requestId": requestID,
	})
	return req, nil
}

// StatusSummary counts a bank's requests per status. The vocabulary
// intentionally includes statuses no write path produces (approved,
// completed, cancelled) because downstream consumers read these keys.
type StatusSummary struct {
	Pending   int `json:"pending"`
	Success   int `json:"success"`
	Approved  int `json:"approved"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	Rejected  int `json:"rejected"`
}

// ListForBank returns every request a bank owns plus a status summary.
func (s *Service) ListForBank(bankID string) ([]models.DonationRequest, StatusSummary, error) {
	requests, err := s.db.ListRequestsForBank(bankID, "")
	if err != nil {
		return nil, StatusSummary{}, fmt.Errorf("list requests: %w", err)
	}

	var summary StatusSummary
	for _, r := range requests {
		switch r.Status {
		case models.RequestStatusPending:
			summary.Pending++
		case models.RequestStatusSuccess:
			summary.Success++
		case models.RequestStatusApproved:
			summary.Approved++
		case models.RequestStatusCompleted:
			summary.Completed++
		case models.RequestStatusCancelled:
			summary.Cancelled++
		case models.RequestStatusRejected:
			summary.Rejected++
		}
	}
	return requests, summary, nil
}

// ListApprovedForBank returns a bank's requests in the approved status.
// Nothing in this codebase transitions a request to approved, so today this
// is always empty; the query contract is preserved for consumers that
// depend on the endpoint.
func (s *Service) ListApprovedForBank(bankID string) ([]models.DonationRequest, error) {
	return s.db.ListRequestsForBank(bankID, models.RequestStatusApproved)
}

// HistoryEntry is one successful donation in a donor's history.
type HistoryEntry struct {
	DonationID             string              `json:"donationId"`
	DonationDate           time.Time           `json:"donationDate"`
	BloodType              string              `json:"bloodType"`
	BloodBank              string              `json:"bloodBank"`
	UnitsCount             int                 `json:"unitsCount"`
	TotalVolume            int                 `json:"totalVolume"`
	UnitsUsed              int                 `json:"unitsUsed"`
	UrgencyLevel           models.UrgencyLevel `json:"urgencyLevel"`
	CertificateDownloadURL string              `json:"certificateDownloadUrl"`
}

// History returns a donor's successful donations with per-donation unit
// counts and certificate download links.
func (s *Service) History(donorID string) ([]HistoryEntry, error) {
	donations, err := s.db.ListSuccessfulRequestsForDonor(donorID)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(donations))
	for _, d := range donations {
		units, err := s.db.ListBloodUnitsForRequest(d.ID)
		if err != nil {
			return nil, fmt.Errorf("list units for %s: %w", d.ID, err)
		}
		used := 0
		for _, u := range units {
			if u.Status == models.UnitStatusUsed {
				used++
			}
		}
		entries = append(entries, HistoryEntry{
			DonationID:             d.ID,
			DonationDate:           d.CreatedAt,
			BloodType:              d.DonorBloodType,
			BloodBank:              d.BloodBankName,
			UnitsCount:             len(units),
			TotalVolume:            len(units) * models.StandardBagVolumeML,
			UnitsUsed:              used,
			UrgencyLevel:           d.UrgencyLevel,
			CertificateDownloadURL: "/donations/certificate/" + d.ID + "/download",
		})
	}
	return entries, nil
}

// Barcode derives a unit barcode from the bank name, the tail of the
// request ID, and the unit number.
func Barcode(bankName, requestID string, unitNumber int) string {
	tail := requestID
	if len(tail) > 8 {
		tail = tail[len(tail)-8:]
	}
	return fmt.Sprintf("%s-%s-%d", bankName, tail, unitNumber)
}
