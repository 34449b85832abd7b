// Package certificate assembles donation certificate records from donor,
// patient, bank, and blood unit rows and renders them to PDF files. The
// assembly is read-only; rendering writes one file per call into the
// configured output directory.
package certificate

import (
	"errors"
	"fmt"
	"time"

	"github.com/lifelink-dev/lifelink/internal/database"
	"github.com/lifelink-dev/lifelink/pkg/models"
)

var (
	// ErrNotFound covers a request that is absent, not owned by the caller,
	// or not in the success state.
	ErrNotFound = errors.New("donation request not found or not successful")
	// ErrIncomplete means a donor, patient, or bank row backing the request
	// is missing, so the certificate cannot be assembled.
	ErrIncomplete = errors.New("required data not found for certificate generation")
)

// UnitSummary is the per-unit slice of a certificate.
type UnitSummary struct {
	ID         string    `json:"id"`
	UnitNumber int       `json:"unitNumber"`
	Barcode    string    `json:"barcode"`
	Volume     int       `json:"volume"`
	ExpiryDate time.Time `json:"expiryDate"`
}

// Record is everything a rendered certificate shows, joined on demand from
// the request's snapshot and the live donor/patient/bank rows.
type Record struct {
	DonorName         string              `json:"donorName"`
	DonorID           string              `json:"donorId"`
	DonorEmail        string              `json:"donorEmail"`
	DonorPhone        string              `json:"donorPhone"`
	DonorBloodType    string              `json:"donorBloodType"`
	DonorAge          int                 `json:"donorAge"`
	BloodBankName     string              `json:"bloodBankName"`
	BloodBankAddress  string              `json:"bloodBankAddress"`
	DonationDate      time.Time           `json:"donationDate"`
	NumberOfUnits     int                 `json:"numberOfUnits"`
	Units             []UnitSummary       `json:"bloodUnits"`
	DonationRequestID string              `json:"donationRequestId"`
	UrgencyLevel      models.UrgencyLevel `json:"urgencyLevel"`
	PatientBloodType  string              `json:"patientBloodType"`
}

// Service assembles and renders donation certificates.
type Service struct {
	db        *database.DB
	outputDir string
}

// New creates a certificate service writing PDFs under outputDir.
func New(db *database.DB, outputDir string) *Service {
	return &Service{db: db, outputDir: outputDir}
}

// Assemble joins the data behind a successful donation request into a
// certificate record. Missing donor/patient/bank rows surface as
// ErrIncomplete, not as internal errors.
func (s *Service) Assemble(req *models.DonationRequest) (*Record, error) {
	donor, err := s.db.GetDonorByID(req.DonorID)
	if err != nil {
		return nil, fmt.Errorf("lookup donor: %w", err)
	}
	patient, err := s.db.GetPatientByID(req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("lookup patient: %w", err)
	}
	bank, err := s.db.GetBloodBankByID(req.BloodBankID)
	if err != nil {
		return nil, fmt.Errorf("lookup blood bank: %w", err)
	}
	if donor == nil || patient == nil || bank == nil {
		return nil, ErrIncomplete
	}

	units, err := s.db.ListBloodUnitsForRequest(req.ID)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}

	rec := &Record{
		DonorName:         donor.Name,
		DonorID:           req.DonorID,
		DonorEmail:        donor.Email,
		DonorPhone:        donor.Phone,
		DonorBloodType:    req.DonorBloodType,
		DonorAge:          donor.Age,
		BloodBankName:     bank.Name,
		BloodBankAddress:  bank.Address,
		DonationDate:      req.CreatedAt,
		NumberOfUnits:     len(units),
		DonationRequestID: req.ID,
		UrgencyLevel:      req.UrgencyLevel,
		PatientBloodType:  patient.BloodType,
	}
	if rec.BloodBankAddress == "" {
		rec.BloodBankAddress = bank.Name + " Blood Bank"
	}
	if len(units) > 0 {
		rec.DonationDate = units[0].DonationDate
	}
	for _, u := range units {
		rec.Units = append(rec.Units, UnitSummary{
			ID:         u.ID,
			UnitNumber: u.UnitNumber,
			Barcode:    u.Barcode,
			Volume:     u.Volume,
			ExpiryDate: u.ExpiryDate,
		})
	}
	return rec, nil
}

// AssembleForDonor assembles the certificate for a successful request, but
// only if donorID is the donor who made it. Anything else is ErrNotFound.
func (s *Service) AssembleForDonor(requestID, donorID string) (*Record, error) {
	req, err := s.db.GetDonationRequest(requestID)
	if err != nil {
		return nil, fmt.Errorf("lookup request: %w", err)
	}
	if req == nil || req.DonorID != donorID || req.Status != models.RequestStatusSuccess {
		return nil, ErrNotFound
	}
	return s.Assemble(req)
}

// Generate assembles and renders the certificate for a request, returning
// the path of the written PDF.
func (s *Service) Generate(req *models.DonationRequest) (string, error) {
	rec, err := s.Assemble(req)
	if err != nil {
		return "", err
	}
	return s.Render(rec)
}
