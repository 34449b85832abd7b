package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lifelink-dev/lifelink/internal/donation"
	"github.com/lifelink-dev/lifelink/pkg/models"
)

// maxNotesLen caps free-text notes on a donation request.
const maxNotesLen = 500

type donateRequest struct {
	PatientID     string `json:"patientId"`
	UrgencyLevel  string `json:"urgencyLevel"`
	RequiredUnits int    `json:"requiredUnits"`
	Notes         string `json:"notes"`
	PreferredDate string `json:"preferredDate"`
}

// Donate handles POST /donate. The authenticated donor requests to donate
// to a patient.
func (h *Handler) Donate(w http.ResponseWriter, r *http.Request) {
	claims, _ := GetClaimsFromContext(r.Context())

	var req donateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PatientID == "" {
		respondError(w, http.StatusBadRequest, "patientId is required")
		return
	}

	urgency := models.UrgencyLevel(req.UrgencyLevel)
	if req.UrgencyLevel != "" && !urgency.Valid() {
		respondError(w, http.StatusBadRequest, "urgencyLevel must be low, medium, high, or critical")
		return
	}
	if req.RequiredUnits < 0 || req.RequiredUnits > donation.MaxUnitsPerDonation {
		respondError(w, http.StatusBadRequest, "requiredUnits must be between 1 and 10")
		return
	}
	if len(req.Notes) > maxNotesLen {
		respondError(w, http.StatusBadRequest, "notes must be at most 500 characters")
		return
	}

	var preferred *time.Time
	if req.PreferredDate != "" {
		t, err := parseDate(req.PreferredDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "preferredDate must be an ISO date")
			return
		}
		preferred = &t
	}

	result, err := h.donations.Create(donation.CreateInput{
		DonorID:       claims.UserID,
		PatientID:     req.PatientID,
		UrgencyLevel:  urgency,
		RequiredUnits: req.RequiredUnits,
		Notes:         req.Notes,
		PreferredDate: preferred,
	})
	if err != nil {
		h.donationError(w, err)
		return
	}

	respondOK(w, http.StatusCreated, "Donation request created successfully", map[string]interface{}{
		"request": result.Request,
		"compatibility": map[string]string{
			"donorBloodType":   result.Donor.BloodType,
			"patientBloodType": result.Patient.BloodType,
		},
	})
}

// donationError maps lifecycle errors onto HTTP responses.
func (h *Handler) donationError(w http.ResponseWriter, err error) {
	var incomplete *donation.IncompleteProfileError
	var incompatible *donation.IncompatibleError
	var ineligible *donation.IneligibleError
	var duplicate *donation.DuplicateRequestError

	switch {
	case errors.Is(err, donation.ErrDonorNotFound):
		respondError(w, http.StatusNotFound, "Donor not found")
	case errors.Is(err, donation.ErrPatientNotFound):
		respondError(w, http.StatusNotFound, "Patient not found")
	case errors.Is(err, donation.ErrBankNotFound):
		respondError(w, http.StatusNotFound, "Blood bank not found for donor's profile")
	case errors.Is(err, donation.ErrNotPending):
		respondError(w, http.StatusNotFound, "Donation request not found or not pending")
	case errors.As(err, &incomplete):
		respondError(w, http.StatusBadRequest, incomplete.Error())
	case errors.As(err, &incompatible):
		respondErrorData(w, http.StatusBadRequest, incompatible.Error(), incompatible.Info)
	case errors.As(err, &ineligible):
		respondErrorData(w, http.StatusBadRequest, ineligible.Reason, map[string]interface{}{
			"nextEligibleDate": ineligible.NextEligibleDate,
			"lastDonationDate": ineligible.LastDonationDate,
		})
	case errors.As(err, &duplicate):
		respondErrorData(w, http.StatusConflict, "A pending donation request already exists for this patient", map[string]string{
			"existingRequestId": duplicate.ExistingRequestID,
		})
	default:
		log.Printf("Donation operation failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Something went wrong")
	}
}

// GetDonations handles GET /getDonations for a blood bank.
func (h *Handler) GetDonations(w http.ResponseWriter, r *http.Request) {
	claims, _ := GetClaimsFromContext(r.Context())

	requests, summary, err := h.donations.ListForBank(claims.UserID)
	if err != nil {
		log.Printf("Error listing donations for bank %s: %v", claims.UserID, err)
		respondError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	respondOK(w, http.StatusOK, "Donation requests fetched", map[string]interface{}{
		"requests": requests,
		"summary":  summary,
	})
}

// ApprovedDonations handles GET /donations/approved for a blood bank.
func (h *Handler) ApprovedDonations(w http.ResponseWriter, r *http.Request) {
	claims, _ := GetClaimsFromContext(r.Context())

	requests, err := h.donations.ListApprovedForBank(claims.UserID)
	if err != nil {
		log.Printf("Error listing approved donations for bank %s: %v", claims.UserID, err)
		respondError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	respondOK(w, http.StatusOK, "Approved donation requests fetched", requests)
}

type acceptRequest struct {
	DonationRequestID string `json:"donationRequestId"`
	NumberOfUnits     int    `json:"numberOfUnits"`
	Notes             string `json:"notes"`
	ExpiryDays        int    `json:"expiryDays"`
}

// AcceptDonation handles POST /donations/accept for a blood bank.
func (h *Handler) AcceptDonation(w http.ResponseWriter, r *http.Request) {
	claims, _ := GetClaimsFromContext(r.Context())

	var req acceptRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.DonationRequestID == "" {
		respondError(w, http.StatusBadRequest, "donationRequestId is required")
		return
	}
	if req.NumberOfUnits < 0 || req.NumberOfUnits > donation.MaxUnitsPerDonation {
		respondError(w, http.StatusBadRequest, "numberOfUnits must be between 1 and 10")
		return
	}
	if req.ExpiryDays < 0 || req.ExpiryDays > donation.MaxExpiryDays {
		respondError(w, http.StatusBadRequest, "expiryDays must be between 1 and 42")
		return
	}

	result, err := h.donations.Accept(claims.UserID, donation.AcceptInput{
		DonationRequestID: req.DonationRequestID,
		NumberOfUnits:     req.NumberOfUnits,
		Notes:             req.Notes,
		ExpiryDays:        req.ExpiryDays,
	})
	if err != nil {
		h.donationError(w, err)
		return
	}

	data := map[string]interface{}{
		"request": result.Request,
		"units":   result.Units,
	}
	if result.CertificateNote != "" {
		data["note"] = result.CertificateNote
	}
	respondOK(w, http.StatusOK, "Donation request accepted", data)
}

// RejectDonation handles PUT /donations/reject/{donationRequestId} for a
// blood bank.
func (h *Handler) RejectDonation(w http.ResponseWriter, r *http.Request) {
	claims, _ := GetClaimsFromContext(r.Context())
	requestID := chi.URLParam(r, "donationRequestId")

	req, err := h.donations.Reject(claims.UserID, requestID)
	if err != nil {
		h.donationError(w, err)
		return
	}
	respondOK(w, http.StatusOK, "Donation request rejected", req)
}

// MyDonations handles GET /donations/my-donations for a donor.
func (h *Handler) MyDonations(w http.ResponseWriter, r *http.Request) {
	claims, _ := GetClaimsFromContext(r.Context())

	entries, err := h.donations.History(claims.UserID)
	if err != nil {
		log.Printf("Error listing donations for donor %s: %v", claims.UserID, err)
		respondError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	respondOK(w, http.StatusOK, "Donation history fetched", entries)
}

// parseDate accepts a bare date or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
