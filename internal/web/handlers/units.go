package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/lifelink-dev/lifelink/internal/inventory"
	"github.com/lifelink-dev/lifelink/pkg/models"
)

// BloodUnits handles GET /donations/blood-units for a blood bank, with an
// optional ?status= filter.
func (h *Handler) BloodUnits(w http.ResponseWriter, r *http.Request) {
	claims, _ := GetClaimsFromContext(r.Context())

	status := models.UnitStatus(r.URL.Query().Get("status"))
	switch status {
	case "", models.UnitStatusAvailable, models.UnitStatusUsed, models.UnitStatusExpired, models.UnitStatusDiscarded:
	default:
		respondError(w, http.StatusBadRequest, "status must be available, used, expired, or discarded")
		return
	}

	units, summary, err := h.stock.ListUnits(claims.UserID, status)
	if err != nil {
		log.Printf("Error listing blood units for bank %s: %v", claims.UserID, err)
		respondError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	respondOK(w, http.StatusOK, "Blood units fetched", map[string]interface{}{
		"units":   units,
		"summary": summary,
	})
}

type useUnitRequest struct {
	UnitID    string `json:"unitId"`
	PatientID string `json:"patientId"`
	Notes     string `json:"notes"`
}

// UseBloodUnit handles PUT /donations/blood-units/use for a blood bank.
func (h *Handler) UseBloodUnit(w http.ResponseWriter, r *http.Request) {
	claims, _ := GetClaimsFromContext(r.Context())

	var req useUnitRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UnitID == "" || req.PatientID == "" {
		respondError(w, http.StatusBadRequest, "unitId and patientId are required")
		return
	}

	unit, err := h.stock.UseUnit(claims.UserID, req.UnitID, req.PatientID, req.Notes)
	if err != nil {
		h.inventoryError(w, err)
		return
	}
	respondOK(w, http.StatusOK, "Blood unit marked as used", unit)
}

type allocateRequest struct {
	BloodType     string `json:"bloodType"`
	NumberOfUnits int    `json:"numberOfUnits"`
	PatientID     string `json:"patientId"`
	Notes         string `json:"notes"`
}

// AllocateBloodUnits handles POST /donations/blood-units/allocate for a
// blood bank.
func (h *Handler) AllocateBloodUnits(w http.ResponseWriter, r *http.Request) {
	claims, _ := GetClaimsFromContext(r.Context())

	var req allocateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.BloodType == "" || req.PatientID == "" {
		respondError(w, http.StatusBadRequest, "bloodType and patientId are required")
		return
	}
	if req.NumberOfUnits < 1 {
		respondError(w, http.StatusBadRequest, "numberOfUnits must be at least 1")
		return
	}

	units, err := h.stock.Allocate(claims.UserID, req.BloodType, req.NumberOfUnits, req.PatientID, req.Notes)
	if err != nil {
		h.inventoryError(w, err)
		return
	}

	respondOK(w, http.StatusOK, fmt.Sprintf("%d blood units allocated", len(units)), units)
}

// MarkExpiredUnits handles PUT /donations/blood-units/mark-expired for a
// blood bank.
func (h *Handler) MarkExpiredUnits(w http.ResponseWriter, r *http.Request) {
	claims, _ := GetClaimsFromContext(r.Context())

	n, err := h.stock.MarkExpired(claims.UserID)
	if err != nil {
		log.Printf("Error marking expired units for bank %s: %v", claims.UserID, err)
		respondError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	respondOK(w, http.StatusOK, fmt.Sprintf("%d blood units marked as expired", n), map[string]int64{
		"markedExpired": n,
	})
}

// Inventory handles GET /donations/inventory for a blood bank.
func (h *Handler) Inventory(w http.ResponseWriter, r *http.Request) {
	claims, _ := GetClaimsFromContext(r.Context())

	report, err := h.stock.BuildReport(claims.UserID)
	if err != nil {
		log.Printf("Error building inventory for bank %s: %v", claims.UserID, err)
		respondError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	respondOK(w, http.StatusOK, "Inventory fetched", report)
}

// inventoryError maps stock errors onto HTTP responses.
func (h *Handler) inventoryError(w http.ResponseWriter, err error) {
	var expired *inventory.ExpiredUnitError
	var insufficient *inventory.InsufficientUnitsError

	switch {
	case errors.Is(err, inventory.ErrUnitNotFound):
		respondError(w, http.StatusNotFound, "Blood unit not found")
	case errors.Is(err, inventory.ErrUnitNotAvailable):
		respondError(w, http.StatusBadRequest, "Blood unit is not available")
	case errors.Is(err, inventory.ErrPatientNotFound):
		respondError(w, http.StatusNotFound, "Patient not found")
	case errors.As(err, &expired):
		respondError(w, http.StatusBadRequest, expired.Error())
	case errors.As(err, &insufficient):
		respondErrorData(w, http.StatusBadRequest, insufficient.Error(), map[string]int{
			"requested": insufficient.Requested,
			"available": insufficient.Available,
		})
	default:
		log.Printf("Inventory operation failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Something went wrong")
	}
}
