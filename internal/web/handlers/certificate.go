package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lifelink-dev/lifelink/internal/certificate"
)

// certificateCleanupDelay is how long a streamed certificate file lingers
// on disk before the best-effort delete.
const certificateCleanupDelay = 5 * time.Second

// DownloadCertificate handles
// GET /donations/certificate/{donationRequestId}/download for a donor.
// The PDF is generated on demand, streamed, and deleted shortly after.
func (h *Handler) DownloadCertificate(w http.ResponseWriter, r *http.Request) {
	claims, _ := GetClaimsFromContext(r.Context())
	requestID := chi.URLParam(r, "donationRequestId")

	rec, err := h.certs.AssembleForDonor(requestID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, certificate.ErrNotFound):
			respondError(w, http.StatusNotFound, "Donation not found or not successful")
		case errors.Is(err, certificate.ErrIncomplete):
			respondError(w, http.StatusNotFound, "Donation record is incomplete")
		default:
			log.Printf("Error assembling certificate for request %s: %v", requestID, err)
			respondError(w, http.StatusInternalServerError, "Something went wrong")
		}
		return
	}

	path, err := h.certs.Render(rec)
	if err != nil {
		log.Printf("Error rendering certificate for request %s: %v", requestID, err)
		respondError(w, http.StatusInternalServerError, "Failed to generate certificate")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)

	go func(p string) {
		time.Sleep(certificateCleanupDelay)
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Printf("Error removing certificate file %s: %v", p, err)
		}
	}(path)
}
