// Package handlers exposes the HTTP surface: JSON endpoints for account
// auth, donation requests, blood unit inventory, and certificate downloads.
package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/lifelink-dev/lifelink/config"
	"github.com/lifelink-dev/lifelink/internal/auth"
	"github.com/lifelink-dev/lifelink/internal/certificate"
	"github.com/lifelink-dev/lifelink/internal/database"
	"github.com/lifelink-dev/lifelink/internal/donation"
	"github.com/lifelink-dev/lifelink/internal/inventory"
	"github.com/lifelink-dev/lifelink/internal/token"
	"github.com/lifelink-dev/lifelink/pkg/bloodtype"
)

// cityListLimit caps the by-city directory queries.
const cityListLimit = 50

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	db        *database.DB
	cfg       *config.Config
	auth      *auth.Service
	tokens    *token.Service
	donations *donation.Service
	stock     *inventory.Service
	certs     *certificate.Service
}

// New creates a new handler.
func New(db *database.DB, cfg *config.Config, authService *auth.Service, tokens *token.Service, donations *donation.Service, stock *inventory.Service, certs *certificate.Service) *Handler {
	return &Handler{
		db:        db,
		cfg:       cfg,
		auth:      authService,
		tokens:    tokens,
		donations: donations,
		stock:     stock,
		certs:     certs,
	}
}

// TokenService returns the token service instance.
func (h *Handler) TokenService() *token.Service {
	return h.tokens
}

func (h *Handler) secureCookies() bool {
	return h.cfg.Server.Env == "production"
}

func (h *Handler) setAuthCookie(w http.ResponseWriter, tok string) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(auth.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies(),
		SameSite: http.SameSiteStrictMode,
	})
}

// signupRequest covers all three account types; each handler validates the
// fields its account type requires.
type signupRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Password       string `json:"password"`
	BloodBank      string `json:"bloodBank"`
	BloodType      string `json:"bloodType"`
	City           string `json:"city"`
	State          string `json:"state"`
	Age            int    `json:"age"`
	AdminName      string `json:"adminName"`
	LicenseNumber  string `json:"licenseNumber"`
	TotalBloodBags int    `json:"totalBloodBags"`
	Address        string `json:"address"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) signupConflict(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		respondError(w, http.StatusConflict, "An account with this email already exists")
	case errors.Is(err, auth.ErrPhoneTaken):
		respondError(w, http.StatusConflict, "An account with this phone number already exists")
	default:
		return false
	}
	return true
}

// DonorSignup handles POST /donor/signup.
func (h *Handler) DonorSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.trim()

	if req.Name == "" || req.Email == "" || req.Phone == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Name, email, phone, and password are required")
		return
	}
	if req.BloodType != "" && !bloodtype.Valid(req.BloodType) {
		respondError(w, http.StatusBadRequest, "Invalid blood type")
		return
	}

	donor, tok, err := h.auth.SignupDonor(auth.DonorSignup{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		BloodBank: req.BloodBank,
		BloodType: req.BloodType,
		City:      req.City,
		State:     req.State,
		Age:       req.Age,
	})
	if err != nil {
		if h.signupConflict(w, err) {
			return
		}
		log.Printf("Donor signup failed for %s: %v", req.Email, err)
		respondError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	h.setAuthCookie(w, tok)
	respondOK(w, http.StatusCreated, "Donor registered successfully", donor)
}

// DonorLogin handles POST /donor/login.
func (h *Handler) DonorLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	donor, tok, err := h.auth.LoginDonor(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		log.Printf("Donor login failed for %s: %v", req.Email, err)
		respondError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	h.setAuthCookie(w, tok)
	respondOK(w, http.StatusOK, "Login successful", donor)
}

// PatientSignup handles POST /patient/signup.
func (h *Handler) PatientSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.trim()

	if req.Name == "" || req.Email == "" || req.Phone == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Name, email, phone, and password are required")
		return
	}
	if req.BloodType != "" && !bloodtype.Valid(req.BloodType) {
		respondError(w, http.StatusBadRequest, "Invalid blood type")
		return
	}

	patient, tok, err := h.auth.SignupPatient(auth.PatientSignup{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		BloodBank: req.BloodBank,
		BloodType: req.BloodType,
		City:      req.City,
		State:     req.State,
		Age:       req.Age,
	})
	if err != nil {
		if h.signupConflict(w, err) {
			return
		}
		log.Printf("Patient signup failed for %s: %v", req.Email, err)
		respondError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	h.setAuthCookie(w, tok)
	respondOK(w, http.StatusCreated, "Patient registered successfully", patient)
}

// PatientLogin handles POST /patient/login.
func (h *Handler) PatientLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	patient, tok, err := h.auth.LoginPatient(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		log.Printf("Patient login failed for %s: %v", req.Email, err)
		respondError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	h.setAuthCookie(w, tok)
	respondOK(w, http.StatusOK, "Login successful", patient)
}

// BloodBankSignup handles POST /bloodbank/signup.
func (h *Handler) BloodBankSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.trim()

	if req.Name == "" || req.Email == "" || req.Phone == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Name, email, phone, and password are required")
		return
	}

	bank, tok, err := h.auth.SignupBloodBank(auth.BloodBankSignup{
		Name:           req.Name,
		AdminName:      req.AdminName,
		LicenseNumber:  req.LicenseNumber,
		Email:          req.Email,
		Phone:          req.Phone,
		Password:       req.Password,
		TotalBloodBags: req.TotalBloodBags,
		Address:        req.Address,
		City:           req.City,
		State:          req.State,
	})
	if err != nil {
		if h.signupConflict(w, err) {
			return
		}
		log.Printf("Blood bank signup failed for %s: %v", req.Email, err)
		respondError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	h.setAuthCookie(w, tok)
	respondOK(w, http.StatusCreated, "Blood bank registered successfully", bank)
}

// BloodBankLogin handles POST /bloodbank/login.
func (h *Handler) BloodBankLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	bank, tok, err := h.auth.LoginBloodBank(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		log.Printf("Blood bank login failed for %s: %v", req.Email, err)
		respondError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	h.setAuthCookie(w, tok)
	respondOK(w, http.StatusOK, "Login successful", bank)
}

// Logout handles POST /logout. The token is stateless so clearing the
// cookie is the whole operation.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	clearAuthCookie(w, h.secureCookies())
	respondOK(w, http.StatusOK, "Logged out successfully", nil)
}

// AuthCheck handles GET /auth/check and reports who the cookie belongs to.
func (h *Handler) AuthCheck(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	respondOK(w, http.StatusOK, "Authenticated", map[string]interface{}{
		"userId": claims.UserID,
		"actor":  claims.Actor,
	})
}

// patientContact is the reduced patient projection for directory reads.
type patientContact struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	BloodType string `json:"bloodType"`
	City      string `json:"city"`
	State     string `json:"state"`
}

// PatientDetail handles GET /patientDetail, listing all patients with
// contact fields only.
func (h *Handler) PatientDetail(w http.ResponseWriter, r *http.Request) {
	patients, err := h.db.ListPatients()
	if err != nil {
		log.Printf("Error listing patients: %v", err)
		respondError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	out := make([]patientContact, 0, len(patients))
	for _, p := range patients {
		out = append(out, patientContact{
			ID:        p.ID,
			Name:      p.Name,
			Email:     p.Email,
			Phone:     p.Phone,
			BloodType: p.BloodType,
			City:      p.City,
			State:     p.State,
		})
	}
	respondOK(w, http.StatusOK, "Patients fetched", out)
}

// ByCity handles GET /bycity?field=1|2&city=... where field 1 selects
// patients and field 2 selects donors. Matching is case-insensitive and
// results are capped.
func (h *Handler) ByCity(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		respondError(w, http.StatusBadRequest, "City is required")
		return
	}

	switch r.URL.Query().Get("field") {
	case "1":
		patients, err := h.db.ListPatientsByCity(city, cityListLimit)
		if err != nil {
			log.Printf("Error listing patients by city %q: %v", city, err)
			respondError(w, http.StatusInternalServerError, "Something went wrong")
			return
		}
		respondOK(w, http.StatusOK, "Patients fetched", patients)
	case "2":
		donors, err := h.db.ListDonorsByCity(city, cityListLimit)
		if err != nil {
			log.Printf("Error listing donors by city %q: %v", city, err)
			respondError(w, http.StatusInternalServerError, "Something went wrong")
			return
		}
		respondOK(w, http.StatusOK, "Donors fetched", donors)
	default:
		respondError(w, http.StatusBadRequest, "field must be 1 (patients) or 2 (donors)")
	}
}

func (req *signupRequest) trim() {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.BloodBank = strings.TrimSpace(req.BloodBank)
	req.BloodType = strings.TrimSpace(req.BloodType)
	req.City = strings.TrimSpace(req.City)
	req.State = strings.TrimSpace(req.State)
	req.AdminName = strings.TrimSpace(req.AdminName)
	req.LicenseNumber = strings.TrimSpace(req.LicenseNumber)
	req.Address = strings.TrimSpace(req.Address)
}
