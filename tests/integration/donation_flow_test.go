package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/lifelink-dev/lifelink/config"
	"github.com/lifelink-dev/lifelink/internal/auth"
	"github.com/lifelink-dev/lifelink/internal/certificate"
	"github.com/lifelink-dev/lifelink/internal/database"
	"github.com/lifelink-dev/lifelink/internal/donation"
	"github.com/lifelink-dev/lifelink/internal/inventory"
	"github.com/lifelink-dev/lifelink/internal/notify"
	"github.com/lifelink-dev/lifelink/internal/token"
	"github.com/lifelink-dev/lifelink/internal/web/handlers"
	"github.com/lifelink-dev/lifelink/pkg/models"
)

// testServer spins up the full stack backed by a temp SQLite file, with the
// same route layout as cmd/server.
func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	dir := t.TempDir()
	db, err := database.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Server:   config.ServerConfig{Port: "0", Env: "test"},
		Database: config.DatabaseConfig{Path: filepath.Join(dir, "test.db")},
		JWT:      config.JWTConfig{SigningKey: "test-signing-key", Issuer: "test"},
		PDF:      config.PDFConfig{OutputDir: filepath.Join(dir, "pdfs")},
	}

	tokens := token.New(cfg.JWT.SigningKey, cfg.JWT.Issuer)
	authService := auth.New(db, tokens)
	certs := certificate.New(db, cfg.PDF.OutputDir)
	donations := donation.New(db, certs, notify.New(nil))
	stock := inventory.New(db)
	h := handlers.New(db, cfg, authService, tokens, donations, stock, certs)

	r := chi.NewRouter()
	r.Post("/donor/signup", h.DonorSignup)
	r.Post("/donor/login", h.DonorLogin)
	r.Post("/patient/signup", h.PatientSignup)
	r.Post("/patient/login", h.PatientLogin)
	r.Post("/bloodbank/signup", h.BloodBankSignup)
	r.Post("/bloodbank/login", h.BloodBankLogin)
	r.Post("/logout", h.Logout)
	r.Get("/patientDetail", h.PatientDetail)
	r.Get("/bycity", h.ByCity)
	r.Group(func(r chi.Router) {
		r.Use(handlers.AuthMiddleware(tokens))
		r.Get("/auth/check", h.AuthCheck)
	})
	r.Group(func(r chi.Router) {
		r.Use(handlers.AuthMiddleware(tokens))
		r.Use(handlers.RequireActor(models.ActorDonor))
		r.Post("/donate", h.Donate)
		r.Get("/donations/my-donations", h.MyDonations)
		r.Get("/donations/certificate/{donationRequestId}/download", h.DownloadCertificate)
	})
	r.Group(func(r chi.Router) {
		r.Use(handlers.AuthMiddleware(tokens))
		r.Use(handlers.RequireActor(models.ActorBloodBank))
		r.Get("/getDonations", h.GetDonations)
		r.Get("/donations/approved", h.ApprovedDonations)
		r.Post("/donations/accept", h.AcceptDonation)
		r.Put("/donations/reject/{donationRequestId}", h.RejectDonation)
		r.Get("/donations/blood-units", h.BloodUnits)
		r.Put("/donations/blood-units/use", h.UseBloodUnit)
		r.Post("/donations/blood-units/allocate", h.AllocateBloodUnits)
		r.Put("/donations/blood-units/mark-expired", h.MarkExpiredUnits)
		r.Get("/donations/inventory", h.Inventory)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// newClient returns an HTTP client with its own cookie jar so each actor
// holds its own session.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, client *http.Client, method, url string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s %s response: %v", method, url, err)
	}
	return resp.StatusCode, env
}

func unmarshalData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
}

// signupBank registers a blood bank on its own client and returns the
// client and bank ID.
func signupBank(t *testing.T, srv *httptest.Server, name, city, email string) (*http.Client, string) {
	t.Helper()
	client := newClient(t)
	status, env := doJSON(t, client, http.MethodPost, srv.URL+"/bloodbank/signup", map[string]interface{}{
		"name": name, "adminName": "Dr. Rao", "licenseNumber": "LIC-" + email,
		"email": email, "phone": "777-" + email, "password": "securepassword",
		"address": "12 MG Road", "city": city, "state": "MH",
	})
	if status != http.StatusCreated {
		t.Fatalf("bank signup status = %d: %s", status, env.Error)
	}
	var bank struct {
		ID string `json:"id"`
	}
	unmarshalData(t, env, &bank)
	return client, bank.ID
}

func signupDonor(t *testing.T, srv *httptest.Server, bloodType, bankName, city, email string) (*http.Client, string) {
	t.Helper()
	client := newClient(t)
	status, env := doJSON(t, client, http.MethodPost, srv.URL+"/donor/signup", map[string]interface{}{
		"name": "Arjun Mehta", "email": email, "phone": "555-" + email,
		"password": "securepassword", "bloodBank": bankName,
		"bloodType": bloodType, "city": city, "state": "MH", "age": 29,
	})
	if status != http.StatusCreated {
		t.Fatalf("donor signup status = %d: %s", status, env.Error)
	}
	var donor struct {
		ID string `json:"id"`
	}
	unmarshalData(t, env, &donor)
	return client, donor.ID
}

func signupPatient(t *testing.T, srv *httptest.Server, bloodType, city, email string) (*http.Client, string) {
	t.Helper()
	client := newClient(t)
	status, env := doJSON(t, client, http.MethodPost, srv.URL+"/patient/signup", map[string]interface{}{
		"name": "Riya Shah", "email": email, "phone": "666-" + email,
		"password": "securepassword", "bloodBank": "City Hospital Bank",
		"bloodType": bloodType, "city": city, "state": "MH", "age": 41,
	})
	if status != http.StatusCreated {
		t.Fatalf("patient signup status = %d: %s", status, env.Error)
	}
	var patient struct {
		ID string `json:"id"`
	}
	unmarshalData(t, env, &patient)
	return client, patient.ID
}

func TestDonationFlow(t *testing.T) {
	srv := testServer(t)

	bankClient, _ := signupBank(t, srv, "Central Blood Bank", "Pune", "bank@example.com")
	donorClient, _ := signupDonor(t, srv, "O-", "Central Blood Bank", "Pune", "arjun@example.com")
	_, patientID := signupPatient(t, srv, "AB+", "Mumbai", "riya@example.com")

	// Donor requests a donation.
	status, env := doJSON(t, donorClient, http.MethodPost, srv.URL+"/donate", map[string]interface{}{
		"patientId": patientID, "urgencyLevel": "high", "notes": "weekend preferred",
	})
	if status != http.StatusCreated {
		t.Fatalf("donate status = %d: %s", status, env.Error)
	}
	var donateData struct {
		Request struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"request"`
	}
	unmarshalData(t, env, &donateData)
	if donateData.Request.Status != "pending" {
		t.Errorf("request status = %q, want pending", donateData.Request.Status)
	}
	requestID := donateData.Request.ID

	// Bank sees one pending request.
	status, env = doJSON(t, bankClient, http.MethodGet, srv.URL+"/getDonations", nil)
	if status != http.StatusOK {
		t.Fatalf("getDonations status = %d: %s", status, env.Error)
	}
	var listData struct {
		Requests []json.RawMessage `json:"requests"`
		Summary  struct {
			Pending int `json:"pending"`
			Success int `json:"success"`
		} `json:"summary"`
	}
	unmarshalData(t, env, &listData)
	if len(listData.Requests) != 1 || listData.Summary.Pending != 1 {
		t.Errorf("bank sees %d requests, summary %+v", len(listData.Requests), listData.Summary)
	}

	// Bank accepts with two units.
	status, env = doJSON(t, bankClient, http.MethodPost, srv.URL+"/donations/accept", map[string]interface{}{
		"donationRequestId": requestID, "numberOfUnits": 2,
	})
	if status != http.StatusOK {
		t.Fatalf("accept status = %d: %s", status, env.Error)
	}
	var acceptData struct {
		Units []struct {
			Barcode string `json:"barcode"`
			Volume  int    `json:"volume"`
			Status  string `json:"status"`
		} `json:"units"`
	}
	unmarshalData(t, env, &acceptData)
	if len(acceptData.Units) != 2 {
		t.Fatalf("accepted units = %d, want 2", len(acceptData.Units))
	}
	tail := requestID[len(requestID)-8:]
	for i, u := range acceptData.Units {
		want := fmt.Sprintf("Central Blood Bank-%s-%d", tail, i+1)
		if u.Barcode != want {
			t.Errorf("unit %d barcode = %q, want %q", i, u.Barcode, want)
		}
		if u.Volume != 450 || u.Status != "available" {
			t.Errorf("unit %d = %+v", i, u)
		}
	}

	// Accepting twice fails the pending gate.
	status, env = doJSON(t, bankClient, http.MethodPost, srv.URL+"/donations/accept", map[string]interface{}{
		"donationRequestId": requestID,
	})
	if status != http.StatusNotFound {
		t.Errorf("second accept status = %d, want 404 (%s)", status, env.Error)
	}

	// Inventory shows two available O- units.
	status, env = doJSON(t, bankClient, http.MethodGet, srv.URL+"/donations/inventory", nil)
	if status != http.StatusOK {
		t.Fatalf("inventory status = %d: %s", status, env.Error)
	}
	var report struct {
		ByBloodType map[string]struct {
			Available int `json:"available"`
		} `json:"byBloodType"`
		TotalAvailable int `json:"totalAvailable"`
	}
	unmarshalData(t, env, &report)
	if report.ByBloodType["O-"].Available != 2 || report.TotalAvailable != 2 {
		t.Errorf("inventory O- available = %d, total = %d, want 2/2",
			report.ByBloodType["O-"].Available, report.TotalAvailable)
	}

	// Donor history shows the donation with a certificate link.
	status, env = doJSON(t, donorClient, http.MethodGet, srv.URL+"/donations/my-donations", nil)
	if status != http.StatusOK {
		t.Fatalf("my-donations status = %d: %s", status, env.Error)
	}
	var history []struct {
		DonationID             string `json:"donationId"`
		UnitsCount             int    `json:"unitsCount"`
		TotalVolume            int    `json:"totalVolume"`
		CertificateDownloadURL string `json:"certificateDownloadUrl"`
	}
	unmarshalData(t, env, &history)
	if len(history) != 1 {
		t.Fatalf("history len = %d, want 1", len(history))
	}
	if history[0].UnitsCount != 2 || history[0].TotalVolume != 900 {
		t.Errorf("history entry = %+v", history[0])
	}

	// Certificate download streams a PDF.
	resp, err := donorClient.Get(srv.URL + history[0].CertificateDownloadURL)
	if err != nil {
		t.Fatalf("certificate download: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("certificate status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q, want application/pdf", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "donation-certificate-") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	pdfBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read certificate body: %v", err)
	}
	if !bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
		t.Error("certificate body is not a PDF")
	}
}

func TestIncompatibleDonationRejected(t *testing.T) {
	srv := testServer(t)

	signupBank(t, srv, "Central Blood Bank", "Pune", "bank2@example.com")
	donorClient, _ := signupDonor(t, srv, "AB+", "Central Blood Bank", "Pune", "abdonor@example.com")
	_, patientID := signupPatient(t, srv, "O-", "Pune", "opatient@example.com")

	status, env := doJSON(t, donorClient, http.MethodPost, srv.URL+"/donate", map[string]interface{}{
		"patientId": patientID,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("incompatible donate status = %d, want 400", status)
	}
	if !strings.Contains(env.Error, "incompatible") {
		t.Errorf("error = %q, want incompatibility message", env.Error)
	}
}

func TestDonateValidationBounds(t *testing.T) {
	srv := testServer(t)

	signupBank(t, srv, "Central Blood Bank", "Pune", "bank-v@example.com")
	donorClient, _ := signupDonor(t, srv, "O-", "Central Blood Bank", "Pune", "v-donor@example.com")
	_, patientID := signupPatient(t, srv, "AB+", "Pune", "v-patient@example.com")

	status, env := doJSON(t, donorClient, http.MethodPost, srv.URL+"/donate", map[string]interface{}{
		"patientId":     patientID,
		"requiredUnits": 500,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("requiredUnits=500 status = %d, want 400", status)
	}
	if !strings.Contains(env.Error, "between 1 and 10") {
		t.Errorf("error = %q, want units bound message", env.Error)
	}

	status, env = doJSON(t, donorClient, http.MethodPost, srv.URL+"/donate", map[string]interface{}{
		"patientId": patientID,
		"notes":     strings.Repeat("x", 501),
	})
	if status != http.StatusBadRequest {
		t.Fatalf("oversized notes status = %d, want 400", status)
	}
	if !strings.Contains(env.Error, "500 characters") {
		t.Errorf("error = %q, want notes length message", env.Error)
	}

	// The boundary itself is accepted.
	status, _ = doJSON(t, donorClient, http.MethodPost, srv.URL+"/donate", map[string]interface{}{
		"patientId":     patientID,
		"requiredUnits": 10,
		"notes":         strings.Repeat("x", 500),
	})
	if status != http.StatusCreated {
		t.Fatalf("boundary donate status = %d, want 201", status)
	}
}

func TestDuplicatePendingRequestConflicts(t *testing.T) {
	srv := testServer(t)

	signupBank(t, srv, "Central Blood Bank", "Pune", "bank3@example.com")
	donorClient, _ := signupDonor(t, srv, "O-", "Central Blood Bank", "Pune", "dup-donor@example.com")
	_, patientID := signupPatient(t, srv, "AB+", "Pune", "dup-patient@example.com")

	status, env := doJSON(t, donorClient, http.MethodPost, srv.URL+"/donate", map[string]interface{}{
		"patientId": patientID,
	})
	if status != http.StatusCreated {
		t.Fatalf("first donate status = %d: %s", status, env.Error)
	}
	var first struct {
		Request struct {
			ID string `json:"id"`
		} `json:"request"`
	}
	unmarshalData(t, env, &first)

	status, env = doJSON(t, donorClient, http.MethodPost, srv.URL+"/donate", map[string]interface{}{
		"patientId": patientID,
	})
	if status != http.StatusConflict {
		t.Fatalf("duplicate donate status = %d, want 409", status)
	}
	var conflict struct {
		ExistingRequestID string `json:"existingRequestId"`
	}
	unmarshalData(t, env, &conflict)
	if conflict.ExistingRequestID != first.Request.ID {
		t.Errorf("existingRequestId = %q, want %q", conflict.ExistingRequestID, first.Request.ID)
	}
}

func TestRejectFlow(t *testing.T) {
	srv := testServer(t)

	bankClient, _ := signupBank(t, srv, "Central Blood Bank", "Pune", "bank4@example.com")
	donorClient, _ := signupDonor(t, srv, "O-", "Central Blood Bank", "Pune", "rej-donor@example.com")
	_, patientID := signupPatient(t, srv, "AB+", "Pune", "rej-patient@example.com")

	status, env := doJSON(t, donorClient, http.MethodPost, srv.URL+"/donate", map[string]interface{}{
		"patientId": patientID,
	})
	if status != http.StatusCreated {
		t.Fatalf("donate status = %d: %s", status, env.Error)
	}
	var created struct {
		Request struct {
			ID string `json:"id"`
		} `json:"request"`
	}
	unmarshalData(t, env, &created)

	status, env = doJSON(t, bankClient, http.MethodPut,
		srv.URL+"/donations/reject/"+created.Request.ID, nil)
	if status != http.StatusOK {
		t.Fatalf("reject status = %d: %s", status, env.Error)
	}
	var rejected struct {
		Status string `json:"status"`
	}
	unmarshalData(t, env, &rejected)
	if rejected.Status != "rejected" {
		t.Errorf("status = %q, want rejected", rejected.Status)
	}

	// Rejecting again is indistinguishable from a missing request.
	status, _ = doJSON(t, bankClient, http.MethodPut,
		srv.URL+"/donations/reject/"+created.Request.ID, nil)
	if status != http.StatusNotFound {
		t.Errorf("second reject status = %d, want 404", status)
	}
}

func TestUnitUseAndAllocate(t *testing.T) {
	srv := testServer(t)

	bankClient, _ := signupBank(t, srv, "Central Blood Bank", "Pune", "bank5@example.com")
	donorClient, _ := signupDonor(t, srv, "O-", "Central Blood Bank", "Pune", "use-donor@example.com")
	_, patientID := signupPatient(t, srv, "AB+", "Pune", "use-patient@example.com")

	status, env := doJSON(t, donorClient, http.MethodPost, srv.URL+"/donate", map[string]interface{}{
		"patientId": patientID,
	})
	if status != http.StatusCreated {
		t.Fatalf("donate status = %d: %s", status, env.Error)
	}
	var created struct {
		Request struct {
			ID string `json:"id"`
		} `json:"request"`
	}
	unmarshalData(t, env, &created)

	status, env = doJSON(t, bankClient, http.MethodPost, srv.URL+"/donations/accept", map[string]interface{}{
		"donationRequestId": created.Request.ID, "numberOfUnits": 3,
	})
	if status != http.StatusOK {
		t.Fatalf("accept status = %d: %s", status, env.Error)
	}
	var acceptData struct {
		Units []struct {
			ID string `json:"id"`
		} `json:"units"`
	}
	unmarshalData(t, env, &acceptData)

	// Use one unit directly.
	status, env = doJSON(t, bankClient, http.MethodPut, srv.URL+"/donations/blood-units/use", map[string]interface{}{
		"unitId": acceptData.Units[0].ID, "patientId": patientID, "notes": "transfusion",
	})
	if status != http.StatusOK {
		t.Fatalf("use status = %d: %s", status, env.Error)
	}

	// Allocate two more; only two remain so a request for three must fail
	// without consuming anything.
	status, env = doJSON(t, bankClient, http.MethodPost, srv.URL+"/donations/blood-units/allocate", map[string]interface{}{
		"bloodType": "O-", "numberOfUnits": 3, "patientId": patientID,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("over-allocate status = %d, want 400 (%s)", status, env.Error)
	}
	var shortfall struct {
		Requested int `json:"requested"`
		Available int `json:"available"`
	}
	unmarshalData(t, env, &shortfall)
	if shortfall.Requested != 3 || shortfall.Available != 2 {
		t.Errorf("shortfall = %+v, want 3/2", shortfall)
	}

	status, env = doJSON(t, bankClient, http.MethodPost, srv.URL+"/donations/blood-units/allocate", map[string]interface{}{
		"bloodType": "O-", "numberOfUnits": 2, "patientId": patientID,
	})
	if status != http.StatusOK {
		t.Fatalf("allocate status = %d: %s", status, env.Error)
	}

	// All three units are now used.
	status, env = doJSON(t, bankClient, http.MethodGet, srv.URL+"/donations/blood-units?status=used", nil)
	if status != http.StatusOK {
		t.Fatalf("blood-units status = %d: %s", status, env.Error)
	}
	var unitsData struct {
		Units   []json.RawMessage `json:"units"`
		Summary struct {
			Used int `json:"used"`
		} `json:"summary"`
	}
	unmarshalData(t, env, &unitsData)
	if len(unitsData.Units) != 3 || unitsData.Summary.Used != 3 {
		t.Errorf("used units = %d, summary used = %d, want 3/3", len(unitsData.Units), unitsData.Summary.Used)
	}
}

func TestAuthAndRoleGates(t *testing.T) {
	srv := testServer(t)

	anon := newClient(t)
	status, _ := doJSON(t, anon, http.MethodPost, srv.URL+"/donate", map[string]interface{}{
		"patientId": "whatever",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("anonymous donate status = %d, want 401", status)
	}

	signupBank(t, srv, "Central Blood Bank", "Pune", "bank6@example.com")
	donorClient, _ := signupDonor(t, srv, "O-", "Central Blood Bank", "Pune", "role-donor@example.com")

	// A donor cookie must not open blood bank routes.
	status, _ = doJSON(t, donorClient, http.MethodGet, srv.URL+"/getDonations", nil)
	if status != http.StatusForbidden {
		t.Errorf("donor on bank route status = %d, want 403", status)
	}

	// auth/check works for any logged-in actor.
	status, env := doJSON(t, donorClient, http.MethodGet, srv.URL+"/auth/check", nil)
	if status != http.StatusOK {
		t.Fatalf("auth/check status = %d: %s", status, env.Error)
	}
	var check struct {
		Actor string `json:"actor"`
	}
	unmarshalData(t, env, &check)
	if check.Actor != "donor" {
		t.Errorf("actor = %q, want donor", check.Actor)
	}

	// Logout clears the cookie; the next call is unauthenticated.
	status, _ = doJSON(t, donorClient, http.MethodPost, srv.URL+"/logout", nil)
	if status != http.StatusOK {
		t.Fatalf("logout status = %d", status)
	}
	status, _ = doJSON(t, donorClient, http.MethodGet, srv.URL+"/auth/check", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("auth/check after logout status = %d, want 401", status)
	}
}

func TestDirectoryEndpoints(t *testing.T) {
	srv := testServer(t)

	signupPatient(t, srv, "AB+", "Pune", "dir-p1@example.com")
	signupPatient(t, srv, "A+", "Mumbai", "dir-p2@example.com")
	signupDonor(t, srv, "O-", "Central Blood Bank", "Pune", "dir-d1@example.com")

	anon := newClient(t)

	status, env := doJSON(t, anon, http.MethodGet, srv.URL+"/patientDetail", nil)
	if status != http.StatusOK {
		t.Fatalf("patientDetail status = %d: %s", status, env.Error)
	}
	var patients []map[string]interface{}
	unmarshalData(t, env, &patients)
	if len(patients) != 2 {
		t.Errorf("patients = %d, want 2", len(patients))
	}
	for _, p := range patients {
		if _, leaked := p["passwordHash"]; leaked {
			t.Error("patientDetail leaks password hash")
		}
	}

	status, env = doJSON(t, anon, http.MethodGet, srv.URL+"/bycity?field=1&city=pune", nil)
	if status != http.StatusOK {
		t.Fatalf("bycity patients status = %d: %s", status, env.Error)
	}
	unmarshalData(t, env, &patients)
	if len(patients) != 1 {
		t.Errorf("pune patients = %d, want 1 (case-insensitive)", len(patients))
	}

	status, env = doJSON(t, anon, http.MethodGet, srv.URL+"/bycity?field=2&city=Pune", nil)
	if status != http.StatusOK {
		t.Fatalf("bycity donors status = %d: %s", status, env.Error)
	}
	var donors []map[string]interface{}
	unmarshalData(t, env, &donors)
	if len(donors) != 1 {
		t.Errorf("pune donors = %d, want 1", len(donors))
	}

	status, _ = doJSON(t, anon, http.MethodGet, srv.URL+"/bycity?field=9&city=Pune", nil)
	if status != http.StatusBadRequest {
		t.Errorf("bad field status = %d, want 400", status)
	}

	// Duplicate signup conflicts.
	client := newClient(t)
	status, _ = doJSON(t, client, http.MethodPost, srv.URL+"/patient/signup", map[string]interface{}{
		"name": "Dup", "email": "dir-p1@example.com", "phone": "000-new",
		"password": "securepassword",
	})
	if status != http.StatusConflict {
		t.Errorf("duplicate email signup status = %d, want 409", status)
	}
}
