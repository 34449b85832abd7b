package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

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

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("lifelink-server %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", buildDate)
		os.Exit(0)
	}

	cfg := config.Load()

	if cfg.JWT.SigningKey == "" {
		log.Println("WARNING: JWT_SIGNING_KEY is empty, generating an ephemeral key (sessions will not survive restarts)")
		key, err := token.GenerateSigningKey()
		if err != nil {
			log.Fatalf("Failed to generate signing key: %v", err)
		}
		cfg.JWT.SigningKey = key
	}

	// Initialize SQLite database.
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize services.
	tokens := token.New(cfg.JWT.SigningKey, cfg.JWT.Issuer)
	authService := auth.New(db, tokens)
	notifier := notify.New(cfg.Kafka.Brokers)
	defer notifier.Close()
	certs := certificate.New(db, cfg.PDF.OutputDir)
	donations := donation.New(db, certs, notifier)
	stock := inventory.New(db)

	// Initialize router.
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Initialize handlers.
	h := handlers.New(db, cfg, authService, tokens, donations, stock, certs)

	// Public routes.
	r.Post("/donor/signup", h.DonorSignup)
	r.Post("/donor/login", h.DonorLogin)
	r.Post("/patient/signup", h.PatientSignup)
	r.Post("/patient/login", h.PatientLogin)
	r.Post("/bloodbank/signup", h.BloodBankSignup)
	r.Post("/bloodbank/login", h.BloodBankLogin)
	r.Post("/logout", h.Logout)
	r.Get("/patientDetail", h.PatientDetail)
	r.Get("/bycity", h.ByCity)

	// Authenticated routes (any account type).
	r.Group(func(r chi.Router) {
		r.Use(handlers.AuthMiddleware(tokens))
		r.Get("/auth/check", h.AuthCheck)
	})

	// Donor routes.
	r.Group(func(r chi.Router) {
		r.Use(handlers.AuthMiddleware(tokens))
		r.Use(handlers.RequireActor(models.ActorDonor))

		r.Post("/donate", h.Donate)
		r.Get("/donations/my-donations", h.MyDonations)
		r.Get("/donations/certificate/{donationRequestId}/download", h.DownloadCertificate)
	})

	// Blood bank routes.
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

	// Start server.
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("LifeLink server starting on %s (env: %s)", addr, cfg.Server.Env)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}
