package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lifelink-dev/lifelink/internal/database"
	"github.com/lifelink-dev/lifelink/internal/token"
	"github.com/lifelink-dev/lifelink/pkg/models"
)

const bcryptCost = 12

// TokenTTL is how long an issued auth cookie stays valid.
const TokenTTL = 7 * 24 * time.Hour

// Service handles signup and login for the three account types. Each
// successful call returns a signed JWT for the auth cookie.
type Service struct {
	db     *database.DB
	tokens *token.Service
}

// New creates a new auth service.
func New(db *database.DB, tokens *token.Service) *Service {
	return &Service{db: db, tokens: tokens}
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// DonorSignup is the validated input for donor registration.
type DonorSignup struct {
	Name      string
	Email     string
	Phone     string
	Password  string
	BloodBank string
	BloodType string
	City      string
	State     string
	Age       int
}

// SignupDonor registers a donor and returns the record plus an auth token.
func (s *Service) SignupDonor(in DonorSignup) (*models.Donor, string, error) {
	existing, err := s.db.GetDonorByEmailOrPhone(in.Email, in.Phone)
	if err != nil {
		return nil, "", fmt.Errorf("lookup donor: %w", err)
	}
	if existing != nil {
		if existing.Email == in.Email {
			return nil, "", ErrEmailTaken
		}
		return nil, "", ErrPhoneTaken
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	donor := &models.Donor{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		BloodBank:    in.BloodBank,
		BloodType:    in.BloodType,
		City:         in.City,
		State:        in.State,
		Age:          in.Age,
		CreatedAt:    time.Now(),
	}
	if err := s.db.CreateDonor(donor); err != nil {
		return nil, "", fmt.Errorf("create donor: %w", err)
	}

	tok, err := s.tokens.Generate(donor.ID, models.ActorDonor, TokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return donor, tok, nil
}

// LoginDonor verifies donor credentials and returns the record plus a token.
func (s *Service) LoginDonor(email, password string) (*models.Donor, string, error) {
	donor, err := s.db.GetDonorByEmail(email)
	if err != nil {
		return nil, "", fmt.Errorf("lookup donor: %w", err)
	}
	if donor == nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := CheckPassword(password, donor.PasswordHash); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	tok, err := s.tokens.Generate(donor.ID, models.ActorDonor, TokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return donor, tok, nil
}

// PatientSignup is the validated input for patient registration.
type PatientSignup struct {
	Name      string
	Email     string
	Phone     string
	Password  string
	BloodBank string
	BloodType string
	City      string
	State     string
	Age       int
}

// SignupPatient registers a patient and returns the record plus a token.
func (s *Service) SignupPatient(in PatientSignup) (*models.Patient, string, error) {
	existing, err := s.db.GetPatientByEmailOrPhone(in.Email, in.Phone)
	if err != nil {
		return nil, "", fmt.Errorf("lookup patient: %w", err)
	}
	if existing != nil {
		if existing.Email == in.Email {
			return nil, "", ErrEmailTaken
		}
		return nil, "", ErrPhoneTaken
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	patient := &models.Patient{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		BloodBank:    in.BloodBank,
		BloodType:    in.BloodType,
		City:         in.City,
		State:        in.State,
		Age:          in.Age,
		CreatedAt:    time.Now(),
	}
	if err := s.db.CreatePatient(patient); err != nil {
		return nil, "", fmt.Errorf("create patient: %w", err)
	}

	tok, err := s.tokens.Generate(patient.ID, models.ActorPatient, TokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return patient, tok, nil
}

// LoginPatient verifies patient credentials and returns the record plus a token.
func (s *Service) LoginPatient(email, password string) (*models.Patient, string, error) {
	patient, err := s.db.GetPatientByEmail(email)
	if err != nil {
		return nil, "", fmt.Errorf("lookup patient: %w", err)
	}
	if patient == nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := CheckPassword(password, patient.PasswordHash); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	tok, err := s.tokens.Generate(patient.ID, models.ActorPatient, TokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return patient, tok, nil
}

// BloodBankSignup is the validated input for blood bank registration.
type BloodBankSignup struct {
	Name           string
	AdminName      string
	LicenseNumber  string
	Email          string
	Phone          string
	Password       string
	TotalBloodBags int
	Address        string
	City           string
	State          string
}

// SignupBloodBank registers a blood bank and returns the record plus a token.
func (s *Service) SignupBloodBank(in BloodBankSignup) (*models.BloodBank, string, error) {
	existing, err := s.db.GetBloodBankByEmailOrPhone(in.Email, in.Phone)
	if err != nil {
		return nil, "", fmt.Errorf("lookup blood bank: %w", err)
	}
	if existing != nil {
		if existing.Email == in.Email {
			return nil, "", ErrEmailTaken
		}
		return nil, "", ErrPhoneTaken
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	bank := &models.BloodBank{
		ID:             uuid.New().String(),
		Name:           in.Name,
		AdminName:      in.AdminName,
		LicenseNumber:  in.LicenseNumber,
		Email:          in.Email,
		Phone:          in.Phone,
		PasswordHash:   hash,
		TotalBloodBags: in.TotalBloodBags,
		Address:        in.Address,
		City:           in.City,
		State:          in.State,
		CreatedAt:      time.Now(),
	}
	if err := s.db.CreateBloodBank(bank); err != nil {
		return nil, "", fmt.Errorf("create blood bank: %w", err)
	}

	tok, err := s.tokens.Generate(bank.ID, models.ActorBloodBank, TokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return bank, tok, nil
}

// LoginBloodBank verifies bank credentials and returns the record plus a token.
func (s *Service) LoginBloodBank(email, password string) (*models.BloodBank, string, error) {
	bank, err := s.db.GetBloodBankByEmail(email)
	if err != nil {
		return nil, "", fmt.Errorf("lookup blood bank: %w", err)
	}
	if bank == nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := CheckPassword(password, bank.PasswordHash); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	tok, err := s.tokens.Generate(bank.ID, models.ActorBloodBank, TokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return bank, tok, nil
}
