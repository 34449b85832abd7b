// Package inventory manages a blood bank's stock of units: marking units
// used, batch allocation oldest-expiry-first, sweeping expired units, and
// stock reporting.
package inventory

import (
	"fmt"
	"log"
	"time"

	"github.com/lifelink-dev/lifelink/internal/database"
	"github.com/lifelink-dev/lifelink/pkg/bloodtype"
	"github.com/lifelink-dev/lifelink/pkg/models"
)

// ExpiringSoonDays is the window for the expiringSoon counter in the
// inventory report.
const ExpiringSoonDays = 7

// allocateRetries bounds the re-select loop when a concurrent consumer
// grabs a unit between select and update.
const allocateRetries = 3

// Service manages blood unit stock for banks.
type Service struct {
	db *database.DB
}

// New creates an inventory service.
func New(db *database.DB) *Service {
	return &Service{db: db}
}

// UseUnit marks a single available, unexpired unit owned by bankID as used
// for a patient.
func (s *Service) UseUnit(bankID, unitID, patientID, notes string) (*models.BloodUnit, error) {
	unit, err := s.db.GetBloodUnit(unitID)
	if err != nil {
		return nil, fmt.Errorf("lookup unit: %w", err)
	}
	if unit == nil || unit.BloodBankID != bankID {
		return nil, ErrUnitNotFound
	}
	if unit.Status != models.UnitStatusAvailable {
		return nil, ErrUnitNotAvailable
	}
	now := time.Now()
	if !unit.ExpiryDate.After(now) {
		return nil, &ExpiredUnitError{UnitID: unit.ID, ExpiryDate: unit.ExpiryDate}
	}

	patient, err := s.db.GetPatientByID(patientID)
	if err != nil {
		return nil, fmt.Errorf("lookup patient: %w", err)
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	ok, err := s.db.UseBloodUnit(unitID, bankID, patientID, notes, now)
	if err != nil {
		return nil, fmt.Errorf("use unit: %w", err)
	}
	if !ok {
		return nil, ErrUnitNotAvailable
	}

	unit.Status = models.UnitStatusUsed
	unit.UsedAt = &now
	unit.PatientUsedFor = patientID
	if notes != "" {
		unit.Notes = notes
	}
	return unit, nil
}

// Allocate consumes count available units of bloodType from bankID's stock
// for a patient, oldest expiry first. Either every requested unit is
// consumed or none is; a shortfall returns InsufficientUnitsError with the
// current availability.
func (s *Service) Allocate(bankID, bloodType string, count int, patientID, notes string) ([]models.BloodUnit, error) {
	patient, err := s.db.GetPatientByID(patientID)
	if err != nil {
		return nil, fmt.Errorf("lookup patient: %w", err)
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	now := time.Now()
	for attempt := 0; attempt < allocateRetries; attempt++ {
		units, err := s.db.SelectAvailableUnits(bankID, bloodType, now, count)
		if err != nil {
			return nil, fmt.Errorf("select units: %w", err)
		}
		if len(units) < count {
			return nil, &InsufficientUnitsError{BloodType: bloodType, Requested: count, Available: len(units)}
		}

		ids := make([]string, len(units))
		for i, u := range units {
			ids[i] = u.ID
		}
		ok, err := s.db.AllocateBloodUnits(ids, bankID, patientID, notes, now)
		if err != nil {
			return nil, fmt.Errorf("allocate units: %w", err)
		}
		if !ok {
			// Someone consumed one of the selected units first; re-select.
			log.Printf("allocation raced on bank %s, retrying", bankID)
			continue
		}

		for i := range units {
			units[i].Status = models.UnitStatusUsed
			units[i].UsedAt = &now
			units[i].PatientUsedFor = patientID
			if notes != "" {
				units[i].Notes = notes
			}
		}
		return units, nil
	}
	return nil, fmt.Errorf("allocate units: contention on bank %s", bankID)
}

// MarkExpired flips every available unit past its expiry date to expired
// and returns how many changed. Running it again immediately is a no-op.
func (s *Service) MarkExpired(bankID string) (int64, error) {
	n, err := s.db.MarkExpiredUnits(bankID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("mark expired: %w", err)
	}
	return n, nil
}

// UnitSummary counts a bank's units per status.
type UnitSummary struct {
	Total       int            `json:"total"`
	Available   int            `json:"available"`
	Used        int            `json:"used"`
	Expired     int            `json:"expired"`
	Discarded   int            `json:"discarded"`
	ByBloodType map[string]int `json:"byBloodType"`
}

// ListUnits returns a bank's units, optionally filtered by status, plus a
// summary over the returned set.
func (s *Service) ListUnits(bankID string, status models.UnitStatus) ([]models.BloodUnit, UnitSummary, error) {
	units, err := s.db.ListBloodUnitsForBank(bankID, status)
	if err != nil {
		return nil, UnitSummary{}, fmt.Errorf("list units: %w", err)
	}

	summary := UnitSummary{Total: len(units), ByBloodType: make(map[string]int)}
	for _, u := range units {
		switch u.Status {
		case models.UnitStatusAvailable:
			summary.Available++
		case models.UnitStatusUsed:
			summary.Used++
		case models.UnitStatusExpired:
			summary.Expired++
		case models.UnitStatusDiscarded:
			summary.Discarded++
		}
		summary.ByBloodType[u.DonorBloodType]++
	}
	return units, summary, nil
}

// TypeStock is one blood type's row in the inventory report.
type TypeStock struct {
	Total        int `json:"total"`
	Available    int `json:"available"`
	Used         int `json:"used"`
	Expired      int `json:"expired"`
	ExpiringSoon int `json:"expiringSoon"`
}

// Report is the full stock picture for one bank, keyed by blood type with
// cross-type totals.
type Report struct {
	ByBloodType    map[string]TypeStock `json:"byBloodType"`
	TotalAvailable int                  `json:"totalAvailable"`
	TotalUsed      int                  `json:"totalUsed"`
	TotalExpired   int                  `json:"totalExpired"`
}

// BuildReport computes per-blood-type stock for a bank. An available unit
// whose expiry has passed counts as expired even before a sweep flips its
// stored status, so the report never overstates usable stock. A unit counts
// as expiring soon when it is still usable and its remaining shelf life,
// rounded up to whole days, is within ExpiringSoonDays.
func (s *Service) BuildReport(bankID string) (*Report, error) {
	units, err := s.db.ListBloodUnitsForBank(bankID, "")
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}

	now := time.Now()
	report := &Report{ByBloodType: make(map[string]TypeStock, len(bloodtype.Types))}
	for _, bt := range bloodtype.Types {
		report.ByBloodType[bt] = TypeStock{}
	}

	for _, u := range units {
		stock := report.ByBloodType[u.DonorBloodType]
		stock.Total++

		expired := u.Status == models.UnitStatusExpired ||
			(u.Status == models.UnitStatusAvailable && !u.ExpiryDate.After(now))

		switch {
		case u.Status == models.UnitStatusUsed:
			stock.Used++
			report.TotalUsed++
		case expired:
			stock.Expired++
			report.TotalExpired++
		case u.Status == models.UnitStatusAvailable:
			stock.Available++
			report.TotalAvailable++
			remaining := u.ExpiryDate.Sub(now)
			daysLeft := int(remaining.Hours() / 24)
			if remaining%(24*time.Hour) > 0 {
				daysLeft++
			}
			if daysLeft > 0 && daysLeft <= ExpiringSoonDays {
				stock.ExpiringSoon++
			}
		}

		report.ByBloodType[u.DonorBloodType] = stock
	}
	return report, nil
}
