package donation

import (
	"fmt"
	"log"
	"time"
)

// MinDaysBetweenDonations is the mandatory interval between whole blood
// donations.
const MinDaysBetweenDonations = 56

// Eligibility is the result of a donor eligibility check.
type Eligibility struct {
	Eligible         bool       `json:"eligible"`
	Reason           string     `json:"reason,omitempty"`
	NextEligibleDate *time.Time `json:"nextEligibleDate,omitempty"`
	LastDonationDate *time.Time `json:"lastDonationDate,omitempty"`
}

// CheckEligibility decides whether a donor may donate based on their most
// recent completed donation. A donor with no completed donation is eligible.
//
// The policy fails open: if the lookup errors, the donor is treated as
// eligible and the error is logged. Availability is preferred over strict
// enforcement here; a donation a few days early is less harmful than
// blocking every donor on a flaky read.
func (s *Service) CheckEligibility(donorID string) Eligibility {
	return s.checkEligibilityAt(donorID, time.Now())
}

func (s *Service) checkEligibilityAt(donorID string, now time.Time) Eligibility {
	last, err := s.db.LastCompletedRequest(donorID)
	if err != nil {
		log.Printf("eligibility check for donor %s failed, allowing donation: %v", donorID, err)
		return Eligibility{Eligible: true}
	}
	if last == nil {
		// First-time donor.
		return Eligibility{Eligible: true}
	}

	lastDate := last.CreatedAt
	daysSince := int(now.Sub(lastDate).Hours() / 24)

	if daysSince < MinDaysBetweenDonations {
		next := lastDate.AddDate(0, 0, MinDaysBetweenDonations)
		remaining := MinDaysBetweenDonations - daysSince
		return Eligibility{
			Eligible:         false,
			Reason:           ineligibleReason(remaining),
			NextEligibleDate: &next,
			LastDonationDate: &lastDate,
		}
	}

	return Eligibility{Eligible: true, LastDonationDate: &lastDate}
}

func ineligibleReason(remainingDays int) string {
	return fmt.Sprintf("You must wait %d more days before donating again.", remainingDays)
}
