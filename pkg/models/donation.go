package models

import "time"

// RequestStatus is the lifecycle state of a donation request.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusSuccess  RequestStatus = "success"
	RequestStatusRejected RequestStatus = "rejected"

	// The following statuses appear in read paths (status summaries, the
	// approved-requests listing, the eligibility checker) but no operation
	// in this codebase ever assigns them. They are kept so downstream
	// consumers of the status vocabulary keep working; do not add
	// transitions that produce them without auditing those read paths.
	RequestStatusApproved  RequestStatus = "approved"
	RequestStatusCompleted RequestStatus = "completed"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// UrgencyLevel is how urgently a patient needs the donation.
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// Valid reports whether u is one of the four known urgency levels.
func (u UrgencyLevel) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// UnitStatus is the stored state of an individual blood unit. A unit whose
// expiry date has passed but that has not been swept still reads "available"
// here; inventory summaries compute freshness separately.
type UnitStatus string

const (
	UnitStatusAvailable UnitStatus = "available"
	UnitStatusUsed      UnitStatus = "used"
	UnitStatusExpired   UnitStatus = "expired"
	UnitStatusDiscarded UnitStatus = "discarded"
)

// StandardBagVolumeML is the fixed volume of one blood bag.
const StandardBagVolumeML = 450

// DonationRequest is a donor's offer to give blood to a specific patient.
// Donor, bank, and patient fields are snapshots copied at creation time so
// the record stays stable if those profiles are edited later.
type DonationRequest struct {
	ID                   string        `json:"id"`
	DonorID              string        `json:"donorId"`
	DonorName            string        `json:"donor"`
	DonorBloodType       string        `json:"donorBloodType"`
	BloodBankID          string        `json:"bloodBankId"`
	BloodBankName        string        `json:"bloodBank"`
	PatientID            string        `json:"patientId"`
	PatientCity          string        `json:"patientCity"`
	PatientBloodBankName string        `json:"patientBloodBankName"`
	PatientBloodType     string        `json:"patientBloodType"`
	UrgencyLevel         UrgencyLevel  `json:"urgencyLevel"`
	RequiredUnits        int           `json:"requiredUnits"`
	Notes                string        `json:"notes,omitempty"`
	PreferredDate        *time.Time    `json:"preferredDate,omitempty"`
	Status               RequestStatus `json:"status"`
	CreatedAt            time.Time     `json:"createdAt"`
}

// BloodUnit is one physical 450 ml bag of donated blood, tracked
// individually from creation through use, expiry, or discard.
type BloodUnit struct {
	ID                string     `json:"id"`
	UnitNumber        int        `json:"unitNumber"`
	DonationRequestID string     `json:"donationRequestId"`
	DonorID           string     `json:"donorId"`
	DonorName         string     `json:"donorName"`
	DonorBloodType    string     `json:"donorBloodType"`
	BloodBankID       string     `json:"bloodBankId"`
	BloodBankName     string     `json:"bloodBankName"`
	DonationDate      time.Time  `json:"donationDate"`
	ExpiryDate        time.Time  `json:"expiryDate"`
	Volume            int        `json:"volume"`
	Status            UnitStatus `json:"status"`
	Barcode           string     `json:"barcode"`
	Notes             string     `json:"notes,omitempty"`
	UsedAt            *time.Time `json:"usedAt,omitempty"`
	PatientUsedFor    string     `json:"patientUsedFor,omitempty"`
}
