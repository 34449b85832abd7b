package models

import "time"

// ActorType identifies which kind of account a session belongs to.
type ActorType string

const (
	ActorPatient   ActorType = "patient"
	ActorDonor     ActorType = "donor"
	ActorBloodBank ActorType = "bloodbank"
)

// Donor is a registered blood donor.
type Donor struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	BloodBank    string    `json:"bloodBank"`
	BloodType    string    `json:"bloodType"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	Age          int       `json:"age"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Patient is a registered patient who may receive donations.
type Patient struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	BloodBank    string    `json:"bloodBank"`
	BloodType    string    `json:"bloodType"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	Age          int       `json:"age"`
	CreatedAt    time.Time `json:"createdAt"`
}

// BloodBank is a registered blood bank that processes donation requests
// and manages unit inventory.
type BloodBank struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	AdminName      string    `json:"adminName"`
	LicenseNumber  string    `json:"licenseNumber"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	PasswordHash   string    `json:"-"`
	TotalBloodBags int       `json:"totalBloodBags"`
	Address        string    `json:"address"`
	City           string    `json:"city"`
	State          string    `json:"state"`
	CreatedAt      time.Time `json:"createdAt"`
}
