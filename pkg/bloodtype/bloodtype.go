// Package bloodtype implements the fixed ABO/Rh donor-to-recipient
// compatibility table over the 8 standard blood types. All functions are
// pure; unknown type strings are treated as compatible with nothing rather
// than as errors, so callers can feed user input straight through.
package bloodtype

// Types lists the 8 standard ABO/Rh blood types.
var Types = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// donateTo maps a donor type to every recipient type it can donate to.
// O- is the universal donor; AB+ is the universal recipient.
var donateTo = map[string][]string{
	"O-":  {"O-", "O+", "A-", "A+", "B-", "B+", "AB-", "AB+"},
	"O+":  {"O+", "A+", "B+", "AB+"},
	"A-":  {"A-", "A+", "AB-", "AB+"},
	"A+":  {"A+", "AB+"},
	"B-":  {"B-", "B+", "AB-", "AB+"},
	"B+":  {"B+", "AB+"},
	"AB-": {"AB-", "AB+"},
	"AB+": {"AB+"},
}

// receiveFrom maps a recipient type to every donor type it can receive from.
// Kept as an explicit table rather than derived from donateTo so the two
// directions can be eyeballed against the canonical chart independently.
var receiveFrom = map[string][]string{
	"O-":  {"O-"},
	"O+":  {"O-", "O+"},
	"A-":  {"O-", "A-"},
	"A+":  {"O-", "O+", "A-", "A+"},
	"B-":  {"O-", "B-"},
	"B+":  {"O-", "O+", "B-", "B+"},
	"AB-": {"O-", "A-", "B-", "AB-"},
	"AB+": {"O-", "O+", "A-", "A+", "B-", "B+", "AB-", "AB+"},
}

// Valid reports whether t is one of the 8 standard blood types.
func Valid(t string) bool {
	_, ok := donateTo[t]
	return ok
}

// Compatible reports whether blood of donorType can be given to a recipient
// of recipientType. Unknown types are never compatible.
func Compatible(donorType, recipientType string) bool {
	for _, t := range donateTo[donorType] {
		if t == recipientType {
			return true
		}
	}
	return false
}

// CanDonateTo returns every recipient type the given donor type can donate
// to, or nil for an unknown type.
func CanDonateTo(donorType string) []string {
	return donateTo[donorType]
}

// CanReceiveFrom returns every donor type the given recipient type can
// receive from, or nil for an unknown type.
func CanReceiveFrom(recipientType string) []string {
	return receiveFrom[recipientType]
}

// Info summarizes the compatibility relationship between a donor/recipient
// pair for informational API responses.
type Info struct {
	DonorType             string   `json:"donorType"`
	PatientType           string   `json:"patientType"`
	Compatible            bool     `json:"compatible"`
	DonorCanDonateTo      []string `json:"donorCanDonateTo"`
	PatientCanReceiveFrom []string `json:"patientCanReceiveFrom"`
}

// Describe returns the full compatibility picture for a donor/recipient pair.
func Describe(donorType, recipientType string) Info {
	return Info{
		DonorType:             donorType,
		PatientType:           recipientType,
		Compatible:            Compatible(donorType, recipientType),
		DonorCanDonateTo:      CanDonateTo(donorType),
		PatientCanReceiveFrom: CanReceiveFrom(recipientType),
	}
}
