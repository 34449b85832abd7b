package bloodtype

import "testing"

// wantCompatible is the canonical ABO/Rh chart, donor -> allowed recipients.
var wantCompatible = map[string]map[string]bool{
	"O-":  {"O-": true, "O+": true, "A-": true, "A+": true, "B-": true, "B+": true, "AB-": true, "AB+": true},
	"O+":  {"O+": true, "A+": true, "B+": true, "AB+": true},
	"A-":  {"A-": true, "A+": true, "AB-": true, "AB+": true},
	"A+":  {"A+": true, "AB+": true},
	"B-":  {"B-": true, "B+": true, "AB-": true, "AB+": true},
	"B+":  {"B+": true, "AB+": true},
	"AB-": {"AB-": true, "AB+": true},
	"AB+": {"AB+": true},
}

func TestCompatible_FullMatrix(t *testing.T) {
	for _, donor := range Types {
		for _, recipient := range Types {
			want := wantCompatible[donor][recipient]
			if got := Compatible(donor, recipient); got != want {
				t.Errorf("Compatible(%s, %s) = %v, want %v", donor, recipient, got, want)
			}
		}
	}
}

func TestCompatible_UniversalDonorAndRecipient(t *testing.T) {
	for _, recipient := range Types {
		if !Compatible("O-", recipient) {
			t.Errorf("O- should donate to %s", recipient)
		}
	}
	for _, donor := range Types {
		if !Compatible(donor, "AB+") {
			t.Errorf("AB+ should receive from %s", donor)
		}
	}
	if Compatible("AB+", "O-") {
		t.Error("AB+ must not donate to O-")
	}
}

func TestCompatible_UnknownTypes(t *testing.T) {
	cases := [][2]string{
		{"C+", "A+"},
		{"A+", "C+"},
		{"", "O-"},
		{"O-", ""},
		{"o-", "A+"}, // case-sensitive on purpose
	}
	for _, c := range cases {
		if Compatible(c[0], c[1]) {
			t.Errorf("Compatible(%q, %q) = true, want false", c[0], c[1])
		}
	}
}

func TestTablesAreMirrored(t *testing.T) {
	// donateTo and receiveFrom must describe the same relation.
	for _, donor := range Types {
		for _, recipient := range Types {
			forward := Compatible(donor, recipient)
			var backward bool
			for _, d := range CanReceiveFrom(recipient) {
				if d == donor {
					backward = true
				}
			}
			if forward != backward {
				t.Errorf("tables disagree for donor=%s recipient=%s: donateTo=%v receiveFrom=%v",
					donor, recipient, forward, backward)
			}
		}
	}
}

func TestDescribe(t *testing.T) {
	info := Describe("AB+", "O-")
	if info.Compatible {
		t.Error("AB+ -> O- should not be compatible")
	}
	if len(info.DonorCanDonateTo) != 1 || info.DonorCanDonateTo[0] != "AB+" {
		t.Errorf("DonorCanDonateTo = %v, want [AB+]", info.DonorCanDonateTo)
	}
	if len(info.PatientCanReceiveFrom) != 1 || info.PatientCanReceiveFrom[0] != "O-" {
		t.Errorf("PatientCanReceiveFrom = %v, want [O-]", info.PatientCanReceiveFrom)
	}
}

func TestValid(t *testing.T) {
	for _, bt := range Types {
		if !Valid(bt) {
			t.Errorf("Valid(%s) = false", bt)
		}
	}
	for _, bad := range []string{"", "AB", "O", "o+", "A +"} {
		if Valid(bad) {
			t.Errorf("Valid(%q) = true", bad)
		}
	}
}
