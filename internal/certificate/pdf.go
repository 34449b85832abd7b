package certificate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const (
	accentR, accentG, accentB = 211, 47, 47 // certificate red
	pageLeft                  = 15.0
	contentWidth              = 180.0
)

// Render writes the certificate PDF for rec and returns the file path.
// Filenames carry the donor ID and a timestamp so repeated downloads never
// collide.
func (s *Service) Render(rec *Record) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	stamp := time.Now().Format("2006-01-02T15-04-05.000")
	filename := fmt.Sprintf("donation-certificate-%s-%s.pdf", rec.DonorID, strings.ReplaceAll(stamp, ".", "-"))
	path := filepath.Join(s.outputDir, filename)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageLeft, 15, pageLeft)
	pdf.AddPage()

	addHeader(pdf, rec)
	addDonorInfo(pdf, rec)
	addDonationDetails(pdf, rec)
	addUnitsTable(pdf, rec)
	addFooter(pdf)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return path, nil
}

func addHeader(pdf *gofpdf.Fpdf, rec *Record) {
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(accentR, accentG, accentB)
	pdf.CellFormat(contentWidth, 12, "BLOOD DONATION CERTIFICATE", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 13)
	pdf.SetTextColor(51, 51, 51)
	pdf.CellFormat(contentWidth, 8, "Official Donation Record", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(102, 102, 102)
	pdf.CellFormat(contentWidth, 6, rec.BloodBankName, "", 1, "C", false, 0, "")
	pdf.CellFormat(contentWidth, 6, rec.BloodBankAddress, "", 1, "C", false, 0, "")

	pdf.SetDrawColor(accentR, accentG, accentB)
	pdf.SetLineWidth(0.7)
	y := pdf.GetY() + 3
	pdf.Line(pageLeft, y, pageLeft+contentWidth, y)
	pdf.SetY(y + 5)
}

func addDonorInfo(pdf *gofpdf.Fpdf, rec *Record) {
	sectionTitle(pdf, "DONOR INFORMATION")

	rows := [][2]string{
		{"Donor Name", rec.DonorName},
		{"Donor ID", rec.DonorID},
		{"Blood Type", rec.DonorBloodType},
		{"Age", fmt.Sprintf("%d years", rec.DonorAge)},
		{"Email", rec.DonorEmail},
		{"Phone", rec.DonorPhone},
		{"Donation Date", formatDate(rec.DonationDate)},
		{"Urgency Level", strings.ToUpper(string(rec.UrgencyLevel))},
	}

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(51, 51, 51)
	for _, row := range rows {
		pdf.CellFormat(45, 6, row[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(contentWidth-45, 6, row[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)
}

func addDonationDetails(pdf *gofpdf.Fpdf, rec *Record) {
	sectionTitle(pdf, "DONATION DETAILS")

	pdf.SetDrawColor(221, 221, 221)
	pdf.SetLineWidth(0.3)
	top := pdf.GetY()
	pdf.Rect(pageLeft, top, contentWidth, 26, "D")

	pdf.SetXY(pageLeft+5, top+4)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(50, 6, "Total Units Donated:", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(accentR, accentG, accentB)
	pdf.CellFormat(30, 6, fmt.Sprintf("%d Units", rec.NumberOfUnits), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(51, 51, 51)
	pdf.CellFormat(45, 6, "Patient Blood Type:", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, rec.PatientBloodType, "", 1, "L", false, 0, "")

	pdf.SetX(pageLeft + 5)
	pdf.CellFormat(50, 6, "Total Volume:", "", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, fmt.Sprintf("%d ml", rec.NumberOfUnits*450), "", 0, "L", false, 0, "")
	pdf.CellFormat(45, 6, "Request ID:", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, shortID(rec.DonationRequestID), "", 1, "L", false, 0, "")

	pdf.SetX(pageLeft + 5)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(102, 102, 102)
	pdf.CellFormat(0, 6, "This donation will help save lives. Thank you for your generous contribution!", "", 1, "L", false, 0, "")
	pdf.SetY(top + 30)
}

func addUnitsTable(pdf *gofpdf.Fpdf, rec *Record) {
	sectionTitle(pdf, "INDIVIDUAL BLOOD UNITS")

	colWidths := []float64{18, 35, 62, 25, 40}
	headers := []string{"Unit #", "Unit ID", "Barcode", "Volume", "Expiry Date"}

	pdf.SetFillColor(accentR, accentG, accentB)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range headers {
		pdf.CellFormat(colWidths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetTextColor(51, 51, 51)
	pdf.SetFont("Helvetica", "", 9)
	for i, u := range rec.Units {
		fill := i%2 == 1
		pdf.SetFillColor(249, 249, 249)
		pdf.CellFormat(colWidths[0], 7, fmt.Sprintf("%d", u.UnitNumber), "1", 0, "C", fill, 0, "")
		pdf.CellFormat(colWidths[1], 7, shortID(u.ID), "1", 0, "C", fill, 0, "")
		pdf.CellFormat(colWidths[2], 7, u.Barcode, "1", 0, "C", fill, 0, "")
		pdf.CellFormat(colWidths[3], 7, fmt.Sprintf("%d ml", u.Volume), "1", 0, "C", fill, 0, "")
		pdf.CellFormat(colWidths[4], 7, formatDate(u.ExpiryDate), "1", 0, "C", fill, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

func addFooter(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(accentR, accentG, accentB)
	pdf.CellFormat(contentWidth, 8, "Thank you for saving lives!", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(102, 102, 102)
	pdf.CellFormat(contentWidth, 5, "Important Notes:", "", 1, "L", false, 0, "")
	for _, note := range []string{
		"- Please maintain a healthy diet and stay hydrated",
		"- Wait at least 56 days before your next whole blood donation",
		"- Contact us immediately if you experience any health issues",
	} {
		pdf.CellFormat(contentWidth, 5, note, "", 1, "L", false, 0, "")
	}

	pdf.Ln(2)
	pdf.CellFormat(contentWidth, 5, "Certificate Generated: "+time.Now().Format("January 2, 2006 15:04"), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentWidth, 5, "This is a computer-generated document and does not require signature.", "", 1, "L", false, 0, "")
}

func sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(accentR, accentG, accentB)
	pdf.CellFormat(contentWidth, 9, title, "", 1, "L", false, 0, "")
}

func formatDate(t time.Time) string {
	return t.Format("January 2, 2006")
}

// shortID returns the last 8 characters of an ID for display.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[len(id)-8:]
}
