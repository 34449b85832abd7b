package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lifelink-dev/lifelink/pkg/models"
)

// --- Donation request operations ---

const requestColumns = `id, donor_id, donor_name, donor_blood_type, blood_bank_id, blood_bank_name,
	patient_id, patient_city, patient_blood_bank_name, patient_blood_type,
	urgency_level, required_units, notes, preferred_date, status, created_at`

func scanRequest(row interface{ Scan(...interface{}) error }) (*models.DonationRequest, error) {
	r := &models.DonationRequest{}
	var preferred sql.NullTime
	err := row.Scan(
		&r.ID, &r.DonorID, &r.DonorName, &r.DonorBloodType, &r.BloodBankID, &r.BloodBankName,
		&r.PatientID, &r.PatientCity, &r.PatientBloodBankName, &r.PatientBloodType,
		&r.UrgencyLevel, &r.RequiredUnits, &r.Notes, &preferred, &r.Status, &r.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if preferred.Valid {
		t := preferred.Time
		r.PreferredDate = &t
	}
	return r, err
}

// CreateDonationRequest inserts a new pending donation request.
func (db *DB) CreateDonationRequest(r *models.DonationRequest) error {
	const q = `INSERT INTO donation_requests (id, donor_id, donor_name, donor_blood_type, blood_bank_id, blood_bank_name,
	           patient_id, patient_city, patient_blood_bank_name, patient_blood_type,
	           urgency_level, required_units, notes, preferred_date, status, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var preferred interface{}
	if r.PreferredDate != nil {
		preferred = *r.PreferredDate
	}
	_, err := db.conn.Exec(q,
		r.ID, r.DonorID, r.DonorName, r.DonorBloodType, r.BloodBankID, r.BloodBankName,
		r.PatientID, r.PatientCity, r.PatientBloodBankName, r.PatientBloodType,
		r.UrgencyLevel, r.RequiredUnits, r.Notes, preferred, r.Status, r.CreatedAt,
	)
	return err
}

// GetDonationRequest returns a donation request by ID.
func (db *DB) GetDonationRequest(id string) (*models.DonationRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM donation_requests WHERE id = ?`
	return scanRequest(db.conn.QueryRow(q, id))
}

// FindPendingRequest returns the pending request for a (donor, patient)
// pair, if one exists.
func (db *DB) FindPendingRequest(donorID, patientID string) (*models.DonationRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM donation_requests
	      WHERE donor_id = ? AND patient_id = ? AND status = 'pending' LIMIT 1`
	return scanRequest(db.conn.QueryRow(q, donorID, patientID))
}

// GetPendingRequestForBank returns the request only if it is pending and
// owned by the given bank. Absent and wrong-state are indistinguishable to
// the caller on purpose.
func (db *DB) GetPendingRequestForBank(id, bankID string) (*models.DonationRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM donation_requests
	      WHERE id = ? AND blood_bank_id = ? AND status = 'pending'`
	return scanRequest(db.conn.QueryRow(q, id, bankID))
}

// LastCompletedRequest returns the donor's most recent request with status
// 'completed', or nil if there is none. The eligibility checker keys off
// this status even though no write path currently assigns it.
func (db *DB) LastCompletedRequest(donorID string) (*models.DonationRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM donation_requests
	      WHERE donor_id = ? AND status = 'completed' ORDER BY created_at DESC LIMIT 1`
	return scanRequest(db.conn.QueryRow(q, donorID))
}

// ListRequestsForBank returns every donation request owned by a bank,
// newest first. An empty status returns all statuses.
func (db *DB) ListRequestsForBank(bankID string, status models.RequestStatus) ([]models.DonationRequest, error) {
	if status != "" {
		q := `SELECT ` + requestColumns + ` FROM donation_requests
		      WHERE blood_bank_id = ? AND status = ? ORDER BY created_at DESC`
		return db.queryRequests(q, bankID, string(status))
	}
	q := `SELECT ` + requestColumns + ` FROM donation_requests
	      WHERE blood_bank_id = ? ORDER BY created_at DESC`
	return db.queryRequests(q, bankID)
}

// ListSuccessfulRequestsForDonor returns a donor's successful donations,
// newest first.
func (db *DB) ListSuccessfulRequestsForDonor(donorID string) ([]models.DonationRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM donation_requests
	      WHERE donor_id = ? AND status = 'success' ORDER BY created_at DESC`
	return db.queryRequests(q, donorID)
}

func (db *DB) queryRequests(query string, args ...interface{}) ([]models.DonationRequest, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.DonationRequest
	for rows.Next() {
		var r models.DonationRequest
		var preferred sql.NullTime
		if err := rows.Scan(
			&r.ID, &r.DonorID, &r.DonorName, &r.DonorBloodType, &r.BloodBankID, &r.BloodBankName,
			&r.PatientID, &r.PatientCity, &r.PatientBloodBankName, &r.PatientBloodType,
			&r.UrgencyLevel, &r.RequiredUnits, &r.Notes, &preferred, &r.Status, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		if preferred.Valid {
			t := preferred.Time
			r.PreferredDate = &t
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// AcceptDonationRequest atomically flips a pending request to 'success' and
// inserts its blood units. The status update is conditional on the request
// still being pending and owned by bankID; if a concurrent accept already
// won, nothing is written and ok is false.
func (db *DB) AcceptDonationRequest(requestID, bankID string, units []models.BloodUnit) (ok bool, err error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil || !ok {
			tx.Rollback()
		}
	}()

	res, err := tx.Exec(
		`UPDATE donation_requests SET status = 'success'
		 WHERE id = ? AND blood_bank_id = ? AND status = 'pending'`,
		requestID, bankID,
	)
	if err != nil {
		return false, fmt.Errorf("update request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	const insert = `INSERT INTO blood_units (id, unit_number, donation_request_id, donor_id, donor_name, donor_blood_type,
	                blood_bank_id, blood_bank_name, donation_date, expiry_date, volume, status, barcode, notes)
	                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, u := range units {
		if _, err = tx.Exec(insert,
			u.ID, u.UnitNumber, u.DonationRequestID, u.DonorID, u.DonorName, u.DonorBloodType,
			u.BloodBankID, u.BloodBankName, u.DonationDate, u.ExpiryDate, u.Volume, u.Status, u.Barcode, u.Notes,
		); err != nil {
			return false, fmt.Errorf("insert unit %d: %w", u.UnitNumber, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// RejectDonationRequest flips a pending request to 'rejected'. Returns false
// if the request was not pending or not owned by bankID.
func (db *DB) RejectDonationRequest(requestID, bankID string) (bool, error) {
	res, err := db.conn.Exec(
		`UPDATE donation_requests SET status = 'rejected'
		 WHERE id = ? AND blood_bank_id = ? AND status = 'pending'`,
		requestID, bankID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// --- Blood unit operations ---

const unitColumns = `id, unit_number, donation_request_id, donor_id, donor_name, donor_blood_type,
	blood_bank_id, blood_bank_name, donation_date, expiry_date, volume, status, barcode, notes, used_at, patient_used_for`

func scanUnit(row interface{ Scan(...interface{}) error }) (*models.BloodUnit, error) {
	u := &models.BloodUnit{}
	var usedAt sql.NullTime
	err := row.Scan(
		&u.ID, &u.UnitNumber, &u.DonationRequestID, &u.DonorID, &u.DonorName, &u.DonorBloodType,
		&u.BloodBankID, &u.BloodBankName, &u.DonationDate, &u.ExpiryDate, &u.Volume, &u.Status,
		&u.Barcode, &u.Notes, &usedAt, &u.PatientUsedFor,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if usedAt.Valid {
		t := usedAt.Time
		u.UsedAt = &t
	}
	return u, err
}

// GetBloodUnit returns a unit by ID.
func (db *DB) GetBloodUnit(id string) (*models.BloodUnit, error) {
	q := `SELECT ` + unitColumns + ` FROM blood_units WHERE id = ?`
	return scanUnit(db.conn.QueryRow(q, id))
}

// ListBloodUnitsForBank returns a bank's units, newest donation first. An
// empty status returns all statuses.
func (db *DB) ListBloodUnitsForBank(bankID string, status models.UnitStatus) ([]models.BloodUnit, error) {
	if status != "" {
		q := `SELECT ` + unitColumns + ` FROM blood_units
		      WHERE blood_bank_id = ? AND status = ? ORDER BY donation_date DESC`
		return db.queryUnits(q, bankID, string(status))
	}
	q := `SELECT ` + unitColumns + ` FROM blood_units
	      WHERE blood_bank_id = ? ORDER BY donation_date DESC`
	return db.queryUnits(q, bankID)
}

// ListBloodUnitsForRequest returns the units created from one donation
// request, in unit-number order.
func (db *DB) ListBloodUnitsForRequest(requestID string) ([]models.BloodUnit, error) {
	q := `SELECT ` + unitColumns + ` FROM blood_units
	      WHERE donation_request_id = ? ORDER BY unit_number ASC`
	return db.queryUnits(q, requestID)
}

func (db *DB) queryUnits(query string, args ...interface{}) ([]models.BloodUnit, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []models.BloodUnit
	for rows.Next() {
		var u models.BloodUnit
		var usedAt sql.NullTime
		if err := rows.Scan(
			&u.ID, &u.UnitNumber, &u.DonationRequestID, &u.DonorID, &u.DonorName, &u.DonorBloodType,
			&u.BloodBankID, &u.BloodBankName, &u.DonationDate, &u.ExpiryDate, &u.Volume, &u.Status,
			&u.Barcode, &u.Notes, &usedAt, &u.PatientUsedFor,
		); err != nil {
			return nil, err
		}
		if usedAt.Valid {
			t := usedAt.Time
			u.UsedAt = &t
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// UseBloodUnit marks a single available unit as used for a patient. The
// update is conditional on the unit still being available and owned by
// bankID; ok is false when the gate fails. Expiry is the caller's check;
// this method does not look at expiry_date.
func (db *DB) UseBloodUnit(unitID, bankID, patientID, notes string, usedAt time.Time) (bool, error) {
	res, err := db.conn.Exec(
		`UPDATE blood_units SET status = 'used', used_at = ?, patient_used_for = ?, notes = ?
		 WHERE id = ? AND blood_bank_id = ? AND status = 'available'`,
		usedAt, patientID, notes, unitID, bankID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SelectAvailableUnits returns up to limit available, unexpired units of a
// blood type for a bank, soonest expiry first (FIFO).
func (db *DB) SelectAvailableUnits(bankID, bloodType string, now time.Time, limit int) ([]models.BloodUnit, error) {
	q := `SELECT ` + unitColumns + ` FROM blood_units
	      WHERE blood_bank_id = ? AND donor_blood_type = ? AND status = 'available' AND expiry_date > ?
	      ORDER BY expiry_date ASC LIMIT ?`
	return db.queryUnits(q, bankID, bloodType, now, limit)
}

// AllocateBloodUnits marks every unit in unitIDs as used for a patient in
// one transaction. If any unit is no longer available (a concurrent
// allocation claimed it between selection and here) the whole transaction
// rolls back and ok is false.
func (db *DB) AllocateBloodUnits(unitIDs []string, bankID, patientID, notes string, usedAt time.Time) (ok bool, err error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil || !ok {
			tx.Rollback()
		}
	}()

	for _, id := range unitIDs {
		res, uerr := tx.Exec(
			`UPDATE blood_units SET status = 'used', used_at = ?, patient_used_for = ?, notes = ?
			 WHERE id = ? AND blood_bank_id = ? AND status = 'available'`,
			usedAt, patientID, notes, id, bankID,
		)
		if uerr != nil {
			err = fmt.Errorf("allocate unit %s: %w", id, uerr)
			return false, err
		}
		n, uerr := res.RowsAffected()
		if uerr != nil {
			err = uerr
			return false, err
		}
		if n == 0 {
			// Lost the race for this unit; nothing is committed.
			return false, nil
		}
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// MarkExpiredUnits flips every available unit of a bank whose expiry date is
// strictly in the past to 'expired' and reports how many changed. Running it
// again immediately reports zero.
func (db *DB) MarkExpiredUnits(bankID string, now time.Time) (int64, error) {
	res, err := db.conn.Exec(
		`UPDATE blood_units SET status = 'expired'
		 WHERE blood_bank_id = ? AND status = 'available' AND expiry_date < ?`,
		bankID, now,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
