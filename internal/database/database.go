package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lifelink-dev/lifelink/pkg/models"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database and runs migrations.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single writer, many readers.
	conn.SetMaxOpenConns(1)

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they do not exist.
func migrate(conn *sql.DB) error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS donors (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT UNIQUE NOT NULL,
		phone         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		blood_bank    TEXT NOT NULL DEFAULT '',
		blood_type    TEXT NOT NULL,
		city          TEXT NOT NULL DEFAULT '',
		state         TEXT NOT NULL DEFAULT '',
		age           INTEGER NOT NULL DEFAULT 0,
		created_at    DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_donors_city ON donors(city);
	CREATE INDEX IF NOT EXISTS idx_donors_phone ON donors(phone);

	CREATE TABLE IF NOT EXISTS patients (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT UNIQUE NOT NULL,
		phone         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		blood_bank    TEXT NOT NULL DEFAULT '',
		blood_type    TEXT NOT NULL,
		city          TEXT NOT NULL DEFAULT '',
		state         TEXT NOT NULL DEFAULT '',
		age           INTEGER NOT NULL DEFAULT 0,
		created_at    DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_patients_city ON patients(city);
	CREATE INDEX IF NOT EXISTS idx_patients_phone ON patients(phone);

	CREATE TABLE IF NOT EXISTS blood_banks (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		admin_name       TEXT NOT NULL DEFAULT '',
		license_number   TEXT NOT NULL DEFAULT '',
		email            TEXT UNIQUE NOT NULL,
		phone            TEXT NOT NULL,
		password_hash    TEXT NOT NULL,
		total_blood_bags INTEGER NOT NULL DEFAULT 0,
		address          TEXT NOT NULL DEFAULT '',
		city             TEXT NOT NULL DEFAULT '',
		state            TEXT NOT NULL DEFAULT '',
		created_at       DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_blood_banks_name_city ON blood_banks(name, city);

	CREATE TABLE IF NOT EXISTS donation_requests (
		id                      TEXT PRIMARY KEY,
		donor_id                TEXT NOT NULL REFERENCES donors(id),
		donor_name              TEXT NOT NULL,
		donor_blood_type        TEXT NOT NULL,
		blood_bank_id           TEXT NOT NULL REFERENCES blood_banks(id),
		blood_bank_name         TEXT NOT NULL,
		patient_id              TEXT NOT NULL REFERENCES patients(id),
		patient_city            TEXT NOT NULL DEFAULT '',
		patient_blood_bank_name TEXT NOT NULL DEFAULT '',
		patient_blood_type      TEXT NOT NULL,
		urgency_level           TEXT NOT NULL DEFAULT 'medium',
		required_units          INTEGER NOT NULL DEFAULT 1,
		notes                   TEXT NOT NULL DEFAULT '',
		preferred_date          DATETIME,
		status                  TEXT NOT NULL DEFAULT 'pending',
		created_at              DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_donor ON donation_requests(donor_id, status);
	CREATE INDEX IF NOT EXISTS idx_requests_bank ON donation_requests(blood_bank_id, status);
	CREATE INDEX IF NOT EXISTS idx_requests_pair ON donation_requests(donor_id, patient_id, status);

	CREATE TABLE IF NOT EXISTS blood_units (
		id                  TEXT PRIMARY KEY,
		unit_number         INTEGER NOT NULL,
		donation_request_id TEXT NOT NULL REFERENCES donation_requests(id),
		donor_id            TEXT NOT NULL,
		donor_name          TEXT NOT NULL,
		donor_blood_type    TEXT NOT NULL,
		blood_bank_id       TEXT NOT NULL REFERENCES blood_banks(id),
		blood_bank_name     TEXT NOT NULL,
		donation_date       DATETIME NOT NULL,
		expiry_date         DATETIME NOT NULL,
		volume              INTEGER NOT NULL DEFAULT 450,
		status              TEXT NOT NULL DEFAULT 'available',
		barcode             TEXT NOT NULL DEFAULT '',
		notes               TEXT NOT NULL DEFAULT '',
		used_at             DATETIME,
		patient_used_for    TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_units_request ON blood_units(donation_request_id);
	CREATE INDEX IF NOT EXISTS idx_units_bank_status ON blood_units(blood_bank_id, status);
	CREATE INDEX IF NOT EXISTS idx_units_bank_type_expiry ON blood_units(blood_bank_id, donor_blood_type, expiry_date);
	`
	_, err := conn.Exec(ddl)
	return err
}

// --- Donor operations ---

const donorColumns = `id, name, email, phone, password_hash, blood_bank, blood_type, city, state, age, created_at`

func scanDonor(row interface{ Scan(...interface{}) error }) (*models.Donor, error) {
	d := &models.Donor{}
	err := row.Scan(
		&d.ID, &d.Name, &d.Email, &d.Phone, &d.PasswordHash,
		&d.BloodBank, &d.BloodType, &d.City, &d.State, &d.Age, &d.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

// CreateDonor inserts a new donor.
func (db *DB) CreateDonor(d *models.Donor) error {
	const q = `INSERT INTO donors (id, name, email, phone, password_hash, blood_bank, blood_type, city, state, age, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.conn.Exec(q,
		d.ID, d.Name, d.Email, d.Phone, d.PasswordHash,
		d.BloodBank, d.BloodType, d.City, d.State, d.Age, d.CreatedAt,
	)
	return err
}

// GetDonorByID looks up a donor by ID.
func (db *DB) GetDonorByID(id string) (*models.Donor, error) {
	q := `SELECT ` + donorColumns + ` FROM donors WHERE id = ?`
	return scanDonor(db.conn.QueryRow(q, id))
}

// GetDonorByEmail looks up a donor by email.
func (db *DB) GetDonorByEmail(email string) (*models.Donor, error) {
	q := `SELECT ` + donorColumns + ` FROM donors WHERE email = ?`
	return scanDonor(db.conn.QueryRow(q, email))
}

// GetDonorByEmailOrPhone returns the first donor matching either field.
// Used by signup to report which identifier is already taken.
func (db *DB) GetDonorByEmailOrPhone(email, phone string) (*models.Donor, error) {
	q := `SELECT ` + donorColumns + ` FROM donors WHERE email = ? OR phone = ? LIMIT 1`
	return scanDonor(db.conn.QueryRow(q, email, phone))
}

// ListDonorsByCity returns donors in a city (case-insensitive), newest first,
// capped at limit.
func (db *DB) ListDonorsByCity(city string, limit int) ([]models.Donor, error) {
	q := `SELECT ` + donorColumns + ` FROM donors WHERE city = ? COLLATE NOCASE ORDER BY created_at DESC LIMIT ?`
	rows, err := db.conn.Query(q, strings.TrimSpace(city), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var donors []models.Donor
	for rows.Next() {
		var d models.Donor
		if err := rows.Scan(
			&d.ID, &d.Name, &d.Email, &d.Phone, &d.PasswordHash,
			&d.BloodBank, &d.BloodType, &d.City, &d.State, &d.Age, &d.CreatedAt,
		); err != nil {
			return nil, err
		}
		donors = append(donors, d)
	}
	return donors, rows.Err()
}

// --- Patient operations ---

const patientColumns = `id, name, email, phone, password_hash, blood_bank, blood_type, city, state, age, created_at`

func scanPatient(row interface{ Scan(...interface{}) error }) (*models.Patient, error) {
	p := &models.Patient{}
	err := row.Scan(
		&p.ID, &p.Name, &p.Email, &p.Phone, &p.PasswordHash,
		&p.BloodBank, &p.BloodType, &p.City, &p.State, &p.Age, &p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// CreatePatient inserts a new patient.
func (db *DB) CreatePatient(p *models.Patient) error {
	const q = `INSERT INTO patients (id, name, email, phone, password_hash, blood_bank, blood_type, city, state, age, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.conn.Exec(q,
		p.ID, p.Name, p.Email, p.Phone, p.PasswordHash,
		p.BloodBank, p.BloodType, p.City, p.State, p.Age, p.CreatedAt,
	)
	return err
}

// GetPatientByID looks up a patient by ID.
func (db *DB) GetPatientByID(id string) (*models.Patient, error) {
	q := `SELECT ` + patientColumns + ` FROM patients WHERE id = ?`
	return scanPatient(db.conn.QueryRow(q, id))
}

// GetPatientByEmail looks up a patient by email.
func (db *DB) GetPatientByEmail(email string) (*models.Patient, error) {
	q := `SELECT ` + patientColumns + ` FROM patients WHERE email = ?`
	return scanPatient(db.conn.QueryRow(q, email))
}

// GetPatientByEmailOrPhone returns the first patient matching either field.
func (db *DB) GetPatientByEmailOrPhone(email, phone string) (*models.Patient, error) {
	q := `SELECT ` + patientColumns + ` FROM patients WHERE email = ? OR phone = ? LIMIT 1`
	return scanPatient(db.conn.QueryRow(q, email, phone))
}

// ListPatients returns all patients, newest first.
func (db *DB) ListPatients() ([]models.Patient, error) {
	q := `SELECT ` + patientColumns + ` FROM patients ORDER BY created_at DESC`
	return db.queryPatients(q)
}

// ListPatientsByCity returns patients in a city (case-insensitive), newest
// first, capped at limit.
func (db *DB) ListPatientsByCity(city string, limit int) ([]models.Patient, error) {
	q := `SELECT ` + patientColumns + ` FROM patients WHERE city = ? COLLATE NOCASE ORDER BY created_at DESC LIMIT ?`
	return db.queryPatients(q, strings.TrimSpace(city), limit)
}

func (db *DB) queryPatients(query string, args ...interface{}) ([]models.Patient, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients []models.Patient
	for rows.Next() {
		var p models.Patient
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Email, &p.Phone, &p.PasswordHash,
			&p.BloodBank, &p.BloodType, &p.City, &p.State, &p.Age, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

// --- Blood bank operations ---

const bloodBankColumns = `id, name, admin_name, license_number, email, phone, password_hash, total_blood_bags, address, city, state, created_at`

func scanBloodBank(row interface{ Scan(...interface{}) error }) (*models.BloodBank, error) {
	b := &models.BloodBank{}
	err := row.Scan(
		&b.ID, &b.Name, &b.AdminName, &b.LicenseNumber, &b.Email, &b.Phone,
		&b.PasswordHash, &b.TotalBloodBags, &b.Address, &b.City, &b.State, &b.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return b, err
}

// CreateBloodBank inserts a new blood bank.
func (db *DB) CreateBloodBank(b *models.BloodBank) error {
	const q = `INSERT INTO blood_banks (id, name, admin_name, license_number, email, phone, password_hash, total_blood_bags, address, city, state, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.conn.Exec(q,
		b.ID, b.Name, b.AdminName, b.LicenseNumber, b.Email, b.Phone,
		b.PasswordHash, b.TotalBloodBags, b.Address, b.City, b.State, b.CreatedAt,
	)
	return err
}

// GetBloodBankByID looks up a blood bank by ID.
func (db *DB) GetBloodBankByID(id string) (*models.BloodBank, error) {
	q := `SELECT ` + bloodBankColumns + ` FROM blood_banks WHERE id = ?`
	return scanBloodBank(db.conn.QueryRow(q, id))
}

// GetBloodBankByEmail looks up a blood bank by email.
func (db *DB) GetBloodBankByEmail(email string) (*models.BloodBank, error) {
	q := `SELECT ` + bloodBankColumns + ` FROM blood_banks WHERE email = ?`
	return scanBloodBank(db.conn.QueryRow(q, email))
}

// GetBloodBankByEmailOrPhone returns the first bank matching either field.
func (db *DB) GetBloodBankByEmailOrPhone(email, phone string) (*models.BloodBank, error) {
	q := `SELECT ` + bloodBankColumns + ` FROM blood_banks WHERE email = ? OR phone = ? LIMIT 1`
	return scanBloodBank(db.conn.QueryRow(q, email, phone))
}

// GetBloodBankByNameCity looks up a bank by its name and city. Donor and
// patient profiles reference their bank by name, not ID, so request creation
// resolves the bank this way.
func (db *DB) GetBloodBankByNameCity(name, city string) (*models.BloodBank, error) {
	q := `SELECT ` + bloodBankColumns + ` FROM blood_banks WHERE name = ? AND city = ? LIMIT 1`
	return scanBloodBank(db.conn.QueryRow(q, name, city))
}
