package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

// Storage handles all database operations
type Storage struct {
	db *sql.DB
}

// New creates a new Storage instance and initializes the database
func New(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &Storage{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY,
			first_name TEXT,
			username TEXT,
			created_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS invoices (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			wallet_address TEXT NOT NULL,
			energy_amount INTEGER NOT NULL,
			base_price_trx TEXT NOT NULL,
			final_price_trx TEXT NOT NULL,
			payment_ref TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL,
			status TEXT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_status ON invoices(status)`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_user_id ON invoices(user_id)`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

// --- Users ---

// UpsertUser inserts or updates a bot user
func (s *Storage) UpsertUser(userID int64, firstName, username string) error {
	now := time.Now().Unix()
	_, err := s.db.Exec(
		`INSERT INTO users (user_id, first_name, username, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			first_name = excluded.first_name,
			username = excluded.username`,
		userID, firstName, username, now,
	)
	return err
}

// --- Invoices ---

// CreateInvoice inserts a new pending invoice and returns it. Prices are
// fixed at creation time and never recomputed.
func (s *Storage) CreateInvoice(
	userID int64,
	walletAddress string,
	energyAmount int64,
	basePrice, finalPrice decimal.Decimal,
	paymentRef string,
	validity time.Duration,
) (*Invoice, error) {
	createdAt := time.Now().UTC()
	expiresAt := createdAt.Add(validity)

	result, err := s.db.Exec(
		`INSERT INTO invoices (
			user_id, wallet_address, energy_amount, base_price_trx,
			final_price_trx, payment_ref, created_at, expires_at, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, walletAddress, energyAmount,
		basePrice.String(), finalPrice.String(), paymentRef,
		createdAt.Unix(), expiresAt.Unix(), string(StatusPending),
	)
	if err != nil {
		return nil, fmt.Errorf("insert invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &Invoice{
		ID:            id,
		UserID:        userID,
		WalletAddress: walletAddress,
		EnergyAmount:  energyAmount,
		BasePriceTRX:  basePrice,
		FinalPriceTRX: finalPrice,
		PaymentRef:    paymentRef,
		CreatedAt:     createdAt,
		ExpiresAt:     expiresAt,
		Status:        StatusPending,
	}, nil
}

// GetInvoice returns an invoice by ID
func (s *Storage) GetInvoice(invoiceID int64) (*Invoice, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, wallet_address, energy_amount, base_price_trx,
			final_price_trx, payment_ref, created_at, expires_at, status
		 FROM invoices WHERE id = ?`,
		invoiceID,
	)

	inv, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return inv, err
}

// ListPendingInvoices returns all invoices still awaiting payment
func (s *Storage) ListPendingInvoices() ([]Invoice, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, wallet_address, energy_amount, base_price_trx,
			final_price_trx, payment_ref, created_at, expires_at, status
		 FROM invoices WHERE status = ? ORDER BY id`,
		string(StatusPending),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}

	return invoices, rows.Err()
}

// MarkInvoicePaid transitions a pending invoice to paid. The status guard in
// the WHERE clause keeps terminal states immutable.
func (s *Storage) MarkInvoicePaid(invoiceID int64) error {
	return s.setStatus(invoiceID, StatusPaid)
}

// MarkInvoiceExpired transitions a pending invoice to expired.
func (s *Storage) MarkInvoiceExpired(invoiceID int64) error {
	return s.setStatus(invoiceID, StatusExpired)
}

func (s *Storage) setStatus(invoiceID int64, status InvoiceStatus) error {
	result, err := s.db.Exec(
		"UPDATE invoices SET status = ? WHERE id = ? AND status = ?",
		string(status), invoiceID, string(StatusPending),
	)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*Invoice, error) {
	var inv Invoice
	var basePrice, finalPrice, status string
	var createdAt, expiresAt int64

	err := row.Scan(
		&inv.ID, &inv.UserID, &inv.WalletAddress, &inv.EnergyAmount,
		&basePrice, &finalPrice, &inv.PaymentRef,
		&createdAt, &expiresAt, &status,
	)
	if err != nil {
		return nil, err
	}

	inv.BasePriceTRX, err = decimal.NewFromString(basePrice)
	if err != nil {
		return nil, fmt.Errorf("parse base price: %w", err)
	}
	inv.FinalPriceTRX, err = decimal.NewFromString(finalPrice)
	if err != nil {
		return nil, fmt.Errorf("parse final price: %w", err)
	}

	inv.CreatedAt = time.Unix(createdAt, 0).UTC()
	inv.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	inv.Status = InvoiceStatus(status)

	return &inv, nil
}
