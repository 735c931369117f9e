package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of an invoice.
// Transitions are monotonic: pending -> paid or pending -> expired.
type InvoiceStatus string

const (
	StatusPending InvoiceStatus = "pending"
	StatusPaid    InvoiceStatus = "paid"
	StatusExpired InvoiceStatus = "expired"
)

// Invoice is a priced, time-boxed request to delegate energy to a wallet.
type Invoice struct {
	ID            int64
	UserID        int64
	WalletAddress string
	EnergyAmount  int64
	BasePriceTRX  decimal.Decimal
	FinalPriceTRX decimal.Decimal
	PaymentRef    string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	Status        InvoiceStatus
}

// User is a bot user, upserted on /start.
type User struct {
	ID        int64
	FirstName string
	Username  string
	CreatedAt time.Time
}
