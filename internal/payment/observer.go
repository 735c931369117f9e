package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/tr8energy/energy-bot/internal/config"
	"github.com/tr8energy/energy-bot/internal/storage"
	"github.com/tr8energy/energy-bot/internal/trongrid"
)

// Explorer page size for one verification query.
const transferPageLimit = 50

// TransferSource supplies inbound transfers for an address. Satisfied by
// *trongrid.Client.
type TransferSource interface {
	GetIncomingTransfers(ctx context.Context, address string, since time.Time, limit int) ([]trongrid.Transfer, error)
}

// Observer verifies invoice payment against the block explorer. It fails
// soft: any network or decoding problem reads as "not yet paid" and the next
// tick retries.
type Observer struct {
	chain         TransferSource
	receivingAddr string
	receiverHex   string // empty when the configured address failed to decode
	simulate      bool
	simulateAfter time.Duration
	log           *slog.Logger

	now func() time.Time
}

// NewObserver creates an Observer for the configured receiving address. A
// malformed address is a configuration error, logged here once; the observer
// then reports every invoice unpaid until the config is fixed.
func NewObserver(cfg *config.Config, chain TransferSource, log *slog.Logger) *Observer {
	o := &Observer{
		chain:         chain,
		receivingAddr: cfg.ReceivingAddress,
		simulate:      cfg.SimulatePayments,
		simulateAfter: cfg.SimulatePaidAfter,
		log:           log,
		now:           time.Now,
	}

	if cfg.ReceivingAddress == "" {
		if !cfg.SimulatePayments {
			log.Error("RECEIVING_ADDRESS not set, payment verification disabled")
		}
		return o
	}

	hex, err := trongrid.DecodeAddress(cfg.ReceivingAddress)
	if err != nil {
		log.Error("invalid RECEIVING_ADDRESS, payment verification disabled",
			"address", cfg.ReceivingAddress,
			"error", err,
		)
		return o
	}
	o.receiverHex = hex

	return o
}

// IsPaid reports whether a satisfying transfer for the invoice exists.
func (o *Observer) IsPaid(ctx context.Context, inv *storage.Invoice) bool {
	if o.simulate {
		// Deterministic paid signal for non-production operation: every
		// invoice reads as paid a fixed delay after creation.
		return o.now().UTC().Sub(inv.CreatedAt) >= o.simulateAfter
	}

	if o.receiverHex == "" {
		return false
	}

	transfers, err := o.chain.GetIncomingTransfers(ctx, o.receivingAddr, inv.CreatedAt, transferPageLimit)
	if err != nil {
		o.log.Error("fetch transfers", "invoice_id", inv.ID, "error", err)
		return false
	}

	return Satisfies(transfers, o.receiverHex, inv.FinalPriceTRX)
}
