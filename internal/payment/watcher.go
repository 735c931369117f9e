package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tr8energy/energy-bot/internal/storage"
	"github.com/tr8energy/energy-bot/internal/trongrid"
)

// InvoiceStore is the slice of the storage layer the watcher drives. The
// watcher is the sole writer of invoice status.
type InvoiceStore interface {
	ListPendingInvoices() ([]storage.Invoice, error)
	MarkInvoicePaid(invoiceID int64) error
	MarkInvoiceExpired(invoiceID int64) error
}

// PaymentChecker reports whether an invoice has been paid. Satisfied by
// *Observer.
type PaymentChecker interface {
	IsPaid(ctx context.Context, inv *storage.Invoice) bool
}

// Delegator places delegation orders. Satisfied by *tronsave.Client.
type Delegator interface {
	Delegate(ctx context.Context, wallet string, amount int64) error
}

// Notifier delivers user-facing messages. Failures are logged, never
// propagated. Satisfied by *telegram.Bot.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string) error
}

// Watcher reconciles pending invoices on a fixed cadence: expired invoices
// are closed, paid invoices trigger delegation, everything else waits for
// the next tick.
type Watcher struct {
	store    InvoiceStore
	checker  PaymentChecker
	market   Delegator
	notifier Notifier
	log      *slog.Logger

	now func() time.Time
}

// NewWatcher creates the reconciliation watcher
func NewWatcher(store InvoiceStore, checker PaymentChecker, market Delegator, notifier Notifier, log *slog.Logger) *Watcher {
	return &Watcher{
		store:    store,
		checker:  checker,
		market:   market,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Start runs the watcher loop until ctx is cancelled. Ticks run inline in
// the loop, so a slow tick delays the next one instead of overlapping it.
func (w *Watcher) Start(ctx context.Context, interval time.Duration) {
	w.log.Info("payment watcher started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("payment watcher stopped")
			return
		case <-ticker.C:
			if err := w.Tick(ctx); err != nil {
				w.log.Error("process pending invoices", "error", err)
			}
		}
	}
}

// Tick processes the entire pending set once. Each invoice is handled
// independently: one invoice failing never aborts the rest of the tick.
func (w *Watcher) Tick(ctx context.Context) error {
	pending, err := w.store.ListPendingInvoices()
	if err != nil {
		return fmt.Errorf("list pending invoices: %w", err)
	}

	now := w.now().UTC()
	for i := range pending {
		w.processInvoice(ctx, &pending[i], now)
	}

	return nil
}

func (w *Watcher) processInvoice(ctx context.Context, inv *storage.Invoice, now time.Time) {
	// Expiry takes precedence over payment: a late transfer never revives
	// an invoice past its deadline.
	if !now.Before(inv.ExpiresAt) {
		if err := w.store.MarkInvoiceExpired(inv.ID); err != nil {
			w.log.Error("mark invoice expired", "invoice_id", inv.ID, "error", err)
			return
		}

		w.log.Info("invoice expired", "invoice_id", inv.ID, "user_id", inv.UserID)
		w.notify(ctx, inv.UserID, "❌ This invoice has expired.\nPlease create a new one.")
		return
	}

	if !w.checker.IsPaid(ctx, inv) {
		return
	}

	// A failed status write means the invoice stays pending and will be
	// re-verified next tick; delegating now could double-delegate then.
	if err := w.store.MarkInvoicePaid(inv.ID); err != nil {
		w.log.Error("mark invoice paid", "invoice_id", inv.ID, "error", err)
		return
	}

	w.log.Info("invoice paid",
		"invoice_id", inv.ID,
		"user_id", inv.UserID,
		"wallet", trongrid.ShortAddr(inv.WalletAddress, 6),
		"energy", inv.EnergyAmount,
	)

	// The invoice is already paid and will not be re-offered to the
	// checker, so a failed order here is not retried. Search the logs for
	// this message to reconcile paid-but-undelegated invoices.
	if err := w.market.Delegate(ctx, inv.WalletAddress, inv.EnergyAmount); err != nil {
		w.log.Error("delegate energy",
			"invoice_id", inv.ID,
			"wallet", trongrid.ShortAddr(inv.WalletAddress, 6),
			"energy", inv.EnergyAmount,
			"error", err,
		)
		return
	}

	text := fmt.Sprintf(
		"✅ Payment received!\n\n⚡ %d energy has been delegated to:\n%s",
		inv.EnergyAmount, inv.WalletAddress,
	)
	w.notify(ctx, inv.UserID, text)
}

func (w *Watcher) notify(ctx context.Context, userID int64, text string) {
	if err := w.notifier.Notify(ctx, userID, text); err != nil {
		w.log.Error("notify user", "user_id", userID, "error", err)
	}
}
