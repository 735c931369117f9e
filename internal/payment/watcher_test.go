package payment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tr8energy/energy-bot/internal/storage"
)

type fakeStore struct {
	pending        []storage.Invoice
	listErr        error
	markPaidErr    error
	markExpiredErr error

	paid    []int64
	expired []int64
}

func (f *fakeStore) ListPendingInvoices() ([]storage.Invoice, error) {
	return f.pending, f.listErr
}

func (f *fakeStore) MarkInvoicePaid(id int64) error {
	if f.markPaidErr != nil {
		return f.markPaidErr
	}
	f.paid = append(f.paid, id)
	return nil
}

func (f *fakeStore) MarkInvoiceExpired(id int64) error {
	if f.markExpiredErr != nil {
		return f.markExpiredErr
	}
	f.expired = append(f.expired, id)
	return nil
}

type fakeChecker struct {
	paid    map[int64]bool
	asked   []int64
}

func (f *fakeChecker) IsPaid(ctx context.Context, inv *storage.Invoice) bool {
	f.asked = append(f.asked, inv.ID)
	return f.paid[inv.ID]
}

type delegation struct {
	wallet string
	amount int64
}

type fakeDelegator struct {
	err   error
	calls []delegation
}

func (f *fakeDelegator) Delegate(ctx context.Context, wallet string, amount int64) error {
	f.calls = append(f.calls, delegation{wallet: wallet, amount: amount})
	return f.err
}

type notification struct {
	userID int64
	text   string
}

type fakeNotifier struct {
	err  error
	sent []notification
}

func (f *fakeNotifier) Notify(ctx context.Context, userID int64, text string) error {
	f.sent = append(f.sent, notification{userID: userID, text: text})
	return f.err
}

func pendingInvoice(id, userID int64, createdAt time.Time, finalPrice string) storage.Invoice {
	return storage.Invoice{
		ID:            id,
		UserID:        userID,
		WalletAddress: "TWGd9idELBV3is6rrtC5PQUhudiJYeCr7E",
		EnergyAmount:  131_000,
		BasePriceTRX:  decimal.RequireFromString(finalPrice),
		FinalPriceTRX: decimal.RequireFromString(finalPrice),
		PaymentRef:    "ref",
		CreatedAt:     createdAt,
		ExpiresAt:     createdAt.Add(20 * time.Minute),
		Status:        storage.StatusPending,
	}
}

func newTestWatcher(store *fakeStore, checker *fakeChecker, market *fakeDelegator, notifier *fakeNotifier, now time.Time) *Watcher {
	w := NewWatcher(store, checker, market, notifier, discardLogger())
	w.now = func() time.Time { return now }
	return w
}

func TestTickPaidInvoiceDelegatesOnce(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := &fakeStore{pending: []storage.Invoice{pendingInvoice(1, 42, t0, "10")}}
	checker := &fakeChecker{paid: map[int64]bool{1: true}}
	market := &fakeDelegator{}
	notifier := &fakeNotifier{}

	w := newTestWatcher(store, checker, market, notifier, t0.Add(5*time.Minute))
	require.NoError(t, w.Tick(context.Background()))

	require.Equal(t, []int64{1}, store.paid)
	require.Empty(t, store.expired)
	require.Equal(t, []delegation{{wallet: "TWGd9idELBV3is6rrtC5PQUhudiJYeCr7E", amount: 131_000}}, market.calls)
	require.Len(t, notifier.sent, 1)
	require.Equal(t, int64(42), notifier.sent[0].userID)
	require.Contains(t, notifier.sent[0].text, "Payment received")
}

func TestTickExpiresInvoiceWithoutDelegation(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := &fakeStore{pending: []storage.Invoice{pendingInvoice(1, 42, t0, "10")}}
	checker := &fakeChecker{}
	market := &fakeDelegator{}
	notifier := &fakeNotifier{}

	w := newTestWatcher(store, checker, market, notifier, t0.Add(21*time.Minute))
	require.NoError(t, w.Tick(context.Background()))

	require.Equal(t, []int64{1}, store.expired)
	require.Empty(t, store.paid)
	require.Empty(t, market.calls)
	require.Len(t, notifier.sent, 1)
	require.Contains(t, notifier.sent[0].text, "expired")
}

func TestTickExpiryTakesPrecedenceOverPayment(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := &fakeStore{pending: []storage.Invoice{pendingInvoice(1, 42, t0, "10")}}
	// A satisfying transfer exists, but the deadline has passed.
	checker := &fakeChecker{paid: map[int64]bool{1: true}}
	market := &fakeDelegator{}
	notifier := &fakeNotifier{}

	w := newTestWatcher(store, checker, market, notifier, t0.Add(20*time.Minute))
	require.NoError(t, w.Tick(context.Background()))

	require.Equal(t, []int64{1}, store.expired)
	require.Empty(t, store.paid)
	require.Empty(t, market.calls)
	require.Empty(t, checker.asked, "expired invoices must not be offered to the checker")
}

func TestTickStillPendingInvoiceUntouched(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := &fakeStore{pending: []storage.Invoice{pendingInvoice(1, 42, t0, "10")}}
	checker := &fakeChecker{}
	market := &fakeDelegator{}
	notifier := &fakeNotifier{}

	w := newTestWatcher(store, checker, market, notifier, t0.Add(5*time.Minute))
	require.NoError(t, w.Tick(context.Background()))

	require.Empty(t, store.paid)
	require.Empty(t, store.expired)
	require.Empty(t, market.calls)
	require.Empty(t, notifier.sent)
}

func TestTickOneTransferCanSettleTwoInvoices(t *testing.T) {
	// Documented gap: nothing ties a transfer to a single invoice, so one
	// payment to the shared receiving address can settle every pending
	// invoice it covers, each triggering its own delegation.
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := &fakeStore{pending: []storage.Invoice{
		pendingInvoice(1, 42, t0, "10"),
		pendingInvoice(2, 43, t0, "10"),
	}}
	checker := &fakeChecker{paid: map[int64]bool{1: true, 2: true}}
	market := &fakeDelegator{}
	notifier := &fakeNotifier{}

	w := newTestWatcher(store, checker, market, notifier, t0.Add(5*time.Minute))
	require.NoError(t, w.Tick(context.Background()))

	require.Equal(t, []int64{1, 2}, store.paid)
	require.Len(t, market.calls, 2)
}

func TestTickNotifierFailureDoesNotAffectState(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := &fakeStore{pending: []storage.Invoice{
		pendingInvoice(1, 42, t0, "10"),
		pendingInvoice(2, 43, t0, "10"),
	}}
	checker := &fakeChecker{paid: map[int64]bool{1: true, 2: true}}
	market := &fakeDelegator{}
	notifier := &fakeNotifier{err: errors.New("blocked by user")}

	w := newTestWatcher(store, checker, market, notifier, t0.Add(5*time.Minute))
	require.NoError(t, w.Tick(context.Background()))

	// Both invoices were still persisted and delegated.
	require.Equal(t, []int64{1, 2}, store.paid)
	require.Len(t, market.calls, 2)
}

func TestTickPersistFailureSkipsDelegation(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := &fakeStore{
		pending:     []storage.Invoice{pendingInvoice(1, 42, t0, "10")},
		markPaidErr: errors.New("disk full"),
	}
	checker := &fakeChecker{paid: map[int64]bool{1: true}}
	market := &fakeDelegator{}
	notifier := &fakeNotifier{}

	w := newTestWatcher(store, checker, market, notifier, t0.Add(5*time.Minute))
	require.NoError(t, w.Tick(context.Background()))

	// The invoice stays pending; delegating without a durable paid record
	// would double-delegate on the retry.
	require.Empty(t, market.calls)
	require.Empty(t, notifier.sent)
}

func TestTickDelegationFailureKeepsInvoicePaid(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := &fakeStore{pending: []storage.Invoice{
		pendingInvoice(1, 42, t0, "10"),
		pendingInvoice(2, 43, t0, "10"),
	}}
	checker := &fakeChecker{paid: map[int64]bool{1: true, 2: true}}
	market := &fakeDelegator{err: errors.New("order book empty")}
	notifier := &fakeNotifier{}

	w := newTestWatcher(store, checker, market, notifier, t0.Add(5*time.Minute))
	require.NoError(t, w.Tick(context.Background()))

	// Both invoices stay paid and the tick was not aborted, but no success
	// notification goes out for a failed delegation.
	require.Equal(t, []int64{1, 2}, store.paid)
	for _, n := range notifier.sent {
		require.False(t, strings.Contains(n.text, "Payment received"))
	}
}

func TestTickListFailureReturnsError(t *testing.T) {
	store := &fakeStore{listErr: errors.New("db locked")}
	w := newTestWatcher(store, &fakeChecker{}, &fakeDelegator{}, &fakeNotifier{}, time.Now())

	require.Error(t, w.Tick(context.Background()))
}

func TestStartStopsOnContextCancel(t *testing.T) {
	store := &fakeStore{}
	w := newTestWatcher(store, &fakeChecker{}, &fakeDelegator{}, &fakeNotifier{}, time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop after context cancellation")
	}
}
