package billing

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ellaku/campusdash/internal/clock"
	"github.com/ellaku/campusdash/internal/domain"
	"github.com/ellaku/campusdash/internal/ids"
	"github.com/ellaku/campusdash/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newBiller(st Store, now time.Time, policy OverflowPolicy) *Biller {
	return New(st, Params{
		Clock:  clock.Fixed(now),
		IDs:    &ids.Sequence{Prefix: "tx"},
		Log:    zerolog.Nop(),
		Policy: policy,
	})
}

func seedSubscription(t *testing.T, st *store.Store, name string, cost float64, dueDay int, lastPaid *time.Time) {
	t.Helper()
	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	err := store.InsertSubscription(context.Background(), st.DB(), &domain.Subscription{
		ID: "sub-" + name, Name: name, Cost: cost, DueDay: dueDay,
		LastPaidDate: lastPaid, CreatedAt: created, UpdatedAt: created,
	})
	if err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
}

func at(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 9, 30, 0, 0, time.UTC)
}

func TestChargesOncePerMonth(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedSubscription(t, st, "Netflix", 54000, 25, nil)

	b := newBiller(st, at(2024, time.May, 26), OverflowClamp)

	count, err := b.CheckAndProcessDeductions(ctx)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 deduction, got %d", count)
	}

	txs, err := store.ListTransactions(ctx, st.DB())
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	tx := txs[0]
	if tx.Type != domain.TypeExpense {
		t.Errorf("expected expense, got %q", tx.Type)
	}
	if tx.Category != domain.CategorySubscription {
		t.Errorf("expected category Subscription, got %q", tx.Category)
	}
	if tx.Title != "Subscription: Netflix" {
		t.Errorf("unexpected title %q", tx.Title)
	}
	if tx.Amount != 54000 {
		t.Errorf("expected amount 54000, got %v", tx.Amount)
	}
	wantDate := time.Date(2024, time.May, 25, 0, 0, 0, 0, time.UTC)
	if !tx.Date.Equal(wantDate) {
		t.Errorf("expected charge dated %v, got %v", wantDate, tx.Date)
	}

	sub, err := store.GetSubscription(ctx, st.DB(), "sub-Netflix")
	if err != nil {
		t.Fatalf("GetSubscription failed: %v", err)
	}
	if sub.LastPaidDate == nil || !sub.LastPaidDate.Equal(wantDate) {
		t.Errorf("expected lastPaidDate %v, got %v", wantDate, sub.LastPaidDate)
	}

	// Second run in the same month must be a no-op.
	count, err = b.CheckAndProcessDeductions(ctx)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 deductions on the second run, got %d", count)
	}
	txs, err = store.ListTransactions(ctx, st.DB())
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(txs) != 1 {
		t.Errorf("expected still 1 transaction, got %d", len(txs))
	}
}

func TestNotYetDue(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedSubscription(t, st, "Spotify", 27500, 25, nil)

	b := newBiller(st, at(2024, time.May, 10), OverflowClamp)
	count, err := b.CheckAndProcessDeductions(ctx)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no deductions before the due day, got %d", count)
	}
}

func TestCrossMonthRetrigger(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedSubscription(t, st, "Netflix", 54000, 25, nil)

	if _, err := newBiller(st, at(2024, time.May, 25), OverflowClamp).CheckAndProcessDeductions(ctx); err != nil {
		t.Fatalf("May run failed: %v", err)
	}
	count, err := newBiller(st, at(2024, time.June, 26), OverflowClamp).CheckAndProcessDeductions(ctx)
	if err != nil {
		t.Fatalf("June run failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 new charge in June, got %d", count)
	}

	txs, err := store.ListTransactions(ctx, st.DB())
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(txs) != 2 {
		t.Errorf("expected 2 transactions total, got %d", len(txs))
	}
	sub, err := store.GetSubscription(ctx, st.DB(), "sub-Netflix")
	if err != nil {
		t.Fatalf("GetSubscription failed: %v", err)
	}
	want := time.Date(2024, time.June, 25, 0, 0, 0, 0, time.UTC)
	if sub.LastPaidDate == nil || !sub.LastPaidDate.Equal(want) {
		t.Errorf("expected lastPaidDate %v, got %v", want, sub.LastPaidDate)
	}
}

func TestPaidPreviousMonthIsDueAgain(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	lastPaid := time.Date(2024, time.April, 25, 0, 0, 0, 0, time.UTC)
	seedSubscription(t, st, "Netflix", 54000, 25, &lastPaid)

	count, err := newBiller(st, at(2024, time.May, 25), OverflowClamp).CheckAndProcessDeductions(ctx)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 deduction for the new month, got %d", count)
	}
}

func TestOverflowClamp_ShortMonth(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedSubscription(t, st, "Gym", 150000, 31, nil)

	// February 2023 has 28 days; with clamping the charge lands on the 28th.
	count, err := newBiller(st, at(2023, time.February, 28), OverflowClamp).CheckAndProcessDeductions(ctx)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 deduction, got %d", count)
	}
	txs, err := store.ListTransactions(ctx, st.DB())
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	want := time.Date(2023, time.February, 28, 0, 0, 0, 0, time.UTC)
	if !txs[0].Date.Equal(want) {
		t.Errorf("expected charge dated %v, got %v", want, txs[0].Date)
	}
}

func TestOverflowRollover_ShortMonthSkips(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedSubscription(t, st, "Gym", 150000, 31, nil)

	// Under rollover semantics day 31 is never reached in February, so the
	// month is skipped entirely.
	count, err := newBiller(st, at(2023, time.February, 28), OverflowRollover).CheckAndProcessDeductions(ctx)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no deductions, got %d", count)
	}

	// March has 31 days, so the charge happens on the 31st.
	count, err = newBiller(st, at(2023, time.March, 31), OverflowRollover).CheckAndProcessDeductions(ctx)
	if err != nil {
		t.Fatalf("March run failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 deduction in March, got %d", count)
	}
}

func TestMultipleSubscriptions(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedSubscription(t, st, "Netflix", 54000, 5, nil)
	seedSubscription(t, st, "Spotify", 27500, 10, nil)
	seedSubscription(t, st, "Gym", 150000, 28, nil)

	count, err := newBiller(st, at(2024, time.May, 15), OverflowClamp).CheckAndProcessDeductions(ctx)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 deductions (days 5 and 10), got %d", count)
	}
}

// failingStore injects an error on the subscription update so the charge and
// the lastPaidDate advance can be proven atomic.
type failingStore struct {
	*store.Store
}

func (f *failingStore) InTx(ctx context.Context, fn func(q store.Queryer) error) error {
	return f.Store.InTx(ctx, func(q store.Queryer) error {
		return fn(failingQueryer{inner: q})
	})
}

type failingQueryer struct {
	inner store.Queryer
}

func (f failingQueryer) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if strings.Contains(query, "UPDATE subscriptions") {
		return nil, errors.New("injected write failure")
	}
	return f.inner.ExecContext(ctx, query, args...)
}

func (f failingQueryer) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return f.inner.QueryContext(ctx, query, args...)
}

func (f failingQueryer) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return f.inner.QueryRowContext(ctx, query, args...)
}

func TestChargeAndAdvanceAreAtomic(t *testing.T) {
	real := newTestStore(t)
	ctx := context.Background()
	seedSubscription(t, real, "Netflix", 54000, 25, nil)

	b := newBiller(&failingStore{Store: real}, at(2024, time.May, 26), OverflowClamp)
	count, err := b.CheckAndProcessDeductions(ctx)
	if err == nil {
		t.Fatal("expected the injected failure to surface")
	}
	if count != 0 {
		t.Errorf("expected a zero count on failure, got %d", count)
	}

	// Neither the expense nor the marker advance may persist.
	txs, err := store.ListTransactions(ctx, real.DB())
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("expected the expense insert to be rolled back, found %d", len(txs))
	}
	sub, err := store.GetSubscription(ctx, real.DB(), "sub-Netflix")
	if err != nil {
		t.Fatalf("GetSubscription failed: %v", err)
	}
	if sub.LastPaidDate != nil {
		t.Errorf("expected lastPaidDate still nil, got %v", sub.LastPaidDate)
	}
}
