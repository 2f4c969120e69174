// Package billing turns due subscriptions into expense transactions. A
// subscription is charged at most once per calendar month; the expense insert
// and the lastPaidDate advance happen in one transaction, so a failed run
// leaves no half-charged state.
package billing

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/ellaku/campusdash/internal/clock"
	"github.com/ellaku/campusdash/internal/domain"
	"github.com/ellaku/campusdash/internal/ids"
	"github.com/ellaku/campusdash/internal/store"
)

// Store is the persistence surface the biller needs.
type Store interface {
	InTx(ctx context.Context, fn func(q store.Queryer) error) error
}

// Params configures a Biller.
type Params struct {
	Clock  clock.Clock
	IDs    ids.Generator
	Log    zerolog.Logger
	Policy OverflowPolicy
}

// Biller scans subscriptions and generates the auto-deduction expenses.
type Biller struct {
	store  Store
	clock  clock.Clock
	ids    ids.Generator
	log    zerolog.Logger
	policy OverflowPolicy
}

// New builds a Biller. An unset or unknown policy falls back to clamping.
func New(st Store, p Params) *Biller {
	policy := p.Policy
	if !policy.Valid() {
		policy = OverflowClamp
	}
	return &Biller{
		store:  st,
		clock:  p.Clock,
		ids:    p.IDs,
		log:    p.Log,
		policy: policy,
	}
}

// CheckAndProcessDeductions scans every subscription once and charges the
// ones due in the current month that have not been charged yet. The whole
// scan is one transaction; on error nothing is committed and the returned
// count is zero. Safe to call on every startup.
func (b *Biller) CheckAndProcessDeductions(ctx context.Context) (int, error) {
	now := b.clock.Now()
	today := civil.DateOf(now)

	count := 0
	err := b.store.InTx(ctx, func(q store.Queryer) error {
		subs, err := store.ListSubscriptions(ctx, q)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			payOn, due := b.dueNow(today, sub)
			if !due {
				continue
			}
			paidAt := payOn.In(time.UTC)
			expense := &domain.Transaction{
				ID:        b.ids.NewID(),
				Title:     "Subscription: " + sub.Name,
				Category:  domain.CategorySubscription,
				Amount:    sub.Cost,
				Currency:  domain.DefaultCurrency,
				Date:      paidAt,
				Type:      domain.TypeExpense,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := store.InsertTransaction(ctx, q, expense); err != nil {
				return err
			}
			if err := store.MarkSubscriptionPaid(ctx, q, sub.ID, paidAt, now); err != nil {
				return err
			}
			count++
			b.log.Info().
				Str("subscription", sub.Name).
				Float64("cost", sub.Cost).
				Str("date", payOn.String()).
				Msg("auto-deducted subscription")
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("billing: process deductions: %w", err)
	}
	return count, nil
}

// dueNow decides whether a subscription should be charged today and, if so,
// on which date the charge is recorded. Due means the day of month has
// reached the due threshold and no charge exists for the current
// (year, month) yet.
func (b *Biller) dueNow(today civil.Date, sub *domain.Subscription) (civil.Date, bool) {
	target, threshold := paymentDate(today, sub.DueDay, b.policy)
	if today.Day < threshold {
		return civil.Date{}, false
	}
	if last := sub.LastPaidDate; last != nil {
		if last.Year() == today.Year && last.Month() == today.Month {
			return civil.Date{}, false
		}
	}
	return target, true
}
