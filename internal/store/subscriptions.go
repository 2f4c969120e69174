package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ellaku/campusdash/internal/domain"
)

// InsertSubscription inserts a subscription row.
func InsertSubscription(ctx context.Context, q Queryer, s *domain.Subscription) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO subscriptions (id, name, cost, dueDay, lastPaidDate, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.Cost, s.DueDay, nullableTime(s.LastPaidDate),
		formatTime(s.CreatedAt), formatTime(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert subscription %s: %w", s.ID, err)
	}
	return nil
}

// UpdateSubscription rewrites the user-editable fields of a subscription.
func UpdateSubscription(ctx context.Context, q Queryer, s *domain.Subscription) error {
	_, err := q.ExecContext(ctx, `
		UPDATE subscriptions SET name = ?, cost = ?, dueDay = ?, updatedAt = ?
		WHERE id = ?`,
		s.Name, s.Cost, s.DueDay, formatTime(s.UpdatedAt), s.ID)
	if err != nil {
		return fmt.Errorf("update subscription %s: %w", s.ID, err)
	}
	return nil
}

// DeleteSubscription removes the subscription with the given id, if present.
func DeleteSubscription(ctx context.Context, q Queryer, id string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete subscription %s: %w", id, err)
	}
	return nil
}

// GetSubscription returns the subscription with the given id, or nil if absent.
func GetSubscription(ctx context.Context, q Queryer, id string) (*domain.Subscription, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, cost, dueDay, lastPaidDate, createdAt, updatedAt
		FROM subscriptions WHERE id = ?`, id)
	s, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription %s: %w", id, err)
	}
	return s, nil
}

// ListSubscriptions returns all subscriptions ordered by due day.
func ListSubscriptions(ctx context.Context, q Queryer) ([]*domain.Subscription, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, cost, dueDay, lastPaidDate, createdAt, updatedAt
		FROM subscriptions ORDER BY dueDay, name`)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("list subscriptions: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MarkSubscriptionPaid advances lastPaidDate after the biller has generated
// the matching expense transaction. Must run in the same transaction as that
// insert.
func MarkSubscriptionPaid(ctx context.Context, q Queryer, id string, paidOn, updatedAt time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE subscriptions SET lastPaidDate = ?, updatedAt = ? WHERE id = ?`,
		formatTime(paidOn), formatTime(updatedAt), id)
	if err != nil {
		return fmt.Errorf("mark subscription %s paid: %w", id, err)
	}
	return nil
}

func scanSubscription(r rowScanner) (*domain.Subscription, error) {
	var (
		s                domain.Subscription
		lastPaid         sql.NullString
		created, updated string
	)
	if err := r.Scan(&s.ID, &s.Name, &s.Cost, &s.DueDay, &lastPaid, &created, &updated); err != nil {
		return nil, err
	}
	if lastPaid.Valid {
		t := parseTime(lastPaid.String)
		s.LastPaidDate = &t
	}
	s.CreatedAt = parseTime(created)
	s.UpdatedAt = parseTime(updated)
	return &s, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
