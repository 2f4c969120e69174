package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ellaku/campusdash/internal/domain"
)

// InsertTransaction inserts a transaction row, failing on a duplicate id.
func InsertTransaction(ctx context.Context, q Queryer, t *domain.Transaction) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO transactions (id, title, category, amount, currency, date, type, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Category, t.Amount, t.Currency, formatTime(t.Date), string(t.Type),
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert transaction %s: %w", t.ID, err)
	}
	return nil
}

// InsertTransactionIfAbsent inserts a transaction row unless the id already
// exists. Existing rows are left untouched (first writer wins). Returns
// whether a row was actually inserted.
func InsertTransactionIfAbsent(ctx context.Context, q Queryer, t *domain.Transaction) (bool, error) {
	res, err := q.ExecContext(ctx, `
		INSERT OR IGNORE INTO transactions (id, title, category, amount, currency, date, type, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Category, t.Amount, t.Currency, formatTime(t.Date), string(t.Type),
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return false, fmt.Errorf("insert transaction %s: %w", t.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert transaction %s: rows affected: %w", t.ID, err)
	}
	return n > 0, nil
}

// GetTransaction returns the transaction with the given id, or nil if absent.
func GetTransaction(ctx context.Context, q Queryer, id string) (*domain.Transaction, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, title, category, amount, currency, date, type, createdAt, updatedAt
		FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return t, nil
}

// ListTransactions returns all transactions, newest first.
func ListTransactions(ctx context.Context, q Queryer) ([]*domain.Transaction, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, title, category, amount, currency, date, type, createdAt, updatedAt
		FROM transactions ORDER BY date DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("list transactions: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTransaction removes the transaction with the given id, if present.
func DeleteTransaction(ctx context.Context, q Queryer, id string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(r rowScanner) (*domain.Transaction, error) {
	var (
		t                      domain.Transaction
		txType                 string
		date, created, updated string
	)
	if err := r.Scan(&t.ID, &t.Title, &t.Category, &t.Amount, &t.Currency, &date, &txType, &created, &updated); err != nil {
		return nil, err
	}
	t.Type = domain.TransactionType(txType)
	t.Date = parseTime(date)
	t.CreatedAt = parseTime(created)
	t.UpdatedAt = parseTime(updated)
	return &t, nil
}
