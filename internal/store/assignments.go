package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ellaku/campusdash/internal/domain"
)

// InsertAssignmentIfAbsent inserts an assignment unless the id already exists.
// Existing rows are never overwritten by re-import.
func InsertAssignmentIfAbsent(ctx context.Context, q Queryer, a *domain.Assignment) (bool, error) {
	res, err := q.ExecContext(ctx, `
		INSERT OR IGNORE INTO assignments (id, title, course, type, status, deadline, note, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Course, a.Type, a.Status, a.Deadline, a.Note,
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt))
	if err != nil {
		return false, fmt.Errorf("insert assignment %s: %w", a.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert assignment %s: rows affected: %w", a.ID, err)
	}
	return n > 0, nil
}

// GetAssignment returns the assignment with the given id, or nil if absent.
func GetAssignment(ctx context.Context, q Queryer, id string) (*domain.Assignment, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, title, course, type, status, deadline, note, createdAt, updatedAt
		FROM assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment %s: %w", id, err)
	}
	return a, nil
}

// ListAssignments returns all assignments ordered by deadline.
func ListAssignments(ctx context.Context, q Queryer) ([]*domain.Assignment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, title, course, type, status, deadline, note, createdAt, updatedAt
		FROM assignments ORDER BY deadline, id`)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []*domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("list assignments: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAssignmentStatus moves an assignment through its workflow states.
func UpdateAssignmentStatus(ctx context.Context, q Queryer, id, status string, updatedAt time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE assignments SET status = ?, updatedAt = ? WHERE id = ?`,
		status, formatTime(updatedAt), id)
	if err != nil {
		return fmt.Errorf("update assignment %s: %w", id, err)
	}
	return nil
}

// DeleteAssignment removes the assignment with the given id, if present.
func DeleteAssignment(ctx context.Context, q Queryer, id string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM assignments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete assignment %s: %w", id, err)
	}
	return nil
}

func scanAssignment(r rowScanner) (*domain.Assignment, error) {
	var (
		a                domain.Assignment
		created, updated string
	)
	if err := r.Scan(&a.ID, &a.Title, &a.Course, &a.Type, &a.Status, &a.Deadline, &a.Note, &created, &updated); err != nil {
		return nil, err
	}
	a.CreatedAt = parseTime(created)
	a.UpdatedAt = parseTime(updated)
	return &a, nil
}
