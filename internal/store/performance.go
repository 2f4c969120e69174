package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ellaku/campusdash/internal/domain"
)

// UpsertPerformanceCourse inserts or replaces a course row keyed by id
// (last writer wins, unlike transactions and assignments).
func UpsertPerformanceCourse(ctx context.Context, q Queryer, c *domain.PerformanceCourse) error {
	_, err := q.ExecContext(ctx, `
		INSERT OR REPLACE INTO performance_courses (id, semester, name, sks, grade, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Semester, c.Name, c.SKS, c.Grade, formatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert course %s: %w", c.ID, err)
	}
	return nil
}

// GetPerformanceCourse returns the course with the given id, or nil if absent.
func GetPerformanceCourse(ctx context.Context, q Queryer, id string) (*domain.PerformanceCourse, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, semester, name, sks, grade, updatedAt
		FROM performance_courses WHERE id = ?`, id)
	c, err := scanCourse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get course %s: %w", id, err)
	}
	return c, nil
}

// ListPerformanceCourses returns all course rows ordered by semester then id.
func ListPerformanceCourses(ctx context.Context, q Queryer) ([]*domain.PerformanceCourse, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, semester, name, sks, grade, updatedAt
		FROM performance_courses ORDER BY semester, id`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var out []*domain.PerformanceCourse
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("list courses: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertSemesterIfAbsent creates the summary row for a semester unless one
// already exists. An existing row keeps its ips value.
func InsertSemesterIfAbsent(ctx context.Context, q Queryer, semester int, ips float64) error {
	_, err := q.ExecContext(ctx, `
		INSERT OR IGNORE INTO performance_semesters (semester, ips) VALUES (?, ?)`,
		semester, ips)
	if err != nil {
		return fmt.Errorf("insert semester %d: %w", semester, err)
	}
	return nil
}

// ListPerformanceSemesters returns all semester summary rows in order.
func ListPerformanceSemesters(ctx context.Context, q Queryer) ([]domain.PerformanceSemester, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT semester, ips FROM performance_semesters ORDER BY semester`)
	if err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	defer rows.Close()

	var out []domain.PerformanceSemester
	for rows.Next() {
		var s domain.PerformanceSemester
		if err := rows.Scan(&s.Semester, &s.IPS); err != nil {
			return nil, fmt.Errorf("list semesters: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanCourse(r rowScanner) (*domain.PerformanceCourse, error) {
	var (
		c       domain.PerformanceCourse
		grade   sql.NullString
		updated string
	)
	if err := r.Scan(&c.ID, &c.Semester, &c.Name, &c.SKS, &grade, &updated); err != nil {
		return nil, err
	}
	c.Grade = grade.String
	c.UpdatedAt = parseTime(updated)
	return &c, nil
}
