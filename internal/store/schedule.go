package store

import (
	"context"
	"fmt"

	"github.com/ellaku/campusdash/internal/domain"
)

// InsertScheduleItemIfAbsent inserts a schedule slot unless the id already
// exists.
func InsertScheduleItemIfAbsent(ctx context.Context, q Queryer, item *domain.ScheduleItem) (bool, error) {
	res, err := q.ExecContext(ctx, `
		INSERT OR IGNORE INTO schedule_items (id, day, startTime, endTime, course, location, note, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Day, item.StartTime, item.EndTime, item.Course, item.Location, item.Note,
		formatTime(item.UpdatedAt))
	if err != nil {
		return false, fmt.Errorf("insert schedule item %s: %w", item.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert schedule item %s: rows affected: %w", item.ID, err)
	}
	return n > 0, nil
}

// ListScheduleItems returns all schedule slots ordered by day then start time.
func ListScheduleItems(ctx context.Context, q Queryer) ([]*domain.ScheduleItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, day, startTime, endTime, course, location, note, updatedAt
		FROM schedule_items ORDER BY day, startTime, id`)
	if err != nil {
		return nil, fmt.Errorf("list schedule items: %w", err)
	}
	defer rows.Close()

	var out []*domain.ScheduleItem
	for rows.Next() {
		var (
			item    domain.ScheduleItem
			updated string
		)
		if err := rows.Scan(&item.ID, &item.Day, &item.StartTime, &item.EndTime, &item.Course,
			&item.Location, &item.Note, &updated); err != nil {
			return nil, fmt.Errorf("list schedule items: %w", err)
		}
		item.UpdatedAt = parseTime(updated)
		out = append(out, &item)
	}
	return out, rows.Err()
}

// DeleteScheduleItem removes the schedule slot with the given id, if present.
func DeleteScheduleItem(ctx context.Context, q Queryer, id string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM schedule_items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete schedule item %s: %w", id, err)
	}
	return nil
}
