package migration

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// legacyDocument is the shape of the flat-file JSON database the original
// campusdash builds kept. Every top-level field is optional; schedule is
// polymorphic (array or day-keyed object) and normalized separately.
type legacyDocument struct {
	Transactions []legacyTransaction `json:"transactions"`
	Grades       []legacyGrade       `json:"grades"`
	UserProfile  []legacyProfile     `json:"user_profile"`
	Assignments  []legacyAssignment  `json:"assignments"`
	Schedule     json.RawMessage     `json:"schedule"`
}

type legacyTransaction struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Category  string  `json:"category"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Date      string  `json:"date"`
	Type      string  `json:"type"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

type legacyGrade struct {
	ID        string `json:"id"`
	CourseID  string `json:"courseId"`
	Grade     string `json:"grade"`
	UpdatedAt string `json:"updatedAt"`
}

type legacyProfile struct {
	Name     string `json:"name"`
	Semester int    `json:"semester"`
	Avatar   string `json:"avatar"`
}

type legacyAssignment struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CourseID  string `json:"courseId"`
	Course    string `json:"course"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Deadline  string `json:"deadline"`
	Note      string `json:"note"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type legacyScheduleItem struct {
	ID        string `json:"id"`
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	CourseID  string `json:"courseId"`
	Course    string `json:"course"`
	Location  string `json:"location"`
}

func parseLegacyDocument(raw []byte) (*legacyDocument, error) {
	var doc legacyDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse legacy document: %w", err)
	}
	return &doc, nil
}

// scheduleItems normalizes the polymorphic schedule field into a flat slice.
// Older exports store an array; newer ones a day-keyed object, which is
// flattened in key order for determinism. Any other shape yields no items.
func (d *legacyDocument) scheduleItems() ([]legacyScheduleItem, error) {
	if len(d.Schedule) == 0 || string(d.Schedule) == "null" {
		return nil, nil
	}

	var asList []legacyScheduleItem
	if err := json.Unmarshal(d.Schedule, &asList); err == nil {
		return asList, nil
	}

	var asMap map[string]legacyScheduleItem
	if err := json.Unmarshal(d.Schedule, &asMap); err != nil {
		return nil, fmt.Errorf("schedule is neither array nor object: %w", err)
	}

	keys := make([]string, 0, len(asMap))
	for k := range asMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]legacyScheduleItem, 0, len(asMap))
	for _, k := range keys {
		items = append(items, asMap[k])
	}
	return items, nil
}

// courseRef picks the course reference of an assignment or schedule entry,
// which older exports store under "courseId" and newer ones under "course".
func courseRef(courseID, course string) string {
	if courseID != "" {
		return courseID
	}
	return course
}

// semesterOf derives the semester number from a legacy course id of the form
// "course-<semester>-<index>". Anything unparseable defaults to semester 1.
func semesterOf(courseID string) int {
	parts := strings.Split(courseID, "-")
	if len(parts) < 2 {
		return 1
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// parseWhen reads a legacy timestamp, accepting the formats the original app
// wrote over its lifetime. Missing or unreadable values fall back to the
// given instant.
func parseWhen(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return fallback
}
