// Package migration implements the one-shot import of the legacy flat-file
// JSON database into the relational schema. The import is idempotent: a
// completed run sets a marker that makes every later run a no-op, duplicate
// ids are never overwritten, and a failed run rolls back completely so the
// next startup retries from scratch.
package migration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ellaku/campusdash/internal/clock"
	"github.com/ellaku/campusdash/internal/domain"
	"github.com/ellaku/campusdash/internal/ids"
	"github.com/ellaku/campusdash/internal/store"
)

const (
	// MetaMigratedV2 is the authoritative completion marker; once "true" the
	// import body never runs again.
	MetaMigratedV2 = "migrated_v2"
	// MetaMigratedJSON is the older marker. It is still written for the
	// legacy application sharing the database file, but never read as a gate.
	MetaMigratedJSON = "migrated_from_json"

	// LegacyFilename is the flat-file database name the original app used.
	LegacyFilename = "campusdash-db.json"

	// Grade records carry no credit hours; courses are imported with this
	// placeholder until the user edits them.
	placeholderSKS = 3
	// Semesters referenced by imported grades get this placeholder GPA.
	placeholderIPS = 3.5
)

// Store is the persistence surface the engine needs.
type Store interface {
	InTx(ctx context.Context, fn func(q store.Queryer) error) error
	DB() store.Queryer
}

// Params configures an Engine. All fields except Filename are required.
type Params struct {
	Clock clock.Clock
	IDs   ids.Generator
	Log   zerolog.Logger

	// SearchDirs are the candidate directories for the legacy file, in
	// priority order (app data directory first, then working directory).
	SearchDirs []string
	// Filename overrides LegacyFilename, mainly for tests.
	Filename string
}

// Engine performs the legacy import.
type Engine struct {
	store    Store
	clock    clock.Clock
	ids      ids.Generator
	log      zerolog.Logger
	dirs     []string
	filename string
}

// New builds an Engine from its collaborators.
func New(st Store, p Params) *Engine {
	filename := p.Filename
	if filename == "" {
		filename = LegacyFilename
	}
	return &Engine{
		store:    st,
		clock:    p.Clock,
		ids:      p.IDs,
		log:      p.Log,
		dirs:     p.SearchDirs,
		filename: filename,
	}
}

// Run executes the import. It is safe to call on every startup: it returns
// nil without touching the store when no legacy file exists or when a
// previous run already completed, and a failed run leaves no partial writes
// and no completion markers, so the next call retries the full import.
func (e *Engine) Run(ctx context.Context) error {
	path, found := e.resolveSource()
	if !found {
		e.log.Debug().Str("filename", e.filename).Msg("no legacy database found, skipping import")
		return nil
	}

	done, ok, err := store.GetMeta(ctx, e.store.DB(), MetaMigratedV2)
	if err != nil {
		return fmt.Errorf("migration: read completion marker: %w", err)
	}
	if ok && done == "true" {
		e.log.Debug().Msg("legacy import already completed, skipping")
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("migration: read %s: %w", path, err)
	}
	doc, err := parseLegacyDocument(raw)
	if err != nil {
		return fmt.Errorf("migration: %s: %w", path, err)
	}

	e.log.Info().Str("source", path).Msg("starting legacy import")

	if err := e.store.InTx(ctx, func(q store.Queryer) error {
		return e.importDocument(ctx, q, doc)
	}); err != nil {
		return fmt.Errorf("migration: import from %s: %w", path, err)
	}

	e.log.Info().Msg("legacy import committed")
	return nil
}

// resolveSource walks the candidate directories in priority order and returns
// the first existing legacy file.
func (e *Engine) resolveSource() (string, bool) {
	for _, dir := range e.dirs {
		path := filepath.Join(dir, e.filename)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// importDocument performs the whole import inside one transaction, in the
// fixed order transactions, grades, semesters, profile, assignments,
// schedule, markers.
func (e *Engine) importDocument(ctx context.Context, q store.Queryer, doc *legacyDocument) error {
	now := e.clock.Now()

	inserted := 0
	for _, item := range doc.Transactions {
		id := item.ID
		if id == "" {
			id = e.ids.NewID()
		}
		currency := item.Currency
		if currency == "" {
			currency = domain.DefaultCurrency
		}
		ok, err := store.InsertTransactionIfAbsent(ctx, q, &domain.Transaction{
			ID:        id,
			Title:     item.Title,
			Category:  item.Category,
			Amount:    item.Amount,
			Currency:  currency,
			Date:      parseWhen(item.Date, now),
			Type:      domain.TransactionType(item.Type),
			CreatedAt: parseWhen(item.CreatedAt, now),
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		if ok {
			inserted++
		}
	}
	if len(doc.Transactions) > 0 {
		e.log.Info().Int("total", len(doc.Transactions)).Int("inserted", inserted).Msg("imported transactions")
	}

	// Grades become course rows (last writer wins) and feed the set of
	// semesters that need summary rows.
	semesters := map[int]bool{}
	skippedGrades := 0
	for _, item := range doc.Grades {
		id := item.CourseID
		if id == "" {
			id = item.ID
		}
		if id == "" {
			skippedGrades++
			continue
		}
		semester := semesterOf(item.CourseID)
		semesters[semester] = true
		if err := store.UpsertPerformanceCourse(ctx, q, &domain.PerformanceCourse{
			ID:        id,
			Semester:  semester,
			Name:      item.CourseID,
			SKS:       placeholderSKS,
			Grade:     item.Grade,
			UpdatedAt: parseWhen(item.UpdatedAt, now),
		}); err != nil {
			return err
		}
	}
	if len(doc.Grades) > 0 {
		e.log.Info().Int("total", len(doc.Grades)).Int("skipped", skippedGrades).Msg("imported grades")
	}

	for semester := range semesters {
		if err := store.InsertSemesterIfAbsent(ctx, q, semester, placeholderIPS); err != nil {
			return err
		}
	}

	if len(doc.UserProfile) > 0 {
		profile := doc.UserProfile[0]
		if err := store.SetMeta(ctx, q, "user_name", profile.Name); err != nil {
			return err
		}
		if err := store.SetMeta(ctx, q, "user_semester", strconv.Itoa(profile.Semester)); err != nil {
			return err
		}
		if err := store.SetMeta(ctx, q, "user_avatar", profile.Avatar); err != nil {
			return err
		}
		// The profile's current semester may have no grades yet; its summary
		// row starts at zero rather than the grade placeholder.
		if err := store.InsertSemesterIfAbsent(ctx, q, profile.Semester, 0.0); err != nil {
			return err
		}
		e.log.Info().Str("name", profile.Name).Int("semester", profile.Semester).Msg("imported user profile")
	}

	inserted = 0
	for _, item := range doc.Assignments {
		id := item.ID
		if id == "" {
			id = e.ids.NewID()
		}
		ok, err := store.InsertAssignmentIfAbsent(ctx, q, &domain.Assignment{
			ID:        id,
			Title:     item.Title,
			Course:    courseRef(item.CourseID, item.Course),
			Type:      item.Type,
			Status:    item.Status,
			Deadline:  item.Deadline,
			Note:      item.Note,
			CreatedAt: parseWhen(item.CreatedAt, now),
			UpdatedAt: parseWhen(item.UpdatedAt, now),
		})
		if err != nil {
			return err
		}
		if ok {
			inserted++
		}
	}
	if len(doc.Assignments) > 0 {
		e.log.Info().Int("total", len(doc.Assignments)).Int("inserted", inserted).Msg("imported assignments")
	}

	items, err := doc.scheduleItems()
	if err != nil {
		// Shape-level garbage in the schedule field is tolerated; everything
		// else in the document still imports.
		e.log.Warn().Err(err).Msg("skipping malformed schedule field")
	}
	skipped := 0
	for _, item := range items {
		if item.ID == "" || item.Day == "" {
			skipped++
			continue
		}
		if _, err := store.InsertScheduleItemIfAbsent(ctx, q, &domain.ScheduleItem{
			ID:        item.ID,
			Day:       item.Day,
			StartTime: item.StartTime,
			EndTime:   item.EndTime,
			Course:    courseRef(item.CourseID, item.Course),
			Location:  item.Location,
			Note:      "",
			UpdatedAt: now,
		}); err != nil {
			return err
		}
	}
	if len(items) > 0 {
		e.log.Info().Int("total", len(items)).Int("skipped", skipped).Msg("imported schedule items")
	}

	if err := store.SetMeta(ctx, q, MetaMigratedV2, "true"); err != nil {
		return err
	}
	return store.SetMeta(ctx, q, MetaMigratedJSON, "true")
}
