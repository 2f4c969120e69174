package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Grade letters per semester, mirroring the sample data the original app
// shipped with. A few deliberately odd values ("Belum Isi Kuesioner", "-")
// exercise the import's tolerance.
var seedGrades = map[string][]string{
	"1": {"A-", "AB", "BC", "C", "BC", "A", "B", "B+", "AB", "C", "AB"},
	"2": {"B+", "A-", "C", "AB", "Belum Isi Kuesioner", "B", "A-", "AB", "BC", "B", "AB", "AB"},
	"3": {"AB", "A", "-", "AB", "A", "B+", "A-", "B", "B+", "B+", "A-"},
}

// runSeed writes a sample legacy JSON database so the import path can be
// exercised end to end without a real export.
func runSeed(log zerolog.Logger) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	out := fs.String("out", "campusdash-db.json", "Path of the legacy JSON file to write")
	fs.Parse(os.Args[2:])

	now := time.Now().UTC().Format(time.RFC3339)

	type grade struct {
		ID        string `json:"id"`
		CourseID  string `json:"courseId"`
		Grade     string `json:"grade"`
		CreatedAt string `json:"createdAt"`
		UpdatedAt string `json:"updatedAt"`
	}
	var grades []grade
	for _, semester := range []string{"1", "2", "3"} {
		for i, letter := range seedGrades[semester] {
			grades = append(grades, grade{
				ID:        fmt.Sprintf("grade-%s-%d", semester, i),
				CourseID:  fmt.Sprintf("course-%s-%d", semester, i),
				Grade:     letter,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
	}

	doc := map[string]any{
		"user_profile": []map[string]any{{
			"id":        "user-default-1",
			"name":      "Ellaku",
			"semester":  4,
			"avatar":    "https://ui-avatars.com/api/?name=Ellaku&background=random",
			"createdAt": now,
			"updatedAt": now,
		}},
		"grades":      grades,
		"assignments": []any{},
		"schedule":    []any{},
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode seed data")
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatal().Err(err).Str("path", *out).Msg("Failed to write seed file")
	}
	fmt.Printf("Seeded legacy database at %s\n", *out)
}
