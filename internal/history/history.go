// Package history persists completed assessments so past audits can be
// listed and reopened, from the CLI or the HTTP API.
package history

import (
	"embed"
	"errors"
	"io/fs"
	"time"

	"github.com/tdurojaiye/taxadvisor/internal/tax"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations returns the assessment store's schema migrations, embedded so
// the binary carries its own schema.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		// The embedded path is fixed at compile time.
		panic(err)
	}
	return sub
}

// ErrNotFound is returned when no assessment exists for the requested ID.
var ErrNotFound = errors.New("assessment not found")

// Assessment is one stored audit: the metrics that went into the engine and
// the report that came out.
type Assessment struct {
	ID        string      `json:"id"`
	Source    string      `json:"source"`
	Metrics   tax.Metrics `json:"metrics"`
	Report    *tax.Report `json:"report"`
	CreatedAt time.Time   `json:"created_at"`
}
