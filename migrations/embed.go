// Package migrations embeds the goose SQL migrations into the binary so the
// schema ships with the executable.
package migrations

import (
	"embed"

	"github.com/nerrad567/iotconnect-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
