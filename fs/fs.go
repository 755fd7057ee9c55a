// Package appfs embeds the static files shipped with the binaries: SQL migrations, email templates and assets.
package appfs

import "embed"

//go:embed assets migrations all:templates
var FS embed.FS

// MigrationsDir returns the migrations directory for the given database engine.
func MigrationsDir(engine string) string {
	if engine == "sqlite" {
		return "migrations/sqlite"
	}
	return "migrations/postgres"
}
