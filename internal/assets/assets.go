// Package assets embeds the catalog schema migrations into the binary.
package assets

import "embed"

// MigrationsFS holds migrations/NNNNNN_name.{up,down}.sql.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
