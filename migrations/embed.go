// Package migrations holds the SQL schema of the local workflow backend.
package migrations

import "embed"

// FS contains every numbered migration file.
//
//go:embed *.sql
var FS embed.FS
