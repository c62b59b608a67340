// Package migrations embeds the schema migrations for the SQLite store.
// Files run in lexical order; the store records the applied version.
package migrations

import "embed"

// FS holds the .sql migration files, embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
