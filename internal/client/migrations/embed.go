// Package migrations embeds the goose migrations that own the schema of
// the client's local database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
