// Package migrations embeds the SQL schema and seed data.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
