// Package migrations содержит SQL-миграции goose для каждого диалекта.
package migrations

import "embed"

// FS каталоги postgres/ и sqlite/
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

// Dir каталог миграций для драйвера БД
func Dir(driver string) string {
	if driver == "sqlite" {
		return "sqlite"
	}
	return "postgres"
}
