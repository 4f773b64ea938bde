package sql

import (
	"embed"
	"io/fs"
	"path"
)

// schemaDir is the SchemaFS directory holding the migrations
const schemaDir = "schema"

// SchemaFS contains the spread history migrations under storage/sql/schema/
//
//go:embed schema/*.sql
var SchemaFS embed.FS

// Migrations returns the embedded migration file names, in apply order
// (their numeric prefix)
func Migrations() ([]string, error) {
	entries, err := fs.ReadDir(SchemaFS, schemaDir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}

		names = append(names, entry.Name())
	}

	return names, nil
}

// Migration returns the contents of the named migration
func Migration(name string) ([]byte, error) {
	return SchemaFS.ReadFile(path.Join(schemaDir, name))
}
