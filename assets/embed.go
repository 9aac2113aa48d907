// assets/embed.go
//
// Embedded defaults: the challenge bank and the SQL migrations.

package assets

import (
	"embed"
	"io/fs"
)

//go:embed challenges.yaml sql/*.sql
var FS embed.FS

// Challenges returns the raw default challenge bank (YAML).
func Challenges() ([]byte, error) {
	return FS.ReadFile("challenges.yaml")
}

// Migrations returns the migration files rooted at sql/.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "sql")
	if err != nil {
		// "sql" is a fixed embedded directory.
		panic(err)
	}
	return sub
}
