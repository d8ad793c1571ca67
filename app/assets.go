package app

import (
	"embed"
	"io/fs"
)

var (
	//go:embed templates
	templatesFS embed.FS

	//go:embed properties/*.yaml
	propertiesFS embed.FS

	//go:embed migrations
	migrationsFS embed.FS

	//go:embed public
	publicFS embed.FS
)

// Templates returns the view templates (layout.html, components, views, errors).
func Templates() fs.FS { return mustSub(templatesFS, "templates") }

// Properties returns the resource property files.
func Properties() fs.FS { return mustSub(propertiesFS, "properties") }

// Migrations returns the SQL migrations, one directory per dialect.
func Migrations() fs.FS { return mustSub(migrationsFS, "migrations") }

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
