// Package source loads flat employee records from the places a directory
// snapshot can live: JSON or YAML files and SQLite databases.
//
// A [Source] is re-read on every [Source.Load] call, so the server can pick
// up a new snapshot after the underlying file changes.
package source

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/matzehuels/orgchart/pkg/org"
)

// Source produces flat employee records linked by ManagerID.
type Source interface {
	// Load reads the current snapshot.
	Load(ctx context.Context) ([]*org.Employee, error)

	// Path returns the file backing the source, for change watching.
	Path() string
}

// File reads a JSON or YAML employee file.
type File struct {
	path string
}

// NewFile returns a Source for a JSON or YAML employee file.
func NewFile(path string) *File {
	return &File{path: path}
}

// Load implements Source.
func (f *File) Load(ctx context.Context) ([]*org.Employee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return org.Load(f.path)
}

// Path implements Source.
func (f *File) Path() string { return f.path }

// Open picks a Source implementation from the file extension.
func Open(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLite(path), nil
	default:
		return NewFile(path), nil
	}
}
