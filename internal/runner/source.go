// internal/runner/source.go
//
// Migration-file sources.
//
// Context
// -------
// A driver's `path` points at a directory of plain SQL files named
// `NNN_description.up.sql`, each optionally paired with a
// `NNN_description.down.sql` for rollback.  Ordering is lexical, so
// zero-padded numeric prefixes apply in sequence.  There is no DSL and
// no diffing; files are executed verbatim.
package runner

import (
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// Migration is one ordered schema change.  Down is empty when the file
// pair has no rollback half.
type Migration struct {
	Name string // file name without the .up.sql suffix
	Up   string
	Down string
}

// Source lists the migrations available to a runner.
type Source interface {
	Migrations() ([]Migration, error)
}

// DirSource reads migrations from a filesystem directory.
type DirSource struct {
	fsys fs.FS
}

// NewDirSource reads from a directory on disk.
func NewDirSource(dir string) *DirSource {
	return &DirSource{fsys: os.DirFS(dir)}
}

// NewFSSource reads from any fs.FS; used by tests and embedded setups.
func NewFSSource(fsys fs.FS) *DirSource {
	return &DirSource{fsys: fsys}
}

// Migrations returns the directory's migrations in lexical order.
func (s *DirSource) Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("runner: read migration dir: %w", err)
	}

	byName := make(map[string]*Migration)
	var names []string

	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		file := ent.Name()

		var name string
		var down bool
		switch {
		case strings.HasSuffix(file, upSuffix):
			name = strings.TrimSuffix(file, upSuffix)
		case strings.HasSuffix(file, downSuffix):
			name = strings.TrimSuffix(file, downSuffix)
			down = true
		default:
			continue // not a migration file
		}

		body, err := fs.ReadFile(s.fsys, file)
		if err != nil {
			return nil, fmt.Errorf("runner: read %s: %w", file, err)
		}

		m, ok := byName[name]
		if !ok {
			m = &Migration{Name: name}
			byName[name] = m
			names = append(names, name)
		}
		if down {
			m.Down = string(body)
		} else {
			m.Up = string(body)
		}
	}

	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		m := byName[name]
		if m.Up == "" {
			return nil, fmt.Errorf("runner: %s has a down file but no %s%s", m.Name, m.Name, upSuffix)
		}
		out = append(out, *m)
	}
	return out, nil
}
