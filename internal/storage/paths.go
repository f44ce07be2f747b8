// Package storage keeps finished games, aggregate results and per-position
// analysis in a BadgerDB database.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "auntysue"

// SchemaVersion names the archive's key and value layout. Analysis is keyed
// by position hash, so a change to hashing or to the record encoding needs a
// new version; older archives are left in place, not migrated.
const SchemaVersion = 1

// Layout is where the engine keeps its files.
type Layout struct {
	Root    string // data directory
	Archive string // BadgerDB directory for the current schema
}

// ResolveLayout creates the layout under dataDir, or under the platform data
// directory when dataDir is empty.
func ResolveLayout(dataDir string) (Layout, error) {
	if dataDir == "" {
		base, err := baseDir()
		if err != nil {
			return Layout{}, err
		}
		dataDir = filepath.Join(base, appName)
	}

	l := Layout{
		Root:    dataDir,
		Archive: filepath.Join(dataDir, fmt.Sprintf("archive-v%d", SchemaVersion)),
	}
	if err := os.MkdirAll(l.Archive, 0o755); err != nil {
		return Layout{}, fmt.Errorf("create %s: %w", l.Archive, err)
	}
	return l, nil
}

// baseDir is XDG_DATA_HOME (or ~/.local/share) on Unix, Application Support
// on macOS and the roaming profile on Windows.
func baseDir() (string, error) {
	switch runtime.GOOS {
	case "darwin", "windows":
		// os.UserConfigDir already maps to these.
		return os.UserConfigDir()
	}
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share"), nil
}
