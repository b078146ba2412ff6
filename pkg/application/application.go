// Package application reads macOS application bundles.
package application

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/blacktop/go-plist"
)

// DefaultDir is where applications are installed.
const DefaultDir = "/Applications"

// DefaultDepth is how many directory levels Find descends.
const DefaultDepth = 2

// UnknownVersion is reported when the bundle has no version keys.
const UnknownVersion = "UNKNOWN"

// ErrNotBundle is returned for paths that are not .app directories.
var ErrNotBundle = errors.New("not an application bundle")

// Info.plist keys
const (
	KeyName         = "CFBundleName"
	KeyIdentifier   = "CFBundleIdentifier"
	KeyVersion      = "CFBundleVersion"
	KeyShortVersion = "CFBundleShortVersionString"
)

// Application is an .app bundle and its Info.plist.
type Application struct {
	Path string         `json:"path"`
	Info map[string]any `json:"info"`
}

// Open reads the Info.plist of the bundle at path.
func Open(path string) (*Application, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !fi.IsDir() || filepath.Ext(path) != ".app" {
		return nil, fmt.Errorf("%s: %w", path, ErrNotBundle)
	}
	infoPath := filepath.Join(path, "Contents", "Info.plist")
	f, err := os.Open(infoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", infoPath, err)
	}
	defer f.Close()

	app := &Application{Path: path}
	if err := plist.NewDecoder(f).Decode(&app.Info); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", infoPath, err)
	}
	return app, nil
}

// Get returns an Info.plist value as a string.
func (a *Application) Get(key string) string {
	if v, ok := a.Info[key]; ok {
		return fmt.Sprint(v)
	}
	return ""
}

// Name is CFBundleName, or the bundle directory name without .app.
func (a *Application) Name() string {
	if name := a.Get(KeyName); name != "" {
		return name
	}
	return strings.TrimSuffix(filepath.Base(a.Path), ".app")
}

// BundleID is CFBundleIdentifier.
func (a *Application) BundleID() string { return a.Get(KeyIdentifier) }

// Version prefers CFBundleVersion over CFBundleShortVersionString.
func (a *Application) Version() string {
	for _, key := range []string{KeyVersion, KeyShortVersion} {
		if v := a.Get(key); v != "" {
			return v
		}
	}
	return UnknownVersion
}

func (a *Application) String() string {
	return a.Name() + " " + a.Version()
}

// Find returns the bundles under dir, descending into plain directories
// until depth levels. Unreadable bundles are skipped and a missing dir
// yields no applications.
func Find(dir string, depth int) ([]*Application, error) {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return find(dir, 0, depth)
}

func find(dir string, level, depth int) ([]*Application, error) {
	if level >= depth {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var apps []*Application
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if filepath.Ext(path) == ".app" {
			app, err := Open(path)
			if err != nil {
				log.WithError(err).Warn("Skipping application")
				continue
			}
			apps = append(apps, app)
			continue
		}
		sub, err := find(path, level+1, depth)
		if err != nil {
			return nil, err
		}
		apps = append(apps, sub...)
	}
	return apps, nil
}
