// Package homebrew installs and inspects formulae through brew(1).
package homebrew

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/blacktop/darwinist/internal/command"
	"github.com/hashicorp/go-version"
)

// ErrUnknownFormula is returned when brew has no formula by that name.
var ErrUnknownFormula = errors.New("unknown formula")

// Version is one installed keg of a formula, e.g. "1.2.3_1".
type Version struct {
	Raw      string `json:"version"`
	Revision int    `json:"revision,omitempty"`
	Path     string `json:"path"`
	semver   *version.Version
}

func (v Version) String() string { return v.Raw }

// Package is an installed formula.
type Package struct {
	Name     string    `json:"name"`
	Versions []Version `json:"versions"`
}

// Latest returns the highest installed version.
func (p Package) Latest() (Version, bool) {
	if len(p.Versions) == 0 {
		return Version{}, false
	}
	return p.Versions[len(p.Versions)-1], true
}

// Brew runs brew.
type Brew struct {
	r      command.Runner
	cellar string
}

// New returns a Brew using r. An empty cellar is looked up with `brew --cellar`.
func New(r command.Runner, cellar string) *Brew {
	return &Brew{r: r, cellar: cellar}
}

func (b *Brew) run(ctx context.Context, args ...string) ([]byte, error) {
	out, err := b.r.Run(ctx, nil, "brew", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run brew %s: %w", args[0], err)
	}
	return out, nil
}

// Cellar returns the directory kegs are installed into.
func (b *Brew) Cellar(ctx context.Context) (string, error) {
	if b.cellar != "" {
		return b.cellar, nil
	}
	out, err := b.run(ctx, "--cellar")
	if err != nil {
		return "", err
	}
	b.cellar = strings.TrimSpace(string(out))
	if b.cellar == "" {
		return "", fmt.Errorf("brew --cellar returned an empty path")
	}
	return b.cellar, nil
}

// ParseList parses one formula name per line.
func ParseList(data []byte) []string {
	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Installed lists the installed formula names, sorted.
func (b *Brew) Installed(ctx context.Context) ([]string, error) {
	out, err := b.run(ctx, "list", "--formula", "-1")
	if err != nil {
		return nil, err
	}
	return ParseList(out), nil
}

// IsInstalled reports whether any version of name is installed.
func (b *Brew) IsInstalled(ctx context.Context, name string) (bool, error) {
	names, err := b.Installed(ctx)
	if err != nil {
		return false, err
	}
	i := sort.SearchStrings(names, name)
	return i < len(names) && names[i] == name, nil
}

func parseKeg(dir, raw string) Version {
	v := Version{Raw: raw, Path: filepath.Join(dir, raw)}
	base, rev, ok := strings.Cut(raw, "_")
	if ok {
		if n, err := strconv.Atoi(rev); err == nil {
			v.Revision = n
		} else {
			base = raw
		}
	}
	if sv, err := version.NewVersion(base); err == nil {
		v.semver = sv
	}
	return v
}

// SortVersions orders kegs oldest first. Kegs that are not versions, such
// as HEAD-1a2b3c4, sort last by name.
func SortVersions(vs []Version) {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		switch {
		case a.semver == nil && b.semver == nil:
			return a.Raw < b.Raw
		case a.semver == nil:
			return false
		case b.semver == nil:
			return true
		}
		if c := a.semver.Compare(b.semver); c != 0 {
			return c < 0
		}
		return a.Revision < b.Revision
	})
}

// Versions returns the installed kegs of a formula from the Cellar.
func (b *Brew) Versions(ctx context.Context, name string) (*Package, error) {
	cellar, err := b.Cellar(ctx)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(cellar, name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s is not installed: %w", name, err)
		}
		return nil, fmt.Errorf("failed to read cellar: %w", err)
	}
	pkg := &Package{Name: name}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		pkg.Versions = append(pkg.Versions, parseKeg(dir, e.Name()))
	}
	SortVersions(pkg.Versions)
	return pkg, nil
}

// Install installs a formula. Unless force is set an installed formula is
// left alone.
func (b *Brew) Install(ctx context.Context, name string, force bool) error {
	if !force {
		installed, err := b.IsInstalled(ctx, name)
		if err != nil {
			return err
		}
		if installed {
			log.WithField("formula", name).Debug("Already installed")
			return nil
		}
	}
	args := []string{"install"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, name)
	if _, err := b.run(ctx, args...); err != nil {
		var execErr *command.ExecError
		if errors.As(err, &execErr) && bytes.Contains(execErr.Stderr, []byte("No available formula")) {
			return fmt.Errorf("%s: %w", name, ErrUnknownFormula)
		}
		return err
	}
	return nil
}

// Update fetches the newest formulae.
func (b *Brew) Update(ctx context.Context) ([]byte, error) {
	return b.run(ctx, "update")
}

// Upgrade upgrades every outdated formula.
func (b *Brew) Upgrade(ctx context.Context) ([]byte, error) {
	return b.run(ctx, "upgrade")
}

// Cleanup removes stale kegs and downloads.
func (b *Brew) Cleanup(ctx context.Context) ([]byte, error) {
	return b.run(ctx, "cleanup")
}
