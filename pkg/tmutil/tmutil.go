// Package tmutil controls Time Machine through tmutil(8).
package tmutil

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/blacktop/darwinist/internal/command"
	"github.com/blacktop/go-plist"
)

// ErrNotRoot is returned by operations that need euid 0.
var ErrNotRoot = errors.New("must be root")

var reVersion = regexp.MustCompile(`^tmutil version (?P<version>[^ ]+) \(built (?P<builddate>[^)]+)\)$`)

var buildDateLayouts = []string{"Jan 2 2006", "Jan _2 2006"}

// Version is the tmutil release and its build date.
type Version struct {
	Version   string    `json:"version"`
	BuildDate time.Time `json:"build_date"`
}

// ParseVersion parses `tmutil version` output.
func ParseVersion(out string) (*Version, error) {
	m := reVersion.FindStringSubmatch(strings.TrimSpace(out))
	if m == nil {
		return nil, fmt.Errorf("failed to parse tmutil version from %q", out)
	}
	v := &Version{Version: m[reVersion.SubexpIndex("version")]}
	date := m[reVersion.SubexpIndex("builddate")]
	for _, layout := range buildDateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			v.BuildDate = t
			return v, nil
		}
	}
	return nil, fmt.Errorf("failed to parse tmutil build date %q", date)
}

// Destination is a configured backup destination.
type Destination struct {
	ID         string `plist:"ID" json:"id"`
	Name       string `plist:"Name" json:"name"`
	Kind       string `plist:"Kind" json:"kind"`
	MountPoint string `plist:"MountPoint" json:"mount_point,omitempty"`
	URL        string `plist:"URL" json:"url,omitempty"`
	Last       int    `plist:"LastDestination" json:"last,omitempty"`

	Extra map[string]string `plist:"-" json:"extra,omitempty"`
}

var destinationKeys = map[string]func(*Destination, string){
	"ID":          func(d *Destination, v string) { d.ID = v },
	"Name":        func(d *Destination, v string) { d.Name = v },
	"Kind":        func(d *Destination, v string) { d.Kind = v },
	"Mount Point": func(d *Destination, v string) { d.MountPoint = v },
	"URL":         func(d *Destination, v string) { d.URL = v },
}

// ParseDestinations parses the text form of `tmutil destinationinfo`, where
// destinations are separated by lines of '='.
func ParseDestinations(data []byte) ([]*Destination, error) {
	var (
		dests []*Destination
		cur   *Destination
	)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \r")
		if strings.HasPrefix(line, "=") {
			cur = nil
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("failed to parse destination info line %q", line)
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if cur == nil {
			cur = &Destination{}
			dests = append(dests, cur)
		}
		if set, ok := destinationKeys[key]; ok {
			set(cur, value)
			continue
		}
		if cur.Extra == nil {
			cur.Extra = make(map[string]string)
		}
		cur.Extra[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return dests, nil
}

type destinationInfo struct {
	Destinations []*Destination `plist:"Destinations"`
}

// ParseDestinationsPlist parses `tmutil destinationinfo -X`.
func ParseDestinationsPlist(data []byte) ([]*Destination, error) {
	var info destinationInfo
	if err := plist.NewDecoder(bytes.NewReader(data)).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to parse destinationinfo plist: %w", err)
	}
	return info.Destinations, nil
}

// Util runs tmutil.
type Util struct {
	r command.Runner
}

// New returns a Util that runs tmutil through r.
func New(r command.Runner) *Util {
	return &Util{r: r}
}

func (u *Util) run(ctx context.Context, args ...string) ([]byte, error) {
	out, err := u.r.Run(ctx, nil, "tmutil", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run tmutil %s: %w", args[0], err)
	}
	return out, nil
}

func (u *Util) runAsRoot(ctx context.Context, args ...string) error {
	if geteuid() != 0 {
		return fmt.Errorf("tmutil %s: %w", args[0], ErrNotRoot)
	}
	_, err := u.run(ctx, args...)
	return err
}

// Version returns the tmutil version.
func (u *Util) Version(ctx context.Context) (*Version, error) {
	out, err := u.run(ctx, "version")
	if err != nil {
		return nil, err
	}
	return ParseVersion(string(out))
}

// Destinations returns the configured backup destinations. When tmutil
// rejects -X or its output is not a plist, the text form is parsed instead.
func (u *Util) Destinations(ctx context.Context) ([]*Destination, error) {
	out, err := u.run(ctx, "destinationinfo", "-X")
	if err == nil {
		dests, perr := ParseDestinationsPlist(out)
		if perr == nil {
			return dests, nil
		}
		log.WithError(perr).Debug("Falling back to text destinationinfo")
	} else {
		var execErr *command.ExecError
		if !errors.As(err, &execErr) {
			return nil, err
		}
		log.WithError(err).Debug("Falling back to text destinationinfo")
	}
	out, err = u.run(ctx, "destinationinfo")
	if err != nil {
		return nil, err
	}
	return ParseDestinations(out)
}

// Enable turns on automatic backups.
func (u *Util) Enable(ctx context.Context) error {
	return u.runAsRoot(ctx, "enable")
}

// Disable turns off automatic backups.
func (u *Util) Disable(ctx context.Context) error {
	return u.runAsRoot(ctx, "disable")
}

// StartBackup begins a backup, waiting for it to finish when block is set.
func (u *Util) StartBackup(ctx context.Context, block bool) error {
	args := []string{"startbackup"}
	if block {
		args = append(args, "--block")
	}
	_, err := u.run(ctx, args...)
	return err
}

// StopBackup cancels a running backup.
func (u *Util) StopBackup(ctx context.Context) error {
	_, err := u.run(ctx, "stopbackup")
	return err
}

// LatestBackup returns the path of the most recent completed backup.
func (u *Util) LatestBackup(ctx context.Context) (string, error) {
	out, err := u.run(ctx, "latestbackup")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
