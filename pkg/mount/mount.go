// Package mount lists mounted filesystems from mount(8).
package mount

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/blacktop/darwinist/internal/command"
	"github.com/blacktop/darwinist/pkg/diskutil"
	"golang.org/x/sync/errgroup"
)

var reMountPoint = regexp.MustCompile(`^([^\s]*) on (.*) \(([^\)]*)\)$`)

// infoWorkers bounds concurrent diskutil calls.
const infoWorkers = 4

// Usage is the space accounting of a mounted filesystem.
type Usage struct {
	Size      uint64 `json:"size"`
	Used      uint64 `json:"used"`
	Free      uint64 `json:"free"`
	Available uint64 `json:"available"`
	Percent   int    `json:"percent"`
}

// newUsage computes used and the df style percentage, which leaves out
// blocks reserved for root.
func newUsage(size, free, avail uint64) *Usage {
	u := &Usage{Size: size, Free: free, Available: avail}
	if free < size {
		u.Used = size - free
	}
	if denom := u.Used + avail; denom > 0 {
		u.Percent = int((u.Used*100 + denom - 1) / denom)
	}
	return u
}

// MountPoint is one line of mount output.
type MountPoint struct {
	Device     string          `json:"device"`
	Path       string          `json:"path"`
	Filesystem string          `json:"filesystem"`
	Owner      string          `json:"owner,omitempty"`
	Flags      map[string]bool `json:"flags,omitempty"`
	Info       *diskutil.Info  `json:"info,omitempty"`
}

// Name is the volume name when diskutil knows it, else the mount directory.
func (m *MountPoint) Name() string {
	if m.Info != nil && m.Info.VolumeName != "" {
		return m.Info.VolumeName
	}
	return filepath.Base(m.Path)
}

// Has reports whether the mount carries flag, e.g. "read-only".
func (m *MountPoint) Has(flag string) bool {
	return m.Flags[flag]
}

// Usage returns filesystem usage from statfs.
func (m *MountPoint) Usage() (*Usage, error) {
	return statfs(m.Path)
}

// Parse parses mount output. Automounter maps and unrecognized lines are skipped.
func Parse(data []byte) ([]*MountPoint, error) {
	var mps []*MountPoint
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "map ") {
			continue
		}
		m := reMountPoint.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		opts := strings.Split(m[3], ",")
		mp := &MountPoint{
			Device:     m[1],
			Path:       m[2],
			Filesystem: strings.TrimSpace(opts[0]),
			Flags:      make(map[string]bool),
		}
		for _, opt := range opts[1:] {
			opt = strings.TrimSpace(opt)
			if owner, ok := strings.CutPrefix(opt, "mounted by "); ok {
				mp.Owner = owner
				continue
			}
			if opt != "" {
				mp.Flags[opt] = true
			}
		}
		mps = append(mps, mp)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mount output: %w", err)
	}
	return mps, nil
}

// List runs mount and optionally attaches diskutil info to /dev backed mounts.
func List(ctx context.Context, r command.Runner, withInfo bool) ([]*MountPoint, error) {
	out, err := r.Run(ctx, nil, "mount")
	if err != nil {
		return nil, fmt.Errorf("failed to list mount points: %w", err)
	}
	mps, err := Parse(out)
	if err != nil {
		return nil, err
	}
	if withInfo {
		if err := attachInfo(ctx, r, mps); err != nil {
			return nil, err
		}
	}
	return mps, nil
}

func attachInfo(ctx context.Context, r command.Runner, mps []*MountPoint) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(infoWorkers)
	for _, mp := range mps {
		if !strings.HasPrefix(mp.Device, "/dev/") {
			continue
		}
		g.Go(func() error {
			info, err := diskutil.GetInfo(ctx, r, mp.Device)
			if err != nil {
				var execErr *command.ExecError
				if errors.As(err, &execErr) {
					return nil
				}
				return err
			}
			mp.Info = info
			return nil
		})
	}
	return g.Wait()
}
