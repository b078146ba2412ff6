package mount

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/blacktop/darwinist/internal/command"
	"gopkg.in/yaml.v3"
)

var reShareMountPoint = regexp.MustCompile(`^/Volumes/[A-Za-z0-9_-]*$`)

var (
	// ErrAlreadyMounted is returned when mounting a share that is mounted.
	ErrAlreadyMounted = errors.New("already mounted")
	// ErrNoWriteAccess is returned when unmounting a share mounted by another user.
	ErrNoWriteAccess = errors.New("no write access")
)

// ShareStatus is the mount state of a share.
type ShareStatus string

const (
	NotMounted     ShareStatus = "not mounted"
	MountedByOther ShareStatus = "mounted by other user"
	MountedBySelf  ShareStatus = "mounted by myself"
)

// hooks for tests
var (
	writable = access
	mkdirAll = os.MkdirAll
)

// Share is an AFP network share.
type Share struct {
	Name       string `yaml:"-" json:"name"`
	Address    string `yaml:"address" json:"address"`
	Path       string `yaml:"path" json:"path"`
	MountPoint string `yaml:"mountpoint" json:"mountpoint"`
	Username   string `yaml:"username" json:"username,omitempty"`
	Password   string `yaml:"password" json:"-"`
}

func (s *Share) verify() error {
	switch {
	case s.Address == "":
		return fmt.Errorf("share %s: missing address", s.Name)
	case s.Path == "":
		return fmt.Errorf("share %s: missing path", s.Name)
	case s.MountPoint == "":
		return fmt.Errorf("share %s: missing mountpoint", s.Name)
	case !strings.HasPrefix(s.Path, "/"):
		return fmt.Errorf("share %s: path must start with '/': %q", s.Name, s.Path)
	case !reShareMountPoint.MatchString(s.MountPoint):
		return fmt.Errorf("share %s: unsupported mountpoint path: %s", s.Name, s.MountPoint)
	case s.Password != "" && s.Username == "":
		return fmt.Errorf("share %s: password given but no username", s.Name)
	}
	return nil
}

// URL is the afp:// URL of the share. The password is only included when
// one is given and the share has a username.
func (s *Share) URL(password string) string {
	u := url.URL{Scheme: "afp", Host: s.Address, Path: s.Path}
	if s.Username != "" {
		if password != "" {
			u.User = url.UserPassword(s.Username, password)
		} else {
			u.User = url.User(s.Username)
		}
	}
	return u.String()
}

func (s *Share) String() string {
	return fmt.Sprintf("%s: %s mounted on %s", s.Name, s.URL(""), s.MountPoint)
}

// Status reports whether the share mountpoint is mounted and by whom.
func (s *Share) Status(ctx context.Context, r command.Runner) (ShareStatus, error) {
	mps, err := List(ctx, r, false)
	if err != nil {
		return "", err
	}
	for _, mp := range mps {
		if mp.Path != s.MountPoint {
			continue
		}
		if !writable(s.MountPoint) {
			return MountedByOther, nil
		}
		return MountedBySelf, nil
	}
	return NotMounted, nil
}

// Mount mounts the share with mount_afp, creating the mountpoint when
// needed. An empty password falls back to the one in the config file.
func (s *Share) Mount(ctx context.Context, r command.Runner, password string) error {
	status, err := s.Status(ctx, r)
	if err != nil {
		return err
	}
	if status != NotMounted {
		return fmt.Errorf("%s: %w", s.MountPoint, ErrAlreadyMounted)
	}
	if err := mkdirAll(s.MountPoint, 0o755); err != nil {
		return fmt.Errorf("failed to create mountpoint: %w", err)
	}
	if password == "" {
		password = s.Password
	}
	if _, err := r.Run(ctx, nil, "mount_afp", s.URL(password), s.MountPoint); err != nil {
		// the URL may carry the password, keep it out of the error
		var execErr *command.ExecError
		if errors.As(err, &execErr) {
			execErr.Args = []string{s.URL(""), s.MountPoint}
		}
		return fmt.Errorf("failed to mount %s: %w", s.Name, err)
	}
	return nil
}

// Unmount detaches the share. A share that is not mounted is left alone.
func (s *Share) Unmount(ctx context.Context, r command.Runner) error {
	status, err := s.Status(ctx, r)
	if err != nil {
		return err
	}
	switch status {
	case NotMounted:
		return nil
	case MountedByOther:
		return fmt.Errorf("%s: %w", s.MountPoint, ErrNoWriteAccess)
	}
	if _, err := r.Run(ctx, nil, "hdiutil", "detach", s.MountPoint); err != nil {
		return fmt.Errorf("failed to unmount %s: %w", s.Name, err)
	}
	return nil
}

// Shares is the set of configured AFP shares.
type Shares struct {
	Path   string
	shares map[string]*Share
}

// LoadShares reads the shares file. A missing file is an empty set.
func LoadShares(path string) (*Shares, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Shares{Path: path, shares: map[string]*Share{}}, nil
		}
		return nil, fmt.Errorf("failed to read shares config: %w", err)
	}
	shares, err := ParseShares(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	shares.Path = path
	return shares, nil
}

// ParseShares decodes YAML share definitions keyed by name.
func ParseShares(data []byte) (*Shares, error) {
	raw := make(map[string]*Share)
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse shares config: %w", err)
	}
	for name, s := range raw {
		if s == nil {
			s = &Share{}
			raw[name] = s
		}
		s.Name = name
		if err := s.verify(); err != nil {
			return nil, err
		}
	}
	return &Shares{shares: raw}, nil
}

// Names returns the share names sorted.
func (c *Shares) Names() []string {
	names := make([]string, 0, len(c.shares))
	for name := range c.shares {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the shares sorted by name.
func (c *Shares) List() []*Share {
	var list []*Share
	for _, name := range c.Names() {
		list = append(list, c.shares[name])
	}
	return list
}

// Get returns a share by name.
func (c *Shares) Get(name string) (*Share, bool) {
	s, ok := c.shares[name]
	return s, ok
}
