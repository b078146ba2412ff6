// Package hdiutil attaches and detaches disk images described in a YAML file.
package hdiutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/blacktop/darwinist/internal/command"
	"github.com/blacktop/darwinist/pkg/diskutil"
	"gopkg.in/yaml.v3"
)

// VolumesDir is where hdiutil mounts images without an explicit mountpoint.
const VolumesDir = "/Volumes/"

var (
	// ErrAlreadyAttached is returned when attaching a mounted image.
	ErrAlreadyAttached = errors.New("already attached")
	// ErrNotAttached is returned when detaching an image that is not mounted.
	ErrNotAttached = errors.New("not attached")
)

// Args accepts a single string or a list in YAML.
type Args []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Args) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*a = strings.Fields(s)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*a = list
		return nil
	}
	return fmt.Errorf("line %d: args must be a string or a list", node.Line)
}

type imageConfig struct {
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
	MountPoint  string `yaml:"mountpoint"`
	Args        Args   `yaml:"args"`
}

// Image is a configured disk image.
type Image struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Path        string   `json:"image"`
	MountPoint  string   `json:"mountpoint"`
	Args        []string `json:"args,omitempty"`

	runner command.Runner
}

func (i *Image) String() string {
	return fmt.Sprintf("%s mounted on %s (%s)", i.Path, i.MountPoint, strings.Join(i.AttachArgs(), " "))
}

// AttachArgs returns the hdiutil attach options, adding -mountpoint when the
// image does not mount under /Volumes.
func (i *Image) AttachArgs() []string {
	args := append([]string(nil), i.Args...)
	if !strings.HasPrefix(i.MountPoint, VolumesDir) {
		args = append(args, "-mountpoint", i.MountPoint)
	}
	return args
}

// Info returns diskutil info for the image mountpoint.
func (i *Image) Info(ctx context.Context) (*diskutil.Info, error) {
	return diskutil.GetInfo(ctx, i.runner, i.MountPoint)
}

// Attached reports whether something is mounted on the image mountpoint.
func (i *Image) Attached(ctx context.Context) (bool, error) {
	info, err := i.Info(ctx)
	if err != nil {
		var execErr *command.ExecError
		if errors.As(err, &execErr) {
			// diskutil exits non-zero for paths that are not a volume
			return false, nil
		}
		return false, err
	}
	return info.Mounted(), nil
}

// Attach mounts the image, piping passphrase to hdiutil when one is given.
func (i *Image) Attach(ctx context.Context, passphrase string) error {
	attached, err := i.Attached(ctx)
	if err != nil {
		return err
	}
	if attached {
		return fmt.Errorf("%s: %w", i.MountPoint, ErrAlreadyAttached)
	}
	args := []string{"attach"}
	var stdin io.Reader
	if passphrase != "" {
		args = append(args, "-stdinpass")
		stdin = strings.NewReader(passphrase + "\x00")
	}
	args = append(args, i.AttachArgs()...)
	args = append(args, i.Path)
	if _, err := i.runner.Run(ctx, stdin, "hdiutil", args...); err != nil {
		return fmt.Errorf("failed to attach %s: %w", i.Path, err)
	}
	return nil
}

// Detach unmounts the image.
func (i *Image) Detach(ctx context.Context, force bool) error {
	attached, err := i.Attached(ctx)
	if err != nil {
		return err
	}
	if !attached {
		return fmt.Errorf("%s: %w", i.MountPoint, ErrNotAttached)
	}
	args := []string{"detach", i.MountPoint}
	if force {
		args = append(args, "-force")
	}
	if _, err := i.runner.Run(ctx, nil, "hdiutil", args...); err != nil {
		return fmt.Errorf("failed to detach %s: %w", i.MountPoint, err)
	}
	return nil
}

// Images is the set of configured disk images.
type Images struct {
	Path   string
	images map[string]*Image
}

// LoadImages reads the definitions file. A missing file is an empty set.
func LoadImages(path string, r command.Runner) (*Images, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Images{Path: path, images: map[string]*Image{}}, nil
		}
		return nil, fmt.Errorf("failed to read disk images config: %w", err)
	}
	imgs, err := ParseImages(data, r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	imgs.Path = path
	return imgs, nil
}

// ParseImages decodes YAML disk image definitions keyed by name.
func ParseImages(data []byte, r command.Runner) (*Images, error) {
	raw := make(map[string]imageConfig)
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse disk images config: %w", err)
	}
	imgs := &Images{images: make(map[string]*Image, len(raw))}
	for name, c := range raw {
		if c.Image == "" {
			return nil, fmt.Errorf("disk image %s: missing image path", name)
		}
		if c.MountPoint == "" {
			return nil, fmt.Errorf("disk image %s: missing mountpoint", name)
		}
		imgs.images[name] = &Image{
			Name:        name,
			Description: c.Description,
			Path:        c.Image,
			MountPoint:  c.MountPoint,
			Args:        c.Args,
			runner:      r,
		}
	}
	return imgs, nil
}

// Names returns the image names sorted.
func (c *Images) Names() []string {
	names := make([]string, 0, len(c.images))
	for name := range c.images {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the images sorted by name.
func (c *Images) List() []*Image {
	var list []*Image
	for _, name := range c.Names() {
		list = append(list, c.images[name])
	}
	return list
}

// Match finds an image by name, image path or mountpoint.
func (c *Images) Match(value string) (*Image, bool) {
	if img, ok := c.images[value]; ok {
		return img, true
	}
	for _, img := range c.List() {
		if img.Path == value || img.MountPoint == value {
			return img, true
		}
	}
	return nil, false
}
