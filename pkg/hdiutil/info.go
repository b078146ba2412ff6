package hdiutil

import (
	"bytes"
	"context"
	"fmt"

	"github.com/blacktop/darwinist/internal/command"
	"github.com/blacktop/go-plist"
)

// Entity is a device node created for an attached image.
type Entity struct {
	DevEntry    string `plist:"dev-entry" json:"dev_entry"`
	MountPoint  string `plist:"mount-point" json:"mount_point,omitempty"`
	ContentHint string `plist:"content-hint" json:"content_hint,omitempty"`
}

// AttachedImage is an image hdiutil currently has attached.
type AttachedImage struct {
	ImagePath string   `plist:"image-path" json:"image_path"`
	Encrypted bool     `plist:"image-encrypted" json:"encrypted"`
	Writeable bool     `plist:"writeable" json:"writeable"`
	Removable bool     `plist:"removable" json:"removable"`
	Entities  []Entity `plist:"system-entities" json:"entities"`
}

// MountPoints returns the mounted entities' paths.
func (a *AttachedImage) MountPoints() []string {
	var mps []string
	for _, e := range a.Entities {
		if e.MountPoint != "" {
			mps = append(mps, e.MountPoint)
		}
	}
	return mps
}

// InfoResult is `hdiutil info -plist`.
type InfoResult struct {
	Framework string          `plist:"framework" json:"framework"`
	Images    []AttachedImage `plist:"images" json:"images"`
}

// ParseInfo decodes `hdiutil info -plist` output.
func ParseInfo(data []byte) (*InfoResult, error) {
	var info InfoResult
	if err := plist.NewDecoder(bytes.NewReader(data)).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to parse hdiutil info plist: %w", err)
	}
	return &info, nil
}

// Info lists the attached images.
func Info(ctx context.Context, r command.Runner) (*InfoResult, error) {
	out, err := r.Run(ctx, nil, "hdiutil", "info", "-plist")
	if err != nil {
		return nil, fmt.Errorf("failed to get hdiutil info: %w", err)
	}
	return ParseInfo(out)
}
