// Package corestorage parses `diskutil coreStorage list` into logical volume
// groups, their physical volumes, logical volume families and logical volumes.
package corestorage

import (
	"context"
	"fmt"
	"regexp"

	"github.com/blacktop/darwinist/internal/command"
	"github.com/blacktop/darwinist/pkg/blockparse"
)

// Record kinds of a CoreStorage listing.
const (
	KindGroup          blockparse.Kind = "group"
	KindPhysicalVolume blockparse.Kind = "physical-volume"
	KindFamily         blockparse.Kind = "family"
	KindVolume         blockparse.Kind = "volume"
)

var groupFields = map[string]string{
	"Name":       "name",
	"Status":     "status",
	"Size":       "size",
	"Free Space": "free_space",
	"Sequence":   "sequence",
}

var physicalVolumeFields = map[string]string{
	"Status": "status",
	"Index":  "index",
	"Disk":   "disk",
	"Size":   "size",
}

var familyFields = map[string]string{
	"Encryption Status":     "encryption_status",
	"Encryption Context":    "encryption_context",
	"Conversion Status":     "conversion_status",
	"Sequence":              "sequence",
	"Has Encrypted Extents": "encrypted",
	"Conversion Direction":  "conversion_direction",
	"Encryption Type":       "encryption_type",
}

var volumeFields = map[string]string{
	"Status":           "status",
	"Sequence":         "sequence",
	"Size (Converted)": "size_converted",
	"Size (Total)":     "size_total",
	"Volume Name":      "volume_name",
	"LV Name":          "lv_name",
	"Content Hint":     "content_hint",
	"Disk":             "disk",
	"Revertible":       "revertible",
}

// Config returns the parser tables for `diskutil coreStorage list`.
func Config() blockparse.Config {
	coerce := map[string]blockparse.Coercion{
		"sequence":  blockparse.Integer,
		"index":     blockparse.Integer,
		"encrypted": blockparse.Boolean,
	}
	for _, f := range blockparse.SizeFields {
		coerce[f] = blockparse.SizeBytes
	}
	return blockparse.Config{
		Decoration: "|+-<> ",
		Separators: []string{":"},
		Count:      regexp.MustCompile(`^CoreStorage logical volume groups \((\d+) found\)$`),
		Headers: []blockparse.Header{
			{
				Kind:    KindGroup,
				Prefix:  "Logical Volume Group ",
				Pattern: regexp.MustCompile(`^Logical Volume Group ([A-Z0-9-]+)$`),
				Fields:  groupFields,
			},
			{
				Kind:    KindPhysicalVolume,
				Parent:  KindGroup,
				Prefix:  "Physical Volume ",
				Pattern: regexp.MustCompile(`^Physical Volume ([A-Z0-9-]+)$`),
				Fields:  physicalVolumeFields,
			},
			{
				Kind:    KindFamily,
				Parent:  KindGroup,
				Prefix:  "Logical Volume Family ",
				Pattern: regexp.MustCompile(`^Logical Volume Family ([A-Z0-9-]+)$`),
				Fields:  familyFields,
			},
			{
				Kind:    KindVolume,
				Parent:  KindFamily,
				Prefix:  "Logical Volume ",
				Pattern: regexp.MustCompile(`^Logical Volume ([A-Z0-9-]+)$`),
				Fields:  volumeFields,
			},
		},
		Coerce:            coerce,
		LowercaseUnmapped: true,
	}
}

var parser = blockparse.MustNew(Config())

// ParseTree parses the listing into generic records.
func ParseTree(data []byte) (*blockparse.Tree, error) {
	return parser.ParseBytes(data)
}

// Parse parses the listing into typed groups.
func Parse(data []byte) (*List, error) {
	tree, err := ParseTree(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse coreStorage list: %w", err)
	}
	return fromTree(tree)
}

// Load runs `diskutil coreStorage list` and parses its output.
func Load(ctx context.Context, r command.Runner) (*List, error) {
	out, err := r.Run(ctx, nil, "diskutil", "coreStorage", "list")
	if err != nil {
		return nil, fmt.Errorf("failed to list coreStorage volumes: %w", err)
	}
	return Parse(out)
}
