// Package diskutil wraps diskutil(8) plist output.
package diskutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/blacktop/darwinist/internal/command"
	"github.com/blacktop/go-plist"
)

// ErrNoDevice is returned when a disk operation gets an empty device.
var ErrNoDevice = errors.New("no device given")

// Info is `diskutil info -plist <device>`.
type Info struct {
	DeviceIdentifier          string `plist:"DeviceIdentifier" json:"device_identifier"`
	DeviceNode                string `plist:"DeviceNode" json:"device_node"`
	ParentWholeDisk           string `plist:"ParentWholeDisk" json:"parent_whole_disk,omitempty"`
	VolumeName                string `plist:"VolumeName" json:"volume_name,omitempty"`
	VolumeUUID                string `plist:"VolumeUUID" json:"volume_uuid,omitempty"`
	DiskUUID                  string `plist:"DiskUUID" json:"disk_uuid,omitempty"`
	MountPoint                string `plist:"MountPoint" json:"mount_point,omitempty"`
	FilesystemType            string `plist:"FilesystemType" json:"filesystem_type,omitempty"`
	FilesystemName            string `plist:"FilesystemName" json:"filesystem_name,omitempty"`
	FilesystemUserVisibleName string `plist:"FilesystemUserVisibleName" json:"filesystem_user_visible_name,omitempty"`
	Content                   string `plist:"Content" json:"content,omitempty"`
	BusProtocol               string `plist:"BusProtocol" json:"bus_protocol,omitempty"`
	MediaName                 string `plist:"MediaName" json:"media_name,omitempty"`
	TotalSize                 uint64 `plist:"TotalSize" json:"total_size"`
	Size                      uint64 `plist:"Size" json:"size"`
	FreeSpace                 uint64 `plist:"FreeSpace" json:"free_space"`
	APFSContainerFree         uint64 `plist:"APFSContainerFree" json:"apfs_container_free,omitempty"`
	DeviceBlockSize           uint64 `plist:"DeviceBlockSize" json:"device_block_size"`
	Writable                  bool   `plist:"WritableVolume" json:"writable"`
	Bootable                  bool   `plist:"Bootable" json:"bootable"`
	Internal                  bool   `plist:"Internal" json:"internal"`
	Ejectable                 bool   `plist:"Ejectable" json:"ejectable"`
	Removable                 bool   `plist:"RemovableMedia" json:"removable"`
	Whole                     bool   `plist:"WholeDisk" json:"whole"`

	UsedSpace   uint64 `plist:"-" json:"used_space"`
	UsedPercent int    `plist:"-" json:"used_percent"`
}

// Mounted reports whether the volume has a mount point.
func (i *Info) Mounted() bool {
	return i.MountPoint != ""
}

// Free is the free byte count, falling back to the APFS container.
func (i *Info) Free() uint64 {
	if i.FreeSpace == 0 {
		return i.APFSContainerFree
	}
	return i.FreeSpace
}

func (i *Info) derive() {
	total := i.TotalSize
	if total == 0 {
		total = i.Size
	}
	if total == 0 {
		return
	}
	free := i.Free()
	if free > total {
		free = total
	}
	i.UsedSpace = total - free
	i.UsedPercent = int(math.Round(float64(i.UsedSpace) / float64(total) * 100))
}

// ParseInfo decodes `diskutil info -plist` output.
func ParseInfo(data []byte) (*Info, error) {
	var info Info
	if err := plist.NewDecoder(bytes.NewReader(data)).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to parse diskutil info plist: %w", err)
	}
	info.derive()
	return &info, nil
}

// GetInfo runs `diskutil info -plist` for a device node, identifier or mount point.
func GetInfo(ctx context.Context, r command.Runner, device string) (*Info, error) {
	if device == "" {
		return nil, ErrNoDevice
	}
	out, err := r.Run(ctx, nil, "diskutil", "info", "-plist", device)
	if err != nil {
		return nil, fmt.Errorf("failed to get disk info for %s: %w", device, err)
	}
	return ParseInfo(out)
}

// Partition is one slice of a whole disk.
type Partition struct {
	DeviceIdentifier string `plist:"DeviceIdentifier" json:"device_identifier"`
	Content          string `plist:"Content" json:"content,omitempty"`
	Size             uint64 `plist:"Size" json:"size"`
	VolumeName       string `plist:"VolumeName" json:"volume_name,omitempty"`
	VolumeUUID       string `plist:"VolumeUUID" json:"volume_uuid,omitempty"`
	MountPoint       string `plist:"MountPoint" json:"mount_point,omitempty"`
}

// Disk is a whole disk with its partitions or APFS volumes.
type Disk struct {
	DeviceIdentifier string      `plist:"DeviceIdentifier" json:"device_identifier"`
	Content          string      `plist:"Content" json:"content,omitempty"`
	Size             uint64      `plist:"Size" json:"size"`
	OSInternal       bool        `plist:"OSInternal" json:"os_internal,omitempty"`
	Partitions       []Partition `plist:"Partitions" json:"partitions,omitempty"`
	APFSVolumes      []Partition `plist:"APFSVolumes" json:"apfs_volumes,omitempty"`
}

// List is `diskutil list -plist`.
type List struct {
	AllDisks              []string `plist:"AllDisks" json:"all_disks"`
	AllDisksAndPartitions []Disk   `plist:"AllDisksAndPartitions" json:"disks"`
	VolumesFromDisks      []string `plist:"VolumesFromDisks" json:"volumes"`
	WholeDisks            []string `plist:"WholeDisks" json:"whole_disks"`
}

// ParseList decodes `diskutil list -plist` output.
func ParseList(data []byte) (*List, error) {
	var list List
	if err := plist.NewDecoder(bytes.NewReader(data)).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to parse diskutil list plist: %w", err)
	}
	return &list, nil
}

// GetList runs `diskutil list -plist`.
func GetList(ctx context.Context, r command.Runner) (*List, error) {
	out, err := r.Run(ctx, nil, "diskutil", "list", "-plist")
	if err != nil {
		return nil, fmt.Errorf("failed to list disks: %w", err)
	}
	return ParseList(out)
}

// Mount mounts a volume.
func Mount(ctx context.Context, r command.Runner, device string) error {
	return run(ctx, r, "mount", device)
}

// Unmount unmounts a volume, forcing it when force is set.
func Unmount(ctx context.Context, r command.Runner, device string, force bool) error {
	if force {
		return run(ctx, r, "unmount", "force", device)
	}
	return run(ctx, r, "unmount", device)
}

// Eject unmounts and ejects a whole disk.
func Eject(ctx context.Context, r command.Runner, device string) error {
	return run(ctx, r, "eject", device)
}

func run(ctx context.Context, r command.Runner, verb string, args ...string) error {
	if len(args) == 0 || args[len(args)-1] == "" {
		return ErrNoDevice
	}
	if _, err := r.Run(ctx, nil, "diskutil", append([]string{verb}, args...)...); err != nil {
		return fmt.Errorf("failed to %s %s: %w", verb, args[len(args)-1], err)
	}
	return nil
}
