/*
Copyright © 2018-2026 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/apex/log"
	"github.com/blacktop/darwinist/internal/colors"
	"github.com/blacktop/darwinist/internal/table"
	"github.com/blacktop/darwinist/pkg/diskutil"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(diskCmd)
	diskCmd.AddCommand(diskInfoCmd)
	diskCmd.AddCommand(diskListCmd)
	diskCmd.AddCommand(diskMountCmd)
	diskCmd.AddCommand(diskUnmountCmd)
	diskCmd.AddCommand(diskEjectCmd)

	diskUnmountCmd.Flags().BoolP("force", "f", false, "Force unmount")
	viper.BindPFlag("disk.unmount.force", diskUnmountCmd.Flags().Lookup("force"))
}

// diskCmd represents the disk command
var diskCmd = &cobra.Command{
	Use:   "disk",
	Short: "Inspect and manage disks with diskutil",
	Args:  cobra.NoArgs,
}

func infoTable(info *diskutil.Info) *table.Table {
	t := table.New("FIELD", "VALUE")
	t.Append("Device", info.DeviceNode)
	t.Append("Volume", colors.Name(info.VolumeName))
	t.Append("UUID", info.VolumeUUID)
	t.Append("Filesystem", info.FilesystemName)
	t.Append("Mount Point", info.MountPoint)
	t.Append("Total", humanize.Bytes(info.TotalSize))
	t.Append("Free", humanize.Bytes(info.Free()))
	t.Append("Used", fmt.Sprintf("%s (%s)", humanize.Bytes(info.UsedSpace),
		colors.Percent(info.UsedPercent, fmt.Sprintf("%d%%", info.UsedPercent))))
	t.Append("Block Size", fmt.Sprintf("%d", info.DeviceBlockSize))
	t.Append("Writable", yesNo(info.Writable))
	t.Append("Bootable", yesNo(info.Bootable))
	t.Append("Internal", yesNo(info.Internal))
	t.Append("Ejectable", yesNo(info.Ejectable))
	t.Append("Removable", yesNo(info.Removable))
	return t
}

var diskInfoCmd = &cobra.Command{
	Use:           "info DEVICE|MOUNTPOINT",
	Short:         "Show disk or volume details",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, _, err := newRunner()
		if err != nil {
			return err
		}
		info, err := diskutil.GetInfo(cmd.Context(), r, args[0])
		if err != nil {
			return err
		}
		return printResult(info, func() *table.Table { return infoTable(info) })
	},
}

var diskListCmd = &cobra.Command{
	Use:           "list",
	Aliases:       []string{"ls"},
	Short:         "List disks and their partitions",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, _, err := newRunner()
		if err != nil {
			return err
		}
		list, err := diskutil.GetList(cmd.Context(), r)
		if err != nil {
			return err
		}
		return printResult(list, func() *table.Table {
			t := table.New("DEVICE", "CONTENT", "NAME", "SIZE", "MOUNT POINT")
			t.AlignRight(3)
			for _, d := range list.AllDisksAndPartitions {
				t.Append(colors.Bold(d.DeviceIdentifier), d.Content, "", humanize.Bytes(d.Size))
				for _, parts := range [][]diskutil.Partition{d.Partitions, d.APFSVolumes} {
					for _, p := range parts {
						t.Append("  "+p.DeviceIdentifier, p.Content, p.VolumeName, humanize.Bytes(p.Size), p.MountPoint)
					}
				}
			}
			return t
		})
	},
}

var diskMountCmd = &cobra.Command{
	Use:           "mount DEVICE",
	Short:         "Mount a volume",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, _, err := newRunner()
		if err != nil {
			return err
		}
		if err := diskutil.Mount(cmd.Context(), r, args[0]); err != nil {
			return err
		}
		log.WithField("device", args[0]).Info("Mounted")
		return nil
	},
}

var diskUnmountCmd = &cobra.Command{
	Use:   "unmount DEVICE|MOUNTPOINT",
	Short: "Unmount a volume",
	Example: heredoc.Doc(`
		# Unmount a volume that is still busy
		$ darwinist disk unmount --force /Volumes/Backup`),
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, _, err := newRunner()
		if err != nil {
			return err
		}
		if err := diskutil.Unmount(cmd.Context(), r, args[0], viper.GetBool("disk.unmount.force")); err != nil {
			return err
		}
		log.WithField("device", args[0]).Info("Unmounted")
		return nil
	},
}

var diskEjectCmd = &cobra.Command{
	Use:           "eject DEVICE",
	Short:         "Eject a removable disk",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, _, err := newRunner()
		if err != nil {
			return err
		}
		if err := diskutil.Eject(cmd.Context(), r, args[0]); err != nil {
			return err
		}
		log.WithField("device", args[0]).Info("Ejected")
		return nil
	},
}
