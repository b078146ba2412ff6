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
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/apex/log"
	"github.com/blacktop/darwinist/internal/colors"
	"github.com/blacktop/darwinist/internal/command"
	"github.com/blacktop/darwinist/internal/table"
	"github.com/blacktop/darwinist/pkg/mount"
	"github.com/caarlos0/ctrlc"
	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(mountsCmd)

	mountsCmd.Flags().BoolP("info", "i", false, "Look up diskutil info for each device")
	mountsCmd.Flags().BoolP("watch", "w", false, "Re-list whenever a volume appears or disappears")
	mountsCmd.Flags().StringP("fs", "t", "", "Only show this filesystem type")
	viper.BindPFlag("mounts.info", mountsCmd.Flags().Lookup("info"))
	viper.BindPFlag("mounts.watch", mountsCmd.Flags().Lookup("watch"))
	viper.BindPFlag("mounts.fs", mountsCmd.Flags().Lookup("fs"))
}

func listMounts(ctx context.Context, r command.Runner) error {
	mps, err := mount.List(ctx, r, viper.GetBool("mounts.info"))
	if err != nil {
		return err
	}
	if fs := viper.GetString("mounts.fs"); fs != "" {
		var filtered []*mount.MountPoint
		for _, mp := range mps {
			if mp.Filesystem == fs {
				filtered = append(filtered, mp)
			}
		}
		mps = filtered
	}

	return printResult(mps, func() *table.Table {
		t := table.New("NAME", "DEVICE", "MOUNT POINT", "FS", "SIZE", "USED", "FLAGS")
		t.AlignRight(4, 5)
		for _, mp := range mps {
			sz, used := "-", "-"
			if u, err := mp.Usage(); err == nil && u.Size > 0 {
				sz = humanize.Bytes(u.Size)
				used = colors.Percent(u.Percent, fmt.Sprintf("%d%%", u.Percent))
			} else if err != nil {
				log.WithError(err).WithField("path", mp.Path).Debug("statfs failed")
			}
			var flags []string
			for flag, on := range mp.Flags {
				if on {
					flags = append(flags, flag)
				}
			}
			sort.Strings(flags)
			t.Append(colors.Name(mp.Name()), mp.Device, mp.Path, mp.Filesystem, sz, used, strings.Join(flags, ","))
		}
		return t
	})
}

// mountsCmd represents the mounts command
var mountsCmd = &cobra.Command{
	Use:   "mounts",
	Short: "List mounted filesystems",
	Example: heredoc.Doc(`
		# List APFS volumes with their diskutil names
		$ darwinist mounts --fs apfs --info

		# Follow volumes as they are attached and ejected
		$ darwinist mounts --watch`),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, _, err := newRunner()
		if err != nil {
			return err
		}
		if err := listMounts(cmd.Context(), r); err != nil {
			return err
		}
		if !viper.GetBool("mounts.watch") {
			return nil
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		log.WithField("dir", mount.VolumesDir).Info("Watching for volume changes (^C to stop)")
		if err := ctrlc.Default.Run(ctx, func() error {
			return mount.Watch(ctx, mount.VolumesDir, func(ev fsnotify.Event) error {
				verb := "appeared"
				if ev.Has(fsnotify.Remove) {
					verb = "disappeared"
				}
				log.WithField("volume", ev.Name).Info("Volume " + verb)
				return listMounts(ctx, r)
			})
		}); err != nil {
			if errors.As(err, &ctrlc.ErrorCtrlC{}) {
				log.Warn("Exiting...")
				return nil
			}
			return err
		}
		return nil
	},
}
