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
	"strconv"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/apex/log"
	"github.com/blacktop/darwinist/internal/colors"
	"github.com/blacktop/darwinist/internal/table"
	"github.com/blacktop/darwinist/pkg/corestorage"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(csCmd)

	csCmd.Flags().BoolP("tree", "t", false, "Dump the raw parse tree")
	csCmd.Flags().StringP("volume", "v", "", "Show a single logical volume by UUID or disk")
	viper.BindPFlag("cs.tree", csCmd.Flags().Lookup("tree"))
	viper.BindPFlag("cs.volume", csCmd.Flags().Lookup("volume"))
}

func size(n int64) string {
	if n <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(n))
}

// csCmd represents the cs command
var csCmd = &cobra.Command{
	Use:     "cs",
	Aliases: []string{"corestorage"},
	Short:   "List CoreStorage logical volume groups",
	Example: heredoc.Doc(`
		# List logical volume groups and their volumes
		$ darwinist cs

		# Find the volume backing disk2
		$ darwinist cs --volume disk2

		# Show encrypted families as JSON
		$ darwinist cs -o json --jq '.groups[].families[] | select(.encrypted)'`),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, _, err := newRunner()
		if err != nil {
			return err
		}

		if viper.GetBool("cs.tree") {
			out, err := r.Run(cmd.Context(), nil, "diskutil", "coreStorage", "list")
			if err != nil {
				return fmt.Errorf("failed to list coreStorage volumes: %w", err)
			}
			tree, err := corestorage.ParseTree(out)
			if err != nil {
				return err
			}
			for _, rec := range tree.Records {
				fmt.Print(rec.Dump(""))
			}
			return nil
		}

		list, err := corestorage.Load(cmd.Context(), r)
		if err != nil {
			return err
		}
		log.WithField("count", list.Count).Debug("Found logical volume groups")

		if id := viper.GetString("cs.volume"); id != "" {
			v, ok := list.FindVolume(id)
			if !ok {
				return fmt.Errorf("no logical volume matching %q", id)
			}
			return printResult(v, func() *table.Table {
				t := table.New("FIELD", "VALUE")
				t.Append("UUID", v.UUID)
				t.Append("Disk", v.Disk)
				t.Append("Name", v.VolumeName)
				t.Append("Status", colors.Status(v.Status))
				t.Append("Size", size(v.SizeTotal))
				t.Append("Converted", size(v.SizeConverted))
				t.Append("Content Hint", v.ContentHint)
				t.Append("Revertible", v.Revertible)
				return t
			})
		}

		return printResult(list, func() *table.Table {
			t := table.New("GROUP", "STATUS", "SIZE", "FREE", "VOLUME", "DISK", "ENCRYPTED")
			t.AlignRight(2, 3)
			for _, g := range list.Groups {
				vols := 0
				for _, f := range g.Families {
					for _, v := range f.Volumes {
						t.Append(g.Name, colors.Status(g.Status), size(g.Size), size(g.FreeSpace),
							v.VolumeName, v.Disk, strconv.FormatBool(f.Encrypted))
						vols++
					}
				}
				if vols == 0 {
					t.Append(g.Name, colors.Status(g.Status), size(g.Size), size(g.FreeSpace))
				}
			}
			return t
		})
	},
}
