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
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/blacktop/darwinist/internal/table"
	"github.com/blacktop/darwinist/pkg/ps"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(psCmd)

	psCmd.Flags().StringP("user", "u", "", "Only show processes owned by user")
	psCmd.Flags().StringP("command", "c", "", "Only show processes with this executable name")
	psCmd.Flags().IntP("pid", "p", 0, "Only show this process")
	psCmd.Flags().StringP("sort", "s", "pid", fmt.Sprintf("Sort by field (%s)", strings.Join(ps.Fields, ", ")))
	psCmd.Flags().BoolP("reverse", "r", false, "Reverse the sort order")
	psCmd.Flags().IntP("limit", "n", 0, "Show at most this many processes")
	viper.BindPFlag("ps.user", psCmd.Flags().Lookup("user"))
	viper.BindPFlag("ps.command", psCmd.Flags().Lookup("command"))
	viper.BindPFlag("ps.pid", psCmd.Flags().Lookup("pid"))
	viper.BindPFlag("ps.sort", psCmd.Flags().Lookup("sort"))
	viper.BindPFlag("ps.reverse", psCmd.Flags().Lookup("reverse"))
	viper.BindPFlag("ps.limit", psCmd.Flags().Lookup("limit"))
}

// psCmd represents the ps command
var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List processes",
	Example: heredoc.Doc(`
		# Top 10 memory users
		$ darwinist ps --sort rss --reverse --limit 10

		# Every Safari process owned by you
		$ darwinist ps --user $USER --command Safari`),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, _, err := newRunner()
		if err != nil {
			return err
		}
		procs, err := ps.Load(cmd.Context(), r)
		if err != nil {
			return err
		}

		if pid := viper.GetInt("ps.pid"); pid != 0 {
			p, ok := procs.FindPID(pid)
			if !ok {
				return fmt.Errorf("no process with pid %d", pid)
			}
			procs = ps.List{p}
		}
		if user := viper.GetString("ps.user"); user != "" {
			procs = procs.FilterUser(user)
		}
		if name := viper.GetString("ps.command"); name != "" {
			procs = procs.FilterCommand(name)
		}
		if err := procs.SortBy(viper.GetString("ps.sort"), viper.GetBool("ps.reverse")); err != nil {
			return err
		}
		if n := viper.GetInt("ps.limit"); n > 0 && n < len(procs) {
			procs = procs[:n]
		}

		return printResult(procs, func() *table.Table {
			t := table.New("USER", "PID", "%CPU", "%MEM", "RSS", "STAT", "STARTED", "COMMAND")
			t.AlignRight(1, 2, 3, 4)
			for _, p := range procs {
				t.Append(
					p.Username,
					fmt.Sprintf("%d", p.PID),
					fmt.Sprintf("%.1f", p.CPU),
					fmt.Sprintf("%.1f", p.Mem),
					humanize.IBytes(uint64(p.RSS)*1024),
					p.Stat,
					p.Started,
					p.Command,
				)
			}
			return t
		})
	},
}
