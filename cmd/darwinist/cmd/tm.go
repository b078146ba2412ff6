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
	"errors"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/apex/log"
	"github.com/blacktop/darwinist/internal/colors"
	"github.com/blacktop/darwinist/internal/table"
	"github.com/blacktop/darwinist/pkg/notify"
	"github.com/blacktop/darwinist/pkg/tmutil"
	"github.com/caarlos0/ctrlc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(tmCmd)
	tmCmd.AddCommand(tmVersionCmd)
	tmCmd.AddCommand(tmDestCmd)
	tmCmd.AddCommand(tmEnableCmd)
	tmCmd.AddCommand(tmDisableCmd)
	tmCmd.AddCommand(tmStartCmd)
	tmCmd.AddCommand(tmStopCmd)
	tmCmd.AddCommand(tmLatestCmd)

	tmStartCmd.Flags().BoolP("block", "b", false, "Wait for the backup to finish")
	tmStartCmd.Flags().BoolP("notify", "n", false, "Post a notification when a blocking backup finishes")
	viper.BindPFlag("tm.start.block", tmStartCmd.Flags().Lookup("block"))
	viper.BindPFlag("tm.start.notify", tmStartCmd.Flags().Lookup("notify"))
}

// tmCmd represents the tm command
var tmCmd = &cobra.Command{
	Use:     "tm",
	Aliases: []string{"timemachine"},
	Short:   "Control Time Machine with tmutil",
	Args:    cobra.NoArgs,
}

func newTMUtil() (*tmutil.Util, error) {
	r, _, err := newRunner()
	if err != nil {
		return nil, err
	}
	return tmutil.New(r), nil
}

var tmVersionCmd = &cobra.Command{
	Use:           "version",
	Short:         "Show the tmutil version",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		tm, err := newTMUtil()
		if err != nil {
			return err
		}
		v, err := tm.Version(cmd.Context())
		if err != nil {
			return err
		}
		return printResult(v, func() *table.Table {
			t := table.New("VERSION", "BUILT")
			t.Append(v.Version, v.BuildDate.Format("2006-01-02"))
			return t
		})
	},
}

var tmDestCmd = &cobra.Command{
	Use:           "dest",
	Aliases:       []string{"destinations"},
	Short:         "List backup destinations",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		tm, err := newTMUtil()
		if err != nil {
			return err
		}
		dests, err := tm.Destinations(cmd.Context())
		if err != nil {
			return err
		}
		return printResult(dests, func() *table.Table {
			t := table.New("NAME", "KIND", "MOUNT POINT", "ID", "LAST")
			for _, d := range dests {
				last := ""
				if d.Last != 0 {
					last = "*"
				}
				t.Append(colors.Name(d.Name), d.Kind, d.MountPoint, d.ID, last)
			}
			return t
		})
	},
}

var tmEnableCmd = &cobra.Command{
	Use:           "enable",
	Short:         "Turn on automatic backups (requires root)",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		tm, err := newTMUtil()
		if err != nil {
			return err
		}
		if err := tm.Enable(cmd.Context()); err != nil {
			if errors.Is(err, tmutil.ErrNotRoot) {
				return fmt.Errorf("%w (try: sudo darwinist tm enable)", err)
			}
			return err
		}
		log.Info("Automatic backups enabled")
		return nil
	},
}

var tmDisableCmd = &cobra.Command{
	Use:           "disable",
	Short:         "Turn off automatic backups (requires root)",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		tm, err := newTMUtil()
		if err != nil {
			return err
		}
		if err := tm.Disable(cmd.Context()); err != nil {
			if errors.Is(err, tmutil.ErrNotRoot) {
				return fmt.Errorf("%w (try: sudo darwinist tm disable)", err)
			}
			return err
		}
		log.Info("Automatic backups disabled")
		return nil
	},
}

var tmStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a backup",
	Example: heredoc.Doc(`
		# Back up now and get a notification when done
		$ darwinist tm start --block --notify`),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, _, err := newRunner()
		if err != nil {
			return err
		}
		block := viper.GetBool("tm.start.block")
		if !block {
			if err := tmutil.New(r).StartBackup(cmd.Context(), false); err != nil {
				return err
			}
			log.Info("Backup started")
			return nil
		}

		// a blocking backup outlives any per command timeout
		r.Timeout = 0
		tm := tmutil.New(r)
		if err := ctrlc.Default.Run(cmd.Context(), func() error {
			return spin("Backing up...", func() error {
				return tm.StartBackup(cmd.Context(), true)
			})
		}); err != nil {
			if errors.As(err, &ctrlc.ErrorCtrlC{}) {
				log.Warn("Stopping backup...")
				return tm.StopBackup(cmd.Context())
			}
			return err
		}
		log.Info("Backup finished")
		if viper.GetBool("tm.start.notify") {
			return notify.Notify("Time Machine", "Backup finished", "darwinist tm start completed")
		}
		return nil
	},
}

var tmStopCmd = &cobra.Command{
	Use:           "stop",
	Short:         "Stop a running backup",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		tm, err := newTMUtil()
		if err != nil {
			return err
		}
		if err := tm.StopBackup(cmd.Context()); err != nil {
			return err
		}
		log.Info("Backup stopped")
		return nil
	},
}

var tmLatestCmd = &cobra.Command{
	Use:           "latest",
	Short:         "Print the path of the latest backup",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		tm, err := newTMUtil()
		if err != nil {
			return err
		}
		path, err := tm.LatestBackup(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}
