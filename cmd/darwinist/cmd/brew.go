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
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/apex/log"
	"github.com/blacktop/darwinist/internal/colors"
	"github.com/blacktop/darwinist/internal/table"
	"github.com/blacktop/darwinist/internal/utils"
	"github.com/blacktop/darwinist/pkg/homebrew"
	"github.com/blacktop/darwinist/pkg/notify"
	"github.com/caarlos0/ctrlc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(brewCmd)
	brewCmd.AddCommand(brewListCmd)
	brewCmd.AddCommand(brewVersionsCmd)
	brewCmd.AddCommand(brewInstallCmd)
	brewCmd.AddCommand(brewUpdateCmd)
	brewCmd.AddCommand(brewUpgradeCmd)
	brewCmd.AddCommand(brewCleanupCmd)

	brewCmd.PersistentFlags().String("cellar", "", "Homebrew Cellar (default from 'brew --cellar')")
	viper.BindPFlag("brew.cellar", brewCmd.PersistentFlags().Lookup("cellar"))

	brewInstallCmd.Flags().BoolP("force", "f", false, "Install even if already installed")
	viper.BindPFlag("brew.install.force", brewInstallCmd.Flags().Lookup("force"))

	brewUpgradeCmd.Flags().BoolP("cleanup", "c", false, "Run cleanup after upgrading")
	brewUpgradeCmd.Flags().BoolP("notify", "n", false, "Post a notification when done")
	viper.BindPFlag("brew.upgrade.cleanup", brewUpgradeCmd.Flags().Lookup("cleanup"))
	viper.BindPFlag("brew.upgrade.notify", brewUpgradeCmd.Flags().Lookup("notify"))
}

// brewCmd represents the brew command
var brewCmd = &cobra.Command{
	Use:   "brew",
	Short: "Install and maintain Homebrew formulae",
	Args:  cobra.NoArgs,
}

// newBrew returns a Brew without a per command timeout, installs and
// upgrades routinely take minutes.
func newBrew() (*homebrew.Brew, error) {
	r, _, err := newRunner()
	if err != nil {
		return nil, err
	}
	r.Timeout = 0
	return homebrew.New(r, viper.GetString("brew.cellar")), nil
}

func printBrewOutput(out []byte) {
	if len(out) > 0 && viper.GetBool("verbose") {
		os.Stdout.Write(out)
	}
}

var brewListCmd = &cobra.Command{
	Use:           "list",
	Aliases:       []string{"ls"},
	Short:         "List installed formulae",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		brew, err := newBrew()
		if err != nil {
			return err
		}
		names, err := brew.Installed(cmd.Context())
		if err != nil {
			return err
		}
		return printResult(names, func() *table.Table {
			t := table.New("FORMULA")
			for _, n := range names {
				t.Append(n)
			}
			return t
		})
	},
}

var brewVersionsCmd = &cobra.Command{
	Use:           "versions FORMULA...",
	Short:         "Show the installed versions of formulae",
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		brew, err := newBrew()
		if err != nil {
			return err
		}
		var pkgs []*homebrew.Package
		for _, name := range args {
			pkg, err := brew.Versions(cmd.Context(), name)
			if err != nil {
				return err
			}
			pkgs = append(pkgs, pkg)
		}
		return printResult(pkgs, func() *table.Table {
			t := table.New("FORMULA", "VERSION", "PATH")
			for _, pkg := range pkgs {
				latest, _ := pkg.Latest()
				for _, v := range pkg.Versions {
					ver := v.String()
					if v.Raw == latest.Raw {
						ver = colors.Good(ver)
					}
					t.Append(colors.Name(pkg.Name), ver, homeRelative(v.Path))
				}
			}
			return t
		})
	},
}

var brewInstallCmd = &cobra.Command{
	Use:           "install FORMULA...",
	Short:         "Install formulae that are not installed yet",
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		brew, err := newBrew()
		if err != nil {
			return err
		}
		for _, name := range args {
			if err := spin("Installing "+name+"...", func() error {
				return brew.Install(cmd.Context(), name, viper.GetBool("brew.install.force"))
			}); err != nil {
				if errors.Is(err, homebrew.ErrUnknownFormula) {
					return fmt.Errorf("%w (try: brew search %s)", err, name)
				}
				return err
			}
			utils.Indent(log.Info, 2)(name)
		}
		return nil
	},
}

var brewUpdateCmd = &cobra.Command{
	Use:           "update",
	Short:         "Fetch the newest formulae",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		brew, err := newBrew()
		if err != nil {
			return err
		}
		var out []byte
		if err := spin("Updating...", func() (err error) {
			out, err = brew.Update(cmd.Context())
			return err
		}); err != nil {
			return err
		}
		printBrewOutput(out)
		log.Info("Homebrew updated")
		return nil
	},
}

var brewUpgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade every outdated formula",
	Example: heredoc.Doc(`
		# Upgrade, prune old kegs and tell me when it's done
		$ darwinist brew upgrade --cleanup --notify`),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		brew, err := newBrew()
		if err != nil {
			return err
		}
		if err := ctrlc.Default.Run(cmd.Context(), func() error {
			return spin("Upgrading...", func() error {
				out, err := brew.Upgrade(cmd.Context())
				printBrewOutput(out)
				if err != nil || !viper.GetBool("brew.upgrade.cleanup") {
					return err
				}
				out, err = brew.Cleanup(cmd.Context())
				printBrewOutput(out)
				return err
			})
		}); err != nil {
			if errors.As(err, &ctrlc.ErrorCtrlC{}) {
				log.Warn("Exiting...")
				return nil
			}
			return err
		}
		log.Info("Formulae upgraded")
		if viper.GetBool("brew.upgrade.notify") {
			return notify.Notify("Homebrew", "Upgrade finished", "All formulae are up to date")
		}
		return nil
	},
}

var brewCleanupCmd = &cobra.Command{
	Use:           "cleanup",
	Short:         "Remove stale kegs and downloads",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		brew, err := newBrew()
		if err != nil {
			return err
		}
		var out []byte
		if err := spin("Cleaning up...", func() (err error) {
			out, err = brew.Cleanup(cmd.Context())
			return err
		}); err != nil {
			return err
		}
		printBrewOutput(out)
		log.Info("Cleaned up")
		return nil
	},
}
