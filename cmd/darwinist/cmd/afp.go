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
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/apex/log"
	"github.com/blacktop/darwinist/internal/colors"
	"github.com/blacktop/darwinist/internal/command"
	"github.com/blacktop/darwinist/internal/config"
	"github.com/blacktop/darwinist/internal/table"
	"github.com/blacktop/darwinist/internal/utils"
	"github.com/blacktop/darwinist/internal/vault"
	"github.com/blacktop/darwinist/pkg/mount"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(afpCmd)
	afpCmd.AddCommand(afpListCmd)
	afpCmd.AddCommand(afpMountCmd)
	afpCmd.AddCommand(afpUnmountCmd)

	afpMountCmd.Flags().BoolP("ask", "a", false, "Prompt for the share password")
	afpMountCmd.Flags().BoolP("remember", "r", false, "Store the prompted password in the vault")
	viper.BindPFlag("afp.mount.ask", afpMountCmd.Flags().Lookup("ask"))
	viper.BindPFlag("afp.mount.remember", afpMountCmd.Flags().Lookup("remember"))
}

// afpCmd represents the afp command
var afpCmd = &cobra.Command{
	Use:   "afp",
	Short: "Mount and unmount configured AFP shares",
	Long: heredoc.Doc(`
		AFP shares are configured in a YAML file (see the 'shares' config key):

		  media:
		    address: nas.local
		    path: /Media
		    mountpoint: /Volumes/Media
		    username: alice

		Passwords are read from the file, the vault or a prompt (--ask).`),
	Args: cobra.NoArgs,
}

func loadShares() (*mount.Shares, command.Runner, *config.Config, error) {
	r, conf, err := newRunner()
	if err != nil {
		return nil, nil, nil, err
	}
	shares, err := mount.LoadShares(conf.Shares)
	if err != nil {
		return nil, nil, nil, err
	}
	return shares, r, conf, nil
}

func getShare(shares *mount.Shares, name string) (*mount.Share, error) {
	share, ok := shares.Get(name)
	if !ok {
		if len(shares.Names()) == 0 {
			return nil, fmt.Errorf("no AFP shares configured in %s", homeRelative(shares.Path))
		}
		return nil, fmt.Errorf("no AFP share named %q (have: %s)", name, strings.Join(shares.Names(), ", "))
	}
	return share, nil
}

var afpListCmd = &cobra.Command{
	Use:           "list",
	Aliases:       []string{"ls"},
	Short:         "List configured AFP shares and their status",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		shares, r, _, err := loadShares()
		if err != nil {
			return err
		}
		type shareStatus struct {
			*mount.Share
			URL    string            `json:"url"`
			Status mount.ShareStatus `json:"status"`
		}
		var list []shareStatus
		for _, s := range shares.List() {
			status, err := s.Status(cmd.Context(), r)
			if err != nil {
				return err
			}
			list = append(list, shareStatus{Share: s, URL: s.URL(""), Status: status})
		}
		return printResult(list, func() *table.Table {
			t := table.New("NAME", "URL", "MOUNT POINT", "STATUS")
			for _, s := range list {
				state := colors.Faint(string(s.Status))
				switch s.Status {
				case mount.MountedBySelf:
					state = colors.Good(string(s.Status))
				case mount.MountedByOther:
					state = colors.Warn(string(s.Status))
				}
				t.Append(colors.Name(s.Name), s.URL, s.MountPoint, state)
			}
			return t
		})
	},
}

var afpMountCmd = &cobra.Command{
	Use:   "mount NAME",
	Short: "Mount a configured AFP share",
	Example: heredoc.Doc(`
		# Mount a share and keep its password in the Keychain
		$ darwinist afp mount media --ask --remember`),
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		shares, r, conf, err := loadShares()
		if err != nil {
			return err
		}
		share, err := getShare(shares, args[0])
		if err != nil {
			return err
		}

		var password string
		if share.Username != "" && share.Password == "" {
			v, err := vault.Open(conf.Vault.Dir, viper.GetString("vault.password"))
			if err != nil {
				log.WithError(err).Warn("Vault unavailable")
			} else if password, err = v.SharePassword(share.Name); err != nil {
				if !errors.Is(err, vault.ErrNotFound) {
					return err
				}
				log.WithField("share", share.Name).Debug("No password in vault")
			}
			if password == "" && viper.GetBool("afp.mount.ask") {
				if password, err = vault.PromptPassword("Password for " + share.URL("") + ":"); err != nil {
					return err
				}
				if viper.GetBool("afp.mount.remember") && v != nil {
					if err := v.SetSharePassword(share.Name, password); err != nil {
						return err
					}
					utils.Indent(log.Info, 2)("Stored password in vault")
				}
			}
		}

		if err := spin("Mounting "+share.Name+"...", func() error {
			return share.Mount(cmd.Context(), r, password)
		}); err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"share":      share.Name,
			"mountpoint": share.MountPoint,
		}).Info("Mounted")
		return nil
	},
}

var afpUnmountCmd = &cobra.Command{
	Use:           "unmount NAME",
	Aliases:       []string{"umount"},
	Short:         "Unmount a configured AFP share",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		shares, r, _, err := loadShares()
		if err != nil {
			return err
		}
		share, err := getShare(shares, args[0])
		if err != nil {
			return err
		}
		if err := share.Unmount(cmd.Context(), r); err != nil {
			return err
		}
		log.WithField("share", share.Name).Info("Unmounted")
		return nil
	},
}
