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
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/apex/log"
	"github.com/blacktop/darwinist/internal/colors"
	"github.com/blacktop/darwinist/internal/command"
	"github.com/blacktop/darwinist/internal/config"
	"github.com/blacktop/darwinist/internal/table"
	"github.com/blacktop/darwinist/internal/utils"
	"github.com/blacktop/darwinist/internal/vault"
	"github.com/blacktop/darwinist/pkg/hdiutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

func init() {
	rootCmd.AddCommand(dmgCmd)
	dmgCmd.AddCommand(dmgListCmd)
	dmgCmd.AddCommand(dmgInfoCmd)
	dmgCmd.AddCommand(dmgAttachCmd)
	dmgCmd.AddCommand(dmgDetachCmd)

	dmgListCmd.Flags().BoolP("status", "s", false, "Check whether each image is attached")
	viper.BindPFlag("dmg.list.status", dmgListCmd.Flags().Lookup("status"))

	dmgAttachCmd.Flags().BoolP("ask", "a", false, "Prompt for the image passphrase")
	dmgAttachCmd.Flags().BoolP("remember", "r", false, "Store the prompted passphrase in the vault")
	dmgAttachCmd.Flags().Bool("no-vault", false, "Do not look up the passphrase in the vault")
	viper.BindPFlag("dmg.attach.ask", dmgAttachCmd.Flags().Lookup("ask"))
	viper.BindPFlag("dmg.attach.remember", dmgAttachCmd.Flags().Lookup("remember"))
	viper.BindPFlag("dmg.attach.no-vault", dmgAttachCmd.Flags().Lookup("no-vault"))

	dmgDetachCmd.Flags().BoolP("force", "f", false, "Force detach")
	viper.BindPFlag("dmg.detach.force", dmgDetachCmd.Flags().Lookup("force"))
}

// dmgCmd represents the dmg command
var dmgCmd = &cobra.Command{
	Use:   "dmg",
	Short: "Attach and detach configured disk images",
	Long: heredoc.Doc(`
		Disk images are configured in a YAML file (see the 'images' config key):

		  secrets:
		    description: Encrypted sparse bundle
		    image: ~/Documents/secrets.sparsebundle
		    mountpoint: /Volumes/Secrets
		    args: -nobrowse`),
	Args: cobra.NoArgs,
}

func loadImages() (*hdiutil.Images, *config.Config, error) {
	r, conf, err := newRunner()
	if err != nil {
		return nil, nil, err
	}
	imgs, err := hdiutil.LoadImages(conf.Images, r)
	if err != nil {
		return nil, nil, err
	}
	return imgs, conf, nil
}

// pickImage resolves the image argument, prompting when none is given.
func pickImage(imgs *hdiutil.Images, args []string) (*hdiutil.Image, error) {
	if len(imgs.Names()) == 0 {
		return nil, fmt.Errorf("no disk images configured in %s", homeRelative(imgs.Path))
	}
	if len(args) > 0 {
		img, ok := imgs.Match(args[0])
		if !ok {
			return nil, fmt.Errorf("no disk image matching %q (have: %s)", args[0], strings.Join(imgs.Names(), ", "))
		}
		return img, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, fmt.Errorf("no disk image given")
	}
	var choice string
	if err := survey.AskOne(&survey.Select{
		Message: "Choose a disk image:",
		Options: imgs.Names(),
	}, &choice); err != nil {
		return nil, err
	}
	img, _ := imgs.Match(choice)
	return img, nil
}

var dmgListCmd = &cobra.Command{
	Use:           "list",
	Aliases:       []string{"ls"},
	Short:         "List configured disk images",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		imgs, _, err := loadImages()
		if err != nil {
			return err
		}
		list := imgs.List()
		status := make(map[string]string, len(list))
		if viper.GetBool("dmg.list.status") {
			for _, img := range list {
				attached, err := img.Attached(cmd.Context())
				if err != nil {
					return err
				}
				status[img.Name] = "detached"
				if attached {
					status[img.Name] = "attached"
				}
			}
		}
		return printResult(list, func() *table.Table {
			t := table.New("NAME", "IMAGE", "MOUNT POINT", "STATUS", "DESCRIPTION")
			for _, img := range list {
				t.Append(colors.Name(img.Name), homeRelative(img.Path), img.MountPoint,
					colors.Status(status[img.Name]), img.Description)
			}
			return t
		})
	},
}

var dmgInfoCmd = &cobra.Command{
	Use:           "info",
	Short:         "Show attached disk images",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, _, err := newRunner()
		if err != nil {
			return err
		}
		info, err := hdiutil.Info(cmd.Context(), r)
		if err != nil {
			return err
		}
		return printResult(info, func() *table.Table {
			t := table.New("IMAGE", "DEVICE", "MOUNT POINT", "ENCRYPTED")
			for _, img := range info.Images {
				for i, e := range img.Entities {
					name := ""
					if i == 0 {
						name = homeRelative(img.ImagePath)
					}
					t.Append(name, e.DevEntry, e.MountPoint, yesNo(img.Encrypted))
				}
			}
			return t
		})
	},
}

var dmgAttachCmd = &cobra.Command{
	Use:   "attach [NAME|IMAGE|MOUNTPOINT]",
	Short: "Attach a configured disk image",
	Example: heredoc.Doc(`
		# Pick an image and attach it
		$ darwinist dmg attach

		# Attach an encrypted image and store its passphrase in the Keychain
		$ darwinist dmg attach secrets --ask --remember`),
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		imgs, conf, err := loadImages()
		if err != nil {
			return err
		}
		img, err := pickImage(imgs, args)
		if err != nil {
			return err
		}

		var passphrase string
		var v *vault.Vault
		if !viper.GetBool("dmg.attach.no-vault") {
			if v, err = vault.Open(conf.Vault.Dir, viper.GetString("vault.password")); err != nil {
				log.WithError(err).Warn("Vault unavailable")
			} else if passphrase, err = v.Passphrase(img.Name); err != nil {
				if !errors.Is(err, vault.ErrNotFound) {
					return err
				}
				log.WithField("image", img.Name).Debug("No passphrase in vault")
			}
		}
		if passphrase == "" && viper.GetBool("dmg.attach.ask") {
			if passphrase, err = vault.PromptPassword("Passphrase for " + img.Name + ":"); err != nil {
				return err
			}
			if viper.GetBool("dmg.attach.remember") && v != nil {
				if err := v.SetPassphrase(img.Name, passphrase); err != nil {
					return err
				}
				utils.Indent(log.Info, 2)("Stored passphrase in vault")
			}
		}

		if err := spin("Attaching "+img.Name+"...", func() error {
			return img.Attach(cmd.Context(), passphrase)
		}); err != nil {
			var execErr *command.ExecError
			if errors.As(err, &execErr) && passphrase == "" && !viper.GetBool("dmg.attach.ask") {
				log.Warn("Attach failed, if the image is encrypted retry with --ask")
			}
			return err
		}
		log.WithFields(log.Fields{
			"image":      img.Name,
			"mountpoint": img.MountPoint,
		}).Info("Attached")
		return nil
	},
}

var dmgDetachCmd = &cobra.Command{
	Use:           "detach [NAME|IMAGE|MOUNTPOINT]",
	Short:         "Detach a configured disk image",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		imgs, _, err := loadImages()
		if err != nil {
			return err
		}
		img, err := pickImage(imgs, args)
		if err != nil {
			return err
		}
		if err := img.Detach(cmd.Context(), viper.GetBool("dmg.detach.force")); err != nil {
			return err
		}
		log.WithField("image", img.Name).Info("Detached")
		return nil
	},
}
