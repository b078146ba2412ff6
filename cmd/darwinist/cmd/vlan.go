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

	"github.com/apex/log"
	"github.com/blacktop/darwinist/internal/table"
	"github.com/blacktop/darwinist/pkg/networksetup"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(vlanCmd)
	vlanCmd.AddCommand(vlanListCmd)
	vlanCmd.AddCommand(vlanCreateCmd)
	vlanCmd.AddCommand(vlanDeleteCmd)
}

// vlanCmd represents the vlan command
var vlanCmd = &cobra.Command{
	Use:   "vlan",
	Short: "Manage VLAN interfaces",
	Args:  cobra.NoArgs,
}

func vlanArgs(args []string) (string, string, int, error) {
	tag, err := strconv.Atoi(args[2])
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid VLAN tag %q: %w", args[2], err)
	}
	return args[0], args[1], tag, nil
}

var vlanListCmd = &cobra.Command{
	Use:           "list",
	Aliases:       []string{"ls"},
	Short:         "List VLANs",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ns, err := newNetworkSetup()
		if err != nil {
			return err
		}
		vlans, err := ns.VLANs(cmd.Context())
		if err != nil {
			return err
		}
		if len(vlans) == 0 && !structuredOutput() {
			log.Info(networksetup.NoVLANsMessage)
		}
		return printResult(vlans, func() *table.Table {
			t := table.New("NAME", "PARENT", "PORT", "TAG")
			t.AlignRight(3)
			for _, v := range vlans {
				t.Append(v.Name, v.Parent, v.Port, strconv.Itoa(v.Tag))
			}
			return t
		})
	},
}

var vlanCreateCmd = &cobra.Command{
	Use:           "create NAME PARENT TAG",
	Short:         "Create a VLAN on a parent device",
	Args:          cobra.ExactArgs(3),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, parent, tag, err := vlanArgs(args)
		if err != nil {
			return err
		}
		ns, err := newNetworkSetup()
		if err != nil {
			return err
		}
		v, err := ns.CreateVLAN(cmd.Context(), name, parent, tag)
		if err != nil {
			return err
		}
		log.WithField("vlan", v.Name).Infof("Created tag %d on %s", v.Tag, v.Parent)
		return nil
	},
}

var vlanDeleteCmd = &cobra.Command{
	Use:           "delete NAME PARENT TAG",
	Aliases:       []string{"rm"},
	Short:         "Delete a VLAN",
	Args:          cobra.ExactArgs(3),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, parent, tag, err := vlanArgs(args)
		if err != nil {
			return err
		}
		ns, err := newNetworkSetup()
		if err != nil {
			return err
		}
		if err := ns.DeleteVLAN(cmd.Context(), networksetup.VLAN{Name: name, Parent: parent, Tag: tag}); err != nil {
			return err
		}
		log.WithField("vlan", name).Info("Deleted")
		return nil
	},
}
