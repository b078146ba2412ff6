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

	"github.com/blacktop/darwinist/internal/colors"
	"github.com/blacktop/darwinist/internal/table"
	"github.com/blacktop/darwinist/pkg/ifconfig"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(ifconfigCmd)

	ifconfigCmd.Flags().BoolP("up", "u", false, "Only show interfaces that are up")
	viper.BindPFlag("ifconfig.up", ifconfigCmd.Flags().Lookup("up"))
}

// ifconfigCmd represents the ifconfig command
var ifconfigCmd = &cobra.Command{
	Use:           "ifconfig [INTERFACE]",
	Short:         "Show network interfaces and addresses",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, _, err := newRunner()
		if err != nil {
			return err
		}
		ifaces, err := ifconfig.Load(cmd.Context(), r)
		if err != nil {
			return err
		}
		if len(args) > 0 {
			iface, ok := ifconfig.Find(ifaces, args[0])
			if !ok {
				return fmt.Errorf("no interface named %s", args[0])
			}
			ifaces = []*ifconfig.Interface{iface}
		}
		if viper.GetBool("ifconfig.up") {
			var up []*ifconfig.Interface
			for _, iface := range ifaces {
				if iface.Up() {
					up = append(up, iface)
				}
			}
			ifaces = up
		}

		return printResult(ifaces, func() *table.Table {
			t := table.New("NAME", "STATUS", "MTU", "MAC", "ADDRESSES")
			for _, iface := range ifaces {
				var addrs []string
				for _, a := range iface.Addresses {
					addrs = append(addrs, a.String())
				}
				mac := ""
				if iface.MAC != nil {
					mac = iface.MAC.String()
				}
				t.Append(colors.Name(iface.Name), colors.Status(iface.Status()),
					fmt.Sprintf("%d", iface.MTU), mac, strings.Join(addrs, " "))
			}
			return t
		})
	},
}
