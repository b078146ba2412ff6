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
	"sort"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/apex/log"
	"github.com/blacktop/darwinist/internal/colors"
	"github.com/blacktop/darwinist/internal/table"
	"github.com/blacktop/darwinist/pkg/networksetup"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(netCmd)
	netCmd.AddCommand(netServicesCmd)
	netCmd.AddCommand(netInfoCmd)
	netCmd.AddCommand(netMACCmd)
	netCmd.AddCommand(netDHCPCmd)
	netCmd.AddCommand(netManualCmd)
	netCmd.AddCommand(netBootPCmd)

	netDHCPCmd.Flags().String("client-id", "", "DHCP client ID to send")
	viper.BindPFlag("net.dhcp.client-id", netDHCPCmd.Flags().Lookup("client-id"))
}

// netCmd represents the net command
var netCmd = &cobra.Command{
	Use:   "net",
	Short: "Configure network services with networksetup",
	Args:  cobra.NoArgs,
}

func newNetworkSetup() (*networksetup.Client, error) {
	r, _, err := newRunner()
	if err != nil {
		return nil, err
	}
	return networksetup.New(r), nil
}

var netServicesCmd = &cobra.Command{
	Use:           "services",
	Short:         "List network services",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ns, err := newNetworkSetup()
		if err != nil {
			return err
		}
		services, err := ns.Services(cmd.Context())
		if err != nil {
			return err
		}
		return printResult(services, func() *table.Table {
			t := table.New("SERVICE", "ENABLED")
			for _, s := range services {
				t.Append(colors.Name(s.Name), colors.Status(yesNo(!s.Disabled)))
			}
			return t
		})
	},
}

var netInfoCmd = &cobra.Command{
	Use:           "info SERVICE",
	Short:         "Show the IPv4 configuration of a service",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ns, err := newNetworkSetup()
		if err != nil {
			return err
		}
		info, err := ns.Info(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printResult(info, func() *table.Table {
			t := table.New("FIELD", "VALUE")
			t.Append("Mode", colors.Bold(info.Mode))
			keys := make([]string, 0, len(info.Fields))
			for k := range info.Fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				t.Append(k, info.Fields[k])
			}
			return t
		})
	},
}

var netMACCmd = &cobra.Command{
	Use:           "mac SERVICE",
	Short:         "Show the hardware address of a service",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ns, err := newNetworkSetup()
		if err != nil {
			return err
		}
		mac, port, err := ns.MACAddress(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		addr := ""
		if mac != nil {
			addr = mac.String()
		}
		res := map[string]string{"mac": addr, "port": port}
		return printResult(res, func() *table.Table {
			t := table.New("PORT", "MAC")
			t.Append(port, addr)
			return t
		})
	},
}

var netDHCPCmd = &cobra.Command{
	Use:           "dhcp SERVICE",
	Short:         "Configure a service with DHCP",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ns, err := newNetworkSetup()
		if err != nil {
			return err
		}
		if err := ns.SetDHCP(cmd.Context(), args[0], viper.GetString("net.dhcp.client-id")); err != nil {
			return err
		}
		log.WithField("service", args[0]).Info("Using DHCP")
		return nil
	},
}

var netManualCmd = &cobra.Command{
	Use:   "manual SERVICE IP NETMASK ROUTER",
	Short: "Configure a static IPv4 address",
	Example: heredoc.Doc(`
		$ darwinist net manual Ethernet 192.168.1.50 255.255.255.0 192.168.1.1`),
	Args:          cobra.ExactArgs(4),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ns, err := newNetworkSetup()
		if err != nil {
			return err
		}
		if err := ns.SetManual(cmd.Context(), args[0], args[1], args[2], args[3]); err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"service": args[0],
			"ip":      args[1],
			"router":  args[3],
		}).Info("Using manual configuration")
		return nil
	},
}

var netBootPCmd = &cobra.Command{
	Use:           "bootp SERVICE",
	Short:         "Configure a service with BOOTP",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ns, err := newNetworkSetup()
		if err != nil {
			return err
		}
		if err := ns.SetBootP(cmd.Context(), args[0]); err != nil {
			return err
		}
		log.WithField("service", args[0]).Info("Using BOOTP")
		return nil
	},
}
