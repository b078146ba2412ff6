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
	"sort"

	"github.com/blacktop/darwinist/internal/colors"
	"github.com/blacktop/darwinist/internal/table"
	"github.com/blacktop/darwinist/pkg/airport"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(wifiCmd)
	wifiCmd.AddCommand(wifiStatusCmd)
	wifiCmd.AddCommand(wifiScanCmd)

	wifiScanCmd.Flags().BoolP("strongest", "s", false, "Strongest signal first")
	viper.BindPFlag("wifi.scan.strongest", wifiScanCmd.Flags().Lookup("strongest"))
}

// wifiCmd represents the wifi command
var wifiCmd = &cobra.Command{
	Use:   "wifi",
	Short: "Show Wi-Fi status and nearby networks",
	Args:  cobra.NoArgs,
}

func signal(rssi int) string {
	s := fmt.Sprintf("%d dBm", rssi)
	switch {
	case rssi >= -60:
		return colors.Good(s)
	case rssi >= -75:
		return colors.Warn(s)
	default:
		return colors.Bad(s)
	}
}

var wifiStatusCmd = &cobra.Command{
	Use:           "status",
	Short:         "Show the current Wi-Fi link",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, _, err := newRunner()
		if err != nil {
			return err
		}
		st, err := airport.GetStatus(cmd.Context(), r)
		if err != nil {
			return err
		}
		return printResult(st, func() *table.Table {
			t := table.New("FIELD", "VALUE")
			keys := make([]string, 0, len(st))
			for k := range st {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				v := st[k]
				if k == "agrCtlRSSI" {
					if rssi, ok := st.RSSI(); ok {
						v = signal(rssi)
					}
				}
				t.Append(k, v)
			}
			return t
		})
	},
}

var wifiScanCmd = &cobra.Command{
	Use:           "scan [SSID]",
	Short:         "Scan for nearby networks",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, _, err := newRunner()
		if err != nil {
			return err
		}
		var ssid string
		if len(args) > 0 {
			ssid = args[0]
		}
		var nets []airport.Network
		if err := spin("Scanning...", func() (err error) {
			nets, err = airport.Scan(cmd.Context(), r, ssid)
			return err
		}); err != nil {
			return err
		}
		if viper.GetBool("wifi.scan.strongest") {
			for i, j := 0, len(nets)-1; i < j; i, j = i+1, j-1 {
				nets[i], nets[j] = nets[j], nets[i]
			}
		}
		return printResult(nets, func() *table.Table {
			t := table.New("SSID", "BSSID", "RSSI", "CHANNEL")
			t.AlignRight(2, 3)
			for _, n := range nets {
				t.Append(colors.Name(n.SSID), n.BSSID, signal(n.RSSI), fmt.Sprintf("%d", n.Channel))
			}
			return t
		})
	},
}
