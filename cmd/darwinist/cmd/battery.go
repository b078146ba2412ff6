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

	"github.com/blacktop/darwinist/internal/colors"
	"github.com/blacktop/darwinist/internal/table"
	"github.com/blacktop/darwinist/pkg/battery"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(batteryCmd)
}

// batteryCmd represents the battery command
var batteryCmd = &cobra.Command{
	Use:           "battery",
	Short:         "Show battery health and charge",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, _, err := newRunner()
		if err != nil {
			return err
		}

		batteries, err := battery.Load(cmd.Context(), r)
		if err != nil {
			return err
		}
		if len(batteries) == 0 {
			return fmt.Errorf("no battery found")
		}

		return printResult(batteries, func() *table.Table {
			t := table.New("NAME", "STATUS", "CHARGE", "CAPACITY", "CYCLES", "TEMP", "VOLTAGE", "MADE")
			t.AlignRight(2, 3, 4, 5, 6)
			for _, b := range batteries {
				t.Append(
					b.DeviceName,
					colors.Status(b.Status()),
					percent(b.Percent),
					fmt.Sprintf("%d/%d mAh", b.CurrentCapacity, b.MaxCapacity),
					fmt.Sprintf("%d", b.CycleCount),
					fmt.Sprintf("%.1f°C", b.Temperature),
					fmt.Sprintf("%.2fV", b.Voltage),
					b.ManufactureDate,
				)
			}
			return t
		})
	},
}

func percent(p int) string {
	if p < 0 {
		return "?"
	}
	return fmt.Sprintf("%d%%", p)
}
