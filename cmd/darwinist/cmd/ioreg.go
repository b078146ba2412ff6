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

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/blacktop/darwinist/internal/colors"
	"github.com/blacktop/darwinist/internal/table"
	"github.com/blacktop/darwinist/pkg/ioreg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(ioregCmd)

	ioregCmd.Flags().StringP("class", "c", "", "Only show entries of this class")
	ioregCmd.Flags().StringP("key", "k", "", "Only print this property")
	viper.BindPFlag("ioreg.class", ioregCmd.Flags().Lookup("class"))
	viper.BindPFlag("ioreg.key", ioregCmd.Flags().Lookup("key"))
}

// ioregCmd represents the ioreg command
var ioregCmd = &cobra.Command{
	Use:   "ioreg [NAME]",
	Short: "Show I/O Registry entries",
	Example: heredoc.Doc(`
		# Show the battery registry entry
		$ darwinist ioreg AppleSmartBattery

		# Print one property of every matching entry
		$ darwinist ioreg AppleSmartBattery --key CycleCount

		# Whole registry, filtered by class
		$ darwinist ioreg --class IOMedia`),
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, _, err := newRunner()
		if err != nil {
			return err
		}

		var name string
		if len(args) > 0 {
			name = args[0]
		}
		entries, err := ioreg.Load(cmd.Context(), r, name)
		if err != nil {
			return err
		}
		if class := viper.GetString("ioreg.class"); class != "" {
			entries = ioreg.Filter(entries, class)
		}
		if len(entries) == 0 {
			return fmt.Errorf("no registry entries found")
		}

		if key := viper.GetString("ioreg.key"); key != "" {
			values := make(map[string]string)
			for _, e := range entries {
				if e.Has(key) {
					values[e.Name] = e.String(key)
				}
			}
			return printResult(values, func() *table.Table {
				t := table.New("ENTRY", key)
				for _, e := range entries {
					if v, ok := values[e.Name]; ok {
						t.Append(e.Name, v)
					}
				}
				return t
			})
		}

		return printResult(entries, func() *table.Table {
			t := table.New("ENTRY", "PROPERTY", "VALUE")
			for _, e := range entries {
				t.Append(colors.Name(e.Name), colors.Faint(e.Class), "")
				keys := make([]string, 0, len(e.Properties))
				for k := range e.Properties {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					t.Append("", k, e.Properties[k])
				}
			}
			return t
		})
	},
}
