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

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/blacktop/darwinist/internal/colors"
	"github.com/blacktop/darwinist/internal/table"
	"github.com/blacktop/darwinist/pkg/sdef"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(sdefCmd)

	sdefCmd.Flags().BoolP("terms", "t", false, "Print the flattened terms table")
	viper.BindPFlag("sdef.terms", sdefCmd.Flags().Lookup("terms"))
}

// sdefCmd represents the sdef command
var sdefCmd = &cobra.Command{
	Use:   "sdef APP",
	Short: "Show the scripting dictionary of an application",
	Example: heredoc.Doc(`
		# Commands and classes Finder exposes to Apple Events
		$ darwinist sdef /System/Library/CoreServices/Finder.app

		# Terms table with four character codes
		$ darwinist sdef /Applications/Safari.app --terms`),
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, _, err := newRunner()
		if err != nil {
			return err
		}
		dict, err := sdef.Load(cmd.Context(), r, args[0])
		if err != nil {
			return err
		}

		if viper.GetBool("sdef.terms") {
			terms := dict.Terms(args[0])
			if structuredOutput() {
				return printResult(terms, nil)
			}
			fmt.Print(terms.String())
			return nil
		}

		return printResult(dict, func() *table.Table {
			t := table.New("SUITE", "KIND", "NAME", "CODE", "DESCRIPTION")
			for _, s := range dict.Suites {
				t.Append(colors.Name(s.Name), "suite", "", s.Code, s.Description)
				for _, c := range s.Commands {
					t.Append("", "command", c.Name, c.Code, c.Description)
				}
				for _, c := range s.Classes {
					t.Append("", "class", c.Name, c.Code, c.Description)
				}
				for _, e := range s.Enumerations {
					t.Append("", "enumeration", e.Name, e.Code, "")
				}
			}
			return t
		})
	},
}
