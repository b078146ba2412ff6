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
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/blacktop/darwinist/internal/colors"
	"github.com/blacktop/darwinist/internal/table"
	"github.com/blacktop/darwinist/pkg/application"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(appsCmd)

	appsCmd.Flags().IntP("depth", "d", application.DefaultDepth, "Directory levels to search")
	viper.BindPFlag("apps.depth", appsCmd.Flags().Lookup("depth"))
}

// appsCmd represents the apps command
var appsCmd = &cobra.Command{
	Use:   "apps [DIR|APP]",
	Short: "List application bundles and their versions",
	Example: heredoc.Doc(`
		# Everything in /Applications
		$ darwinist apps

		# One bundle
		$ darwinist apps /System/Applications/Calculator.app -o json`),
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := application.DefaultDir
		if len(args) > 0 {
			dir = args[0]
		}

		var apps []*application.Application
		if app, err := application.Open(dir); err == nil {
			apps = append(apps, app)
		} else if apps, err = application.Find(dir, viper.GetInt("apps.depth")); err != nil {
			return err
		}

		return printResult(apps, func() *table.Table {
			t := table.New("NAME", "BUNDLE ID", "VERSION", "PATH")
			for _, app := range apps {
				t.Append(colors.Name(app.Name()), app.BundleID(), app.Version(), homeRelative(app.Path))
			}
			return t
		})
	},
}
