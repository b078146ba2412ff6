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
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/blacktop/darwinist/pkg/notify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(notifyCmd)

	notifyCmd.Flags().StringP("title", "t", notify.AppName, "Notification title")
	notifyCmd.Flags().StringP("subtitle", "s", "", "Notification subtitle")
	viper.BindPFlag("notify.title", notifyCmd.Flags().Lookup("title"))
	viper.BindPFlag("notify.subtitle", notifyCmd.Flags().Lookup("subtitle"))
}

// notifyCmd represents the notify command
var notifyCmd = &cobra.Command{
	Use:   "notify TEXT...",
	Short: "Post a desktop notification",
	Example: heredoc.Doc(`
		# Tell me when a long build is done
		$ make && darwinist notify --title Build --subtitle passed "all targets built"`),
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return notify.Notify(
			viper.GetString("notify.title"),
			viper.GetString("notify.subtitle"),
			strings.Join(args, " "),
		)
	},
}
