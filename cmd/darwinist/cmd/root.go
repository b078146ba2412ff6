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
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	clihander "github.com/apex/log/handlers/cli"
	"github.com/blacktop/darwinist/internal/colors"
	"github.com/blacktop/darwinist/internal/command"
	"github.com/blacktop/darwinist/internal/config"
	"github.com/blacktop/darwinist/internal/output"
	"github.com/blacktop/darwinist/internal/table"
	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	// Verbose boolean flag for verbose logging
	Verbose bool
	// AppVersion stores the plugin's version
	AppVersion string
	// AppBuildTime stores the plugin's build time
	AppBuildTime string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "darwinist",
	Short: "Query and manage macOS through its command line tools",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if viper.GetBool("verbose") {
			log.SetLevel(log.DebugLevel)
		}
		switch {
		case viper.GetBool("no-color"):
			colors.Init(new(bool))
		case viper.IsSet("color"):
			on := viper.GetBool("color")
			colors.Init(&on)
		default:
			colors.Init(nil)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = strings.TrimSpace(AppVersion)
	if err := rootCmd.Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func init() {
	log.SetHandler(clihander.Default)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/darwinist/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "V", false, "verbose output")
	rootCmd.PersistentFlags().Bool("color", false, "force colorized output")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "output format (table|json|yaml)")
	rootCmd.PersistentFlags().String("jq", "", "jq expression applied to JSON/YAML output")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("color", rootCmd.PersistentFlags().Lookup("color"))
	viper.BindPFlag("no-color", rootCmd.PersistentFlags().Lookup("no-color"))
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("jq", rootCmd.PersistentFlags().Lookup("jq"))
	// Settings
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := config.Dir()
		cobra.CheckErr(err)

		viper.AddConfigPath(dir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("darwinist")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("timeout", config.DefaultTimeout)

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.WithField("path", viper.ConfigFileUsed()).Debug("Using config file")
	}
}

// newRunner builds the command runner from the loaded config.
func newRunner() (*command.Exec, *config.Config, error) {
	conf, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	return command.NewExec(conf.Timeout, conf.Tools), conf, nil
}

func newPrinter() (*output.Printer, error) {
	format, err := output.ParseFormat(viper.GetString("output"))
	if err != nil {
		return nil, err
	}
	return output.New(os.Stdout, format, viper.GetString("jq"))
}

func structuredOutput() bool {
	p, err := newPrinter()
	return err == nil && p.Structured()
}

// printResult prints v with the --output format, rendering tbl for tables.
func printResult(v any, tbl func() *table.Table) error {
	p, err := newPrinter()
	if err != nil {
		return err
	}
	var render func(io.Writer) error
	if tbl != nil {
		render = func(w io.Writer) error {
			t := tbl()
			if viper.GetBool("color") && !viper.GetBool("no-color") {
				t.SetStyle(table.ColorStyle())
			}
			_, err := fmt.Fprint(w, t.Render())
			return err
		}
	}
	return p.Print(v, render)
}

// spin runs fn behind a spinner when stderr is a terminal.
func spin(msg string, fn func() error) error {
	s := spinner.New(spinner.CharSets[38], 100*time.Millisecond, spinner.WithWriterFile(os.Stderr))
	s.Prefix = color.BlueString("   • %s ", msg)
	s.Start()
	err := fn()
	s.Stop()
	return err
}

func homeRelative(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(home, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.Join("~", rel)
	}
	return path
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
