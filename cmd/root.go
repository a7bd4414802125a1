/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"github.com/mitchellh/go-homedir"
	"github.com/rotblauer/trajd/common"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"log/slog"
	"os"
	"strings"
)

var optConfigFile string
var optVerbosity int

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "trajd",
	Short: "Assemble trajectories from streams of geolocated samples",
	Long: `trajd cuts interleaved streams of timestamped positions into trajectories,
one per continuous movement of each object.

Samples are newline-delimited GeoJSON point features, keyed by properties.Name
and timed by properties.UnixTime (or properties.Time, RFC3339).

Every flag can also be set with a TRAJD_ prefixed environment variable
(eg. TRAJD_SEPARATION_TIME=10m), or in a config file (--config).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	pFlags := rootCmd.PersistentFlags()
	pFlags.StringVar(&optConfigFile, "config", "", "Config file (default is $HOME/.trajd/config.yaml, if present)")
	pFlags.IntVar(&optVerbosity, "verbosity", int(slog.LevelInfo),
		fmt.Sprintf("Log level (%d=debug, %d=info, %d=warn, %d=error)",
			slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError))
}

// initConfig reads in the config file and ENV variables, if set,
// and binds them to the command's flags.
func initConfig(cmd *cobra.Command) error {
	v := viper.New()
	if optConfigFile != "" {
		path, err := homedir.Expand(optConfigFile)
		if err != nil {
			return err
		}
		v.SetConfigFile(path)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return err
		}
		v.AddConfigPath(home + "/.trajd")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("TRAJD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if optConfigFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("config file: %w", err)
		}
	} else {
		slog.Debug("Using config file", "file", v.ConfigFileUsed())
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Apply the config to flags not set on the command line,
	// so that commands can read their flag vars as usual.
	var applyErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if applyErr != nil || f.Changed || !v.IsSet(f.Name) {
			return
		}
		if err := cmd.Flags().Set(f.Name, v.GetString(f.Name)); err != nil {
			applyErr = fmt.Errorf("config %s: %w", f.Name, err)
		}
	})
	return applyErr
}

// setDefaultSlog sets the default logger level from --verbosity.
// Logs go to stderr, leaving stdout for data.
func setDefaultSlog(cmd *cobra.Command, args []string) {
	common.SlogSetDefault(os.Stderr, slog.Level(optVerbosity))
	slog.Debug("Command", "name", cmd.Name(), "args", args)
}
