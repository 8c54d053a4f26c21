package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/etnz/deb-builder/deb"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Root represents the base command when called without any subcommands
var Root = &cobra.Command{
	Use:   "deb-build",
	Short: "Build Debian packages from package definition files",

	// Dont show CLI usage on error.
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			setLogLevel(slog.LevelDebug)
		}
	},
}

var programLevel = new(slog.LevelVar)

func setLogLevel(l slog.Level) {
	programLevel.Set(l)
}

func init() {
	l := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      programLevel,
			TimeFormat: time.Kitchen,
		}),
	)
	slog.SetDefault(l)

	Root.PersistentFlags().Bool("debug", false, "enable verbose debug logs")
}

// environment is the configuration read from environment variables.
type environment struct {
	Maintainer deb.Maintainer
	Passphrase string
}

// loadEnvironment reads DEBFULLNAME, DEBEMAIL and DEB_SIGN_PASSPHRASE.
func loadEnvironment() environment {
	v := viper.New()
	v.AutomaticEnv()
	_ = v.BindEnv("passphrase", "DEB_SIGN_PASSPHRASE")
	return environment{
		Maintainer: deb.Maintainer{
			Name:  v.GetString("DEBFULLNAME"),
			Email: v.GetString("DEBEMAIL"),
		},
		Passphrase: v.GetString("passphrase"),
	}
}

// logEvents turns build events into debug logs.
func logEvents(l *slog.Logger) deb.Listener {
	return func(e fmt.Stringer) {
		l.Debug("event", "event", e.String())
	}
}
