package main

import (
	"fmt"
	"log/slog"

	"github.com/etnz/deb-builder/deb"
	"github.com/etnz/deb-builder/manifest"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build [definition...]",
	Short: "Build the packages described by definition files (default deb.yaml)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"deb.yaml"}
		}
		defines, err := cmd.Flags().GetStringToString("define")
		if err != nil {
			return err
		}

		l := slog.Default()
		env := loadEnvironment()
		fs := afero.NewOsFs()
		for _, path := range args {
			pkg, err := manifest.Load(fs, path, defines)
			if err != nil {
				return err
			}
			res, err := pkg.Build(manifest.Options{
				Maintainer: env.Maintainer,
				Passphrase: env.Passphrase,
				Logger:     l,
				Listener:   logEvents(l),
			})
			if err != nil {
				return fmt.Errorf("building %s: %w", path, err)
			}

			l.Info("package built", "path", res.Output, "sha256", res.Package.Value(deb.FieldSHA256))
			fmt.Fprintln(cmd.OutOrStdout(), res.Output)
			if res.ChangesOutput != "" {
				fmt.Fprintln(cmd.OutOrStdout(), res.ChangesOutput)
			}
		}
		return nil
	},
}

func init() {
	Root.AddCommand(buildCmd)

	buildCmd.Flags().StringToStringP("define", "D", nil, "define a variable, overriding the definition file (KEY=VALUE)")
}
