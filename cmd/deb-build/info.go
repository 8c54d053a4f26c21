package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/etnz/deb-builder/deb"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info file.deb",
	Short: "Print the control file and the content of a package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		pkg, err := deb.ReadPackage(f)
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprint(out, pkg.Control.String())
		fmt.Fprintln(out)
		for _, e := range pkg.Entries {
			fmt.Fprintf(out, "%s %s/%s %8d %s\n", fs.FileMode(e.Mode).Perm(), e.User, e.Group, e.Size, e.Name)
		}
		return nil
	},
}

func init() {
	Root.AddCommand(infoCmd)
}
