// Command deb-build builds Debian packages and .changes documents from
// package definition files.
package main

import (
	"log/slog"
	"os"
)

func main() {
	if err := Root.Execute(); err != nil {
		slog.Error("deb-build failed", "err", err)
		os.Exit(1)
	}
}
