// Command dashctl administers the shop backend from a terminal: it keeps an
// admin session on disk (or in Redis) and exposes the dashboard operations as
// subcommands.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	a := newApp(os.Stdout, os.Stderr)
	if err := a.rootCmd().Execute(); err != nil {
		var reported *reportedError
		if errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, reported.msg)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
