// dompdf captures the children of a web page element as a multi-page PDF.
//
// Usage:
//
//	dompdf convert [flags] <file|url|->
//	dompdf info [flags] <file.pdf>
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/porticus-lab/go-dom-pdf/internal/cli"
)

// Set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	verbose := slices.Contains(os.Args[1:], "-v") || slices.Contains(os.Args[1:], "--verbose")
	// maxprocs.Set only fails on an invalid GOMAXPROCS, where runtime defaults apply.
	if verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...any) {}))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cli.SetVersion(version, commit, date)
	if err := cli.Execute(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
