// Package cli implements the dompdf command-line interface.
//
// The convert command loads a page in a headless browser and turns the
// children of one element into a PDF, one A4 page per child. The info
// command inspects a generated PDF.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the dompdf CLI with the given arguments.
func Execute(ctx context.Context, args []string) error {
	root := newRootCmd(os.Stdout, os.Stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "dompdf",
		Short:         "Capture the children of a web page element as a multi-page PDF",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(stderr, level)))
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate(fmt.Sprintf("dompdf %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newConvertCmd())
	root.AddCommand(newInfoCmd())
	return root
}
