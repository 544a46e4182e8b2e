package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Rancor38/Jot-Down/internal/app"
)

// Version is set during build with -ldflags
var version = "dev"

var errNotTerminal = errors.New("jotdown needs a terminal; use 'jotdown render' or 'jotdown dump' for pipes")

type rootFlags struct {
	backend string
	debug   bool
	logFile string
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	root := &cobra.Command{
		Use:   "jotdown [FILE]",
		Short: "Line-unit markdown notes in the terminal",
		Long: `Jot Down edits a markdown file one line at a time. Idle lines show rendered
markup, the line being edited shows its raw text, and lines can be selected,
batch-edited and reordered with the mouse. Changes are saved automatically.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				return errNotTerminal
			}
			opts := app.Options{
				Backend: flags.backend,
				Debug:   flags.debug,
				LogFile: flags.logFile,
			}
			if len(args) == 1 {
				opts.Path = args[0]
			}
			return app.New(opts).Run()
		},
	}
	root.PersistentFlags().StringVar(&flags.backend, "backend", "", "storage backend: file or bolt (default from config)")
	root.Flags().BoolVar(&flags.debug, "debug", false, "log at debug level")
	root.Flags().StringVar(&flags.logFile, "log", "", "log file (default ~/.config/jotdown/jotdown.log)")

	root.AddCommand(
		newRenderCmd(&flags),
		newDumpCmd(&flags),
		newServeCmd(&flags),
		newExportCmd(&flags),
		newListCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number of jotdown",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "jotdown version %s\n", version)
			},
		},
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "jotdown:", err)
		os.Exit(1)
	}
}
