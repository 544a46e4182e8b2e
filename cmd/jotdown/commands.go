package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/Rancor38/Jot-Down/internal/app"
	"github.com/Rancor38/Jot-Down/internal/config"
	"github.com/Rancor38/Jot-Down/internal/document"
	"github.com/Rancor38/Jot-Down/internal/logger"
	"github.com/Rancor38/Jot-Down/internal/markdown"
	"github.com/Rancor38/Jot-Down/internal/server"
	"github.com/Rancor38/Jot-Down/internal/store"
	"github.com/Rancor38/Jot-Down/internal/watch"
)

// withStore loads config, opens the store for path and runs fn with it.
func withStore(flags *rootFlags, path string, fn func(cfg config.Config, st store.Store) error) (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	abs, err := app.NotesPath(cfg, path)
	if err != nil {
		return err
	}
	st, err := app.OpenStore(cfg, abs, flags.backend)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, st.Close()) }()
	return fn(cfg, st)
}

func newRenderCmd(flags *rootFlags) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Print every unit through the markdown renderer",
		Long: `Render prints one rendered line per unit. On a terminal the markup is shown
as styled text; otherwise the raw HTML fragments are written.

Examples:
  jotdown render notes.md
  jotdown render notes.md --format html > notes.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = "html"
				if f, ok := cmd.OutOrStdout().(*os.File); ok && isatty.IsTerminal(f.Fd()) {
					format = "ansi"
				}
			}
			if format != "html" && format != "ansi" {
				return fmt.Errorf("unsupported render format: %s", format)
			}
			return withStore(flags, args[0], func(cfg config.Config, st store.Store) error {
				text, err := st.Load(cmd.Context())
				if err != nil {
					return err
				}
				return renderUnits(cmd.OutOrStdout(), text, cfg.Editor.Placeholder, format == "ansi")
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "html or ansi (default ansi on a terminal)")
	return cmd
}

func renderUnits(w io.Writer, text, placeholder string, ansi bool) error {
	doc := document.Deserialize(text)
	opts := markdown.Options{Sole: doc.Len() == 1, Placeholder: placeholder}
	r := newANSIRenderer(w)
	for _, u := range doc.Units() {
		line := markdown.Render(u.Content, opts)
		if ansi {
			line = toANSI(r, line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// newANSIRenderer styles for a plain ANSI terminal whatever w turns out to
// be; the caller has already decided that styling is wanted.
func newANSIRenderer(w io.Writer) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.ANSI)
	return r
}

var tagPattern = regexp.MustCompile(`<(/?)([a-z0-9]+)([^>]*)>`)

var startAttr = regexp.MustCompile(`<ol start="(\d+)"`)

type styleFunc func(lipgloss.Style) lipgloss.Style

func bold(s lipgloss.Style) lipgloss.Style  { return s.Bold(true) }
func faint(s lipgloss.Style) lipgloss.Style { return s.Faint(true) }

var tagStyles = map[string]styleFunc{
	"strong": bold, "h1": bold, "h2": bold, "h3": bold, "h4": bold, "h5": bold, "h6": bold,
	"em":         func(s lipgloss.Style) lipgloss.Style { return s.Italic(true) },
	"u":          func(s lipgloss.Style) lipgloss.Style { return s.Underline(true) },
	"del":        func(s lipgloss.Style) lipgloss.Style { return s.Strikethrough(true) },
	"mark":       func(s lipgloss.Style) lipgloss.Style { return s.Reverse(true) },
	"a":          func(s lipgloss.Style) lipgloss.Style { return s.Underline(true).Foreground(lipgloss.Color("4")) },
	"code":       faint,
	"blockquote": faint,
	"span":       faint,
}

// toANSI turns renderer markup into styled terminal text. Tags without a
// style are dropped; list markers and rules become plain glyphs.
func toANSI(r *lipgloss.Renderer, html string) string {
	var (
		b     strings.Builder
		stack []styleFunc
	)
	emit := func(text string) {
		if text == "" {
			return
		}
		if len(stack) == 0 {
			b.WriteString(text)
			return
		}
		st := r.NewStyle()
		for _, f := range stack {
			st = f(st)
		}
		b.WriteString(st.Render(text))
	}
	last := 0
	for _, m := range tagPattern.FindAllStringSubmatchIndex(html, -1) {
		emit(html[last:m[0]])
		last = m[1]
		closing := html[m[2]:m[3]] == "/"
		tag := html[m[4]:m[5]]
		switch {
		case tag == "hr":
			b.WriteString(strings.Repeat("─", 40))
		case tag == "li" && !closing:
			if start := startAttr.FindStringSubmatch(html[:m[0]]); start != nil {
				b.WriteString(start[1] + ". ")
				continue
			}
			b.WriteString("• ")
		case tagStyles[tag] != nil:
			if !closing {
				stack = append(stack, tagStyles[tag])
			} else if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	emit(html[last:])
	return b.String()
}

// dumpUnit is one unit in `jotdown dump` output.
type dumpUnit struct {
	Index   int    `json:"index" yaml:"index"`
	Content string `json:"content" yaml:"content"`
}

type dumpResult struct {
	Location string     `json:"location" yaml:"location"`
	Modified *time.Time `json:"modified,omitempty" yaml:"modified,omitempty"`
	Count    int        `json:"count" yaml:"count"`
	Units    []dumpUnit `json:"units" yaml:"units"`
}

func newDumpCmd(flags *rootFlags) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "List the units of a notes file as YAML or JSON",
		Example: `  jotdown dump notes.md
  jotdown dump notes.md -o json
  jotdown dump notes.md --backend bolt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(flags, args[0], func(cfg config.Config, st store.Store) error {
				text, err := st.Load(cmd.Context())
				if err != nil {
					return err
				}
				res := dumpResult{Location: st.Location()}
				if bs, ok := st.(*store.BoltStore); ok {
					t, ok, err := bs.Modified()
					if err != nil {
						return err
					}
					if ok {
						res.Modified = &t
					}
				}
				for i, c := range document.Deserialize(text).Contents() {
					res.Units = append(res.Units, dumpUnit{Index: i, Content: c})
				}
				res.Count = len(res.Units)
				return writeStructured(cmd.OutOrStdout(), format, res)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "output format: yaml or json")
	return cmd
}

func writeStructured(w io.Writer, format string, data interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported output format: %s", format)
}

func newExportCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE DEST",
		Short: "Write the stored notes to a markdown file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(flags, args[0], func(cfg config.Config, st store.Store) error {
				text, err := st.Load(cmd.Context())
				if err != nil {
					return err
				}
				if err := store.Export(args[1], text); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d units to %s\n", document.Deserialize(text).Len(), args[1])
				return nil
			})
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the documents kept in the bolt database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			path, err := cfg.Storage.ResolveBoltPath()
			if err != nil {
				return err
			}
			bs, err := store.OpenBolt(path, "")
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, bs.Close()) }()
			names, err := bs.Names()
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve FILE",
		Short: "Serve a read-only browser preview that refreshes on change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Init(logger.Options{Debug: flags.debug, Path: flags.logFile}); err != nil {
				return err
			}
			defer logger.Close()
			return withStore(flags, args[0], func(cfg config.Config, st store.Store) error {
				if addr == "" {
					addr = cfg.Server.Addr
				}
				return serve(cmd, cfg, st, addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "log at debug level")
	cmd.Flags().StringVar(&flags.logFile, "log", "", "log file")
	return cmd
}

func serve(cmd *cobra.Command, cfg config.Config, st store.Store, addr string) (err error) {
	srv, err := server.New(server.Config{
		Store:       st,
		Title:       filepath.Base(st.Location()),
		Placeholder: cfg.Editor.Placeholder,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, ok := st.(*store.FileStore); ok && cfg.Storage.WatchEnabled() {
		w, werr := watch.New(st.Location())
		if werr != nil {
			return werr
		}
		defer func() { err = multierr.Append(err, w.Close()) }()
		go srv.Forward(ctx, w.Changes())
	}

	hs := &http.Server{Addr: addr, Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()
	fmt.Fprintf(cmd.OutOrStdout(), "serving %s on http://%s\n", st.Location(), addr)
	logger.Info("serving", "addr", addr, "path", st.Location())

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return hs.Shutdown(shutdownCtx)
}
