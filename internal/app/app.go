// Package app wires configuration, storage and the terminal editor together
// and runs the event loop.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/multierr"

	"github.com/Rancor38/Jot-Down/internal/autosave"
	"github.com/Rancor38/Jot-Down/internal/config"
	"github.com/Rancor38/Jot-Down/internal/editor"
	"github.com/Rancor38/Jot-Down/internal/gitinfo"
	"github.com/Rancor38/Jot-Down/internal/logger"
	"github.com/Rancor38/Jot-Down/internal/notebook"
	"github.com/Rancor38/Jot-Down/internal/session"
	"github.com/Rancor38/Jot-Down/internal/store"
	"github.com/Rancor38/Jot-Down/internal/watch"
)

const gitInterval = 2 * time.Second

// Options are the command-line choices for one run.
type Options struct {
	// Path is the notes file. Empty means the configured export name in the
	// working directory.
	Path string
	// Backend overrides the configured storage backend.
	Backend string
	Debug   bool
	LogFile string
}

// App is the top-level runtime for jotdown.
type App struct {
	opts Options
	// screen replaces the terminal in tests. It must already be initialised.
	screen tcell.Screen
}

func New(opts Options) *App {
	return &App{opts: opts}
}

// Interrupt payloads posted to the event loop by background goroutines.
type (
	externalChange struct{}
	saveFailed     struct{ err error }
)

// NotesPath resolves the file a run edits.
func NotesPath(cfg config.Config, path string) (string, error) {
	if path == "" {
		path = cfg.Editor.ExportName
	}
	if path == "" {
		path = "notes.md"
	}
	return filepath.Abs(path)
}

// OpenStore opens the storage backend for path. backend overrides the
// configured one when set.
func OpenStore(cfg config.Config, path, backend string) (store.Store, error) {
	if backend == "" {
		backend = cfg.Storage.Backend
	}
	boltPath, err := cfg.Storage.ResolveBoltPath()
	if err != nil {
		return nil, err
	}
	return store.Open(store.Options{Backend: backend, Path: path, BoltPath: boltPath})
}

func (a *App) Run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(logger.Options{Debug: a.opts.Debug, Path: a.opts.LogFile}); err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, logger.Close()) }()

	path, err := NotesPath(cfg, a.opts.Path)
	if err != nil {
		return err
	}
	st, err := OpenStore(cfg, path, a.opts.Backend)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, st.Close()) }()

	// A file that cannot be read is never replaced by an empty document.
	text, err := st.Load(context.Background())
	if err != nil {
		logger.Error("load failed", "op", "load", "path", st.Location(), "err", err)
		return err
	}

	s := a.screen
	if s == nil {
		if s, err = tcell.NewScreen(); err != nil {
			return err
		}
		if err := s.Init(); err != nil {
			return err
		}
	}
	s.EnableMouse()
	defer s.Fini()

	saver := autosave.New(st, cfg.Editor.AutosaveInterval(), func(err error) {
		_ = s.PostEvent(tcell.NewEventInterrupt(saveFailed{err}))
	})
	defer func() { err = multierr.Append(err, saver.Stop()) }()

	nb := notebook.Open(text, notebook.Options{HistorySize: cfg.Editor.HistorySize, Saver: saver})
	ed := editor.New(cfg, nb)
	ed.SetFile(path)
	ed.SetGitBranch(gitinfo.Branch(path))
	logger.Info("opened", "path", path, "backend", st.Location(), "units", nb.Doc().Len())

	if sm := openSession(); sm != nil {
		if fs, ok := sm.FileState(path); ok {
			ed.RestoreView(fs.Scroll, fs.Unit)
		}
		defer func() {
			scroll, unit := ed.ViewState()
			sm.SetFileState(path, session.FileState{Scroll: scroll, Unit: unit})
			err = multierr.Append(err, sm.Stop())
		}()
	}

	done := make(chan struct{})
	defer close(done)
	if w := a.startWatcher(cfg, st, s, done); w != nil {
		defer func() { err = multierr.Append(err, w.Close()) }()
	}

	r := &runner{ed: ed, store: st, saver: saver, gitPath: path}
	r.loop(s)
	return nil
}

func openSession() *session.Manager {
	p, err := session.DefaultPath()
	if err != nil {
		logger.Warn("session disabled", "err", err)
		return nil
	}
	sm, err := session.NewManager(p)
	if err != nil {
		logger.Warn("session disabled", "path", p, "err", err)
		return nil
	}
	return sm
}

// startWatcher reports external writes to the notes file as interrupts.
// Only the file backend has a file another program could edit.
func (a *App) startWatcher(cfg config.Config, st store.Store, s tcell.Screen, done <-chan struct{}) *watch.Watcher {
	if !cfg.Storage.WatchEnabled() {
		return nil
	}
	if _, ok := st.(*store.FileStore); !ok {
		return nil
	}
	w, err := watch.New(st.Location())
	if err != nil {
		logger.Warn("watch disabled", "path", st.Location(), "err", err)
		return nil
	}
	go func() {
		for {
			select {
			case <-w.Changes():
				_ = s.PostEvent(tcell.NewEventInterrupt(externalChange{}))
			case <-done:
				return
			}
		}
	}()
	return w
}

type runner struct {
	ed      *editor.Editor
	store   store.Store
	saver   *autosave.Saver
	gitPath string
	lastGit time.Time
}

func (r *runner) loop(s tcell.Screen) {
	r.lastGit = time.Now()
	r.draw(s)
	for {
		ev := s.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if !r.ed.HandleKey(ev) {
				return
			}
		case *tcell.EventMouse:
			r.ed.HandleMouse(ev)
		case *tcell.EventResize:
			s.Sync()
		case *tcell.EventInterrupt:
			r.interrupt(ev.Data())
		}
		if time.Since(r.lastGit) > gitInterval && gitinfo.Root(r.gitPath) != "" {
			r.lastGit = time.Now()
			r.ed.SetGitBranch(gitinfo.Branch(r.gitPath))
		}
		r.draw(s)
	}
}

// draw renders, then applies the work that waits for a drawn frame and
// renders again until nothing is left.
func (r *runner) draw(s tcell.Screen) {
	r.ed.Render(s)
	for r.ed.Settle() {
		r.ed.Render(s)
	}
}

func (r *runner) interrupt(data interface{}) {
	switch d := data.(type) {
	case externalChange:
		text, err := r.store.Load(context.Background())
		if err != nil {
			logger.Error("reload failed", "op", "load", "path", r.store.Location(), "err", err)
			r.ed.SetStatusMessage("reload failed: " + err.Error())
			return
		}
		if text == r.saver.Written() {
			return
		}
		logger.Info("external change", "path", r.store.Location())
		r.ed.ExternalChange(text)
	case saveFailed:
		r.ed.SetStatusMessage(fmt.Sprintf("save failed: %v", d.err))
	}
}
