package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

type Keymap struct {
	// Global bindings apply in every mode unless a mode binding overrides them.
	Global map[string]string `toml:"global"`
	Edit   map[string]string `toml:"edit"`
	Batch  map[string]string `toml:"batch"`
}

type EditorOptions struct {
	TabWidth        int    `toml:"tab-width"`
	HistorySize     int    `toml:"history-size"`
	UnitSpacing     int    `toml:"unit-spacing"`
	Placeholder     string `toml:"placeholder"`
	ExportName      string `toml:"export-name"`
	AutosaveDelay   string `toml:"autosave-delay"`
	DragHandle      string `toml:"drag-handle"`
	DoubleClick     string `toml:"double-click"`
	GitBranchSymbol string `toml:"git-branch-symbol"`
}

type StorageOptions struct {
	Backend  string `toml:"backend"`
	BoltPath string `toml:"bolt-path"`
	Watch    *bool  `toml:"watch"`
}

type ServerOptions struct {
	Addr string `toml:"addr"`
}

type Theme struct {
	Theme                 string `toml:"theme"`
	Foreground            string `toml:"foreground"`
	Background            string `toml:"background"`
	StatuslineForeground  string `toml:"statusline-foreground"`
	StatuslineBackground  string `toml:"statusline-background"`
	CommandlineForeground string `toml:"commandline-foreground"`
	CommandlineBackground string `toml:"commandline-background"`
	HandleForeground      string `toml:"handle-foreground"`
	EditingBackground     string `toml:"editing-background"`
	SelectionForeground   string `toml:"selection-foreground"`
	SelectionBackground   string `toml:"selection-background"`
	SelectingBackground   string `toml:"selecting-background"`
	DropForeground        string `toml:"drop-foreground"`
	PlaceholderForeground string `toml:"placeholder-foreground"`
	HeadingForeground     string `toml:"heading-foreground"`
	CodeForeground        string `toml:"code-foreground"`
	CodeBackground        string `toml:"code-background"`
	MarkForeground        string `toml:"mark-foreground"`
	MarkBackground        string `toml:"mark-background"`
	LinkForeground        string `toml:"link-foreground"`
	QuoteForeground       string `toml:"quote-foreground"`
	BranchForeground      string `toml:"branch-foreground"`
}

type Config struct {
	Editor  EditorOptions  `toml:"editor"`
	Storage StorageOptions `toml:"storage"`
	Server  ServerOptions  `toml:"server"`
	Theme   Theme          `toml:"theme"`
	Keymap  Keymap         `toml:"keymap"`
}

func Default() Config {
	watch := true
	return Config{
		Editor: EditorOptions{
			TabWidth:        4,
			HistorySize:     50,
			UnitSpacing:     1,
			Placeholder:     "Type your markdown here...",
			ExportName:      "notes.md",
			AutosaveDelay:   "300ms",
			DragHandle:      "⠿",
			DoubleClick:     "400ms",
			GitBranchSymbol: "git:",
		},
		Storage: StorageOptions{
			Backend: "file",
			Watch:   &watch,
		},
		Server: ServerOptions{
			Addr: "127.0.0.1:3000",
		},
		Theme: Theme{
			Foreground:            "#B3B1AD",
			Background:            "#0A0E14",
			StatuslineForeground:  "#B3B1AD",
			StatuslineBackground:  "#0F1419",
			CommandlineForeground: "#B3B1AD",
			CommandlineBackground: "#0F1419",
			HandleForeground:      "#3E4B59",
			EditingBackground:     "#131721",
			SelectionForeground:   "#B3B1AD",
			SelectionBackground:   "#27425A",
			SelectingBackground:   "#1B2733",
			DropForeground:        "#E6B450",
			PlaceholderForeground: "#5C6773",
			HeadingForeground:     "#FFB454",
			CodeForeground:        "#BAE67E",
			CodeBackground:        "#0F1419",
			MarkForeground:        "#000000",
			MarkBackground:        "#FFD700",
			LinkForeground:        "#59C2FF",
			QuoteForeground:       "#5C6773",
			BranchForeground:      "#E6B450",
		},
		Keymap: Keymap{
			Global: map[string]string{
				"ctrl+z":      "undo",
				"cmd+z":       "undo",
				"ctrl+y":      "redo",
				"cmd+shift+z": "redo",
				"ctrl+a":      "select_all",
				"cmd+a":       "select_all",
				"ctrl+s":      "hard_save",
				"cmd+s":       "hard_save",
				"ctrl+e":      "save_as",
				"cmd+shift+s": "save_as",
				"ctrl+o":      "open",
				"ctrl+n":      "new",
				"ctrl+c":      "copy",
				"cmd+c":       "copy",
				"ctrl+q":      "quit",
				"f1":          "help",
				"esc":         "escape",
				"enter":       "activate",
				"up":          "select_up",
				"down":        "select_down",
				"delete":      "delete_selected",
				"backspace":   "delete_selected",
			},
			Edit: map[string]string{
				"enter":       "commit_insert",
				"backspace":   "backspace",
				"delete":      "delete_char",
				"up":          "prev_unit",
				"down":        "next_unit",
				"left":        "move_left",
				"right":       "move_right",
				"shift+left":  "extend_left",
				"shift+right": "extend_right",
				"home":        "line_start",
				"end":         "line_end",
				"tab":         "indent",
				"ctrl+v":      "paste",
				"cmd+v":       "paste",
				"alt+b":       "bold",
				"cmd+b":       "bold",
				"alt+i":       "italic",
				"cmd+i":       "italic",
				"alt+u":       "underline",
				"cmd+u":       "underline",
				"alt+d":       "strike",
				"cmd+d":       "strike",
				"alt+e":       "code",
				"cmd+e":       "code",
				"alt+h":       "highlight",
				"cmd+h":       "highlight",
				"alt+k":       "link",
				"cmd+k":       "link",
				"alt+1":       "heading1",
				"alt+2":       "heading2",
				"alt+3":       "heading3",
				"alt+4":       "heading4",
				"alt+5":       "heading5",
				"alt+6":       "heading6",
				"alt+l":       "list",
				"cmd+l":       "list",
				"alt+q":       "quote",
				"alt+r":       "rule",
				"cmd+r":       "rule",
				"alt+m":       "center",
				"cmd+m":       "center",
			},
			Batch: map[string]string{
				"ctrl+s":        "batch_commit",
				"alt+enter":     "batch_commit",
				"cmd+enter":     "batch_commit",
				"alt+backspace": "batch_delete",
				"cmd+backspace": "batch_delete",
				"esc":           "batch_cancel",
				"enter":         "newline",
				"backspace":     "backspace",
				"delete":        "delete_char",
				"up":            "move_up",
				"down":          "move_down",
				"left":          "move_left",
				"right":         "move_right",
				"shift+left":    "extend_left",
				"shift+right":   "extend_right",
				"home":          "line_start",
				"end":           "line_end",
				"tab":           "indent",
				"ctrl+v":        "paste",
				"alt+b":         "bold",
				"alt+i":         "italic",
				"alt+h":         "highlight",
			},
		},
	}
}

// Duration parses a Go duration string, returning fallback when s is empty
// or malformed.
func Duration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func (o EditorOptions) AutosaveInterval() time.Duration {
	return Duration(o.AutosaveDelay, 300*time.Millisecond)
}

func (o EditorOptions) DoubleClickInterval() time.Duration {
	return Duration(o.DoubleClick, 400*time.Millisecond)
}

// WatchEnabled reports whether external changes to the file are watched.
func (o StorageOptions) WatchEnabled() bool {
	return o.Watch == nil || *o.Watch
}

// ResolveBoltPath returns the configured database path or the default under
// the state directory.
func (o StorageOptions) ResolveBoltPath() (string, error) {
	if o.BoltPath != "" {
		return o.BoltPath, nil
	}
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "notes.db"), nil
}

func Load() (Config, error) {
	cfg := Default()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	var userCfg Config
	if _, err := toml.Decode(string(data), &userCfg); err != nil {
		return cfg, err
	}

	if userCfg.Editor.TabWidth > 0 {
		cfg.Editor.TabWidth = userCfg.Editor.TabWidth
	}
	if userCfg.Editor.HistorySize > 0 {
		cfg.Editor.HistorySize = userCfg.Editor.HistorySize
	}
	if userCfg.Editor.UnitSpacing > 0 {
		cfg.Editor.UnitSpacing = userCfg.Editor.UnitSpacing
	}
	mergeString(&cfg.Editor.Placeholder, userCfg.Editor.Placeholder)
	mergeString(&cfg.Editor.ExportName, userCfg.Editor.ExportName)
	mergeString(&cfg.Editor.AutosaveDelay, userCfg.Editor.AutosaveDelay)
	mergeString(&cfg.Editor.DragHandle, userCfg.Editor.DragHandle)
	mergeString(&cfg.Editor.DoubleClick, userCfg.Editor.DoubleClick)
	mergeString(&cfg.Editor.GitBranchSymbol, userCfg.Editor.GitBranchSymbol)

	mergeString(&cfg.Storage.Backend, userCfg.Storage.Backend)
	mergeString(&cfg.Storage.BoltPath, userCfg.Storage.BoltPath)
	if userCfg.Storage.Watch != nil {
		cfg.Storage.Watch = userCfg.Storage.Watch
	}
	mergeString(&cfg.Server.Addr, userCfg.Server.Addr)

	if userCfg.Theme.Theme != "" {
		cfg.Theme.Theme = userCfg.Theme.Theme
	}
	if cfg.Theme.Theme != "" {
		theme, err := LoadTheme(cfg.Theme.Theme)
		if err != nil {
			return cfg, err
		}
		mergeTheme(&cfg.Theme, theme)
	}
	mergeTheme(&cfg.Theme, userCfg.Theme)

	mergeKeys(cfg.Keymap.Global, userCfg.Keymap.Global)
	mergeKeys(cfg.Keymap.Edit, userCfg.Keymap.Edit)
	mergeKeys(cfg.Keymap.Batch, userCfg.Keymap.Batch)

	return cfg, nil
}

func mergeString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func mergeKeys(dst, src map[string]string) {
	for k, v := range src {
		dst[k] = v
	}
}

func mergeTheme(dst *Theme, src Theme) {
	mergeString(&dst.Foreground, src.Foreground)
	mergeString(&dst.Background, src.Background)
	mergeString(&dst.StatuslineForeground, src.StatuslineForeground)
	mergeString(&dst.StatuslineBackground, src.StatuslineBackground)
	mergeString(&dst.CommandlineForeground, src.CommandlineForeground)
	mergeString(&dst.CommandlineBackground, src.CommandlineBackground)
	mergeString(&dst.HandleForeground, src.HandleForeground)
	mergeString(&dst.EditingBackground, src.EditingBackground)
	mergeString(&dst.SelectionForeground, src.SelectionForeground)
	mergeString(&dst.SelectionBackground, src.SelectionBackground)
	mergeString(&dst.SelectingBackground, src.SelectingBackground)
	mergeString(&dst.DropForeground, src.DropForeground)
	mergeString(&dst.PlaceholderForeground, src.PlaceholderForeground)
	mergeString(&dst.HeadingForeground, src.HeadingForeground)
	mergeString(&dst.CodeForeground, src.CodeForeground)
	mergeString(&dst.CodeBackground, src.CodeBackground)
	mergeString(&dst.MarkForeground, src.MarkForeground)
	mergeString(&dst.MarkBackground, src.MarkBackground)
	mergeString(&dst.LinkForeground, src.LinkForeground)
	mergeString(&dst.QuoteForeground, src.QuoteForeground)
	mergeString(&dst.BranchForeground, src.BranchForeground)
}

func ThemePath(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "theme", name+".toml"), nil
}

// LoadTheme reads theme/<name>.toml, either as a plain table or wrapped in
// a [theme] table.
func LoadTheme(name string) (Theme, error) {
	path, err := ThemePath(name)
	if err != nil {
		return Theme{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, err
	}
	var wrap struct {
		Theme *Theme `toml:"theme"`
	}
	if _, err := toml.Decode(string(data), &wrap); err == nil && wrap.Theme != nil {
		return *wrap.Theme, nil
	}
	var t Theme
	if _, err := toml.Decode(string(data), &t); err != nil {
		return Theme{}, err
	}
	return t, nil
}

func ConfigDir() (string, error) {
	if v := os.Getenv("JOTDOWN_CONFIG_HOME"); v != "" {
		return filepath.Clean(v), nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "jotdown"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "jotdown"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// StateDir is where per-user state such as sessions and the bolt database
// live.
func StateDir() (string, error) {
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return filepath.Join(v, "jotdown"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "jotdown"), nil
}
